package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

// Point is one workload location.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// encodeQuery and decodeQuery build the request for either endpoint. The
// decode side uses the point's code so both paths hit the same areas.
func (p Point) encodeQuery() url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', 6, 64))
	return q
}

func (p Point) decodeQuery() (url.Values, error) {
	code, err := digipin.Encode(p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("code", code)
	return q, nil
}

// creates a mix of "hot" points near a few cities and "cold" points spread
// over the whole DIGIPIN region.
func makePoints(count int, r *rand.Rand) []Point {
	centers := []Point{
		{ID: "delhi", Lat: 28.6139, Lon: 77.2090},
		{ID: "mumbai", Lat: 19.0760, Lon: 72.8777},
		{ID: "bengaluru", Lat: 12.9716, Lon: 77.5946},
		{ID: "kolkata", Lat: 22.5726, Lon: 88.3639},
	}
	points := make([]Point, 0, count)

	hotCount := int(math.Max(8, float64(count/4)))
	for i := 0; i < hotCount && len(points) < count; i++ {
		c := centers[i%len(centers)]
		dLat, dLon := (r.Float64()-0.5)*0.02, (r.Float64()-0.5)*0.02
		points = append(points, Point{ID: fmt.Sprintf("%s-%d", c.ID, i), Lat: c.Lat + dLat, Lon: c.Lon + dLon})
	}

	root := digipin.Root
	for len(points) < count {
		lat := root.MinLat + r.Float64()*(root.MaxLat-root.MinLat)
		lon := root.MinLon + r.Float64()*(root.MaxLon-root.MinLon)
		points = append(points, Point{ID: fmt.Sprintf("cold-%d", len(points)), Lat: lat, Lon: lon})
	}
	return points
}

// loadPointsCSV reads an id,lat,lon file. Rows outside the DIGIPIN region
// are skipped.
func loadPointsCSV(path string) ([]Point, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open points: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readPoints(f)
}

func readPoints(in io.Reader) ([]Point, error) {
	r := csv.NewReader(in)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idIdx, okID := colIdx["id"]
	latIdx, okLat := colIdx["lat"]
	lonIdx, okLon := colIdx["lon"]
	if !okID || !okLat || !okLon {
		return nil, fmt.Errorf("points csv: expected columns id,lat,lon; got %v", header)
	}

	var out []Point
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		id := strings.TrimSpace(rec[idIdx])
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(rec[lonIdx]), 64)
		if id == "" || errLat != nil || errLon != nil {
			continue
		}
		if !digipin.Root.Contains(digipin.Coordinate{Lat: lat, Lon: lon}) {
			continue
		}
		out = append(out, Point{ID: id, Lat: lat, Lon: lon})
	}
	return out, nil
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
