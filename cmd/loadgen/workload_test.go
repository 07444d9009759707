package main

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

func TestMakePoints_InsideRegion(t *testing.T) {
	pts := makePoints(100, rand.New(rand.NewSource(1)))
	if len(pts) != 100 {
		t.Fatalf("len=%d", len(pts))
	}
	for _, p := range pts {
		if !digipin.Root.Contains(digipin.Coordinate{Lat: p.Lat, Lon: p.Lon}) {
			t.Fatalf("point %+v outside region", p)
		}
		if _, err := p.decodeQuery(); err != nil {
			t.Fatalf("point %+v: %v", p, err)
		}
	}
	if !strings.HasPrefix(pts[0].ID, "delhi") {
		t.Fatalf("first point should be hot, got %q", pts[0].ID)
	}
}

func TestReadPoints(t *testing.T) {
	in := "ID,Lat,Lon\na,28.6,77.2\nb,51.5,-0.1\nc,x,1\n,20,80\nd, 12.97 , 77.59 \n"
	pts, err := readPoints(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readPoints: %v", err)
	}
	if len(pts) != 2 || pts[0].ID != "a" || pts[1].ID != "d" {
		t.Fatalf("unexpected points %+v", pts)
	}

	if _, err := readPoints(strings.NewReader("id,x,y\n")); err == nil {
		t.Fatal("expected header error")
	}
}

func TestQueries(t *testing.T) {
	p := Point{Lat: 28.6139, Lon: 77.2090}
	if got := p.encodeQuery().Encode(); got != "lat=28.613900&lon=77.209000" {
		t.Fatalf("encode query %q", got)
	}
	q, err := p.decodeQuery()
	if err != nil || q.Get("code") != "39J-438-TJC7" {
		t.Fatalf("decode query %v err=%v", q, err)
	}
}

func TestPercentile(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	if got := percentile(vals, 50); got != 3 {
		t.Fatalf("p50=%v", got)
	}
	if got := percentile(vals, 0); got != 1 {
		t.Fatalf("p0=%v", got)
	}
	if got := percentile(vals, 100); got != 5 {
		t.Fatalf("p100=%v", got)
	}
	if got := percentile(vals, 95); math.Abs(got-4.8) > 1e-9 {
		t.Fatalf("p95=%v", got)
	}
	if !math.IsNaN(percentile(nil, 50)) {
		t.Fatal("empty should be NaN")
	}
}
