// Package digipin encodes coordinates inside the Indian postal region into
// 10-symbol DIGIPIN codes and decodes them back into their grid cell.
//
// The region is divided into a 4x4 grid, and each cell is divided again,
// ten levels deep. Each level contributes one symbol from a fixed table.
// Encode and Decode are pure and safe for concurrent use.
package digipin

import "fmt"

const (
	// Levels is the number of subdivision steps, and the number of symbols in a code.
	Levels = 10

	// Separator groups a formatted code as XXX-XXX-XXXX.
	Separator = '-'

	gridSize = 4
)

type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Root is the region every code is relative to.
var Root = BBox{MinLat: 2.5, MaxLat: 38.5, MinLon: 63.5, MaxLon: 99.5}

// Contains reports whether c lies inside b, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return b.MinLat <= c.Lat && c.Lat <= b.MaxLat &&
		b.MinLon <= c.Lon && c.Lon <= b.MaxLon
}

func (b BBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

func (b BBox) String() string {
	return fmt.Sprintf("%.8f,%.8f,%.8f,%.8f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// Area is the result of decoding a code.
type Area struct {
	Box    BBox       `json:"bounding_box"`
	Center Coordinate `json:"center"`
}
