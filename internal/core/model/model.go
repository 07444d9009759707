// Package model defines core domain types shared across the service.
package model

import "github.com/mohammed-shakir/digipin/pkg/digipin"

type Cells []string

// H3 carries the H3 view of a decoded area.
type H3 struct {
	Res    int    `json:"res"`
	Center string `json:"center"`
	Cover  Cells  `json:"cover"`
}

type EncodeResult struct {
	Digipin string  `json:"digipin"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	H3      *H3     `json:"h3,omitempty"`
}

type DecodeResult struct {
	Digipin     string             `json:"digipin"`
	BoundingBox digipin.BBox       `json:"bounding_box"`
	Center      digipin.Coordinate `json:"center"`
	H3          *H3                `json:"h3,omitempty"`
}

const (
	H3Off     = -1
	H3Default = -2 // resolved to the service's configured resolution
)

// LookupOptions are per-request extras. H3Res == H3Off disables the H3 view.
type LookupOptions struct {
	H3Res int
}

func NoExtras() LookupOptions { return LookupOptions{H3Res: H3Off} }

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
