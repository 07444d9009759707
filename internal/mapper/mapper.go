// Package mapper converts DIGIPIN geometry into H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/digipin/internal/core/model"
	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

type Interface interface {
	CellForPoint(c digipin.Coordinate, res int) (string, error)
	CellsForBBox(bb digipin.BBox, res int) (model.Cells, error)
}
