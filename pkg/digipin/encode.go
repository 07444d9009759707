package digipin

import "strings"

// Encode returns the formatted code (XXX-XXX-XXXX) of the level-10 cell
// containing lat, lon. Latitude is validated before longitude.
//
// Cell edges are half-open: a point on an inner grid line belongs to the
// row above it and the column to its right. Two edge cases follow the
// codes already in circulation and must not change:
//   - lat equal to the top edge of the working box matches no row, so row 0
//     is used and the box moves to the window below the box.
//   - lon equal to the right edge of the working box selects the last column.
func Encode(lat, lon float64) (string, error) {
	if !(Root.MinLat <= lat && lat <= Root.MaxLat) {
		return "", &RangeError{Value: lat, Min: Root.MinLat, Max: Root.MaxLat, Err: ErrLatitudeOutOfRange}
	}
	if !(Root.MinLon <= lon && lon <= Root.MaxLon) {
		return "", &RangeError{Value: lon, Min: Root.MinLon, Max: Root.MaxLon, Err: ErrLongitudeOutOfRange}
	}

	var b strings.Builder
	b.Grow(Levels + 2)

	box := Root
	for level := 1; level <= Levels; level++ {
		row, minLat, maxLat := pickRow(box, lat)
		col, minLon, maxLon := pickColumn(box, lon)

		b.WriteByte(symbols[row][col])
		if level == 3 || level == 6 {
			b.WriteByte(Separator)
		}

		box = BBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
	}
	return b.String(), nil
}

// pickRow scans rows from north to south and returns the first whose
// [lo, hi) window holds lat, along with that window. When none does it
// returns row 0 and the window one step below the box.
func pickRow(box BBox, lat float64) (row int, lo, hi float64) {
	step := (box.MaxLat - box.MinLat) / gridSize
	hi = box.MaxLat
	lo = hi - step
	for r := 0; r < gridSize; r++ {
		if lo <= lat && lat < hi {
			return r, lo, hi
		}
		hi = lo
		lo = hi - step
	}
	return 0, lo, hi
}

// pickColumn scans columns from west to east. The window only advances while
// another full step fits before the east edge; otherwise the current column
// is taken.
func pickColumn(box BBox, lon float64) (col int, lo, hi float64) {
	step := (box.MaxLon - box.MinLon) / gridSize
	lo = box.MinLon
	hi = lo + step
	for c := 0; c < gridSize; c++ {
		if lo <= lon && lon < hi {
			return c, lo, hi
		}
		if lo+step < box.MaxLon {
			lo = hi
			hi = lo + step
		} else {
			col = c
		}
	}
	return col, lo, hi
}
