package digipin

import (
	"strings"
	"unicode/utf8"
)

// Decode returns the cell a code refers to. Separators are optional and
// case is ignored.
func Decode(code string) (Area, error) {
	norm, err := Normalize(code)
	if err != nil {
		return Area{}, err
	}

	box := Root
	for _, s := range norm {
		row, col, err := Position(s)
		if err != nil {
			return Area{}, &CodeError{Code: code, Symbol: s, Err: ErrInvalidSymbol}
		}
		box = narrow(box, row, col)
	}
	return Area{Box: box, Center: box.Center()}, nil
}

// narrow returns the sub-cell (row, col) of box. The explicit float64
// conversions keep the products from being fused, so results match on
// every architecture.
func narrow(box BBox, row, col int) BBox {
	latStep := (box.MaxLat - box.MinLat) / gridSize
	lonStep := (box.MaxLon - box.MinLon) / gridSize

	maxLat := box.MaxLat - float64(float64(row)*latStep)
	minLat := maxLat - latStep
	minLon := box.MinLon + float64(float64(col)*lonStep)
	maxLon := minLon + lonStep

	return BBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
}

// Normalize strips separators, upper-cases the code and checks its length.
// Symbols are not validated.
func Normalize(code string) (string, error) {
	s := strings.ToUpper(strings.ReplaceAll(code, string(Separator), ""))
	if n := utf8.RuneCountInString(s); n != Levels {
		return "", &CodeError{Code: code, Length: n, Err: ErrInvalidLength}
	}
	return s, nil
}

// Format returns the XXX-XXX-XXXX form of a valid code.
func Format(code string) (string, error) {
	s, err := Normalize(code)
	if err != nil {
		return "", err
	}
	for _, r := range s {
		if _, _, err := Position(r); err != nil {
			return "", &CodeError{Code: code, Symbol: r, Err: ErrInvalidSymbol}
		}
	}
	return s[:3] + string(Separator) + s[3:6] + string(Separator) + s[6:], nil
}

// Valid reports whether code decodes without error.
func Valid(code string) bool {
	_, err := Format(code)
	return err == nil
}
