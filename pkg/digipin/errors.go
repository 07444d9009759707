package digipin

import (
	"errors"
	"fmt"
)

var (
	ErrLatitudeOutOfRange  = errors.New("latitude out of range")
	ErrLongitudeOutOfRange = errors.New("longitude out of range")
	ErrInvalidLength       = errors.New("invalid digipin length")
	ErrInvalidSymbol       = errors.New("invalid digipin symbol")
)

// RangeError reports a coordinate outside Root.
type RangeError struct {
	Value    float64
	Min, Max float64
	Err      error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %g not in [%g, %g]", e.Err, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return e.Err }

// CodeError reports a malformed code. Symbol is set for ErrInvalidSymbol,
// Length for ErrInvalidLength.
type CodeError struct {
	Code   string
	Symbol rune
	Length int
	Err    error
}

func (e *CodeError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInvalidSymbol):
		return fmt.Sprintf("%v: %q", e.Err, e.Symbol)
	case errors.Is(e.Err, ErrInvalidLength):
		return fmt.Sprintf("%v: got %d symbols, want %d", e.Err, e.Length, Levels)
	default:
		return e.Err.Error()
	}
}

func (e *CodeError) Unwrap() error { return e.Err }

// Kind returns a stable label for err, suitable for logs and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLatitudeOutOfRange):
		return "latitude_out_of_range"
	case errors.Is(err, ErrLongitudeOutOfRange):
		return "longitude_out_of_range"
	case errors.Is(err, ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid_symbol"
	default:
		return "unknown"
	}
}

// IsInputError reports whether err was caused by bad caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrLatitudeOutOfRange) ||
		errors.Is(err, ErrLongitudeOutOfRange) ||
		errors.Is(err, ErrInvalidLength) ||
		errors.Is(err, ErrInvalidSymbol)
}
