// Package keys builds cache keys for lookup results.
package keys

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const prefix = "digipin:v1"

// EncodeKey keys an encode result by its exact input coordinate. Rounding
// is not safe here: two points straddling a grid line would share a key.
func EncodeKey(lat, lon float64, h3Res int) string {
	c := strconv.FormatFloat(lat, 'g', -1, 64) + "," +
		strconv.FormatFloat(lon, 'g', -1, 64)
	return fmt.Sprintf("%s:enc:%s:h3=%d:f=%016x", prefix, c, h3Res, xxhash.Sum64String(c))
}

// DecodeKey keys a decode result by its normalised (bare, upper-case) code.
func DecodeKey(code string, h3Res int) string {
	return fmt.Sprintf("%s:dec:%s:h3=%d", prefix, code, h3Res)
}

// AreaKey is the hotness key for a code: its first six symbols, a cell of
// roughly one kilometre.
func AreaKey(code string) string {
	if len(code) < 6 {
		return code
	}
	return code[:6]
}
