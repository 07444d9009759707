// Package hotness tracks how often DIGIPIN areas are looked up.
package hotness

// Interface scores areas with a decaying request count.
type Interface interface {
	// Inc records one lookup and returns the area's new score.
	Inc(area string) float64
	Score(area string) float64
	Reset(areas ...string)
}

type Scored struct {
	Area  string  `json:"area"`
	Score float64 `json:"score"`
}
