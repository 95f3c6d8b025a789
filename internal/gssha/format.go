package gssha

import (
	"math"
	"strconv"
)

// FormatValue renders a stored value for serialization: replacement
// parameters substitute their names, everything else is written with six
// decimal places. Values that cannot be rendered in the fixed format (NaN,
// infinities) degrade to Go's shortest representation rather than failing
// the write; callers surface that through a diagnostic via FormatSix.
func FormatValue(v float64, params *ReplaceParams) string {
	if s, ok := params.WriteValue(v); ok {
		return s
	}
	s, _ := FormatSix(v)
	return s
}

// FormatSix formats v with six decimal places. ok is false when v has no
// finite fixed-point rendering; the raw representation is returned instead
// so partial output stays usable.
func FormatSix(v float64) (s string, ok bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64), false
	}
	return strconv.FormatFloat(v, 'f', 6, 64), true
}

// FormatCoord renders a coordinate with the fewest digits that survive a
// round trip, always keeping at least one fractional digit (10 -> "10.0").
func FormatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}
