package gssha

import (
	"strconv"
	"strings"
)

// ReplaceNoValue is stored when a bracketed token matches no declared
// target parameter. It is written back as the literal [NO_VARIABLE].
const ReplaceNoValue = -999999

// NoVariable is the literal emitted for ReplaceNoValue on the write path.
const NoVariable = "[NO_VARIABLE]"

// TargetParameter is one named replacement parameter. IDs are 1-based and
// assigned in declaration order by the replacement parameter file.
type TargetParameter struct {
	ID     int
	Name   string
	Format string
}

// ReplaceParams is the read-only set of replacement parameters shared by
// every read/write call within one conversion run. A nil *ReplaceParams
// disables substitution entirely.
type ReplaceParams struct {
	Targets []TargetParameter
}

// ReadValue resolves a raw field token before numeric parsing. Bracketed
// tokens ([NAME]) become the negated id of the first target whose name
// matches, or ReplaceNoValue when nothing matches. All other tokens pass
// through untouched.
func (p *ReplaceParams) ReadValue(token string) string {
	if p == nil || !strings.ContainsAny(token, "[]") {
		return token
	}
	name := strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	for _, t := range p.Targets {
		if t.Name == name {
			return strconv.Itoa(-t.ID)
		}
	}
	return strconv.Itoa(ReplaceNoValue)
}

// WriteValue resolves a stored numeric value back to its parameter name
// before formatting. It reports ok=false when the value is an ordinary
// number that the caller should format itself.
func (p *ReplaceParams) WriteValue(v float64) (string, bool) {
	if p == nil {
		return "", false
	}
	if v == ReplaceNoValue {
		return NoVariable, true
	}
	if v < 0 && v == float64(int(v)) {
		id := -int(v)
		for _, t := range p.Targets {
			if t.ID == id {
				return t.Name, true
			}
		}
	}
	return "", false
}

// ParseFloat applies ReadValue and then parses the token as a float64.
func ParseFloat(token string, params *ReplaceParams) (float64, error) {
	return strconv.ParseFloat(params.ReadValue(token), 64)
}
