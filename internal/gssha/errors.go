package gssha

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks fatal grammar violations: a required token or
// field absent from its expected position, an orphan line before the first
// keyword, a layered table with a broken layer count. Parsers return it
// (wrapped with position context) and abort the current file.
var ErrMalformedInput = errors.New("malformed input")

// Malformedf wraps ErrMalformedInput with formatted context.
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
