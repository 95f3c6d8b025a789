package gssha

import "fmt"

// DiagLevel classifies a diagnostic.
type DiagLevel int

const (
	// DiagInfo reports benign skips, e.g. an empty table that is declared
	// but carries no rows.
	DiagInfo DiagLevel = iota
	// DiagWarn reports recoverable problems, e.g. a mapping table that
	// references an undeclared index map and is skipped.
	DiagWarn
)

func (l DiagLevel) String() string {
	if l == DiagWarn {
		return "warning"
	}
	return "info"
}

// Diagnostic is one non-fatal finding collected during a parse or write.
type Diagnostic struct {
	Level   DiagLevel
	Message string
}

// Diagnostics accumulates findings. Parsers return it instead of logging so
// they stay pure; the caller decides what to do with the findings.
type Diagnostics []Diagnostic

// Infof appends an informational diagnostic.
func (d *Diagnostics) Infof(format string, args ...any) {
	*d = append(*d, Diagnostic{Level: DiagInfo, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning diagnostic.
func (d *Diagnostics) Warnf(format string, args ...any) {
	*d = append(*d, Diagnostic{Level: DiagWarn, Message: fmt.Sprintf(format, args...)})
}
