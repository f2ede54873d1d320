package diagnostics

import (
	"fmt"

	"github.com/weftlang/weft/internal/source"
)

// Severity ranks a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is one finding attached to a context. Soundness checks produce
// these; they never abort the run.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     source.Span
	Notes    []string
}

// New creates a warning-level diagnostic; the suite runner adjusts severity
// from the lint settings afterwards.
func New(code string, span source.Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// WithNote appends an explanatory note and returns the diagnostic.
func (d *Diagnostic) WithNote(format string, args ...interface{}) *Diagnostic {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
	return d
}

// WithSeverity overrides the severity and returns the diagnostic.
func (d *Diagnostic) WithSeverity(s Severity) *Diagnostic {
	d.Severity = s
	return d
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span, d.Severity, d.Message, d.Code)
}
