package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiDim    = "\x1b[2m"
)

// Emitter renders diagnostics for humans. Color is used only when the
// destination is a terminal, unless forced off.
type Emitter struct {
	w     io.Writer
	color bool
}

// NewEmitter builds an emitter for w, auto-detecting color support.
func NewEmitter(w io.Writer) *Emitter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Emitter{w: w, color: color}
}

// SetColor forces color on or off.
func (e *Emitter) SetColor(on bool) { e.color = on }

func (e *Emitter) paint(code, s string) string {
	if !e.color {
		return s
	}
	return code + s + ansiReset
}

// Emit writes one diagnostic.
func (e *Emitter) Emit(d *Diagnostic) {
	sev := d.Severity.String()
	switch d.Severity {
	case Error:
		sev = e.paint(ansiRed, sev)
	case Warning:
		sev = e.paint(ansiYellow, sev)
	default:
		sev = e.paint(ansiCyan, sev)
	}
	fmt.Fprintf(e.w, "%s: %s: %s %s\n", d.Span, sev, d.Message, e.paint(ansiDim, "["+d.Code+"]"))
	for _, n := range d.Notes {
		fmt.Fprintf(e.w, "  %s %s\n", e.paint(ansiDim, "note:"), n)
	}
}

// EmitAll writes every diagnostic in the bag in stable order and a summary
// line when anything was found.
func (e *Emitter) EmitAll(b *Bag) {
	ds := b.Sorted()
	var errs, warns int
	for _, d := range ds {
		e.Emit(d)
		switch d.Severity {
		case Error:
			errs++
		case Warning:
			warns++
		}
	}
	if errs+warns > 0 {
		fmt.Fprintf(e.w, "found %d error(s), %d warning(s)\n", errs, warns)
	}
}
