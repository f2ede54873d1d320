package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a 1-based line/column pair inside a file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q in the same file.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is a half-open source range inside one file. The zero value is the
// "no location" span used for synthesized nodes.
type Span struct {
	File  string
	Start Position
	End   Position
}

// At builds a zero-width span, which is enough for most diagnostics.
func At(file string, line, column int) Span {
	p := Position{Line: line, Column: column}
	return Span{File: file, Start: p, End: p}
}

func (s Span) IsZero() bool {
	return s.File == "" && s.Start.Line == 0
}

func (s Span) String() string {
	if s.IsZero() {
		return "<no location>"
	}
	return s.File + ":" + s.Start.String()
}

// Compare orders spans by file, then start position, then end position.
// Used to present diagnostics in a stable order.
func Compare(a, b Span) int {
	if a.File != b.File {
		return strings.Compare(a.File, b.File)
	}
	if a.Start != b.Start {
		if a.Start.Before(b.Start) {
			return -1
		}
		return 1
	}
	if a.End != b.End {
		if a.End.Before(b.End) {
			return -1
		}
		return 1
	}
	return 0
}

// Parse reads a "file:line:col" string back into a zero-width span.
// It is the inverse of Span.String for non-zero spans; the fixture
// archive loader uses it to validate expected-finding lines.
func Parse(s string) (Span, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return Span{}, fmt.Errorf("span %q: want file:line:col", s)
	}
	col, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return Span{}, fmt.Errorf("span %q: bad column: %v", s, err)
	}
	rest := s[:idx]
	idx = strings.LastIndex(rest, ":")
	if idx < 0 {
		return Span{}, fmt.Errorf("span %q: want file:line:col", s)
	}
	line, err := strconv.Atoi(rest[idx+1:])
	if err != nil {
		return Span{}, fmt.Errorf("span %q: bad line: %v", s, err)
	}
	return At(rest[:idx], line, col), nil
}
