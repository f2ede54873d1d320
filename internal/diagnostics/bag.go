package diagnostics

import (
	"sort"
	"strings"
	"sync"

	"github.com/weftlang/weft/internal/source"
)

// Bag collects the diagnostics of one context. Consumers must not assume any
// ordering between the checks that filled it; Sorted gives a stable view for
// presentation.
type Bag struct {
	mu    sync.Mutex
	diags []*Diagnostic
	errs  int
}

func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic. Nil diagnostics are ignored so checks can return
// their findings unconditionally.
func (b *Bag) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags = append(b.diags, d)
	if d.Severity == Error {
		b.errs++
	}
}

// AddAll appends every diagnostic in ds.
func (b *Bag) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.diags)
}

func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs > 0
}

// Diagnostics returns a copy in insertion order.
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}

// Sorted returns a copy ordered by span, then code, then message.
func (b *Bag) Sorted() []*Diagnostic {
	out := b.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool {
		if c := source.Compare(out[i].Span, out[j].Span); c != 0 {
			return c < 0
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return strings.Compare(out[i].Message, out[j].Message) < 0
	})
	return out
}
