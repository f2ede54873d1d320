// Package requires models what a file asks for from outside itself: one
// edge per requested key, classified by what kind of thing the key turned
// out to be, with every request site recorded. The merge linker walks the
// table to decide what flows into each site's variable.
package requires

import (
	"path"
	"sort"
	"strings"

	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

// Class is the closed set of require classifications.
type Class interface {
	isClass()
	String() string
}

// Impl is a checked implementation module: its exports flow as-is.
type Impl struct{ Module string }

// Resource is a non-source file; its export is synthesized from the
// extension alone.
type Resource struct{ Ext string }

// Decl is a module resolved against the library declaration snapshot.
type Decl struct{ Module string }

// Unchecked is a module that is not checked; a library definition
// supersedes it when one exists, otherwise its export is dynamic with an
// untyped origin.
type Unchecked struct{ Module string }

func (Impl) isClass()      {}
func (Resource) isClass()  {}
func (Decl) isClass()      {}
func (Unchecked) isClass() {}

func (c Impl) String() string      { return "impl:" + c.Module }
func (c Resource) String() string  { return "resource:" + c.Ext }
func (c Decl) String() string      { return "decl:" + c.Module }
func (c Unchecked) String() string { return "unchecked:" + c.Module }

// Site is one request site: where the require appeared and the variable
// allocated to receive what it resolves to.
type Site struct {
	Span source.Span
	Var  typegraph.VarID
}

// Edge is the union of all requests for one key.
type Edge struct {
	Key   string
	Class Class
	sites map[source.Span]typegraph.VarID
}

// Sites returns the request sites ordered by span.
func (e *Edge) Sites() []Site {
	out := make([]Site, 0, len(e.sites))
	for sp, v := range e.sites {
		out = append(out, Site{Span: sp, Var: v})
	}
	sort.Slice(out, func(i, j int) bool { return source.Compare(out[i].Span, out[j].Span) < 0 })
	return out
}

// NumSites reports how many distinct spans requested the key.
func (e *Edge) NumSites() int { return len(e.sites) }

// Table accumulates the requires of one file.
type Table struct {
	order []string
	edges map[string]*Edge
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{edges: make(map[string]*Edge)}
}

// Add records a request for key at span, bound to v. Requests for the same
// key union their sites; the classification of the first request sticks,
// since a key cannot change what it is between two imports of it. A second
// request at an identical span is a no-op.
func (t *Table) Add(key string, class Class, span source.Span, v typegraph.VarID) *Edge {
	e, ok := t.edges[key]
	if !ok {
		e = &Edge{Key: key, Class: class, sites: make(map[source.Span]typegraph.VarID)}
		t.edges[key] = e
		t.order = append(t.order, key)
	}
	if _, seen := e.sites[span]; !seen {
		e.sites[span] = v
	}
	return e
}

// Edge looks up the edge for a key.
func (t *Table) Edge(key string) (*Edge, bool) {
	e, ok := t.edges[key]
	return e, ok
}

// Keys returns the required keys in first-request order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len reports how many distinct keys the table holds.
func (t *Table) Len() int { return len(t.edges) }

// ClassifyOpts carries the workspace knowledge classification needs.
type ClassifyOpts struct {
	// IsChecked reports whether a key names a checked implementation file.
	IsChecked func(key string) bool
	// HasDecl reports whether the library snapshot declares the module.
	HasDecl func(key string) bool
}

// Classify decides what a required key is. Internal-prefixed keys are
// library space no matter what else they look like; the linker's
// declaration arm rejects them. Otherwise a non-source file extension
// makes a resource, then checked implementations, then library
// declarations; anything left is unchecked.
func Classify(key string, opts ClassifyOpts) Class {
	if strings.HasPrefix(key, config.InternalModulePrefix) {
		return Decl{Module: key}
	}
	if ext := path.Ext(key); ext != "" && !isSourceExt(ext) {
		return Resource{Ext: ext}
	}
	if opts.IsChecked != nil && opts.IsChecked(key) {
		return Impl{Module: key}
	}
	if opts.HasDecl != nil && opts.HasDecl(key) {
		return Decl{Module: key}
	}
	return Unchecked{Module: key}
}

func isSourceExt(ext string) bool {
	for _, e := range config.SourceFileExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
