// Package builtins holds the frozen library surface the linker resolves
// declaration and unchecked requires against. Names cover both global
// values and library module keys; a lookup either finds a declared type or
// reports a miss, never an ambient default. A Snapshot is immutable: its
// graph is fully resolved before it is handed out, so importers can graft
// from it without ever seeing an open variable.
package builtins

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/typegraph"
)

// Snapshot is an immutable table of library declarations.
type Snapshot struct {
	g     *typegraph.Graph
	decls map[string]typegraph.Type
}

// Graph returns the graph the snapshot's types are addressed against.
func (s *Snapshot) Graph() *typegraph.Graph { return s.g }

// Lookup finds a declared name. The boolean is the distinguished
// not-found signal; callers decide whether a miss is a diagnostic or a
// silent dynamic default.
func (s *Snapshot) Lookup(name string) (typegraph.Type, bool) {
	t, ok := s.decls[name]
	return t, ok
}

// Has reports whether a name is declared at all.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.decls[name]
	return ok
}

// Names returns the declared names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.decls))
	for name := range s.decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder accumulates library declarations and freezes them into a
// Snapshot. Declaration types are allocated against the builder's graph.
type Builder struct {
	g     *typegraph.Graph
	decls map[string]typegraph.Type
}

// NewBuilder returns an empty builder with a fresh graph.
func NewBuilder() *Builder {
	return &Builder{
		g:     typegraph.NewGraph(),
		decls: make(map[string]typegraph.Type),
	}
}

// Graph exposes the builder's graph for allocating declaration types.
func (b *Builder) Graph() *typegraph.Graph { return b.g }

// Declare binds one library name. Redeclaring overwrites.
func (b *Builder) Declare(name string, t typegraph.Type) {
	b.decls[name] = t
}

// Snapshot freezes the builder. It fails if any declaration left an open
// variable in the graph: a library surface with unresolved variables
// cannot be grafted from and would poison every importer.
func (b *Builder) Snapshot() (*Snapshot, error) {
	for i := 0; i < b.g.NumVars(); i++ {
		if _, done := b.g.Resolved(typegraph.VarID(i)); !done {
			return nil, errors.Errorf("builtins: declaration graph has unresolved variable t%d", i)
		}
	}
	return &Snapshot{g: b.g, decls: b.decls}, nil
}
