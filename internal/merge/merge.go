// Package merge links a component against what it requires. For every
// edge in a file's requires table it flows the dependency's export type
// into the variables waiting at the request sites: checked dependencies
// contribute their real exports, resources a synthesized type, library
// declarations their declared surface, unchecked modules a dynamic
// default. Linking is purely additive; it creates bounds and diagnostics,
// never removes or rewrites existing graph state.
package merge

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/builtins"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/requires"
	"github.com/weftlang/weft/internal/signature"
	"github.com/weftlang/weft/internal/typegraph"
)

// File pairs one checked file with what it requires.
type File struct {
	Ctx  *typegraph.Context
	Reqs *requires.Table
}

// Component is the unit of linking: a set of files sharing one graph, so
// recursion between them stays inside a single arena. Files are linked in
// the order they were added.
type Component struct {
	G     *typegraph.Graph
	files []*File
	byKey map[string]*File
}

// NewComponent returns an empty component over g.
func NewComponent(g *typegraph.Graph) *Component {
	return &Component{G: g, byKey: make(map[string]*File)}
}

// Add registers a file under its context's file key. Two files with the
// same key is a module-resolution bug, not a user error.
func (c *Component) Add(f *File) error {
	key := f.Ctx.File
	if _, dup := c.byKey[key]; dup {
		return errors.Errorf("merge: component already has a file for %q", key)
	}
	c.byKey[key] = f
	c.files = append(c.files, f)
	return nil
}

// Files returns the component's files in addition order.
func (c *Component) Files() []*File { return c.files }

// File looks a member file up by key.
func (c *Component) File(key string) (*File, bool) {
	f, ok := c.byKey[key]
	return f, ok
}

// Has reports whether key names a file of this component.
func (c *Component) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Linker links one component against its dependency signatures and the
// library snapshot.
type Linker struct {
	comp *Component
	deps map[string]*signature.Signature
	lib  *builtins.Snapshot
	log  *slog.Logger
}

// NewLinker returns a linker for comp. deps holds the published
// signatures of dependency components keyed by module; lib is the frozen
// library surface.
func NewLinker(comp *Component, deps map[string]*signature.Signature, lib *builtins.Snapshot, log *slog.Logger) *Linker {
	if log == nil {
		log = slog.Default()
	}
	return &Linker{comp: comp, deps: deps, lib: lib, log: log}
}

// Link walks every file's requires table and flows a type into each
// request site. User-facing failures (a module the library never declared,
// an import of internal library space) become diagnostics on the
// requesting file's context and linking continues. The returned error is
// reserved for invariant violations: a bound landing on a frozen variable,
// an impl edge whose dependency was never provided, a published signature
// with an open variable. Those mean an earlier phase lied and the
// component's results cannot be trusted.
func (l *Linker) Link() error {
	for _, f := range l.comp.files {
		for _, key := range f.Reqs.Keys() {
			e, _ := f.Reqs.Edge(key)
			if err := l.linkEdge(f, e); err != nil {
				return errors.Wrapf(err, "linking %q in %s", key, f.Ctx.File)
			}
		}
	}
	return nil
}

func (l *Linker) linkEdge(f *File, e *requires.Edge) error {
	switch c := e.Class.(type) {
	case requires.Impl:
		return l.linkImpl(f, e, c)
	case requires.Resource:
		return l.flow(f, e, l.resourceExport(c.Ext))
	case requires.Decl:
		return l.linkDecl(f, e, c)
	case requires.Unchecked:
		return l.linkUnchecked(f, e, c)
	default:
		return errors.Errorf("merge: unknown classification %T", e.Class)
	}
}

func (l *Linker) linkImpl(f *File, e *requires.Edge, c requires.Impl) error {
	if dep, ok := l.comp.File(c.Module); ok {
		exp, found := dep.Ctx.Export(c.Module)
		if !found {
			l.missingExport(f, e, c.Module)
			return l.flow(f, e, typegraph.Dyn{Origin: typegraph.OriginUnsound})
		}
		return l.flow(f, e, exp)
	}

	sig, ok := l.deps[c.Module]
	if !ok {
		return errors.Errorf("merge: impl dependency %q has no published signature", c.Module)
	}
	exp, found := sig.Export(c.Module)
	if !found {
		l.missingExport(f, e, c.Module)
		return l.flow(f, e, typegraph.Dyn{Origin: typegraph.OriginUnsound})
	}
	grafted, err := typegraph.Graft(l.comp.G, sig.G, exp)
	if err != nil {
		return errors.Wrapf(err, "grafting signature of %q", c.Module)
	}
	return l.flow(f, e, grafted)
}

func (l *Linker) linkDecl(f *File, e *requires.Edge, c requires.Decl) error {
	if strings.HasPrefix(c.Module, config.InternalModulePrefix) {
		for _, site := range e.Sites() {
			f.Ctx.Diags.Add(diagnostics.New(diagnostics.CodeInternalModule, site.Span,
				"cannot import internal module %q", c.Module).WithSeverity(diagnostics.Error))
		}
		// No flow; the site variables resolve to the unsound sentinel.
		return nil
	}

	decl, found := l.lib.Lookup(c.Module)
	if !found {
		for _, site := range e.Sites() {
			f.Ctx.Diags.Add(diagnostics.New(diagnostics.CodeMissingLibrary, site.Span,
				"library module %q is not declared", c.Module).WithSeverity(diagnostics.Error))
		}
		return l.flow(f, e, typegraph.Dyn{Origin: typegraph.OriginUnsound})
	}
	grafted, err := typegraph.Graft(l.comp.G, l.lib.Graph(), decl)
	if err != nil {
		return errors.Wrapf(err, "grafting library declaration %q", c.Module)
	}
	return l.flow(f, e, grafted)
}

// linkUnchecked prefers a library declaration when one exists: an
// unchecked module is superseded by a checked definition of it, never
// assumed typed. Without one the export is dynamic, silently; importing
// unchecked code is not itself a finding.
func (l *Linker) linkUnchecked(f *File, e *requires.Edge, c requires.Unchecked) error {
	if decl, found := l.lib.Lookup(c.Module); found {
		grafted, err := typegraph.Graft(l.comp.G, l.lib.Graph(), decl)
		if err != nil {
			return errors.Wrapf(err, "grafting library declaration %q", c.Module)
		}
		return l.flow(f, e, grafted)
	}
	return l.flow(f, e, typegraph.Dyn{Origin: typegraph.OriginUntyped})
}

// resourceExport synthesizes a resource module's export from its
// extension alone. Resource files are never parsed, so recomputing this
// per importer is both correct and cheap.
func (l *Linker) resourceExport(ext string) typegraph.Type {
	kind, known := config.ResourceExports[ext]
	if !known {
		return typegraph.Dyn{Origin: typegraph.OriginUntyped}
	}
	switch kind {
	case config.ResourceObject:
		return typegraph.Obj{Props: l.comp.G.NewProps(nil), Exact: true}
	case config.ResourceString:
		return typegraph.Prim{Kind: typegraph.PrimString}
	default:
		return typegraph.Dyn{Origin: typegraph.OriginUntyped}
	}
}

func (l *Linker) flow(f *File, e *requires.Edge, t typegraph.Type) error {
	sites := e.Sites()
	for _, site := range sites {
		if err := l.comp.G.AddLower(site.Var, t); err != nil {
			return err
		}
	}
	l.log.Debug("linked require",
		"file", f.Ctx.File,
		"key", e.Key,
		"class", e.Class.String(),
		"sites", len(sites),
	)
	return nil
}

func (l *Linker) missingExport(f *File, e *requires.Edge, module string) {
	for _, site := range e.Sites() {
		f.Ctx.Diags.Add(diagnostics.New(diagnostics.CodeMissingExport, site.Span,
			"module %q has no export", module).WithSeverity(diagnostics.Error))
	}
}
