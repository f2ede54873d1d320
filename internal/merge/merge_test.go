package merge

import (
	"testing"

	"github.com/weftlang/weft/internal/builtins"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/requires"
	"github.com/weftlang/weft/internal/resolver"
	"github.com/weftlang/weft/internal/signature"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

func span(file string, line int) source.Span {
	return source.At(file, line, 1)
}

func testLib(t *testing.T) *builtins.Snapshot {
	t.Helper()
	b := builtins.NewBuilder()
	g := b.Graph()
	b.Declare("loom/math", typegraph.Obj{Props: g.NewProps([]typegraph.Prop{
		{Name: "floor", Type: typegraph.Fun{Sig: g.NewSig(typegraph.CallSig{
			Scope:  g.FreshScope(),
			Params: []typegraph.Type{typegraph.Prim{Kind: typegraph.PrimNumber}},
			Return: typegraph.Prim{Kind: typegraph.PrimNumber},
		})}},
	})})
	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("building library: %v", err)
	}
	return snap
}

func TestLinkImplWithinComponent(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)

	depCtx := typegraph.NewContext("./a.loom", g)
	depCtx.SetExport("./a.loom", typegraph.Obj{Props: g.NewProps([]typegraph.Prop{
		{Name: "x", Type: typegraph.Prim{Kind: typegraph.PrimNumber}},
	})})
	if err := comp.Add(&File{Ctx: depCtx, Reqs: requires.NewTable()}); err != nil {
		t.Fatal(err)
	}

	impCtx := typegraph.NewContext("./b.loom", g)
	site := g.FreshVar(span("./b.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("./a.loom", requires.Impl{Module: "./a.loom"}, span("./b.loom", 1), site)
	if err := comp.Add(&File{Ctx: impCtx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}

	r := resolver.New(g, resolver.Quiet, nil)
	got, err := r.Force(site)
	if err != nil {
		t.Fatalf("Force: %v", err)
	}
	obj, ok := got.(typegraph.Obj)
	if !ok {
		t.Fatalf("import resolved to %s, want Obj", got)
	}
	p, ok := g.PropNamed(obj.Props, "x")
	if !ok || !typegraph.Equal(p.Type, typegraph.Prim{Kind: typegraph.PrimNumber}) {
		t.Errorf("x = %+v, want number", p)
	}
	if impCtx.Diags.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", impCtx.Diags.Diagnostics())
	}
}

func TestLinkImplAcrossComponents(t *testing.T) {
	depG := typegraph.NewGraph()
	depCtx := typegraph.NewContext("./dep.loom", depG)
	depCtx.SetExport("./dep.loom", typegraph.Obj{Props: depG.NewProps([]typegraph.Prop{
		{Name: "greet", Type: typegraph.Prim{Kind: typegraph.PrimString}},
	})})
	sig, err := signature.Reduce(depCtx, resolver.Annotate)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	g := typegraph.NewGraph()
	comp := NewComponent(g)
	impCtx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 2))
	reqs := requires.NewTable()
	reqs.Add("./dep.loom", requires.Impl{Module: "./dep.loom"}, span("./main.loom", 2), site)
	if err := comp.Add(&File{Ctx: impCtx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	deps := map[string]*signature.Signature{"./dep.loom": sig}
	if err := NewLinker(comp, deps, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}

	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(bounds))
	}
	obj, ok := bounds[0].(typegraph.Obj)
	if !ok {
		t.Fatalf("bound is %T, want Obj grafted from the signature", bounds[0])
	}
	if _, ok := g.PropNamed(obj.Props, "greet"); !ok {
		t.Error("greet lost crossing the component boundary")
	}
}

func TestLinkImplMissingSignatureIsFatal(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("./ghost.loom", requires.Impl{Module: "./ghost.loom"}, span("./main.loom", 1), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err == nil {
		t.Error("an impl edge with no dependency signature should fail linking")
	}
}

func TestLinkImplMissingExport(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)

	depCtx := typegraph.NewContext("./empty.loom", g)
	if err := comp.Add(&File{Ctx: depCtx, Reqs: requires.NewTable()}); err != nil {
		t.Fatal(err)
	}
	impCtx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 3))
	reqs := requires.NewTable()
	reqs.Add("./empty.loom", requires.Impl{Module: "./empty.loom"}, span("./main.loom", 3), site)
	if err := comp.Add(&File{Ctx: impCtx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}

	ds := impCtx.Diags.Diagnostics()
	if len(ds) != 1 || ds[0].Code != diagnostics.CodeMissingExport {
		t.Fatalf("diagnostics = %v, want one missing-export", ds)
	}
	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected sentinel bound, got %v", bounds)
	}
	if dyn, ok := bounds[0].(typegraph.Dyn); !ok || dyn.Origin != typegraph.OriginUnsound {
		t.Errorf("bound = %s, want unsound sentinel", bounds[0])
	}
}

func TestLinkResources(t *testing.T) {
	tests := []struct {
		key  string
		ext  string
		want func(t *testing.T, g *typegraph.Graph, bound typegraph.Type)
	}{
		{"./theme.css", ".css", func(t *testing.T, g *typegraph.Graph, bound typegraph.Type) {
			obj, ok := bound.(typegraph.Obj)
			if !ok || !obj.Exact {
				t.Fatalf("css import = %s, want exact object", bound)
			}
			if len(g.Props(obj.Props)) != 0 {
				t.Error("css export should have no properties")
			}
		}},
		{"./logo.png", ".png", func(t *testing.T, g *typegraph.Graph, bound typegraph.Type) {
			if !typegraph.Equal(bound, typegraph.Prim{Kind: typegraph.PrimString}) {
				t.Errorf("png import = %s, want string", bound)
			}
		}},
		{"./blob.bin", ".bin", func(t *testing.T, g *typegraph.Graph, bound typegraph.Type) {
			if dyn, ok := bound.(typegraph.Dyn); !ok || dyn.Origin != typegraph.OriginUntyped {
				t.Errorf("unknown resource = %s, want untyped sentinel", bound)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			g := typegraph.NewGraph()
			comp := NewComponent(g)
			ctx := typegraph.NewContext("./main.loom", g)
			site := g.FreshVar(span("./main.loom", 1))
			reqs := requires.NewTable()
			reqs.Add(tt.key, requires.Resource{Ext: tt.ext}, span("./main.loom", 1), site)
			if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
				t.Fatal(err)
			}
			if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
				t.Fatalf("Link: %v", err)
			}
			bounds := g.Lower(site)
			if len(bounds) != 1 {
				t.Fatalf("expected 1 bound, got %d", len(bounds))
			}
			tt.want(t, g, bounds[0])
			if ctx.Diags.Len() != 0 {
				t.Errorf("resource link should be silent, got %v", ctx.Diags.Diagnostics())
			}
		})
	}
}

func TestLinkDecl(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("loom/math", requires.Decl{Module: "loom/math"}, span("./main.loom", 1), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(bounds))
	}
	obj, ok := bounds[0].(typegraph.Obj)
	if !ok {
		t.Fatalf("bound = %T, want the declared exports object", bounds[0])
	}
	if _, ok := g.PropNamed(obj.Props, "floor"); !ok {
		t.Error("floor lost grafting the library declaration")
	}
}

func TestLinkDeclInternalModule(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 2))
	reqs := requires.NewTable()
	reqs.Add("$internal/scheduler", requires.Decl{Module: "$internal/scheduler"}, span("./main.loom", 2), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	ds := ctx.Diags.Diagnostics()
	if len(ds) != 1 || ds[0].Code != diagnostics.CodeInternalModule {
		t.Fatalf("diagnostics = %v, want one internal-module-import", ds)
	}
	if len(g.Lower(site)) != 0 {
		t.Error("internal module import must not flow a type")
	}
}

func TestLinkDeclMissingLibrary(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("loom/ghost", requires.Decl{Module: "loom/ghost"}, span("./main.loom", 1), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	ds := ctx.Diags.Diagnostics()
	if len(ds) != 1 || ds[0].Code != diagnostics.CodeMissingLibrary {
		t.Fatalf("diagnostics = %v, want one missing-library", ds)
	}
	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected sentinel bound, got %v", bounds)
	}
	if dyn, ok := bounds[0].(typegraph.Dyn); !ok || dyn.Origin != typegraph.OriginUnsound {
		t.Errorf("bound = %s, want unsound sentinel", bounds[0])
	}
}

func TestLinkUncheckedPrefersLibrary(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("loom/math", requires.Unchecked{Module: "loom/math"}, span("./main.loom", 1), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(bounds))
	}
	if _, ok := bounds[0].(typegraph.Obj); !ok {
		t.Errorf("library declaration should supersede the unchecked default, got %s", bounds[0])
	}
}

func TestLinkUncheckedWithoutLibraryIsSilentlyDynamic(t *testing.T) {
	g := typegraph.NewGraph()
	comp := NewComponent(g)
	ctx := typegraph.NewContext("./main.loom", g)
	site := g.FreshVar(span("./main.loom", 1))
	reqs := requires.NewTable()
	reqs.Add("left-pad", requires.Unchecked{Module: "left-pad"}, span("./main.loom", 1), site)
	if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
		t.Fatal(err)
	}

	if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	bounds := g.Lower(site)
	if len(bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(bounds))
	}
	if dyn, ok := bounds[0].(typegraph.Dyn); !ok || dyn.Origin != typegraph.OriginUntyped {
		t.Errorf("bound = %s, want untyped sentinel", bounds[0])
	}
	if ctx.Diags.Len() != 0 {
		t.Errorf("unchecked import is not a finding, got %v", ctx.Diags.Diagnostics())
	}
}

// Linking only ever adds bounds, so two tables over disjoint keys land on
// the same final constraint set regardless of order.
func TestLinkOrderDoesNotMatter(t *testing.T) {
	build := func(flip bool) (typegraph.Type, typegraph.Type) {
		g := typegraph.NewGraph()
		comp := NewComponent(g)
		ctx := typegraph.NewContext("./main.loom", g)
		a := g.FreshVar(span("./main.loom", 1))
		b := g.FreshVar(span("./main.loom", 2))
		reqs := requires.NewTable()
		if flip {
			reqs.Add("./logo.png", requires.Resource{Ext: ".png"}, span("./main.loom", 2), b)
			reqs.Add("left-pad", requires.Unchecked{Module: "left-pad"}, span("./main.loom", 1), a)
		} else {
			reqs.Add("left-pad", requires.Unchecked{Module: "left-pad"}, span("./main.loom", 1), a)
			reqs.Add("./logo.png", requires.Resource{Ext: ".png"}, span("./main.loom", 2), b)
		}
		if err := comp.Add(&File{Ctx: ctx, Reqs: reqs}); err != nil {
			t.Fatal(err)
		}
		if err := NewLinker(comp, nil, testLib(t), nil).Link(); err != nil {
			t.Fatalf("Link: %v", err)
		}
		r := resolver.New(g, resolver.Quiet, nil)
		ra, err := r.Force(a)
		if err != nil {
			t.Fatal(err)
		}
		rb, err := r.Force(b)
		if err != nil {
			t.Fatal(err)
		}
		return ra, rb
	}

	a1, b1 := build(false)
	a2, b2 := build(true)
	if !typegraph.Equal(a1, a2) || !typegraph.Equal(b1, b2) {
		t.Errorf("link order changed results: (%s,%s) vs (%s,%s)", a1, b1, a2, b2)
	}
}
