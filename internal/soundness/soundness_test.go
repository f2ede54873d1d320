package soundness

import (
	"reflect"
	"testing"

	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

func span(line int) source.Span { return source.At("main.loom", line, 1) }

func newPass(t *testing.T) *Pass {
	t.Helper()
	ctx := typegraph.NewContext("main.loom", typegraph.NewGraph())
	return &Pass{Ctx: ctx, G: ctx.G}
}

var (
	num     = typegraph.Prim{Kind: typegraph.PrimNumber}
	str     = typegraph.Prim{Kind: typegraph.PrimString}
	boolean = typegraph.Prim{Kind: typegraph.PrimBool}
	void    = typegraph.Prim{Kind: typegraph.PrimVoid}
)

func maybe(t typegraph.Type) typegraph.Type {
	return typegraph.Union{Members: []typegraph.Type{t, void}}
}

func TestSketchyNullKinds(t *testing.T) {
	tests := []struct {
		name    string
		operand func(g *typegraph.Graph) typegraph.Type
		want    []string
	}{
		{"maybe number", func(g *typegraph.Graph) typegraph.Type { return maybe(num) },
			[]string{diagnostics.CodeSketchyNullNumber}},
		{"maybe string", func(g *typegraph.Graph) typegraph.Type { return maybe(str) },
			[]string{diagnostics.CodeSketchyNullString}},
		{"maybe bool or number", func(g *typegraph.Graph) typegraph.Type {
			return typegraph.Union{Members: []typegraph.Type{boolean, num, void}}
		}, []string{diagnostics.CodeSketchyNullBool, diagnostics.CodeSketchyNullNumber}},
		{"maybe enum", func(g *typegraph.Graph) typegraph.Type {
			return maybe(typegraph.Enum{Name: "Color", Rep: typegraph.PrimString})
		}, []string{diagnostics.CodeSketchyNullEnum}},
		{"maybe mixed", func(g *typegraph.Graph) typegraph.Type {
			return maybe(typegraph.Prim{Kind: typegraph.PrimMixed})
		}, []string{diagnostics.CodeSketchyNullMixed}},
		{"plain number is not voidable", func(g *typegraph.Graph) typegraph.Type { return num }, nil},
		{"maybe object has no falsy kind", func(g *typegraph.Graph) typegraph.Type {
			return maybe(typegraph.Obj{Props: g.NewProps(nil)})
		}, nil},
		{"dynamic is excused", func(g *typegraph.Graph) typegraph.Type {
			return typegraph.Dyn{Origin: typegraph.OriginUntyped}
		}, nil},
		{"maybe truthy literal", func(g *typegraph.Graph) typegraph.Type {
			return maybe(typegraph.Lit{Kind: typegraph.PrimBool, Raw: "true"})
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPass(t)
			p.Ctx.Conds = append(p.Ctx.Conds, typegraph.CondTest{Span: span(1), Operand: tt.operand(p.G)})
			var codes []string
			for _, d := range checkSketchyNull(p) {
				codes = append(codes, d.Code)
			}
			if !reflect.DeepEqual(codes, tt.want) {
				t.Errorf("codes = %v, want %v", codes, tt.want)
			}
		})
	}
}

func TestSketchyNullOnePerKindPerLocation(t *testing.T) {
	p := newPass(t)
	p.Ctx.Conds = append(p.Ctx.Conds,
		typegraph.CondTest{Span: span(4), Operand: maybe(num)},
		typegraph.CondTest{Span: span(4), Operand: maybe(num)},
	)
	if got := checkSketchyNull(p); len(got) != 1 {
		t.Errorf("got %d findings for one location and kind, want 1", len(got))
	}
}

func TestRunAppliesExcuses(t *testing.T) {
	p := newPass(t)
	p.Ctx.Program = &ast.Program{
		Path:    "main.loom",
		Excuses: []ast.Excuse{{Line: 3, Codes: []string{diagnostics.CodeSketchyNullNumber}}},
	}
	p.Ctx.Conds = append(p.Ctx.Conds,
		typegraph.CondTest{Span: span(3), Operand: maybe(num)},
		typegraph.CondTest{Span: span(7), Operand: maybe(num)},
	)
	got := Run(p.Ctx, config.DefaultLintSettings())
	if len(got) != 1 {
		t.Fatalf("got %d findings, want only the unexcused one", len(got))
	}
	if got[0].Span.Start.Line != 7 {
		t.Errorf("surviving finding at line %d, want 7", got[0].Span.Start.Line)
	}
}

func TestRunAppliesLintLevels(t *testing.T) {
	settings := config.DefaultLintSettings()
	settings.Levels[diagnostics.CodeSketchyNullNumber] = config.LintError
	settings.Levels[diagnostics.CodeSketchyNullString] = config.LintOff

	ctx := typegraph.NewContext("main.loom", typegraph.NewGraph())
	ctx.Conds = append(ctx.Conds,
		typegraph.CondTest{Span: span(1), Operand: maybe(num)},
		typegraph.CondTest{Span: span(2), Operand: maybe(str)},
		typegraph.CondTest{Span: span(3), Operand: maybe(boolean)},
	)
	got := Run(ctx, settings)
	if len(got) != 2 {
		t.Fatalf("got %d findings, want 2 after turning the string lint off", len(got))
	}
	bySpan := map[int]diagnostics.Severity{}
	for _, d := range got {
		bySpan[d.Span.Start.Line] = d.Severity
	}
	if bySpan[1] != diagnostics.Error {
		t.Errorf("number lint at level error came out %s", bySpan[1])
	}
	if bySpan[3] != diagnostics.Warning {
		t.Errorf("bool lint at default level came out %s", bySpan[3])
	}
}

func TestRunKeepsHardFindingsAtError(t *testing.T) {
	ctx := typegraph.NewContext("main.loom", typegraph.NewGraph())
	sig := ctx.G.NewSig(typegraph.CallSig{Scope: ctx.G.FreshScope(), Return: num})
	ctx.Asserts = append(ctx.Asserts, typegraph.AssertCall{
		Span:   span(1),
		Value:  typegraph.Dyn{Origin: typegraph.OriginUntyped},
		Target: typegraph.Fun{Sig: sig},
	})
	got := Run(ctx, config.DefaultLintSettings())
	if len(got) != 1 {
		t.Fatalf("got %d findings, want 1", len(got))
	}
	if got[0].Severity != diagnostics.Error {
		t.Errorf("hard finding severity = %s, want error", got[0].Severity)
	}
	if ctx.Diags.Len() != 1 {
		t.Errorf("finding was not recorded on the context")
	}
}

// An unchecked dependency resolves to the dynamic sentinel; testing that
// value against null must not produce a sketchy-null finding.
func TestDynamicComparisonStaysQuiet(t *testing.T) {
	ctx := typegraph.NewContext("main.loom", typegraph.NewGraph())
	v := ctx.G.FreshVar(span(1))
	if err := ctx.G.SetResolved(v, typegraph.Dyn{Origin: typegraph.OriginUntyped}); err != nil {
		t.Fatal(err)
	}
	ctx.Conds = append(ctx.Conds, typegraph.CondTest{Span: span(2), Operand: typegraph.Var{ID: v}})
	if got := Run(ctx, config.DefaultLintSettings()); len(got) != 0 {
		t.Errorf("dynamic comparison produced findings: %v", got)
	}
}

func TestChecksOrderIsStable(t *testing.T) {
	a, b := Checks(), Checks()
	if len(a) != 9 {
		t.Fatalf("suite has %d checks, want 9", len(a))
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("check order changed between calls: %s vs %s", a[i].Name, b[i].Name)
		}
	}
}
