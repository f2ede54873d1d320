package typegraph

import (
	"testing"

	"github.com/weftlang/weft/internal/source"
)

func span(line int) source.Span {
	return source.At("main.loom", line, 1)
}

func TestAddLowerDeduplicates(t *testing.T) {
	g := NewGraph()
	v := g.FreshVar(span(1))

	for i := 0; i < 3; i++ {
		if err := g.AddLower(v, Prim{Kind: PrimNumber}); err != nil {
			t.Fatalf("AddLower: %v", err)
		}
	}
	if err := g.AddLower(v, Prim{Kind: PrimString}); err != nil {
		t.Fatalf("AddLower: %v", err)
	}

	if got := len(g.Lower(v)); got != 2 {
		t.Errorf("expected 2 distinct bounds, got %d: %v", got, g.Lower(v))
	}
}

func TestAddLowerAfterResolveFails(t *testing.T) {
	g := NewGraph()
	v := g.FreshVar(span(1))
	if err := g.SetResolved(v, Prim{Kind: PrimNumber}); err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	if err := g.AddLower(v, Prim{Kind: PrimString}); err == nil {
		t.Error("expected error adding a bound to a resolved variable")
	}
}

func TestSetResolvedIsIdempotentButFrozen(t *testing.T) {
	g := NewGraph()
	v := g.FreshVar(span(1))
	if err := g.SetResolved(v, Prim{Kind: PrimNumber}); err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	if err := g.SetResolved(v, Prim{Kind: PrimNumber}); err != nil {
		t.Errorf("resolving to the same type again should be a no-op, got %v", err)
	}
	if err := g.SetResolved(v, Prim{Kind: PrimString}); err == nil {
		t.Error("expected error resolving a variable to a different type")
	}
}

func TestUsesSurviveResolution(t *testing.T) {
	g := NewGraph()
	v := g.FreshVar(span(1))
	g.AddUse(v, Use{Op: "call", Span: span(2)})
	if err := g.SetResolved(v, Prim{Kind: PrimNumber}); err != nil {
		t.Fatalf("SetResolved: %v", err)
	}
	g.AddUse(v, Use{Op: "member", Span: span(3)})
	if got := len(g.Uses(v)); got != 2 {
		t.Errorf("expected 2 uses, got %d", got)
	}
}

func TestNewPropsInterning(t *testing.T) {
	g := NewGraph()
	a := g.NewProps([]Prop{
		{Name: "b", Type: Prim{Kind: PrimNumber}},
		{Name: "a", Type: Prim{Kind: PrimString}},
	})
	b := g.NewProps([]Prop{
		{Name: "a", Type: Prim{Kind: PrimString}},
		{Name: "b", Type: Prim{Kind: PrimNumber}},
	})
	if a != b {
		t.Errorf("same properties in different order interned to different ids: %d vs %d", a, b)
	}

	props := g.Props(a)
	if len(props) != 2 || props[0].Name != "a" || props[1].Name != "b" {
		t.Errorf("properties not sorted by name: %+v", props)
	}

	c := g.NewProps([]Prop{{Name: "a", Type: Prim{Kind: PrimString}, Optional: true}})
	if c == a {
		t.Error("optionality should distinguish property maps")
	}

	if p, ok := g.PropNamed(a, "b"); !ok || !Equal(p.Type, Prim{Kind: PrimNumber}) {
		t.Errorf("PropNamed(b) = %+v, %v", p, ok)
	}
	if _, ok := g.PropNamed(a, "missing"); ok {
		t.Error("PropNamed should miss on absent names")
	}
}

func TestNewSigInterning(t *testing.T) {
	g := NewGraph()
	scope := g.FreshScope()
	sig := CallSig{
		Scope:  scope,
		Params: []Type{Prim{Kind: PrimNumber}},
		Return: Prim{Kind: PrimVoid},
	}
	a := g.NewSig(sig)
	b := g.NewSig(sig)
	if a != b {
		t.Errorf("identical signatures interned to different ids: %d vs %d", a, b)
	}
	c := g.NewSig(CallSig{Scope: scope, Params: []Type{Prim{Kind: PrimString}}, Return: Prim{Kind: PrimVoid}})
	if c == a {
		t.Error("different parameter types should intern to a different id")
	}
}

func TestMergeLower(t *testing.T) {
	num := Prim{Kind: PrimNumber}
	str := Prim{Kind: PrimString}
	void := Prim{Kind: PrimVoid}

	tests := []struct {
		name   string
		bounds []Type
		want   Type
	}{
		{"empty", nil, Prim{Kind: PrimEmpty}},
		{"single", []Type{num}, num},
		{"duplicates collapse", []Type{num, num, num}, num},
		{"pair", []Type{num, str}, Union{Members: []Type{num, str}}},
		{"nested unions flatten", []Type{Union{Members: []Type{num, str}}, num}, Union{Members: []Type{num, str}}},
		{"empty is identity", []Type{Prim{Kind: PrimEmpty}, num}, num},
		{"mixed absorbs", []Type{num, Prim{Kind: PrimMixed}, str}, Prim{Kind: PrimMixed}},
		{"dynamic wins", []Type{num, Dyn{Origin: OriginUntyped}, str}, Dyn{Origin: OriginUntyped}},
		{"literal folds into its primitive", []Type{Lit{Kind: PrimNumber, Raw: "3"}, num}, num},
		{"literal survives alone", []Type{Lit{Kind: PrimNumber, Raw: "3"}, str}, Union{Members: []Type{Lit{Kind: PrimNumber, Raw: "3"}, str}}},
		{"void member survives", []Type{void, num}, Union{Members: []Type{num, void}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeLower(tt.bounds)
			if !Equal(got, tt.want) {
				t.Errorf("MergeLower(%v) = %s, want %s", tt.bounds, got, tt.want)
			}
		})
	}
}

func TestMergeLowerOrderIndependent(t *testing.T) {
	num := Prim{Kind: PrimNumber}
	str := Prim{Kind: PrimString}
	void := Prim{Kind: PrimVoid}

	ab := MergeLower([]Type{num, str, void})
	ba := MergeLower([]Type{void, str, num})
	if !Equal(ab, ba) {
		t.Errorf("merge depends on bound order: %s vs %s", ab, ba)
	}
}
