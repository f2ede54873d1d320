package typegraph

import (
	"testing"

	"github.com/weftlang/weft/internal/source"
)

func TestGraftCopiesStructure(t *testing.T) {
	src := NewGraph()
	dst := NewGraph()

	props := src.NewProps([]Prop{
		{Name: "name", Type: Prim{Kind: PrimString}},
		{Name: "age", Type: Prim{Kind: PrimNumber}, Optional: true},
	})
	grafted, err := Graft(dst, src, Obj{Props: props, Exact: true})
	if err != nil {
		t.Fatalf("Graft: %v", err)
	}

	obj, ok := grafted.(Obj)
	if !ok {
		t.Fatalf("grafted type is %T, want Obj", grafted)
	}
	if !obj.Exact {
		t.Error("exactness lost in graft")
	}
	got := dst.Props(obj.Props)
	if len(got) != 2 || got[0].Name != "age" || !got[0].Optional || got[1].Name != "name" {
		t.Errorf("grafted properties wrong: %+v", got)
	}
}

func TestGraftPreservesCycles(t *testing.T) {
	src := NewGraph()
	dst := NewGraph()
	sp := source.At("dep.loom", 1, 1)

	node := src.FreshVar(sp)
	props := src.NewProps([]Prop{
		{Name: "value", Type: Prim{Kind: PrimNumber}},
		{Name: "next", Type: Var{ID: node}, Optional: true},
	})
	if err := src.SetResolved(node, Obj{Props: props}); err != nil {
		t.Fatalf("SetResolved: %v", err)
	}

	grafted, err := Graft(dst, src, Var{ID: node})
	if err != nil {
		t.Fatalf("Graft: %v", err)
	}
	v, ok := grafted.(Var)
	if !ok {
		t.Fatalf("grafted type is %T, want Var", grafted)
	}
	res, done := dst.Resolved(v.ID)
	if !done {
		t.Fatal("grafted variable should arrive resolved")
	}
	obj, ok := res.(Obj)
	if !ok {
		t.Fatalf("grafted resolution is %T, want Obj", res)
	}
	next, ok := dst.PropNamed(obj.Props, "next")
	if !ok {
		t.Fatal("next property lost in graft")
	}
	inner, ok := next.Type.(Var)
	if !ok {
		t.Fatalf("next is %T, want Var", next.Type)
	}
	if inner.ID != v.ID {
		t.Errorf("cycle broken: next points at t%d, root is t%d", inner.ID, v.ID)
	}
}

func TestGraftRejectsOpenVariables(t *testing.T) {
	src := NewGraph()
	dst := NewGraph()
	sp := source.At("dep.loom", 1, 1)

	open := src.FreshVar(sp)
	if _, err := Graft(dst, src, Arr{Elem: Var{ID: open}}); err == nil {
		t.Error("expected graft of an unresolved variable to fail")
	}
}

func TestGraftReinternsSignatures(t *testing.T) {
	src := NewGraph()
	dst := NewGraph()

	scope := src.FreshScope()
	sig := src.NewSig(CallSig{
		Scope:      scope,
		TypeParams: []TypeParam{{Name: "T"}},
		Params:     []Type{Generic{Name: "T", Scope: scope}},
		Return:     Generic{Name: "T", Scope: scope},
	})

	grafted, err := Graft(dst, src, Fun{Sig: sig})
	if err != nil {
		t.Fatalf("Graft: %v", err)
	}
	fn, ok := grafted.(Fun)
	if !ok {
		t.Fatalf("grafted type is %T, want Fun", grafted)
	}
	got := dst.Sig(fn.Sig)
	param, ok := got.Params[0].(Generic)
	if !ok {
		t.Fatalf("param is %T, want Generic", got.Params[0])
	}
	if param.Scope != got.Scope {
		t.Errorf("type parameter scope %d does not match signature scope %d after graft", param.Scope, got.Scope)
	}
	ret, _ := got.Return.(Generic)
	if ret.Scope != param.Scope {
		t.Errorf("return scope %d diverged from param scope %d", ret.Scope, param.Scope)
	}
}
