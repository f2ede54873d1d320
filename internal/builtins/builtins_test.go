package builtins

import (
	"testing"

	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

func TestDefaultSnapshot(t *testing.T) {
	snap, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	console, ok := snap.Lookup("console")
	if !ok {
		t.Fatal("console missing from globals")
	}
	obj, ok := console.(typegraph.Obj)
	if !ok {
		t.Fatalf("console is %T, want Obj", console)
	}
	logProp, ok := snap.Graph().PropNamed(obj.Props, "log")
	if !ok {
		t.Fatal("console.log missing")
	}
	if _, ok := logProp.Type.(typegraph.Fun); !ok {
		t.Errorf("console.log is %T, want Fun", logProp.Type)
	}

	ffi, ok := snap.Lookup("loom/ffi")
	if !ok {
		t.Fatal("loom/ffi missing")
	}
	dyn, ok := ffi.(typegraph.Dyn)
	if !ok || dyn.Origin != typegraph.OriginLibrary {
		t.Errorf("loom/ffi = %v, want library-origin dynamic", ffi)
	}

	if _, ok := snap.Lookup("no/such/module"); ok {
		t.Error("undeclared name should miss")
	}
	if !snap.Has(config.InvariantFuncName) {
		t.Errorf("%s intrinsic missing from globals", config.InvariantFuncName)
	}
}

func TestSnapshotRejectsOpenVariables(t *testing.T) {
	b := NewBuilder()
	open := b.Graph().FreshVar(source.At(config.BuiltinsFile, 1, 1))
	b.Declare("broken", typegraph.Var{ID: open})

	if _, err := b.Snapshot(); err == nil {
		t.Error("expected snapshot of an open graph to fail")
	}
}

func TestNamesSorted(t *testing.T) {
	b := NewBuilder()
	b.Declare("zeta", typegraph.Prim{Kind: typegraph.PrimNumber})
	b.Declare("alpha", typegraph.Prim{Kind: typegraph.PrimString})
	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	got := snap.Names()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("Names = %v, want [alpha zeta]", got)
	}
}
