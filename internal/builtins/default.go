package builtins

import (
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/typegraph"
)

// Default builds the standard library surface every component links
// against: globals by bare name plus the core modules shipped with the
// runtime, each declared as its exports object. Entries the runtime
// implements natively but the library file never annotated stay dynamic
// with a library origin, which excuses them from soundness checks without
// hiding that they are unchecked.
func Default() (*Snapshot, error) {
	b := NewBuilder()
	g := b.Graph()

	num := typegraph.Prim{Kind: typegraph.PrimNumber}
	str := typegraph.Prim{Kind: typegraph.PrimString}
	boolean := typegraph.Prim{Kind: typegraph.PrimBool}
	void := typegraph.Prim{Kind: typegraph.PrimVoid}
	mixed := typegraph.Prim{Kind: typegraph.PrimMixed}

	fn := func(ret typegraph.Type, params ...typegraph.Type) typegraph.Type {
		return typegraph.Fun{Sig: g.NewSig(typegraph.CallSig{
			Scope:  g.FreshScope(),
			Params: params,
			Return: ret,
		})}
	}
	obj := func(props ...typegraph.Prop) typegraph.Type {
		return typegraph.Obj{Props: g.NewProps(props)}
	}

	// Globals.
	b.Declare("console", obj(
		typegraph.Prop{Name: "log", Type: fn(void, mixed)},
		typegraph.Prop{Name: "warn", Type: fn(void, mixed)},
		typegraph.Prop{Name: "error", Type: fn(void, mixed)},
	))
	b.Declare("JSON", obj(
		typegraph.Prop{Name: "stringify", Type: fn(str, mixed)},
		typegraph.Prop{Name: "parse", Type: fn(mixed, str)},
	))
	b.Declare(config.InvariantFuncName, fn(void, mixed))
	b.Declare(config.AssertFuncName, fn(boolean, mixed))

	// Core modules, declared as their exports objects.
	b.Declare("loom/math", obj(
		typegraph.Prop{Name: "floor", Type: fn(num, num)},
		typegraph.Prop{Name: "ceil", Type: fn(num, num)},
		typegraph.Prop{Name: "abs", Type: fn(num, num)},
		typegraph.Prop{Name: "max", Type: fn(num, num, num)},
		typegraph.Prop{Name: "PI", Type: num},
	))
	b.Declare("loom/strings", obj(
		typegraph.Prop{Name: "trim", Type: fn(str, str)},
		typegraph.Prop{Name: "split", Type: fn(typegraph.Arr{Elem: str}, str, str)},
		typegraph.Prop{Name: "join", Type: fn(str, typegraph.Arr{Elem: str}, str)},
		typegraph.Prop{Name: "length", Type: fn(num, str)},
	))
	b.Declare("loom/parse", obj(
		typegraph.Prop{Name: "toNumber", Type: fn(typegraph.Union{
			Members: []typegraph.Type{num, void},
		}, str)},
	))

	// The FFI surface never shipped annotations; its exports are dynamic
	// by declaration rather than by accident.
	b.Declare("loom/ffi", typegraph.Dyn{Origin: typegraph.OriginLibrary})

	return b.Snapshot()
}
