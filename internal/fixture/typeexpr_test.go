package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlang/weft/internal/typegraph"
)

func TestParseTypeAtoms(t *testing.T) {
	g := typegraph.NewGraph()
	tests := []struct {
		src  string
		want typegraph.Type
	}{
		{"number", typegraph.Prim{Kind: typegraph.PrimNumber}},
		{"string", typegraph.Prim{Kind: typegraph.PrimString}},
		{"bool", typegraph.Prim{Kind: typegraph.PrimBool}},
		{"boolean", typegraph.Prim{Kind: typegraph.PrimBool}},
		{"void", typegraph.Prim{Kind: typegraph.PrimVoid}},
		{"mixed", typegraph.Prim{Kind: typegraph.PrimMixed}},
		{"empty", typegraph.Prim{Kind: typegraph.PrimEmpty}},
		{"dyn", typegraph.Dyn{Origin: typegraph.OriginUnsound}},
		{"dyn(unsound)", typegraph.Dyn{Origin: typegraph.OriginUnsound}},
		{"dyn(untyped)", typegraph.Dyn{Origin: typegraph.OriginUntyped}},
		{"dyn(library)", typegraph.Dyn{Origin: typegraph.OriginLibrary}},
		{"true", typegraph.Lit{Kind: typegraph.PrimBool, Raw: "true"}},
		{"false", typegraph.Lit{Kind: typegraph.PrimBool, Raw: "false"}},
		{"3", typegraph.Lit{Kind: typegraph.PrimNumber, Raw: "3"}},
		{"-1.5", typegraph.Lit{Kind: typegraph.PrimNumber, Raw: "-1.5"}},
		{`"ok"`, typegraph.Lit{Kind: typegraph.PrimString, Raw: "ok"}},
		{`""`, typegraph.Lit{Kind: typegraph.PrimString, Raw: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseType(g, tt.src)
			require.NoError(t, err)
			assert.True(t, typegraph.Equal(got, tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseTypeUnionAndArray(t *testing.T) {
	g := typegraph.NewGraph()

	got, err := ParseType(g, "number | void")
	require.NoError(t, err)
	u, ok := got.(typegraph.Union)
	require.True(t, ok, "got %s", got)
	require.Len(t, u.Members, 2)
	assert.True(t, typegraph.Equal(u.Members[0], typegraph.Prim{Kind: typegraph.PrimNumber}))
	assert.True(t, typegraph.Equal(u.Members[1], typegraph.Prim{Kind: typegraph.PrimVoid}))

	got, err = ParseType(g, "number[][]")
	require.NoError(t, err)
	want := typegraph.Arr{Elem: typegraph.Arr{Elem: typegraph.Prim{Kind: typegraph.PrimNumber}}}
	assert.True(t, typegraph.Equal(got, want), "got %s", got)

	// Grouping binds the array suffix to the whole union.
	got, err = ParseType(g, "(number | void)[]")
	require.NoError(t, err)
	arr, ok := got.(typegraph.Arr)
	require.True(t, ok, "got %s", got)
	_, ok = arr.Elem.(typegraph.Union)
	assert.True(t, ok, "element is %s, want a union", arr.Elem)
}

func TestParseTypeObjects(t *testing.T) {
	g := typegraph.NewGraph()

	got, err := ParseType(g, "{ x: number, y?: string | void }")
	require.NoError(t, err)
	obj, ok := got.(typegraph.Obj)
	require.True(t, ok, "got %s", got)
	assert.False(t, obj.Exact)
	props := g.Props(obj.Props)
	require.Len(t, props, 2)
	assert.Equal(t, "x", props[0].Name)
	assert.False(t, props[0].Optional)
	assert.True(t, typegraph.Equal(props[0].Type, typegraph.Prim{Kind: typegraph.PrimNumber}))
	assert.Equal(t, "y", props[1].Name)
	assert.True(t, props[1].Optional)

	got, err = ParseType(g, `{| kind: "circle" |}`)
	require.NoError(t, err)
	obj, ok = got.(typegraph.Obj)
	require.True(t, ok, "got %s", got)
	assert.True(t, obj.Exact)
	p, ok := g.PropNamed(obj.Props, "kind")
	require.True(t, ok)
	assert.True(t, typegraph.Equal(p.Type, typegraph.Lit{Kind: typegraph.PrimString, Raw: "circle"}))

	got, err = ParseType(g, "{}")
	require.NoError(t, err)
	obj, ok = got.(typegraph.Obj)
	require.True(t, ok, "got %s", got)
	assert.Empty(t, g.Props(obj.Props))
}

func TestParseTypeFunctions(t *testing.T) {
	g := typegraph.NewGraph()

	got, err := ParseType(g, "(number, string) => bool")
	require.NoError(t, err)
	fun, ok := got.(typegraph.Fun)
	require.True(t, ok, "got %s", got)
	sig := g.Sig(fun.Sig)
	require.Len(t, sig.Params, 2)
	assert.True(t, typegraph.Equal(sig.Params[0], typegraph.Prim{Kind: typegraph.PrimNumber}))
	assert.True(t, typegraph.Equal(sig.Params[1], typegraph.Prim{Kind: typegraph.PrimString}))
	assert.True(t, typegraph.Equal(sig.Return, typegraph.Prim{Kind: typegraph.PrimBool}))

	got, err = ParseType(g, "() => void")
	require.NoError(t, err)
	fun, ok = got.(typegraph.Fun)
	require.True(t, ok, "got %s", got)
	assert.Empty(t, g.Sig(fun.Sig).Params)
}

func TestParseTypeErrors(t *testing.T) {
	g := typegraph.NewGraph()
	bad := []string{
		"",
		"numbr",
		"number |",
		"number number",
		"{x number}",
		"{ x: number",
		"(number",
		"()",
		`"unterminated`,
		"dyn(weird)",
	}
	for _, src := range bad {
		_, err := ParseType(g, src)
		assert.Error(t, err, "input %q", src)
	}
}
