package typegraph

import (
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v2"

	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/source"
)

// CondTest is a recorded conditional test: some value was used where the
// runtime will coerce it to a boolean.
type CondTest struct {
	Span    source.Span
	Operand Type
}

// NarrowTest is a recorded existence test of a property, `x.tag != null`
// and friends, whose result guards a branch.
type NarrowTest struct {
	Span    source.Span
	Operand Type
	Prop    string
}

// OptChain is a recorded optional member access `x?.p`.
type OptChain struct {
	Span    source.Span
	Operand Type
}

// InvariantCall is a recorded call to the invariant intrinsic.
type InvariantCall struct {
	Span source.Span
	Cond Type
}

// AssertCall is a recorded call to the type-assertion intrinsic: the value
// flowing in and the type asserted for it.
type AssertCall struct {
	Span   source.Span
	Value  Type
	Target Type
}

// PropMatch is a recorded sentinel test: a property of an object compared
// against a literal to pick a variant.
type PropMatch struct {
	Span    source.Span
	Object  Type
	Prop    string
	Literal Type
}

// LiteralCheck is a recorded literal value flowing into an annotated
// position.
type LiteralCheck struct {
	Span     source.Span
	Literal  Type
	Expected Type
}

// Instantiation records one call of a generic function and the fresh
// variables that stand in for its type parameters at that call.
type Instantiation struct {
	Span   source.Span
	Callee string
	Params []TypeParam
	Vars   []VarID
}

// Context is the checked state of one file. Files of a component share a
// Graph, so recursion across file boundaries lands in a single arena;
// everything else here is per file. The soundness suite consumes the
// recorded obligations after resolution has frozen the graph.
type Context struct {
	ID      uuid.UUID
	File    string
	Program *ast.Program
	G       *Graph
	Diags   *diagnostics.Bag

	Conds          []CondTest
	NarrowTests    []NarrowTest
	OptChains      []OptChain
	Invariants     []InvariantCall
	Asserts        []AssertCall
	PropMatches    []PropMatch
	LiteralChecks  []LiteralCheck
	Instantiations []Instantiation

	exports    map[string]Type
	types      map[ast.Node]Type
	narrowUsed *set.Set[int]
}

// NewContext returns an empty context for file, allocating against g.
func NewContext(file string, g *Graph) *Context {
	return &Context{
		ID:         uuid.New(),
		File:       file,
		G:          g,
		Diags:      diagnostics.NewBag(),
		exports:    make(map[string]Type),
		types:      make(map[ast.Node]Type),
		narrowUsed: set.New[int](8),
	}
}

// SetExport binds the export type published under a module key. A file
// normally publishes one entry, its own key; rebinding overwrites, so the
// last assignment in program order is what the module exports.
func (c *Context) SetExport(key string, t Type) {
	c.exports[key] = t
}

// Export looks up the export type published under a module key.
func (c *Context) Export(key string) (Type, bool) {
	t, ok := c.exports[key]
	return t, ok
}

// ExportKeys returns the published module keys in sorted order.
func (c *Context) ExportKeys() []string {
	keys := make([]string, 0, len(c.exports))
	for key := range c.exports {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SetType records the type of an expression node.
func (c *Context) SetType(n ast.Node, t Type) {
	c.types[n] = t
}

// TypeOf returns the recorded type of an expression node.
func (c *Context) TypeOf(n ast.Node) (Type, bool) {
	t, ok := c.types[n]
	return t, ok
}

// RecordNarrowTest records a narrowing test and returns its index, which
// later narrowing consumers pass to MarkNarrowUsed.
func (c *Context) RecordNarrowTest(t NarrowTest) int {
	c.NarrowTests = append(c.NarrowTests, t)
	return len(c.NarrowTests) - 1
}

// MarkNarrowUsed marks the narrowing result of test i as consumed.
func (c *Context) MarkNarrowUsed(i int) {
	c.narrowUsed.Insert(i)
}

// NarrowUsed reports whether the narrowing result of test i was consumed.
func (c *Context) NarrowUsed(i int) bool {
	return c.narrowUsed.Contains(i)
}
