// Package typegraph owns the mutable type graph of a component: an arena of
// type variables with accumulated bounds, content-addressed property and
// call-signature tables, and the per-file Context that the linker, resolver,
// soundness checks and signature reducer all operate on.
package typegraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// VarID indexes a type variable in a Graph's arena.
type VarID uint32

// PropsID addresses a property map owned by a Graph.
type PropsID uint32

// SigID addresses a call signature owned by a Graph.
type SigID uint32

// ScopeID identifies one generic scope; type parameters carry the scope that
// introduced them so escape analysis can tell inner parameters from outer.
type ScopeID uint32

// PrimKind enumerates primitive types.
type PrimKind int

const (
	PrimBool PrimKind = iota
	PrimNumber
	PrimString
	PrimVoid
	PrimMixed
	PrimEmpty
)

func (k PrimKind) String() string {
	switch k {
	case PrimBool:
		return "boolean"
	case PrimNumber:
		return "number"
	case PrimString:
		return "string"
	case PrimVoid:
		return "void"
	case PrimMixed:
		return "mixed"
	case PrimEmpty:
		return "empty"
	default:
		return "prim(" + strconv.Itoa(int(k)) + ")"
	}
}

// DynOrigin tags where a dynamic sentinel came from. Checks use the tag to
// decide whether a value is excused by construction.
type DynOrigin int

const (
	// OriginUnsound marks a variable that was forced with no information.
	OriginUnsound DynOrigin = iota
	// OriginUntyped marks the export of an unchecked module.
	OriginUntyped
	// OriginLibrary marks an under-constrained library declaration.
	OriginLibrary
)

func (o DynOrigin) String() string {
	switch o {
	case OriginUnsound:
		return "unsound"
	case OriginUntyped:
		return "untyped"
	case OriginLibrary:
		return "library"
	default:
		return "origin(" + strconv.Itoa(int(o)) + ")"
	}
}

// DerivOp enumerates the derivations an Eval type can request from its
// operand once the operand is resolved.
type DerivOp int

const (
	// DerivElem projects the element type of an array (or string).
	DerivElem DerivOp = iota
	// DerivNonVoid strips void from the operand.
	DerivNonVoid
	// DerivReturn projects a function's return type.
	DerivReturn
	// DerivKeys is the union of an object's property name literals.
	DerivKeys
)

func (op DerivOp) String() string {
	switch op {
	case DerivElem:
		return "elem"
	case DerivNonVoid:
		return "nonvoid"
	case DerivReturn:
		return "return"
	case DerivKeys:
		return "keys"
	default:
		return "deriv(" + strconv.Itoa(int(op)) + ")"
	}
}

// Type is the closed union of type forms. Every pass over the graph
// (resolution, reduction, voidability, subtyping, validation) switches
// exhaustively over these variants; the unexported marker keeps the set
// closed so a new variant breaks every switch's default case in tests.
type Type interface {
	isType()
	String() string
}

// Var references a variable in the owning graph's arena.
type Var struct{ ID VarID }

// Prim is a primitive type.
type Prim struct{ Kind PrimKind }

// Lit is a literal type: exactly one boolean, number or string value.
type Lit struct {
	Kind PrimKind
	Raw  string
}

// Enum is a nominal enum backed by a primitive representation.
type Enum struct {
	Name string
	Rep  PrimKind
}

// Dyn is the conservative dynamic sentinel.
type Dyn struct{ Origin DynOrigin }

// Obj is an object type; its properties live in the graph's property table.
type Obj struct {
	Props PropsID
	Exact bool
}

// Arr is a homogeneous array type.
type Arr struct{ Elem Type }

// Fun is a function type; its signature lives in the graph's table.
type Fun struct{ Sig SigID }

// Union is an inclusive choice of members (at least two after
// normalization).
type Union struct{ Members []Type }

// Inter is the intersection of members.
type Inter struct{ Members []Type }

// Generic references a type parameter of an enclosing generic scope.
type Generic struct {
	Name  string
	Scope ScopeID
	Bound Type // nil means mixed
}

// Eval is a deferred derivation applied to an operand.
type Eval struct {
	Operand Type
	Op      DerivOp
}

func (Var) isType()     {}
func (Prim) isType()    {}
func (Lit) isType()     {}
func (Enum) isType()    {}
func (Dyn) isType()     {}
func (Obj) isType()     {}
func (Arr) isType()     {}
func (Fun) isType()     {}
func (Union) isType()   {}
func (Inter) isType()   {}
func (Generic) isType() {}
func (Eval) isType()    {}

func (t Var) String() string  { return "t" + strconv.FormatUint(uint64(t.ID), 10) }
func (t Prim) String() string { return t.Kind.String() }
func (t Lit) String() string {
	if t.Kind == PrimString {
		return strconv.Quote(t.Raw)
	}
	return t.Raw
}
func (t Enum) String() string { return "enum " + t.Name }
func (t Dyn) String() string  { return "dynamic" }
func (t Obj) String() string  { return "object#" + strconv.FormatUint(uint64(t.Props), 10) }
func (t Arr) String() string  { return "Array<" + t.Elem.String() + ">" }
func (t Fun) String() string  { return "function#" + strconv.FormatUint(uint64(t.Sig), 10) }
func (t Union) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (t Inter) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (t Generic) String() string { return t.Name }
func (t Eval) String() string    { return t.Op.String() + "<" + t.Operand.String() + ">" }

// KeyOf renders a type to an unambiguous structural key within its owning
// graph. Property and signature ids are content-addressed by construction,
// so comparing ids compares contents. Keys back the table consing, bound
// deduplication and the eval cache.
func KeyOf(t Type) string {
	var b strings.Builder
	writeKey(&b, t)
	return b.String()
}

func writeKey(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case Var:
		fmt.Fprintf(b, "v%d", t.ID)
	case Prim:
		fmt.Fprintf(b, "p%d", int(t.Kind))
	case Lit:
		fmt.Fprintf(b, "l%d:%q", int(t.Kind), t.Raw)
	case Enum:
		fmt.Fprintf(b, "e%d:%q", int(t.Rep), t.Name)
	case Dyn:
		fmt.Fprintf(b, "d%d", int(t.Origin))
	case Obj:
		fmt.Fprintf(b, "o%d", t.Props)
		if t.Exact {
			b.WriteByte('!')
		}
	case Arr:
		b.WriteString("a[")
		writeKey(b, t.Elem)
		b.WriteByte(']')
	case Fun:
		fmt.Fprintf(b, "f%d", t.Sig)
	case Union:
		b.WriteString("u(")
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeKey(b, m)
		}
		b.WriteByte(')')
	case Inter:
		b.WriteString("i(")
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeKey(b, m)
		}
		b.WriteByte(')')
	case Generic:
		fmt.Fprintf(b, "g%d:%q[", t.Scope, t.Name)
		if t.Bound != nil {
			writeKey(b, t.Bound)
		}
		b.WriteByte(']')
	case Eval:
		fmt.Fprintf(b, "x%d(", int(t.Op))
		writeKey(b, t.Operand)
		b.WriteByte(')')
	default:
		panic(fmt.Sprintf("typegraph: unknown type form %T", t))
	}
}

// HashOf is a 64-bit structural hash of KeyOf(t).
func HashOf(t Type) uint64 {
	return xxhash.Sum64String(KeyOf(t))
}

// Equal reports structural equality of two types within one graph.
func Equal(a, b Type) bool {
	return KeyOf(a) == KeyOf(b)
}
