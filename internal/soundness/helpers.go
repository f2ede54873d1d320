package soundness

import (
	"strconv"

	"github.com/weftlang/weft/internal/typegraph"
)

// deref chases resolved variables down to the type underneath. Unresolved
// variables and reference cycles come back as the Var itself.
func deref(g *typegraph.Graph, t typegraph.Type) typegraph.Type {
	seen := make(map[typegraph.VarID]struct{})
	for {
		v, ok := t.(typegraph.Var)
		if !ok {
			return t
		}
		if _, cyc := seen[v.ID]; cyc {
			return t
		}
		seen[v.ID] = struct{}{}
		res, ok := g.Resolved(v.ID)
		if !ok {
			return t
		}
		t = res
	}
}

// stripGeneric replaces a type parameter by its declared bound (mixed when
// unbounded), memberwise inside unions and intersections. The obligation
// comparisons want concrete shapes on both sides.
func stripGeneric(g *typegraph.Graph, t typegraph.Type) typegraph.Type {
	t = deref(g, t)
	switch t := t.(type) {
	case typegraph.Generic:
		if t.Bound == nil {
			return typegraph.Prim{Kind: typegraph.PrimMixed}
		}
		return stripGeneric(g, t.Bound)
	case typegraph.Union:
		members := make([]typegraph.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = stripGeneric(g, m)
		}
		return typegraph.Union{Members: members}
	case typegraph.Inter:
		members := make([]typegraph.Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = stripGeneric(g, m)
		}
		return typegraph.Inter{Members: members}
	}
	return t
}

// containsDyn reports whether a dynamic sentinel occurs anywhere in t.
// Checks skip such values: dynamic is excused by construction and already
// carries its own diagnostic where that was warranted.
func containsDyn(g *typegraph.Graph, t typegraph.Type) bool {
	return scanDyn(g, t, make(map[typegraph.VarID]struct{}))
}

func scanDyn(g *typegraph.Graph, t typegraph.Type, seen map[typegraph.VarID]struct{}) bool {
	switch t := t.(type) {
	case typegraph.Dyn:
		return true
	case typegraph.Var:
		if _, cyc := seen[t.ID]; cyc {
			return false
		}
		seen[t.ID] = struct{}{}
		if res, ok := g.Resolved(t.ID); ok {
			return scanDyn(g, res, seen)
		}
		for _, b := range g.Lower(t.ID) {
			if scanDyn(g, b, seen) {
				return true
			}
		}
		return false
	case typegraph.Arr:
		return scanDyn(g, t.Elem, seen)
	case typegraph.Obj:
		for _, p := range g.Props(t.Props) {
			if scanDyn(g, p.Type, seen) {
				return true
			}
		}
		return false
	case typegraph.Fun:
		sig := g.Sig(t.Sig)
		for _, p := range sig.Params {
			if scanDyn(g, p, seen) {
				return true
			}
		}
		return sig.Return != nil && scanDyn(g, sig.Return, seen)
	case typegraph.Union:
		for _, m := range t.Members {
			if scanDyn(g, m, seen) {
				return true
			}
		}
		return false
	case typegraph.Inter:
		for _, m := range t.Members {
			if scanDyn(g, m, seen) {
				return true
			}
		}
		return false
	case typegraph.Generic:
		return t.Bound != nil && scanDyn(g, t.Bound, seen)
	case typegraph.Eval:
		return scanDyn(g, t.Operand, seen)
	default:
		return false
	}
}

// litFalsy reports whether the single value of a literal type coerces to
// false at runtime.
func litFalsy(l typegraph.Lit) bool {
	switch l.Kind {
	case typegraph.PrimBool:
		return l.Raw == "false"
	case typegraph.PrimNumber:
		f, err := strconv.ParseFloat(l.Raw, 64)
		if err != nil {
			return true
		}
		return f == 0
	case typegraph.PrimString:
		return l.Raw == ""
	default:
		return true
	}
}

// canBeFalsy reports whether some runtime value of t coerces to false.
// Unknown shapes answer yes, which keeps the redundancy checks quiet.
func canBeFalsy(g *typegraph.Graph, t typegraph.Type) bool {
	return falsyPossible(g, t, make(map[typegraph.VarID]struct{}))
}

func falsyPossible(g *typegraph.Graph, t typegraph.Type, seen map[typegraph.VarID]struct{}) bool {
	switch t := t.(type) {
	case typegraph.Prim:
		return t.Kind != typegraph.PrimEmpty
	case typegraph.Lit:
		return litFalsy(t)
	case typegraph.Enum:
		return true
	case typegraph.Dyn:
		return true
	case typegraph.Obj, typegraph.Arr, typegraph.Fun:
		return false
	case typegraph.Union:
		for _, m := range t.Members {
			if falsyPossible(g, m, seen) {
				return true
			}
		}
		return false
	case typegraph.Inter:
		for _, m := range t.Members {
			if !falsyPossible(g, m, seen) {
				return false
			}
		}
		return len(t.Members) > 0
	case typegraph.Generic:
		if t.Bound == nil {
			return true
		}
		return falsyPossible(g, t.Bound, seen)
	case typegraph.Var:
		if _, cyc := seen[t.ID]; cyc {
			return true
		}
		seen[t.ID] = struct{}{}
		if res, ok := g.Resolved(t.ID); ok {
			return falsyPossible(g, res, seen)
		}
		lower := g.Lower(t.ID)
		if len(lower) == 0 {
			return true
		}
		for _, b := range lower {
			if falsyPossible(g, b, seen) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// typeLabel renders a type for a message, looking through resolved
// variables first so users see the shape and not an arena id.
func typeLabel(g *typegraph.Graph, t typegraph.Type) string {
	return deref(g, t).String()
}
