package typegraph

// Voidable reports whether a value of type t may be absent at runtime.
//
// The interesting case is an unresolved variable: a variable with no lower
// bounds and no recorded uses belongs to code that never produced or
// consumed a value, so absence is plausible and the variable is voidable.
// A variable with no bounds but recorded uses was observably consumed, so
// it is not. Merging the two cases would make the voidable-property check
// either noisy or blind; the graph keeps them apart on purpose.
//
// Dynamic is excused by construction and reports false.
func Voidable(g *Graph, t Type) bool {
	return voidable(g, t, make(map[VarID]struct{}))
}

func voidable(g *Graph, t Type, visiting map[VarID]struct{}) bool {
	switch t := t.(type) {
	case Prim:
		return t.Kind == PrimVoid || t.Kind == PrimMixed
	case Var:
		if _, cyc := visiting[t.ID]; cyc {
			return false
		}
		visiting[t.ID] = struct{}{}
		defer delete(visiting, t.ID)
		if res, ok := g.Resolved(t.ID); ok {
			return voidable(g, res, visiting)
		}
		lower := g.Lower(t.ID)
		if len(lower) == 0 {
			return len(g.Uses(t.ID)) == 0
		}
		for _, b := range lower {
			if voidable(g, b, visiting) {
				return true
			}
		}
		return false
	case Union:
		for _, m := range t.Members {
			if voidable(g, m, visiting) {
				return true
			}
		}
		return false
	case Inter:
		for _, m := range t.Members {
			if !voidable(g, m, visiting) {
				return false
			}
		}
		return len(t.Members) > 0
	case Generic:
		if t.Bound == nil {
			return true
		}
		return voidable(g, t.Bound, visiting)
	default:
		// Lit, Enum, Dyn, Obj, Arr, Fun carry a value by construction.
		// Eval is gone by the time checks run; unresolved it stays excused.
		return false
	}
}
