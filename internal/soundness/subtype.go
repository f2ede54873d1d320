package soundness

import (
	"github.com/weftlang/weft/internal/typegraph"
)

// Subtype is the conservative structural subtype test backing the deferred
// obligation checks. It answers false only when the relation provably
// fails; anything involving dynamic, open variables or unevaluated
// derivations answers true so the checks stay quiet on uncertainty.
func Subtype(g *typegraph.Graph, a, b typegraph.Type) bool {
	return subtype(g, a, b, make(map[string]struct{}))
}

// overlaps reports whether a value could inhabit both types at once.
func overlaps(g *typegraph.Graph, a, b typegraph.Type) bool {
	return Subtype(g, a, b) || Subtype(g, b, a)
}

func subtype(g *typegraph.Graph, a, b typegraph.Type, seen map[string]struct{}) bool {
	if typegraph.Equal(a, b) {
		return true
	}
	key := typegraph.KeyOf(a) + "<:" + typegraph.KeyOf(b)
	if _, cyc := seen[key]; cyc {
		return true
	}
	seen[key] = struct{}{}

	if _, ok := a.(typegraph.Dyn); ok {
		return true
	}
	if _, ok := b.(typegraph.Dyn); ok {
		return true
	}
	if v, ok := a.(typegraph.Var); ok {
		res, done := g.Resolved(v.ID)
		if !done {
			return true
		}
		return subtype(g, res, b, seen)
	}
	if v, ok := b.(typegraph.Var); ok {
		res, done := g.Resolved(v.ID)
		if !done {
			return true
		}
		return subtype(g, a, res, seen)
	}
	if _, ok := a.(typegraph.Eval); ok {
		return true
	}
	if _, ok := b.(typegraph.Eval); ok {
		return true
	}
	if p, ok := b.(typegraph.Prim); ok && p.Kind == typegraph.PrimMixed {
		return true
	}
	if p, ok := a.(typegraph.Prim); ok && p.Kind == typegraph.PrimEmpty {
		return true
	}

	if u, ok := a.(typegraph.Union); ok {
		for _, m := range u.Members {
			if !subtype(g, m, b, seen) {
				return false
			}
		}
		return true
	}
	if u, ok := b.(typegraph.Union); ok {
		for _, m := range u.Members {
			if subtype(g, a, m, seen) {
				return true
			}
		}
		return false
	}
	if i, ok := a.(typegraph.Inter); ok {
		for _, m := range i.Members {
			if subtype(g, m, b, seen) {
				return true
			}
		}
		return false
	}
	if i, ok := b.(typegraph.Inter); ok {
		for _, m := range i.Members {
			if !subtype(g, a, m, seen) {
				return false
			}
		}
		return true
	}

	if gen, ok := a.(typegraph.Generic); ok {
		if gen.Bound == nil {
			return false
		}
		return subtype(g, gen.Bound, b, seen)
	}
	if _, ok := b.(typegraph.Generic); ok {
		// A concrete type flowing into a type parameter cannot be
		// falsified here; instantiation owns that comparison.
		return true
	}

	switch a := a.(type) {
	case typegraph.Prim:
		p, ok := b.(typegraph.Prim)
		return ok && p.Kind == a.Kind
	case typegraph.Lit:
		switch b := b.(type) {
		case typegraph.Prim:
			return b.Kind == a.Kind
		case typegraph.Enum:
			return false
		}
		return false
	case typegraph.Enum:
		if p, ok := b.(typegraph.Prim); ok {
			return p.Kind == a.Rep
		}
		return false
	case typegraph.Arr:
		arr, ok := b.(typegraph.Arr)
		return ok && subtype(g, a.Elem, arr.Elem, seen)
	case typegraph.Obj:
		obj, ok := b.(typegraph.Obj)
		if !ok {
			return false
		}
		want := g.Props(obj.Props)
		for _, w := range want {
			have, found := g.PropNamed(a.Props, w.Name)
			if !found {
				if w.Optional {
					continue
				}
				return false
			}
			if !subtype(g, have.Type, w.Type, seen) {
				return false
			}
		}
		if obj.Exact {
			for _, h := range g.Props(a.Props) {
				if _, found := g.PropNamed(obj.Props, h.Name); !found {
					return false
				}
			}
		}
		return true
	case typegraph.Fun:
		fun, ok := b.(typegraph.Fun)
		if !ok {
			return false
		}
		sa, sb := g.Sig(a.Sig), g.Sig(fun.Sig)
		if len(sa.Params) != len(sb.Params) {
			return false
		}
		for i := range sa.Params {
			if !subtype(g, sb.Params[i], sa.Params[i], seen) {
				return false
			}
		}
		if sa.Return == nil || sb.Return == nil {
			return sa.Return == nil && sb.Return == nil
		}
		return subtype(g, sa.Return, sb.Return, seen)
	}
	return false
}
