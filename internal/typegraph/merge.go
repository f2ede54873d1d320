package typegraph

import "sort"

// MergeLower folds a variable's accumulated lower bounds into one type.
//
// Nested unions are flattened, structural duplicates collapse, empty is
// the identity and mixed absorbs everything beneath it. A dynamic bound
// wins outright: once any flow into the variable was dynamic, the merged
// result is dynamic with that flow's origin. A literal collapses into its
// base primitive when both are present. Members are ordered by structural
// key so the result does not depend on the order bounds arrived in.
func MergeLower(bounds []Type) Type {
	flat := make([]Type, 0, len(bounds))
	for _, b := range bounds {
		flat = flatten(flat, b)
	}

	prims := make(map[PrimKind]bool)
	for _, t := range flat {
		if d, ok := t.(Dyn); ok {
			return d
		}
		if p, ok := t.(Prim); ok {
			if p.Kind == PrimMixed {
				return Prim{Kind: PrimMixed}
			}
			prims[p.Kind] = true
		}
	}

	members := make([]Type, 0, len(flat))
	seen := make(map[string]struct{}, len(flat))
	for _, t := range flat {
		if p, ok := t.(Prim); ok && p.Kind == PrimEmpty {
			continue
		}
		if l, ok := t.(Lit); ok && prims[l.Kind] {
			continue
		}
		key := KeyOf(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		members = append(members, t)
	}

	switch len(members) {
	case 0:
		return Prim{Kind: PrimEmpty}
	case 1:
		return members[0]
	}
	sort.Slice(members, func(i, j int) bool { return KeyOf(members[i]) < KeyOf(members[j]) })
	return Union{Members: members}
}

func flatten(dst []Type, t Type) []Type {
	if u, ok := t.(Union); ok {
		for _, m := range u.Members {
			dst = flatten(dst, m)
		}
		return dst
	}
	return append(dst, t)
}
