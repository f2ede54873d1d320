package resolver

import (
	"strconv"

	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/typegraph"
)

// derive applies a derivation to an already-normalized operand. Results
// are cached by (operand, derivation) so repeated occurrences cost one
// lookup. Derivations are total: an operand the derivation makes no sense
// for yields the unsound sentinel rather than an error, since the shape
// mismatch was the inference engine's finding to make, not ours.
func (r *Resolver) derive(op typegraph.Type, d typegraph.DerivOp, depth int) (typegraph.Type, error) {
	key := typegraph.KeyOf(op) + "|" + strconv.Itoa(int(d))
	if cached, ok := r.evals[key]; ok {
		return cached, nil
	}
	out, err := r.deriveUncached(op, d, depth)
	if err != nil {
		return nil, err
	}
	r.evals[key] = out
	return out, nil
}

func (r *Resolver) deriveUncached(op typegraph.Type, d typegraph.DerivOp, depth int) (typegraph.Type, error) {
	if depth > config.MaxTypeDepth {
		// A reference cycle with no structure to derive from.
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
	}

	switch t := op.(type) {
	case typegraph.Dyn:
		return t, nil

	case typegraph.Var:
		res, done := r.g.Resolved(t.ID)
		if !done {
			// Mid-cycle reference; deriving through it cannot terminate.
			return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
		}
		return r.derive(res, d, depth+1)

	case typegraph.Union:
		return r.deriveMembers(t.Members, d, depth)

	case typegraph.Inter:
		// Conservative: the derivation of an intersection is covered by
		// the merge of its members' derivations.
		return r.deriveMembers(t.Members, d, depth)

	case typegraph.Generic:
		if t.Bound == nil {
			return r.derive(typegraph.Prim{Kind: typegraph.PrimMixed}, d, depth+1)
		}
		return r.derive(t.Bound, d, depth+1)
	}

	if p, ok := op.(typegraph.Prim); ok {
		switch p.Kind {
		case typegraph.PrimEmpty:
			return p, nil
		case typegraph.PrimMixed:
			if d == typegraph.DerivKeys {
				return typegraph.Prim{Kind: typegraph.PrimString}, nil
			}
			return p, nil
		}
	}

	switch d {
	case typegraph.DerivElem:
		switch t := op.(type) {
		case typegraph.Arr:
			return t.Elem, nil
		case typegraph.Prim:
			if t.Kind == typegraph.PrimString {
				return t, nil
			}
		case typegraph.Lit:
			if t.Kind == typegraph.PrimString {
				return typegraph.Prim{Kind: typegraph.PrimString}, nil
			}
		}
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil

	case typegraph.DerivNonVoid:
		if p, ok := op.(typegraph.Prim); ok && p.Kind == typegraph.PrimVoid {
			return typegraph.Prim{Kind: typegraph.PrimEmpty}, nil
		}
		return op, nil

	case typegraph.DerivReturn:
		if f, ok := op.(typegraph.Fun); ok {
			ret := r.g.Sig(f.Sig).Return
			if ret == nil {
				return typegraph.Prim{Kind: typegraph.PrimVoid}, nil
			}
			return ret, nil
		}
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil

	case typegraph.DerivKeys:
		if o, ok := op.(typegraph.Obj); ok {
			props := r.g.Props(o.Props)
			if len(props) == 0 {
				return typegraph.Prim{Kind: typegraph.PrimEmpty}, nil
			}
			keys := make([]typegraph.Type, len(props))
			for i, p := range props {
				keys[i] = typegraph.Lit{Kind: typegraph.PrimString, Raw: p.Name}
			}
			return typegraph.MergeLower(keys), nil
		}
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
	}
	return typegraph.Dyn{Origin: typegraph.OriginUnsound}, nil
}

func (r *Resolver) deriveMembers(members []typegraph.Type, d typegraph.DerivOp, depth int) (typegraph.Type, error) {
	out := make([]typegraph.Type, 0, len(members))
	for _, m := range members {
		dm, err := r.derive(m, d, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, dm)
	}
	return typegraph.MergeLower(out), nil
}
