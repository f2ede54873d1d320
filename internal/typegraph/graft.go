package typegraph

import "github.com/pkg/errors"

// Graft copies a type from src into dst, re-interning property maps and
// call signatures so the result is addressable in dst. Variables are
// carried over with their resolved contents, variable identity preserved
// so recursive types keep their cycles. Grafting a type that reaches an
// unresolved variable fails: importers only ever see frozen dependency
// state, and an open variable crossing a graph boundary means linking ran
// against a half-resolved dependency.
func Graft(dst, src *Graph, t Type) (Type, error) {
	gr := &grafter{
		dst:  dst,
		src:  src,
		vmap: make(map[VarID]VarID),
		smap: make(map[ScopeID]ScopeID),
	}
	return gr.copy(t)
}

type grafter struct {
	dst  *Graph
	src  *Graph
	vmap map[VarID]VarID
	smap map[ScopeID]ScopeID
}

func (gr *grafter) copy(t Type) (Type, error) {
	switch t := t.(type) {
	case Prim, Lit, Enum, Dyn:
		return t, nil
	case Var:
		if mapped, ok := gr.vmap[t.ID]; ok {
			return Var{ID: mapped}, nil
		}
		res, done := gr.src.Resolved(t.ID)
		if !done {
			return nil, errors.Errorf("typegraph: graft reached unresolved variable t%d", t.ID)
		}
		id := gr.dst.FreshVar(gr.src.VarSpan(t.ID))
		gr.vmap[t.ID] = id
		inner, err := gr.copy(res)
		if err != nil {
			return nil, err
		}
		if err := gr.dst.SetResolved(id, inner); err != nil {
			return nil, err
		}
		return Var{ID: id}, nil
	case Obj:
		props := gr.src.Props(t.Props)
		copied := make([]Prop, len(props))
		for i, p := range props {
			pt, err := gr.copy(p.Type)
			if err != nil {
				return nil, err
			}
			copied[i] = Prop{Name: p.Name, Type: pt, Optional: p.Optional}
		}
		return Obj{Props: gr.dst.NewProps(copied), Exact: t.Exact}, nil
	case Arr:
		elem, err := gr.copy(t.Elem)
		if err != nil {
			return nil, err
		}
		return Arr{Elem: elem}, nil
	case Fun:
		sig := gr.src.Sig(t.Sig)
		out := CallSig{Scope: gr.scope(sig.Scope)}
		for _, tp := range sig.TypeParams {
			var bound Type
			if tp.Bound != nil {
				var err error
				if bound, err = gr.copy(tp.Bound); err != nil {
					return nil, err
				}
			}
			out.TypeParams = append(out.TypeParams, TypeParam{Name: tp.Name, Bound: bound})
		}
		for _, p := range sig.Params {
			pt, err := gr.copy(p)
			if err != nil {
				return nil, err
			}
			out.Params = append(out.Params, pt)
		}
		if sig.Return != nil {
			ret, err := gr.copy(sig.Return)
			if err != nil {
				return nil, err
			}
			out.Return = ret
		}
		return Fun{Sig: gr.dst.NewSig(out)}, nil
	case Union:
		members, err := gr.copyAll(t.Members)
		if err != nil {
			return nil, err
		}
		return Union{Members: members}, nil
	case Inter:
		members, err := gr.copyAll(t.Members)
		if err != nil {
			return nil, err
		}
		return Inter{Members: members}, nil
	case Generic:
		var bound Type
		if t.Bound != nil {
			var err error
			if bound, err = gr.copy(t.Bound); err != nil {
				return nil, err
			}
		}
		return Generic{Name: t.Name, Scope: gr.scope(t.Scope), Bound: bound}, nil
	case Eval:
		op, err := gr.copy(t.Operand)
		if err != nil {
			return nil, err
		}
		return Eval{Operand: op, Op: t.Op}, nil
	default:
		return nil, errors.Errorf("typegraph: graft of unknown type form %T", t)
	}
}

func (gr *grafter) copyAll(members []Type) ([]Type, error) {
	out := make([]Type, len(members))
	for i, m := range members {
		c, err := gr.copy(m)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (gr *grafter) scope(s ScopeID) ScopeID {
	if mapped, ok := gr.smap[s]; ok {
		return mapped
	}
	mapped := gr.dst.FreshScope()
	gr.smap[s] = mapped
	return mapped
}
