// Package signature compacts a context's exports into a minimal reduced
// graph plus a stable content hash. Only what an export can reach is
// copied; variables get fresh dense ids in visitation order and acyclic
// variable contents are inlined away entirely, so two contexts whose
// exports are structurally identical, whatever their original ids were,
// reduce to the same shape and the same hash. Downstream linkers compare
// hashes to decide whether a dependent needs re-merging at all.
package signature

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/resolver"
	"github.com/weftlang/weft/internal/typegraph"
)

// Signature is a published module surface: the reduced graph, the export
// types addressed against it, and the content hash.
type Signature struct {
	G       *typegraph.Graph
	Exports map[string]typegraph.Type
	Hash    uint64

	// Context identifies the checked context this signature came from.
	Context uuid.UUID

	canon string
}

// Export looks up the export published under a module key.
func (s *Signature) Export(key string) (typegraph.Type, bool) {
	t, ok := s.Exports[key]
	return t, ok
}

// Canonical returns the serialized form the hash was computed over.
func (s *Signature) Canonical() string { return s.canon }

// Reduce builds the signature of ctx. The policy decides what a variable
// with no lower bounds becomes: Annotate reports a missing annotation on
// the owning context and emits the unsound sentinel, Library emits the
// library sentinel silently. A signature never exposes an unresolved
// variable either way. The source graph is read, never written: reducing
// a dependency must not mutate it.
func Reduce(ctx *typegraph.Context, policy resolver.Policy) (*Signature, error) {
	r := &reducer{
		src:      ctx.G,
		dst:      typegraph.NewGraph(),
		policy:   policy,
		diags:    ctx.Diags,
		vmap:     make(map[typegraph.VarID]typegraph.VarID),
		imap:     make(map[typegraph.VarID]typegraph.Type),
		smap:     make(map[typegraph.ScopeID]typegraph.ScopeID),
		visiting: set.New[typegraph.VarID](8),
	}

	exports := make(map[string]typegraph.Type)
	for _, key := range ctx.ExportKeys() {
		t, _ := ctx.Export(key)
		rt, err := r.reduce(t, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "reducing export %q", key)
		}
		exports[key] = rt
	}

	canon := canonical(r.dst, ctx.ExportKeys(), exports)
	return &Signature{
		G:       r.dst,
		Exports: exports,
		Hash:    xxhash.Sum64String(canon),
		Context: ctx.ID,
		canon:   canon,
	}, nil
}

type reducer struct {
	src      *typegraph.Graph
	dst      *typegraph.Graph
	policy   resolver.Policy
	diags    *diagnostics.Bag
	vmap     map[typegraph.VarID]typegraph.VarID
	imap     map[typegraph.VarID]typegraph.Type
	smap     map[typegraph.ScopeID]typegraph.ScopeID
	visiting *set.Set[typegraph.VarID]
}

func (r *reducer) reduce(t typegraph.Type, depth int) (typegraph.Type, error) {
	if depth > config.MaxTypeDepth {
		return nil, errors.New("signature: reduction exceeds depth cap; runaway cycle upstream")
	}

	switch t := t.(type) {
	case typegraph.Prim, typegraph.Lit, typegraph.Enum, typegraph.Dyn:
		return t, nil

	case typegraph.Var:
		return r.reduceVar(t.ID, depth)

	case typegraph.Obj:
		props := r.src.Props(t.Props)
		out := make([]typegraph.Prop, len(props))
		for i, p := range props {
			pt, err := r.reduce(p.Type, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = typegraph.Prop{Name: p.Name, Type: pt, Optional: p.Optional}
		}
		return typegraph.Obj{Props: r.dst.NewProps(out), Exact: t.Exact}, nil

	case typegraph.Arr:
		elem, err := r.reduce(t.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		return typegraph.Arr{Elem: elem}, nil

	case typegraph.Fun:
		sig := r.src.Sig(t.Sig)
		out := typegraph.CallSig{Scope: r.scope(sig.Scope)}
		for _, tp := range sig.TypeParams {
			var bound typegraph.Type
			if tp.Bound != nil {
				var err error
				if bound, err = r.reduce(tp.Bound, depth+1); err != nil {
					return nil, err
				}
			}
			out.TypeParams = append(out.TypeParams, typegraph.TypeParam{Name: tp.Name, Bound: bound})
		}
		for _, p := range sig.Params {
			pt, err := r.reduce(p, depth+1)
			if err != nil {
				return nil, err
			}
			out.Params = append(out.Params, pt)
		}
		if sig.Return != nil {
			ret, err := r.reduce(sig.Return, depth+1)
			if err != nil {
				return nil, err
			}
			out.Return = ret
		}
		return typegraph.Fun{Sig: r.dst.NewSig(out)}, nil

	case typegraph.Union:
		members, err := r.reduceAll(t.Members, depth)
		if err != nil {
			return nil, err
		}
		return typegraph.MergeLower(members), nil

	case typegraph.Inter:
		members, err := r.reduceAll(t.Members, depth)
		if err != nil {
			return nil, err
		}
		return typegraph.Inter{Members: members}, nil

	case typegraph.Generic:
		var bound typegraph.Type
		if t.Bound != nil {
			var err error
			if bound, err = r.reduce(t.Bound, depth+1); err != nil {
				return nil, err
			}
		}
		return typegraph.Generic{Name: t.Name, Scope: r.scope(t.Scope), Bound: bound}, nil

	case typegraph.Eval:
		op, err := r.reduce(t.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		return typegraph.Eval{Operand: op, Op: t.Op}, nil

	default:
		return nil, errors.Errorf("signature: unknown type form %T", t)
	}
}

// reduceVar copies one variable. Content that never loops back is inlined
// so the variable disappears from the signature; a variable reached again
// while its own content is being reduced is the root of a cycle and gets
// a dense dst id on the spot, which the unwinding frame then resolves.
func (r *reducer) reduceVar(id typegraph.VarID, depth int) (typegraph.Type, error) {
	if mapped, ok := r.vmap[id]; ok {
		return typegraph.Var{ID: mapped}, nil
	}
	if inlined, ok := r.imap[id]; ok {
		return inlined, nil
	}
	if r.visiting.Contains(id) {
		mapped := r.dst.FreshVar(r.src.VarSpan(id))
		r.vmap[id] = mapped
		return typegraph.Var{ID: mapped}, nil
	}

	content, ok := r.src.Resolved(id)
	if !ok {
		if bounds := r.src.Lower(id); len(bounds) > 0 {
			r.visiting.Insert(id)
			defer r.visiting.Remove(id)
			reduced := make([]typegraph.Type, 0, len(bounds))
			for _, b := range bounds {
				rb, err := r.reduce(b, depth+1)
				if err != nil {
					return nil, err
				}
				reduced = append(reduced, rb)
			}
			return r.finishVar(id, typegraph.MergeLower(reduced))
		}
		return r.sentinel(id), nil
	}

	r.visiting.Insert(id)
	defer r.visiting.Remove(id)
	reduced, err := r.reduce(content, depth+1)
	if err != nil {
		return nil, err
	}
	return r.finishVar(id, reduced)
}

func (r *reducer) finishVar(id typegraph.VarID, reduced typegraph.Type) (typegraph.Type, error) {
	if mapped, ok := r.vmap[id]; ok {
		if err := r.dst.SetResolved(mapped, reduced); err != nil {
			return nil, err
		}
		return typegraph.Var{ID: mapped}, nil
	}
	r.imap[id] = reduced
	return reduced, nil
}

func (r *reducer) sentinel(id typegraph.VarID) typegraph.Type {
	if r.policy == resolver.Library {
		return typegraph.Dyn{Origin: typegraph.OriginLibrary}
	}
	if r.policy == resolver.Annotate && r.diags != nil {
		r.diags.Add(diagnostics.New(diagnostics.CodeMissingAnnotation, r.src.VarSpan(id),
			"exported value has no inferable type; add an annotation").WithSeverity(diagnostics.Error))
	}
	return typegraph.Dyn{Origin: typegraph.OriginUnsound}
}

func (r *reducer) reduceAll(members []typegraph.Type, depth int) ([]typegraph.Type, error) {
	out := make([]typegraph.Type, len(members))
	for i, m := range members {
		rm, err := r.reduce(m, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = rm
	}
	return out, nil
}

func (r *reducer) scope(s typegraph.ScopeID) typegraph.ScopeID {
	if mapped, ok := r.smap[s]; ok {
		return mapped
	}
	mapped := r.dst.FreshScope()
	r.smap[s] = mapped
	return mapped
}

// canonical serializes a reduced signature with every container expanded
// in place and variables referenced by their dense ids, whose contents
// follow in one table. Identical structure serializes identically, so the
// hash is a pure function of shape.
func canonical(g *typegraph.Graph, keys []string, exports map[string]typegraph.Type) string {
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "export %q=", key)
		writeCanon(&b, g, exports[key])
		b.WriteByte('\n')
	}
	for i := 0; i < g.NumVars(); i++ {
		fmt.Fprintf(&b, "t%d=", i)
		if res, ok := g.Resolved(typegraph.VarID(i)); ok {
			writeCanon(&b, g, res)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func writeCanon(b *strings.Builder, g *typegraph.Graph, t typegraph.Type) {
	switch t := t.(type) {
	case typegraph.Var:
		fmt.Fprintf(b, "t%d", t.ID)
	case typegraph.Prim:
		fmt.Fprintf(b, "p%d", int(t.Kind))
	case typegraph.Lit:
		fmt.Fprintf(b, "l%d:%q", int(t.Kind), t.Raw)
	case typegraph.Enum:
		fmt.Fprintf(b, "e%d:%q", int(t.Rep), t.Name)
	case typegraph.Dyn:
		fmt.Fprintf(b, "d%d", int(t.Origin))
	case typegraph.Obj:
		b.WriteByte('{')
		for i, p := range g.Props(t.Props) {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q", p.Name)
			if p.Optional {
				b.WriteByte('?')
			}
			b.WriteByte(':')
			writeCanon(b, g, p.Type)
		}
		b.WriteByte('}')
		if t.Exact {
			b.WriteByte('!')
		}
	case typegraph.Arr:
		b.WriteString("arr[")
		writeCanon(b, g, t.Elem)
		b.WriteByte(']')
	case typegraph.Fun:
		sig := g.Sig(t.Sig)
		fmt.Fprintf(b, "fn@%d<", sig.Scope)
		for i, tp := range sig.TypeParams {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q", tp.Name)
			if tp.Bound != nil {
				b.WriteByte(':')
				writeCanon(b, g, tp.Bound)
			}
		}
		b.WriteString(">(")
		for i, p := range sig.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanon(b, g, p)
		}
		b.WriteString(")->")
		if sig.Return != nil {
			writeCanon(b, g, sig.Return)
		}
	case typegraph.Union:
		b.WriteString("u(")
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanon(b, g, m)
		}
		b.WriteByte(')')
	case typegraph.Inter:
		b.WriteString("i(")
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanon(b, g, m)
		}
		b.WriteByte(')')
	case typegraph.Generic:
		fmt.Fprintf(b, "g%d:%q", t.Scope, t.Name)
		if t.Bound != nil {
			b.WriteByte('[')
			writeCanon(b, g, t.Bound)
			b.WriteByte(']')
		}
	case typegraph.Eval:
		fmt.Fprintf(b, "x%d(", int(t.Op))
		writeCanon(b, g, t.Operand)
		b.WriteByte(')')
	}
}
