// Package resolver forces every still-open variable of a graph to a
// concrete type. A variable with lower bounds becomes their merge; one
// with none becomes the conservative dynamic sentinel chosen by policy.
// Derived type expressions are re-derived once their operands are known.
// Resolution is memoized on the graph itself, so running it twice is a
// no-op, and cycle-guarded, so recursive types terminate as variable
// back-references.
package resolver

import (
	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// Policy picks what an unbounded variable is forced to.
type Policy int

const (
	// Quiet forces to the unsound sentinel without a diagnostic. This is
	// the in-graph default: an unbounded variable is not itself a finding.
	Quiet Policy = iota
	// Annotate forces to the unsound sentinel and reports a missing
	// annotation. Signature reduction of user code uses this: an exported
	// unresolved variable is something the author can fix.
	Annotate
	// Library forces to the library sentinel without a diagnostic;
	// library declarations are expected to under-constrain.
	Library
)

// Resolver resolves one graph. It may be applied to several contexts as
// long as they share the graph it was built for.
type Resolver struct {
	g        *typegraph.Graph
	policy   Policy
	diags    *diagnostics.Bag
	visiting *set.Set[typegraph.VarID]
	evals    map[string]typegraph.Type
}

// New returns a resolver over g. diags receives policy diagnostics and
// may be nil under Quiet or Library.
func New(g *typegraph.Graph, policy Policy, diags *diagnostics.Bag) *Resolver {
	return &Resolver{
		g:        g,
		policy:   policy,
		diags:    diags,
		visiting: set.New[typegraph.VarID](16),
		evals:    make(map[string]typegraph.Type),
	}
}

// Run closes over a context: every variable of the shared graph is
// forced, then the context's exports, recorded expression types and
// recorded check obligations are normalized so the soundness suite reads
// fully-derived types. Errors are invariant violations only.
func (r *Resolver) Run(ctx *typegraph.Context) error {
	for i := 0; i < r.g.NumVars(); i++ {
		if _, err := r.Force(typegraph.VarID(i)); err != nil {
			return err
		}
	}

	for _, key := range ctx.ExportKeys() {
		t, _ := ctx.Export(key)
		nt, err := r.Normalize(t)
		if err != nil {
			return errors.Wrapf(err, "normalizing export %q", key)
		}
		ctx.SetExport(key, nt)
	}

	if err := r.normalizeObligations(ctx); err != nil {
		return err
	}
	return nil
}

func (r *Resolver) normalizeObligations(ctx *typegraph.Context) error {
	var err error
	norm := func(t typegraph.Type) typegraph.Type {
		if err != nil || t == nil {
			return t
		}
		var nt typegraph.Type
		if nt, err = r.Normalize(t); err != nil {
			return t
		}
		return nt
	}

	for i := range ctx.Conds {
		ctx.Conds[i].Operand = norm(ctx.Conds[i].Operand)
	}
	for i := range ctx.NarrowTests {
		ctx.NarrowTests[i].Operand = norm(ctx.NarrowTests[i].Operand)
	}
	for i := range ctx.OptChains {
		ctx.OptChains[i].Operand = norm(ctx.OptChains[i].Operand)
	}
	for i := range ctx.Invariants {
		ctx.Invariants[i].Cond = norm(ctx.Invariants[i].Cond)
	}
	for i := range ctx.Asserts {
		ctx.Asserts[i].Value = norm(ctx.Asserts[i].Value)
		ctx.Asserts[i].Target = norm(ctx.Asserts[i].Target)
	}
	for i := range ctx.PropMatches {
		ctx.PropMatches[i].Object = norm(ctx.PropMatches[i].Object)
		ctx.PropMatches[i].Literal = norm(ctx.PropMatches[i].Literal)
	}
	for i := range ctx.LiteralChecks {
		ctx.LiteralChecks[i].Literal = norm(ctx.LiteralChecks[i].Literal)
		ctx.LiteralChecks[i].Expected = norm(ctx.LiteralChecks[i].Expected)
	}
	return err
}

// Force resolves one variable and returns its resolved type. Bounds that
// reference other variables are forced first; a bound that loops back to
// a variable currently being forced stays a variable reference, which is
// how recursive types survive resolution. Bounds that collapse entirely
// onto the variable itself carry no information and force the policy
// sentinel.
func (r *Resolver) Force(id typegraph.VarID) (typegraph.Type, error) {
	if t, done := r.g.Resolved(id); done {
		return t, nil
	}
	if r.visiting.Contains(id) {
		return typegraph.Var{ID: id}, nil
	}
	r.visiting.Insert(id)
	defer r.visiting.Remove(id)

	bounds := r.g.Lower(id)
	merged, err := r.mergeBounds(id, bounds)
	if err != nil {
		return nil, err
	}
	if err := r.g.SetResolved(id, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (r *Resolver) mergeBounds(id typegraph.VarID, bounds []typegraph.Type) (typegraph.Type, error) {
	self := typegraph.KeyOf(typegraph.Var{ID: id})
	resolved := make([]typegraph.Type, 0, len(bounds))
	for _, b := range bounds {
		nb, err := r.Normalize(b)
		if err != nil {
			return nil, err
		}
		if typegraph.KeyOf(nb) == self {
			continue
		}
		resolved = append(resolved, nb)
	}
	if len(resolved) == 0 {
		return r.sentinel(id), nil
	}
	return typegraph.MergeLower(resolved), nil
}

func (r *Resolver) sentinel(id typegraph.VarID) typegraph.Type {
	switch r.policy {
	case Library:
		return typegraph.Dyn{Origin: typegraph.OriginLibrary}
	case Annotate:
		if r.diags != nil {
			r.diags.Add(diagnostics.New(diagnostics.CodeMissingAnnotation, r.g.VarSpan(id),
				"type of this value cannot be determined; add an annotation").WithSeverity(diagnostics.Error))
		}
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}
	default:
		return typegraph.Dyn{Origin: typegraph.OriginUnsound}
	}
}

// Normalize rewrites a type so that every variable in it is forced and
// every derived expression is re-derived. Variables stay as references;
// containers are re-interned only when their contents changed.
func (r *Resolver) Normalize(t typegraph.Type) (typegraph.Type, error) {
	return r.normalize(t, 0)
}

func (r *Resolver) normalize(t typegraph.Type, depth int) (typegraph.Type, error) {
	if depth > config.MaxTypeDepth {
		return nil, errors.New("resolver: type structure exceeds depth cap; runaway cycle upstream")
	}

	switch t := t.(type) {
	case typegraph.Prim, typegraph.Lit, typegraph.Enum, typegraph.Dyn:
		return t, nil

	case typegraph.Var:
		if _, err := r.Force(t.ID); err != nil {
			return nil, err
		}
		return t, nil

	case typegraph.Eval:
		op, err := r.normalize(t.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		return r.derive(op, t.Op, depth)

	case typegraph.Arr:
		elem, err := r.normalize(t.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		return typegraph.Arr{Elem: elem}, nil

	case typegraph.Obj:
		props := r.g.Props(t.Props)
		out := make([]typegraph.Prop, len(props))
		changed := false
		for i, p := range props {
			pt, err := r.normalize(p.Type, depth+1)
			if err != nil {
				return nil, err
			}
			if !typegraph.Equal(pt, p.Type) {
				changed = true
			}
			out[i] = typegraph.Prop{Name: p.Name, Type: pt, Optional: p.Optional}
		}
		if !changed {
			return t, nil
		}
		return typegraph.Obj{Props: r.g.NewProps(out), Exact: t.Exact}, nil

	case typegraph.Fun:
		sig := r.g.Sig(t.Sig)
		out := typegraph.CallSig{Scope: sig.Scope}
		changed := false
		for _, tp := range sig.TypeParams {
			bound := tp.Bound
			if bound != nil {
				nb, err := r.normalize(bound, depth+1)
				if err != nil {
					return nil, err
				}
				if !typegraph.Equal(nb, bound) {
					changed = true
				}
				bound = nb
			}
			out.TypeParams = append(out.TypeParams, typegraph.TypeParam{Name: tp.Name, Bound: bound})
		}
		for _, p := range sig.Params {
			np, err := r.normalize(p, depth+1)
			if err != nil {
				return nil, err
			}
			if !typegraph.Equal(np, p) {
				changed = true
			}
			out.Params = append(out.Params, np)
		}
		if sig.Return != nil {
			ret, err := r.normalize(sig.Return, depth+1)
			if err != nil {
				return nil, err
			}
			if !typegraph.Equal(ret, sig.Return) {
				changed = true
			}
			out.Return = ret
		}
		if !changed {
			return t, nil
		}
		return typegraph.Fun{Sig: r.g.NewSig(out)}, nil

	case typegraph.Union:
		members, err := r.normalizeAll(t.Members, depth)
		if err != nil {
			return nil, err
		}
		return typegraph.MergeLower(members), nil

	case typegraph.Inter:
		members, err := r.normalizeAll(t.Members, depth)
		if err != nil {
			return nil, err
		}
		return typegraph.Inter{Members: members}, nil

	case typegraph.Generic:
		if t.Bound == nil {
			return t, nil
		}
		bound, err := r.normalize(t.Bound, depth+1)
		if err != nil {
			return nil, err
		}
		return typegraph.Generic{Name: t.Name, Scope: t.Scope, Bound: bound}, nil

	default:
		return nil, errors.Errorf("resolver: unknown type form %T", t)
	}
}

func (r *Resolver) normalizeAll(members []typegraph.Type, depth int) ([]typegraph.Type, error) {
	out := make([]typegraph.Type, len(members))
	for i, m := range members {
		nm, err := r.normalize(m, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = nm
	}
	return out, nil
}
