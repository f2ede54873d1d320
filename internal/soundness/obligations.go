package soundness

import (
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkObligations replays the comparisons inference deferred until the
// whole graph was resolved: sentinel property matches and literal-subtype
// constraints are only meaningful once both sides have settled. Type
// parameters are stripped to their bounds before comparing.
func checkObligations(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, m := range p.Ctx.PropMatches {
		if containsDyn(p.G, m.Object) || containsDyn(p.G, m.Literal) {
			continue
		}
		obj := stripGeneric(p.G, m.Object)
		cands, sawObject := sentinelCandidates(p.G, obj, m.Prop)
		if !sawObject {
			continue
		}
		if len(cands) == 0 {
			out = append(out, diagnostics.New(diagnostics.CodeSentinelMismatch, m.Span,
				"no variant of %s has a property %q to match against",
				typeLabel(p.G, m.Object), m.Prop))
			continue
		}
		matched := false
		for _, c := range cands {
			if overlaps(p.G, stripGeneric(p.G, c), m.Literal) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, diagnostics.New(diagnostics.CodeSentinelMismatch, m.Span,
				"property %q can never equal %s", m.Prop, typeLabel(p.G, m.Literal)))
		}
	}
	for _, lc := range p.Ctx.LiteralChecks {
		if containsDyn(p.G, lc.Literal) || containsDyn(p.G, lc.Expected) {
			continue
		}
		want := stripGeneric(p.G, lc.Expected)
		if !Subtype(p.G, deref(p.G, lc.Literal), want) {
			out = append(out, diagnostics.New(diagnostics.CodeLiteralSubtype, lc.Span,
				"%s is not assignable to %s",
				typeLabel(p.G, lc.Literal), typeLabel(p.G, lc.Expected)))
		}
	}
	return out
}

// sentinelCandidates collects the types prop takes across the object-like
// variants of t. sawObject distinguishes "no variant has the property"
// from "this is not an object at all", which is not this check's
// complaint.
func sentinelCandidates(g *typegraph.Graph, t typegraph.Type, prop string) (cands []typegraph.Type, sawObject bool) {
	switch t := t.(type) {
	case typegraph.Obj:
		sawObject = true
		if p, ok := g.PropNamed(t.Props, prop); ok {
			cands = append(cands, p.Type)
		}
	case typegraph.Union:
		for _, m := range t.Members {
			mc, saw := sentinelCandidates(g, stripGeneric(g, m), prop)
			cands = append(cands, mc...)
			sawObject = sawObject || saw
		}
	case typegraph.Inter:
		for _, m := range t.Members {
			mc, saw := sentinelCandidates(g, stripGeneric(g, m), prop)
			cands = append(cands, mc...)
			sawObject = sawObject || saw
		}
	}
	return cands, sawObject
}
