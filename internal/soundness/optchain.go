package soundness

import (
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkOptionalChains flags `x?.p` where x is provably present. The chain
// still works, but it advertises an absence that cannot happen and guards
// downstream code against a void that never arrives.
func checkOptionalChains(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, oc := range p.Ctx.OptChains {
		if containsDyn(p.G, oc.Operand) {
			continue
		}
		if typegraph.Voidable(p.G, oc.Operand) {
			continue
		}
		out = append(out, diagnostics.New(diagnostics.CodeRedundantOptChain, oc.Span,
			"optional chain on %s, which is always present; a plain access does the same",
			typeLabel(p.G, oc.Operand)))
	}
	return out
}
