package soundness

import (
	"github.com/weftlang/weft/internal/diagnostics"
)

// checkInvariants flags invariant calls whose condition can never be
// falsy. Such an assertion neither fails nor narrows; it only suggests a
// danger that is not there.
func checkInvariants(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, inv := range p.Ctx.Invariants {
		if containsDyn(p.G, inv.Cond) {
			continue
		}
		if canBeFalsy(p.G, inv.Cond) {
			continue
		}
		out = append(out, diagnostics.New(diagnostics.CodeRedundantInvariant, inv.Span,
			"invariant condition of type %s is always truthy", typeLabel(p.G, inv.Cond)))
	}
	return out
}
