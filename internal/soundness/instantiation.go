package soundness

import (
	"github.com/weftlang/weft/internal/diagnostics"
)

// checkInstantiations reports generic calls whose inference produced no
// binding for a type parameter. The variable standing in for such a
// parameter reaches resolution with an empty bound set and collapses to
// the unsound dynamic, so the call quietly stops being checked; better to
// say so at the call than to let the silence spread.
func checkInstantiations(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, inst := range p.Ctx.Instantiations {
		n := len(inst.Vars)
		if len(inst.Params) < n {
			n = len(inst.Params)
		}
		for i := 0; i < n; i++ {
			if len(p.G.Lower(inst.Vars[i])) > 0 {
				continue
			}
			callee := inst.Callee
			if callee == "" {
				callee = "this call"
			}
			out = append(out, diagnostics.New(diagnostics.CodeUnderconstrained, inst.Span,
				"cannot infer type parameter %q of %s: no argument constrains it",
				inst.Params[i].Name, callee).
				WithNote("annotate the result or pass an argument that mentions %q", inst.Params[i].Name))
		}
	}
	return out
}
