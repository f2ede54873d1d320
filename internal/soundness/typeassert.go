package soundness

import (
	"fmt"

	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkTypeAsserts validates the target shape of each assertType call.
// The runtime validator can test primitives, literals, enums and
// structures built from them; functions, type parameters and empty have
// no runtime representation to test against, so asserting them is a bug
// in the assertion, not in the value.
func checkTypeAsserts(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, a := range p.Ctx.Asserts {
		if containsDyn(p.G, a.Target) {
			continue
		}
		why, ok := validatable(p.G, a.Target, make(map[typegraph.VarID]struct{}))
		if ok {
			continue
		}
		out = append(out, diagnostics.New(diagnostics.CodeInvalidTypeAssert, a.Span,
			"this assertion cannot be checked at runtime: %s", why))
	}
	return out
}

// validatable walks a type the way the runtime validator would and
// reports the first part it cannot test.
func validatable(g *typegraph.Graph, t typegraph.Type, seen map[typegraph.VarID]struct{}) (string, bool) {
	switch t := t.(type) {
	case typegraph.Prim:
		if t.Kind == typegraph.PrimEmpty {
			return "no runtime value inhabits empty", false
		}
		return "", true
	case typegraph.Lit, typegraph.Enum, typegraph.Dyn:
		return "", true
	case typegraph.Obj:
		for _, prop := range g.Props(t.Props) {
			if why, ok := validatable(g, prop.Type, seen); !ok {
				return fmt.Sprintf("property %q: %s", prop.Name, why), false
			}
		}
		return "", true
	case typegraph.Arr:
		if why, ok := validatable(g, t.Elem, seen); !ok {
			return "array element: " + why, false
		}
		return "", true
	case typegraph.Union:
		for _, m := range t.Members {
			if why, ok := validatable(g, m, seen); !ok {
				return why, false
			}
		}
		return "", true
	case typegraph.Inter:
		for _, m := range t.Members {
			if why, ok := validatable(g, m, seen); !ok {
				return why, false
			}
		}
		return "", true
	case typegraph.Fun:
		return "function types have no runtime representation", false
	case typegraph.Generic:
		return fmt.Sprintf("type parameter %q has no runtime representation", t.Name), false
	case typegraph.Eval:
		return "the derived type was never computed", false
	case typegraph.Var:
		if _, cyc := seen[t.ID]; cyc {
			return "", true
		}
		seen[t.ID] = struct{}{}
		if res, done := g.Resolved(t.ID); done {
			return validatable(g, res, seen)
		}
		return "", true
	default:
		return "", true
	}
}
