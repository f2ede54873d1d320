package soundness

import (
	"fmt"

	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkUnusedNarrowTests reports property-existence tests whose outcome
// never influenced a later type. The reason names what made the test
// inert; dynamic operands are skipped because narrowing them is how
// untyped data gets re-typed.
func checkUnusedNarrowTests(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for i, t := range p.Ctx.NarrowTests {
		if p.Ctx.NarrowUsed(i) {
			continue
		}
		if containsDyn(p.G, t.Operand) {
			continue
		}
		out = append(out, diagnostics.New(diagnostics.CodeUnusedNarrowTest, t.Span,
			"testing for %q narrows nothing here: %s", t.Prop, narrowReason(p.G, t)))
	}
	return out
}

func narrowReason(g *typegraph.Graph, t typegraph.NarrowTest) string {
	op := stripGeneric(g, t.Operand)
	if propAlways(g, op, t.Prop) {
		return fmt.Sprintf("property %q is always present", t.Prop)
	}
	if propNever(g, op, t.Prop) {
		return fmt.Sprintf("property %q is never present", t.Prop)
	}
	return "no later use depends on the narrowed type"
}

// propAlways reports whether every value of t definitely carries prop.
func propAlways(g *typegraph.Graph, t typegraph.Type, name string) bool {
	switch t := t.(type) {
	case typegraph.Obj:
		p, ok := g.PropNamed(t.Props, name)
		return ok && !p.Optional && !typegraph.Voidable(g, p.Type)
	case typegraph.Union:
		for _, m := range t.Members {
			if !propAlways(g, stripGeneric(g, m), name) {
				return false
			}
		}
		return len(t.Members) > 0
	case typegraph.Inter:
		for _, m := range t.Members {
			if propAlways(g, stripGeneric(g, m), name) {
				return true
			}
		}
		return false
	}
	return false
}

// propNever reports whether no value of t can carry prop. Only exact
// objects rule a property out.
func propNever(g *typegraph.Graph, t typegraph.Type, name string) bool {
	switch t := t.(type) {
	case typegraph.Obj:
		if !t.Exact {
			return false
		}
		_, ok := g.PropNamed(t.Props, name)
		return !ok
	case typegraph.Union:
		for _, m := range t.Members {
			if !propNever(g, stripGeneric(g, m), name) {
				return false
			}
		}
		return len(t.Members) > 0
	case typegraph.Inter:
		for _, m := range t.Members {
			if propNever(g, stripGeneric(g, m), name) {
				return true
			}
		}
		return false
	}
	return false
}
