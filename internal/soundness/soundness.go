// Package soundness runs the per-file check suite over a resolved
// context. Each check is an independent pure function from context to
// findings; they share no intermediate state and none can abort the run,
// so the suite is the concatenation of whatever each check found. Lint
// settings tune or disable the style-level codes; excuse comments silence
// any code at one location.
package soundness

import (
	"github.com/weftlang/weft/internal/config"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// Pass is the read-only view a check runs against.
type Pass struct {
	Ctx *typegraph.Context
	G   *typegraph.Graph
}

// Check is one soundness analysis.
type Check struct {
	Name string
	Run  func(p *Pass) []*diagnostics.Diagnostic
}

// Checks returns the suite in its fixed order. The order is stable for
// output reproducibility only; no check feeds another.
func Checks() []Check {
	return []Check{
		{Name: "sketchy-null", Run: checkSketchyNull},
		{Name: "non-voidable-property", Run: checkNonVoidableProperties},
		{Name: "unused-narrow-test", Run: checkUnusedNarrowTests},
		{Name: "optional-chain-redundancy", Run: checkOptionalChains},
		{Name: "redundant-invariant", Run: checkInvariants},
		{Name: "type-assert-validity", Run: checkTypeAsserts},
		{Name: "escaped-generic", Run: checkEscapedGenerics},
		{Name: "deferred-obligations", Run: checkObligations},
		{Name: "instantiation-underconstraint", Run: checkInstantiations},
	}
}

// Run executes the whole suite, applies lint settings and excuses, and
// appends the surviving findings to the context's diagnostic bag. The
// returned slice is what was appended.
func Run(ctx *typegraph.Context, settings *config.LintSettings) []*diagnostics.Diagnostic {
	p := &Pass{Ctx: ctx, G: ctx.G}
	var out []*diagnostics.Diagnostic
	for _, c := range Checks() {
		for _, d := range c.Run(p) {
			if d == nil {
				continue
			}
			if ctx.Program != nil && ctx.Program.Excused(d.Span, d.Code) {
				continue
			}
			if diagnostics.IsLintCode(d.Code) {
				switch settings.Level(d.Code) {
				case config.LintOff:
					continue
				case config.LintError:
					d.Severity = diagnostics.Error
				default:
					d.Severity = diagnostics.Warning
				}
			} else {
				d.Severity = diagnostics.Error
			}
			out = append(out, d)
		}
	}
	ctx.Diags.AddAll(out)
	return out
}
