package soundness

import (
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// falsyKinds records which falsy-capable kinds occur in a tested type.
type falsyKinds struct {
	Bool   bool
	Number bool
	String bool
	Mixed  bool
	Enum   bool
}

type falsyFinding struct {
	code  string
	noun  string
	value string
}

func (k falsyKinds) findings() []falsyFinding {
	var out []falsyFinding
	if k.Bool {
		out = append(out, falsyFinding{diagnostics.CodeSketchyNullBool, "boolean", "false"})
	}
	if k.Number {
		out = append(out, falsyFinding{diagnostics.CodeSketchyNullNumber, "number", "0"})
	}
	if k.String {
		out = append(out, falsyFinding{diagnostics.CodeSketchyNullString, "string", "the empty string"})
	}
	if k.Mixed {
		out = append(out, falsyFinding{diagnostics.CodeSketchyNullMixed, "mixed value", "a falsy one"})
	}
	if k.Enum {
		out = append(out, falsyFinding{diagnostics.CodeSketchyNullEnum, "enum", "a falsy member"})
	}
	return out
}

func collectFalsy(g *typegraph.Graph, t typegraph.Type, k *falsyKinds, seen map[typegraph.VarID]struct{}) {
	switch t := t.(type) {
	case typegraph.Prim:
		switch t.Kind {
		case typegraph.PrimBool:
			k.Bool = true
		case typegraph.PrimNumber:
			k.Number = true
		case typegraph.PrimString:
			k.String = true
		case typegraph.PrimMixed:
			k.Mixed = true
		}
	case typegraph.Lit:
		if !litFalsy(t) {
			return
		}
		switch t.Kind {
		case typegraph.PrimBool:
			k.Bool = true
		case typegraph.PrimNumber:
			k.Number = true
		case typegraph.PrimString:
			k.String = true
		}
	case typegraph.Enum:
		k.Enum = true
	case typegraph.Union:
		for _, m := range t.Members {
			collectFalsy(g, m, k, seen)
		}
	case typegraph.Inter:
		for _, m := range t.Members {
			collectFalsy(g, m, k, seen)
		}
	case typegraph.Generic:
		if t.Bound == nil {
			k.Mixed = true
			return
		}
		collectFalsy(g, t.Bound, k, seen)
	case typegraph.Var:
		if _, cyc := seen[t.ID]; cyc {
			return
		}
		seen[t.ID] = struct{}{}
		if res, ok := g.Resolved(t.ID); ok {
			collectFalsy(g, res, k, seen)
			return
		}
		for _, b := range g.Lower(t.ID) {
			collectFalsy(g, b, k, seen)
		}
	}
}

// checkSketchyNull flags existence tests that conflate absence with a falsy
// value. `if (x)` on a possibly-void number cannot tell void from 0, so
// the zero case silently takes the absent branch. One finding per
// offending kind at a location; a value that can never be void tests
// cleanly and is skipped.
func checkSketchyNull(p *Pass) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	seen := make(map[string]struct{})
	for _, c := range p.Ctx.Conds {
		if containsDyn(p.G, c.Operand) {
			continue
		}
		if !typegraph.Voidable(p.G, c.Operand) {
			continue
		}
		var k falsyKinds
		collectFalsy(p.G, c.Operand, &k, make(map[typegraph.VarID]struct{}))
		for _, f := range k.findings() {
			key := c.Span.String() + "\x00" + f.code
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, diagnostics.New(f.code, c.Span,
				"condition cannot tell a missing %s from %s; compare against null instead",
				f.noun, f.value))
		}
	}
	return out
}
