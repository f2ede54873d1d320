package soundness

import (
	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkNonVoidableProperties flags class fields whose type has no room for
// absence but which some constructor path leaves unassigned. Reading such
// a field observes void where the type promised a value.
//
// The analysis is a straight-line walk of the constructor with branch
// merging at if/else: a field counts as initialized only when every exit
// path, early returns included, has assigned it. A receiver that escapes
// the constructor before the walk finishes (passed to a call or stored
// anywhere) suppresses the check for the whole class, since the escapee
// may finish the initialization where we cannot see it.
func checkNonVoidableProperties(p *Pass) []*diagnostics.Diagnostic {
	if p.Ctx.Program == nil {
		return nil
	}
	var out []*diagnostics.Diagnostic
	ast.Inspect(p.Ctx.Program, func(n ast.Node) bool {
		cls, ok := n.(*ast.ClassDecl)
		if !ok {
			return true
		}
		out = append(out, checkClassInit(p, cls)...)
		return true
	})
	return out
}

func checkClassInit(p *Pass, cls *ast.ClassDecl) []*diagnostics.Diagnostic {
	var candidates []*ast.Field
	for _, f := range cls.Fields {
		if f.Optional || f.Init != nil {
			continue
		}
		t, ok := p.Ctx.TypeOf(f)
		if !ok {
			continue
		}
		if containsDyn(p.G, t) || typegraph.Voidable(p.G, t) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return nil
	}

	flow := &ctorFlow{exitOK: make(map[string]bool, len(candidates))}
	for _, f := range candidates {
		flow.exitOK[f.Name] = true
	}
	state := make(map[string]bool, len(candidates))
	if cls.Ctor != nil {
		var terminated bool
		state, terminated = flow.seq(cls.Ctor.Stmts, state)
		if !terminated {
			flow.exit(state)
		}
	} else {
		flow.exit(state)
	}
	if flow.escaped {
		return nil
	}

	var out []*diagnostics.Diagnostic
	for _, f := range candidates {
		if flow.exitOK[f.Name] {
			continue
		}
		t, _ := p.Ctx.TypeOf(f)
		out = append(out, diagnostics.New(diagnostics.CodeNonVoidableProperty, f.Sp,
			"property %q of class %s is not assigned on every constructor path, but its type %s cannot be void",
			f.Name, cls.Name, typeLabel(p.G, t)))
	}
	return out
}

// ctorFlow folds assignment state over every constructor exit point.
type ctorFlow struct {
	exitOK  map[string]bool
	escaped bool
}

func (c *ctorFlow) exit(state map[string]bool) {
	for name := range c.exitOK {
		if !state[name] {
			c.exitOK[name] = false
		}
	}
}

// seq walks a statement list, threading the set of assigned fields,
// and reports whether control always leaves before falling off the end.
func (c *ctorFlow) seq(stmts []ast.Stmt, state map[string]bool) (map[string]bool, bool) {
	for _, s := range stmts {
		var terminated bool
		state, terminated = c.stmt(s, state)
		if terminated {
			return state, true
		}
	}
	return state, false
}

func (c *ctorFlow) stmt(s ast.Stmt, state map[string]bool) (map[string]bool, bool) {
	switch s := s.(type) {
	case *ast.Assign:
		c.scan(s.Value)
		if m, ok := s.Target.(*ast.Member); ok {
			if _, recv := m.X.(*ast.This); recv {
				if _, tracked := c.exitOK[m.Name]; tracked {
					state[m.Name] = true
				}
				return state, false
			}
		}
		c.scan(s.Target)
		return state, false
	case *ast.Return:
		if s.X != nil {
			c.scan(s.X)
		}
		c.exit(state)
		return state, true
	case *ast.If:
		c.scan(s.Cond)
		thenState, thenT := cloneState(state), false
		if s.Then != nil {
			thenState, thenT = c.seq(s.Then.Stmts, thenState)
		}
		elseState, elseT := cloneState(state), false
		switch e := s.Else.(type) {
		case *ast.Block:
			elseState, elseT = c.seq(e.Stmts, elseState)
		case *ast.If:
			elseState, elseT = c.stmt(e, elseState)
		}
		switch {
		case thenT && elseT:
			return state, true
		case thenT:
			return elseState, false
		case elseT:
			return thenState, false
		default:
			for name := range state {
				state[name] = thenState[name] && elseState[name]
			}
			for name := range thenState {
				state[name] = thenState[name] && elseState[name]
			}
			return state, false
		}
	case *ast.Block:
		return c.seq(s.Stmts, state)
	case *ast.VarDecl:
		if s.Init != nil {
			c.scan(s.Init)
		}
	case *ast.ExprStmt:
		c.scan(s.X)
	case *ast.ExportDecl:
		if s.X != nil {
			c.scan(s.X)
		}
	}
	return state, false
}

// scan looks for the receiver leaking out of the constructor: any This
// that is not the base of a member access counts.
func (c *ctorFlow) scan(e ast.Expr) {
	switch e := e.(type) {
	case *ast.This:
		c.escaped = true
	case *ast.Member:
		if _, recv := e.X.(*ast.This); !recv {
			c.scan(e.X)
		}
	case *ast.OptMember:
		if _, recv := e.X.(*ast.This); !recv {
			c.scan(e.X)
		}
	case *ast.Call:
		c.scan(e.Fn)
		for _, a := range e.Args {
			c.scan(a)
		}
	case *ast.Unary:
		c.scan(e.X)
	case *ast.Binary:
		c.scan(e.X)
		c.scan(e.Y)
	}
}

func cloneState(state map[string]bool) map[string]bool {
	out := make(map[string]bool, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
