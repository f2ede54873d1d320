package soundness

import (
	"fmt"

	"github.com/weftlang/weft/internal/ast"
	"github.com/weftlang/weft/internal/diagnostics"
	"github.com/weftlang/weft/internal/source"
	"github.com/weftlang/weft/internal/typegraph"
)

// checkEscapedGenerics walks the types recorded on the program's
// statements. A type parameter may appear only under a signature whose
// scope declares it; one surviving anywhere else has leaked past its
// scope and would let a caller observe an uninstantiated parameter.
func checkEscapedGenerics(p *Pass) []*diagnostics.Diagnostic {
	if p.Ctx.Program == nil {
		return nil
	}
	w := &escapeWalker{p: p, seen: make(map[string]struct{})}
	for _, s := range p.Ctx.Program.Stmts {
		w.stmt(s, nil)
	}
	return w.out
}

type escapeWalker struct {
	p    *Pass
	out  []*diagnostics.Diagnostic
	seen map[string]struct{}
}

// stmt tracks which generic scopes are open at each node. A function
// declaration opens the scope of its own signature for its body.
func (w *escapeWalker) stmt(s ast.Stmt, open []typegraph.ScopeID) {
	switch s := s.(type) {
	case *ast.FuncDecl:
		w.checkNode(s, open)
		inner := open
		if t, ok := w.p.Ctx.TypeOf(s); ok {
			if fun, isFun := deref(w.p.G, t).(typegraph.Fun); isFun {
				inner = append(append([]typegraph.ScopeID(nil), open...), w.p.G.Sig(fun.Sig).Scope)
			}
		}
		if s.Body != nil {
			for _, bs := range s.Body.Stmts {
				w.stmt(bs, inner)
			}
		}
	case *ast.ClassDecl:
		for _, f := range s.Fields {
			w.checkNode(f, open)
			if f.Init != nil {
				w.expr(f.Init, open)
			}
		}
		if s.Ctor != nil {
			for _, cs := range s.Ctor.Stmts {
				w.stmt(cs, open)
			}
		}
	case *ast.If:
		w.expr(s.Cond, open)
		if s.Then != nil {
			for _, ts := range s.Then.Stmts {
				w.stmt(ts, open)
			}
		}
		if s.Else != nil {
			w.stmt(s.Else, open)
		}
	case *ast.Block:
		for _, bs := range s.Stmts {
			w.stmt(bs, open)
		}
	case *ast.Return:
		if s.X != nil {
			w.expr(s.X, open)
		}
	case *ast.Assign:
		w.expr(s.Target, open)
		w.expr(s.Value, open)
	case *ast.ExprStmt:
		w.expr(s.X, open)
	case *ast.VarDecl:
		w.checkNode(s, open)
		if s.Init != nil {
			w.expr(s.Init, open)
		}
	case *ast.ExportDecl:
		w.checkNode(s, open)
		if s.X != nil {
			w.expr(s.X, open)
		}
	}
}

func (w *escapeWalker) expr(e ast.Expr, open []typegraph.ScopeID) {
	w.checkNode(e, open)
	switch e := e.(type) {
	case *ast.Member:
		w.expr(e.X, open)
	case *ast.OptMember:
		w.expr(e.X, open)
	case *ast.Call:
		w.expr(e.Fn, open)
		for _, a := range e.Args {
			w.expr(a, open)
		}
	case *ast.Unary:
		w.expr(e.X, open)
	case *ast.Binary:
		w.expr(e.X, open)
		w.expr(e.Y, open)
	}
}

func (w *escapeWalker) checkNode(n ast.Node, open []typegraph.ScopeID) {
	t, ok := w.p.Ctx.TypeOf(n)
	if !ok {
		return
	}
	allowed := make(map[typegraph.ScopeID]struct{}, len(open))
	for _, s := range open {
		allowed[s] = struct{}{}
	}
	w.walkType(t, allowed, n.Span(), make(map[typegraph.VarID]struct{}))
}

func (w *escapeWalker) walkType(t typegraph.Type, allowed map[typegraph.ScopeID]struct{}, span source.Span, seen map[typegraph.VarID]struct{}) {
	switch t := t.(type) {
	case typegraph.Generic:
		if _, ok := allowed[t.Scope]; !ok {
			key := fmt.Sprintf("%s\x00%s\x00%d", span, t.Name, t.Scope)
			if _, dup := w.seen[key]; !dup {
				w.seen[key] = struct{}{}
				w.out = append(w.out, diagnostics.New(diagnostics.CodeEscapedGeneric, span,
					"type parameter %q escapes the signature that declares it", t.Name))
			}
		}
		if t.Bound != nil {
			w.walkType(t.Bound, allowed, span, seen)
		}
	case typegraph.Fun:
		sig := w.p.G.Sig(t.Sig)
		inner := make(map[typegraph.ScopeID]struct{}, len(allowed)+1)
		for s := range allowed {
			inner[s] = struct{}{}
		}
		inner[sig.Scope] = struct{}{}
		for _, tp := range sig.TypeParams {
			if tp.Bound != nil {
				w.walkType(tp.Bound, inner, span, seen)
			}
		}
		for _, p := range sig.Params {
			w.walkType(p, inner, span, seen)
		}
		if sig.Return != nil {
			w.walkType(sig.Return, inner, span, seen)
		}
	case typegraph.Obj:
		for _, p := range w.p.G.Props(t.Props) {
			w.walkType(p.Type, allowed, span, seen)
		}
	case typegraph.Arr:
		w.walkType(t.Elem, allowed, span, seen)
	case typegraph.Union:
		for _, m := range t.Members {
			w.walkType(m, allowed, span, seen)
		}
	case typegraph.Inter:
		for _, m := range t.Members {
			w.walkType(m, allowed, span, seen)
		}
	case typegraph.Eval:
		w.walkType(t.Operand, allowed, span, seen)
	case typegraph.Var:
		if _, cyc := seen[t.ID]; cyc {
			return
		}
		seen[t.ID] = struct{}{}
		if res, done := w.p.G.Resolved(t.ID); done {
			w.walkType(res, allowed, span, seen)
		}
	}
}
