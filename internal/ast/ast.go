// Package ast holds the already-built syntax subset the linking core
// consumes. Parsing happens upstream; these nodes arrive paired with the
// inferred type map of their file.
package ast

import (
	"github.com/weftlang/weft/internal/source"
)

// Node is the base interface for all syntax nodes.
type Node interface {
	Span() source.Span
}

// Stmt is a Node in statement position.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a Node in expression position.
type Expr interface {
	Node
	exprNode()
}

// Program is the root of one file's syntax.
type Program struct {
	Path    string
	Stmts   []Stmt
	Excuses []Excuse
}

func (p *Program) Span() source.Span {
	if p == nil || len(p.Stmts) == 0 {
		return source.Span{}
	}
	return p.Stmts[0].Span()
}

// Excuse is an explicit suppression comment: it silences the listed codes on
// one line of the file. An empty code list silences everything on that line.
type Excuse struct {
	Line  int
	Codes []string
}

// Excused reports whether code is suppressed at span.
func (p *Program) Excused(span source.Span, code string) bool {
	if p == nil {
		return false
	}
	for _, e := range p.Excuses {
		if e.Line != span.Start.Line {
			continue
		}
		if len(e.Codes) == 0 {
			return true
		}
		for _, c := range e.Codes {
			if c == code {
				return true
			}
		}
	}
	return false
}

// ---- statements ----

// VarDecl binds a top-level or local name.
type VarDecl struct {
	Name string
	Init Expr // may be nil
	Sp   source.Span
}

// FuncDecl declares a named function.
type FuncDecl struct {
	Name string
	Body *Block // may be nil for signatures
	Sp   source.Span
}

// ClassDecl declares a class with fields and an optional constructor body.
type ClassDecl struct {
	Name   string
	Fields []*Field
	Ctor   *Block // may be nil
	Sp     source.Span
}

// Field is one declared class field. The inferred type of the annotation is
// recorded in the file's type map keyed by the field node.
type Field struct {
	Name     string
	Optional bool
	Init     Expr // may be nil
	Sp       source.Span
}

func (f *Field) Span() source.Span { return f.Sp }

// If is a conditional statement.
type If struct {
	Cond Expr
	Then *Block
	Else Stmt // nil, *Block, or *If
	Sp   source.Span
}

// Return exits the enclosing function.
type Return struct {
	X  Expr // may be nil
	Sp source.Span
}

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
	Sp    source.Span
}

// Assign writes Value into Target (an Ident or Member).
type Assign struct {
	Target Expr
	Value  Expr
	Sp     source.Span
}

// ExprStmt wraps an expression in statement position.
type ExprStmt struct {
	X  Expr
	Sp source.Span
}

// ImportDecl records an import edge; Key is the raw import string and
// Binding the local name it introduces.
type ImportDecl struct {
	Key     string
	Binding string
	Sp      source.Span
}

// ExportDecl publishes a binding from this file.
type ExportDecl struct {
	Name string
	X    Expr // may be nil when re-exporting a declaration
	Sp   source.Span
}

func (s *VarDecl) Span() source.Span    { return s.Sp }
func (s *FuncDecl) Span() source.Span   { return s.Sp }
func (s *ClassDecl) Span() source.Span  { return s.Sp }
func (s *If) Span() source.Span         { return s.Sp }
func (s *Return) Span() source.Span     { return s.Sp }
func (s *Block) Span() source.Span      { return s.Sp }
func (s *Assign) Span() source.Span     { return s.Sp }
func (s *ExprStmt) Span() source.Span   { return s.Sp }
func (s *ImportDecl) Span() source.Span { return s.Sp }
func (s *ExportDecl) Span() source.Span { return s.Sp }

func (*VarDecl) stmtNode()    {}
func (*FuncDecl) stmtNode()   {}
func (*ClassDecl) stmtNode()  {}
func (*If) stmtNode()         {}
func (*Return) stmtNode()     {}
func (*Block) stmtNode()      {}
func (*Assign) stmtNode()     {}
func (*ExprStmt) stmtNode()   {}
func (*ImportDecl) stmtNode() {}
func (*ExportDecl) stmtNode() {}

// ---- expressions ----

// Ident is a name reference.
type Ident struct {
	Name string
	Sp   source.Span
}

// Member is a property access: X.Name.
type Member struct {
	X    Expr
	Name string
	Sp   source.Span
}

// OptMember is an optional-chain access: X?.Name.
type OptMember struct {
	X    Expr
	Name string
	Sp   source.Span
}

// Call applies Fn to Args.
type Call struct {
	Fn   Expr
	Args []Expr
	Sp   source.Span
}

// LitKind discriminates literal expressions.
type LitKind int

const (
	LitNull LitKind = iota
	LitBool
	LitNumber
	LitString
)

// Lit is a literal expression.
type Lit struct {
	Kind LitKind
	Raw  string
	Sp   source.Span
}

// Unary is a prefix operator expression; Op is the operator lexeme ("!").
type Unary struct {
	Op string
	X  Expr
	Sp source.Span
}

// Binary is an infix operator expression; Op is the operator lexeme
// ("==", "!=", "&&", "||", ">", ...).
type Binary struct {
	Op   string
	X, Y Expr
	Sp   source.Span
}

// This refers to the receiver inside class bodies.
type This struct {
	Sp source.Span
}

func (e *Ident) Span() source.Span     { return e.Sp }
func (e *Member) Span() source.Span    { return e.Sp }
func (e *OptMember) Span() source.Span { return e.Sp }
func (e *Call) Span() source.Span      { return e.Sp }
func (e *Lit) Span() source.Span       { return e.Sp }
func (e *Unary) Span() source.Span     { return e.Sp }
func (e *Binary) Span() source.Span    { return e.Sp }
func (e *This) Span() source.Span      { return e.Sp }

func (*Ident) exprNode()     {}
func (*Member) exprNode()    {}
func (*OptMember) exprNode() {}
func (*Call) exprNode()      {}
func (*Lit) exprNode()       {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*This) exprNode()      {}
