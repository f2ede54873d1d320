package ast

// Inspect traverses the syntax tree rooted at n in depth-first order, calling
// f for each node. If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Program:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *VarDecl:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *FuncDecl:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *ClassDecl:
		for _, fl := range n.Fields {
			Inspect(fl, f)
		}
		if n.Ctor != nil {
			Inspect(n.Ctor, f)
		}
	case *Field:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *If:
		Inspect(n.Cond, f)
		if n.Then != nil {
			Inspect(n.Then, f)
		}
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *Return:
		if n.X != nil {
			Inspect(n.X, f)
		}
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *ExprStmt:
		Inspect(n.X, f)
	case *ExportDecl:
		if n.X != nil {
			Inspect(n.X, f)
		}
	case *Member:
		Inspect(n.X, f)
	case *OptMember:
		Inspect(n.X, f)
	case *Call:
		Inspect(n.Fn, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	}
}
