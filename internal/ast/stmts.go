package ast

type Param struct {
	Name string
	Type CType
}

type FunctionDecl struct {
	Base

	Name   string
	Return CType
	Args   []Param
}

type FunctionDef struct {
	Base

	Decl *FunctionDecl
	Body []Stmt
}

type VariableDecl struct {
	Base

	Type CType
	Name string
	Init Expr
}

type IfCond struct {
	Base

	Cond Expr
	Then []Stmt
	Else []Stmt
}

type WhileLoop struct {
	Base

	Cond Expr
	Body []Stmt
}

// ForLoop parts are nil when omitted in the source.
type ForLoop struct {
	Base

	Init Stmt
	Cond Expr
	Step Expr
	Body []Stmt
}

type Return struct {
	Base

	Expr Expr
}

func (n *FunctionDecl) Accept(v Visitor) error { return v.VisitFunctionDecl(n) }
func (n *FunctionDef) Accept(v Visitor) error  { return v.VisitFunctionDef(n) }
func (n *VariableDecl) Accept(v Visitor) error { return v.VisitVariableDecl(n) }
func (n *IfCond) Accept(v Visitor) error       { return v.VisitIfCond(n) }
func (n *WhileLoop) Accept(v Visitor) error    { return v.VisitWhileLoop(n) }
func (n *ForLoop) Accept(v Visitor) error      { return v.VisitForLoop(n) }
func (n *Return) Accept(v Visitor) error       { return v.VisitReturn(n) }

func (*FunctionDecl) TopLevelNode() {}
func (*FunctionDef) TopLevelNode()  {}

func (*VariableDecl) StmtNode() {}
func (*IfCond) StmtNode()       {}
func (*WhileLoop) StmtNode()    {}
func (*ForLoop) StmtNode()      {}
func (*Return) StmtNode()       {}
