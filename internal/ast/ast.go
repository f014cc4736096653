package ast

// NodeID identifies a node within the arena of the parser that built it.
// The zero value means the node was not allocated through an Arena.
type NodeID int

type Base struct {
	NodeID NodeID
}

func (b Base) ID() NodeID { return b.NodeID }

// Arena hands out node identities in creation order.
type Arena struct {
	next NodeID
}

func (a *Arena) Base() Base {
	a.next++
	return Base{NodeID: a.next}
}

// Len returns the number of identities handed out so far.
func (a *Arena) Len() int { return int(a.next) }

type Node interface {
	ID() NodeID
	Accept(v Visitor) error
}

type Stmt interface {
	Node
	StmtNode()
}

type Expr interface {
	Stmt
	ExprNode()
}

type TopLevel interface {
	Node
	TopLevelNode()
}

// Visitor is implemented by every tree consumer. Adding a node variant adds
// a method here, so each consumer has to handle it before it compiles again.
type Visitor interface {
	VisitFunctionDecl(n *FunctionDecl) error
	VisitFunctionDef(n *FunctionDef) error
	VisitVariableDecl(n *VariableDecl) error

	VisitIfCond(n *IfCond) error
	VisitWhileLoop(n *WhileLoop) error
	VisitForLoop(n *ForLoop) error
	VisitReturn(n *Return) error

	VisitUnaryOp(n *UnaryOp) error
	VisitBinaryOp(n *BinaryOp) error
	VisitTernaryCond(n *TernaryCond) error
	VisitIntegerLiteral(n *IntegerLiteral) error
	VisitFloatLiteral(n *FloatLiteral) error
	VisitCharLiteral(n *CharLiteral) error
	VisitStringLiteral(n *StringLiteral) error
	VisitVariableRef(n *VariableRef) error
	VisitMemberAccess(n *MemberAccess) error
	VisitFunctionCall(n *FunctionCall) error
}
