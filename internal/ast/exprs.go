package ast

import "github.com/kievzenit/ycc/internal/lexer"

type UnaryOp struct {
	Base

	Op   lexer.TokenKind
	Expr Expr
}

type BinaryOp struct {
	Base

	Op    lexer.TokenKind
	Left  Expr
	Right Expr
}

type TernaryCond struct {
	Base

	Cond Expr
	Then Expr
	Else Expr
}

type IntegerLiteral struct {
	Base

	Value uint64
}

type FloatLiteral struct {
	Base

	Value float64
}

type CharLiteral struct {
	Base

	Value byte
}

type StringLiteral struct {
	Base

	Value string
}

type VariableRef struct {
	Base

	Name string
}

type MemberAccess struct {
	Base

	Expr       Expr
	MemberName string
}

type FunctionCall struct {
	Base

	Name string
	Args []Expr
}

func (n *UnaryOp) Accept(v Visitor) error        { return v.VisitUnaryOp(n) }
func (n *BinaryOp) Accept(v Visitor) error       { return v.VisitBinaryOp(n) }
func (n *TernaryCond) Accept(v Visitor) error    { return v.VisitTernaryCond(n) }
func (n *IntegerLiteral) Accept(v Visitor) error { return v.VisitIntegerLiteral(n) }
func (n *FloatLiteral) Accept(v Visitor) error   { return v.VisitFloatLiteral(n) }
func (n *CharLiteral) Accept(v Visitor) error    { return v.VisitCharLiteral(n) }
func (n *StringLiteral) Accept(v Visitor) error  { return v.VisitStringLiteral(n) }
func (n *VariableRef) Accept(v Visitor) error    { return v.VisitVariableRef(n) }
func (n *MemberAccess) Accept(v Visitor) error   { return v.VisitMemberAccess(n) }
func (n *FunctionCall) Accept(v Visitor) error   { return v.VisitFunctionCall(n) }

func (*UnaryOp) StmtNode()        {}
func (*BinaryOp) StmtNode()       {}
func (*TernaryCond) StmtNode()    {}
func (*IntegerLiteral) StmtNode() {}
func (*FloatLiteral) StmtNode()   {}
func (*CharLiteral) StmtNode()    {}
func (*StringLiteral) StmtNode()  {}
func (*VariableRef) StmtNode()    {}
func (*MemberAccess) StmtNode()   {}
func (*FunctionCall) StmtNode()   {}

func (*UnaryOp) ExprNode()        {}
func (*BinaryOp) ExprNode()       {}
func (*TernaryCond) ExprNode()    {}
func (*IntegerLiteral) ExprNode() {}
func (*FloatLiteral) ExprNode()   {}
func (*CharLiteral) ExprNode()    {}
func (*StringLiteral) ExprNode()  {}
func (*VariableRef) ExprNode()    {}
func (*MemberAccess) ExprNode()   {}
func (*FunctionCall) ExprNode()   {}
