package ast

import "go.uber.org/zap"

// Tracer logs every node of a tree at debug level. It never mutates the
// tree and walks into children that other visitors skip.
type Tracer struct {
	logger *zap.Logger
}

func NewTracer(logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracer{logger: logger.Named("tracer")}
}

func (t *Tracer) trace(kind string, n Node, fields ...zap.Field) {
	t.logger.Debug("visit",
		append([]zap.Field{zap.String("node", kind), zap.Int("id", int(n.ID()))}, fields...)...)
}

func (t *Tracer) visit(n Node) error {
	if n == nil {
		return nil
	}

	return n.Accept(t)
}

func (t *Tracer) visitAll(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := t.visit(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tracer) VisitFunctionDecl(n *FunctionDecl) error {
	t.trace("FunctionDecl", n,
		zap.String("name", n.Name),
		zap.Stringer("return", n.Return),
		zap.Int("args", len(n.Args)))
	return nil
}

func (t *Tracer) VisitFunctionDef(n *FunctionDef) error {
	t.trace("FunctionDef", n, zap.String("name", n.Decl.Name), zap.Int("stmts", len(n.Body)))
	if err := t.visit(n.Decl); err != nil {
		return err
	}

	return t.visitAll(n.Body)
}

func (t *Tracer) VisitVariableDecl(n *VariableDecl) error {
	t.trace("VariableDecl", n, zap.String("name", n.Name), zap.Stringer("type", n.Type))
	if n.Init == nil {
		return nil
	}

	return t.visit(n.Init)
}

func (t *Tracer) VisitIfCond(n *IfCond) error {
	t.trace("IfCond", n, zap.Int("then", len(n.Then)), zap.Int("else", len(n.Else)))
	if err := t.visit(n.Cond); err != nil {
		return err
	}
	if err := t.visitAll(n.Then); err != nil {
		return err
	}

	return t.visitAll(n.Else)
}

func (t *Tracer) VisitWhileLoop(n *WhileLoop) error {
	t.trace("WhileLoop", n, zap.Int("stmts", len(n.Body)))
	if err := t.visit(n.Cond); err != nil {
		return err
	}

	return t.visitAll(n.Body)
}

func (t *Tracer) VisitForLoop(n *ForLoop) error {
	t.trace("ForLoop", n, zap.Int("stmts", len(n.Body)))
	if n.Init != nil {
		if err := t.visit(n.Init); err != nil {
			return err
		}
	}
	if n.Cond != nil {
		if err := t.visit(n.Cond); err != nil {
			return err
		}
	}
	if n.Step != nil {
		if err := t.visit(n.Step); err != nil {
			return err
		}
	}

	return t.visitAll(n.Body)
}

func (t *Tracer) VisitReturn(n *Return) error {
	t.trace("Return", n, zap.Bool("value", n.Expr != nil))
	if n.Expr == nil {
		return nil
	}

	return t.visit(n.Expr)
}

func (t *Tracer) VisitUnaryOp(n *UnaryOp) error {
	t.trace("UnaryOp", n, zap.Stringer("op", n.Op))
	return t.visit(n.Expr)
}

func (t *Tracer) VisitBinaryOp(n *BinaryOp) error {
	t.trace("BinaryOp", n, zap.Stringer("op", n.Op))
	if err := t.visit(n.Left); err != nil {
		return err
	}

	return t.visit(n.Right)
}

func (t *Tracer) VisitTernaryCond(n *TernaryCond) error {
	t.trace("TernaryCond", n)
	for _, child := range []Expr{n.Cond, n.Then, n.Else} {
		if err := t.visit(child); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tracer) VisitIntegerLiteral(n *IntegerLiteral) error {
	t.trace("IntegerLiteral", n, zap.Uint64("value", n.Value))
	return nil
}

func (t *Tracer) VisitFloatLiteral(n *FloatLiteral) error {
	t.trace("FloatLiteral", n, zap.Float64("value", n.Value))
	return nil
}

func (t *Tracer) VisitCharLiteral(n *CharLiteral) error {
	t.trace("CharLiteral", n, zap.String("value", string(n.Value)))
	return nil
}

func (t *Tracer) VisitStringLiteral(n *StringLiteral) error {
	t.trace("StringLiteral", n, zap.String("value", n.Value))
	return nil
}

func (t *Tracer) VisitVariableRef(n *VariableRef) error {
	t.trace("VariableRef", n, zap.String("name", n.Name))
	return nil
}

func (t *Tracer) VisitMemberAccess(n *MemberAccess) error {
	t.trace("MemberAccess", n, zap.String("member", n.MemberName))
	return t.visit(n.Expr)
}

func (t *Tracer) VisitFunctionCall(n *FunctionCall) error {
	t.trace("FunctionCall", n, zap.String("name", n.Name), zap.Int("args", len(n.Args)))
	for _, arg := range n.Args {
		if err := t.visit(arg); err != nil {
			return err
		}
	}

	return nil
}
