package emitter

import (
	"github.com/kievzenit/ycc/internal/ast"
	"github.com/kievzenit/ycc/internal/lexer"
	"go.uber.org/zap"
	"modernc.org/mathutil"
	"tinygo.org/x/go-llvm"
)

type variable struct {
	ptr llvm.Value
	typ llvm.Type
}

// Emitter lowers top level units into basic-block IR. A single Emitter
// accumulates every unit it is given into one module and must not be used
// from more than one goroutine.
type Emitter struct {
	logger *zap.Logger

	context llvm.Context
	module  llvm.Module
	builder llvm.Builder

	funcsMap     map[string]llvm.Value
	variablesMap map[string]variable
	values       *ValueTable

	currentFunc llvm.Value
	entryBlock  llvm.BasicBlock
	// globals created for the unit being generated
	globals []llvm.Value
}

func NewEmitter(moduleName string, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}

	context := llvm.NewContext()
	return &Emitter{
		logger: logger.Named("emitter"),

		context: context,
		module:  context.NewModule(moduleName),
		builder: context.NewBuilder(),

		funcsMap:     make(map[string]llvm.Value),
		variablesMap: make(map[string]variable),
		values:       NewValueTable(),
	}
}

func (e *Emitter) Module() llvm.Module {
	return e.module
}

// Values exposes the backend value computed for every visited node.
func (e *Emitter) Values() *ValueTable {
	return e.values
}

func (e *Emitter) Function(name string) (llvm.Value, bool) {
	fn, ok := e.funcsMap[name]
	return fn, ok
}

// Release frees the builder and hands the module over to the caller, who
// becomes responsible for disposing of its context.
func (e *Emitter) Release() llvm.Module {
	e.builder.Dispose()
	return e.module
}

// Dispose frees the builder, the module and its context.
func (e *Emitter) Dispose() {
	e.builder.Dispose()
	e.context.Dispose()
}

// Generate lowers one top level unit. Values computed for the unit join
// the table only once it succeeds. When a function definition fails,
// whatever it added to the module is removed again so that previously
// generated functions stay valid.
func (e *Emitter) Generate(node ast.TopLevel) error {
	def, isDef := node.(*ast.FunctionDef)

	var existed bool
	if isDef {
		var existing llvm.Value
		existing, existed = e.funcsMap[def.Decl.Name]
		if existed && existing.BasicBlocksCount() > 0 {
			return newCodeGenError("function %s already has a body", def.Decl.Name)
		}
	}

	primary := e.values
	e.values = NewValueTable()
	e.globals = e.globals[:0]

	err := node.Accept(e)
	unit := e.values
	e.values = primary
	if err == nil {
		err = primary.merge(unit)
	}

	if err != nil && isDef {
		e.rollback(def.Decl.Name, existed)
		e.logger.Error("function failed", zap.String("name", def.Decl.Name), zap.Error(err))
	}

	e.currentFunc = llvm.Value{}
	e.entryBlock = llvm.BasicBlock{}
	e.globals = e.globals[:0]
	clear(e.variablesMap)

	return err
}

// rollback removes the function a failed definition created, or strips the
// body of one that was only declared before, along with the globals the
// definition added.
func (e *Emitter) rollback(name string, existed bool) {
	defer e.eraseGlobals()

	fn, ok := e.funcsMap[name]
	if !ok {
		return
	}

	if !existed {
		fn.EraseFromParentAsFunction()
		delete(e.funcsMap, name)
		return
	}

	blocks := fn.BasicBlocks()
	for _, block := range blocks {
		for inst := block.FirstInstruction(); !inst.IsNil(); inst = llvm.NextInstruction(inst) {
			if !isVoid(inst.Type()) {
				inst.ReplaceAllUsesWith(llvm.Undef(inst.Type()))
			}
		}
	}
	for _, block := range blocks {
		for inst := block.FirstInstruction(); !inst.IsNil(); {
			next := llvm.NextInstruction(inst)
			inst.EraseFromParentAsInstruction()
			inst = next
		}
	}
	for _, block := range blocks {
		block.EraseFromParent()
	}
}

func (e *Emitter) eraseGlobals() {
	for _, global := range e.globals {
		global.ReplaceAllUsesWith(llvm.Undef(global.Type()))
		global.EraseFromParentAsGlobal()
	}
	e.globals = e.globals[:0]
}

func (e *Emitter) declare(n *ast.FunctionDecl) (llvm.Value, error) {
	existing, existed := e.funcsMap[n.Name]
	if existed && existing.ParamsCount() != len(n.Args) {
		return llvm.Value{}, newCodeGenError(
			"function %s redeclared with %d parameters, previously %d",
			n.Name, len(n.Args), existing.ParamsCount())
	}

	returnType, err := e.resolveType(n.Return)
	if err != nil {
		return llvm.Value{}, err
	}

	argsTypes := make([]llvm.Type, 0, len(n.Args))
	for _, arg := range n.Args {
		argType, err := e.resolveType(arg.Type)
		if err != nil {
			return llvm.Value{}, err
		}
		if isVoid(argType) {
			return llvm.Value{}, newCodeGenError("parameter %s of %s has type void", arg.Name, n.Name)
		}
		argsTypes = append(argsTypes, argType)
	}

	funcType := llvm.FunctionType(returnType, argsTypes, false)
	if existed {
		if err := sameSignature(n, existing.GlobalValueType(), funcType); err != nil {
			return llvm.Value{}, err
		}
		return existing, nil
	}

	funcValue := llvm.AddFunction(e.module, n.Name, funcType)
	for i, arg := range n.Args {
		funcValue.Param(i).SetName(arg.Name)
	}

	framePointerAttr := e.context.CreateStringAttribute("frame-pointer", "all")
	noTrappingMathAttr := e.context.CreateStringAttribute("no-trapping-math", "true")
	funcValue.AddFunctionAttr(framePointerAttr)
	funcValue.AddFunctionAttr(noTrappingMathAttr)

	e.funcsMap[n.Name] = funcValue
	e.logger.Debug("function declared", zap.String("name", n.Name), zap.Int("args", len(n.Args)))

	return funcValue, nil
}

// sameSignature reports the first return or parameter type that differs
// between an earlier declaration and a new one of the same arity.
func sameSignature(n *ast.FunctionDecl, previous, current llvm.Type) error {
	if previous.ReturnType() != current.ReturnType() {
		return newCodeGenError("function %s redeclared returning %s, previously %s",
			n.Name, typeName(current.ReturnType()), typeName(previous.ReturnType()))
	}

	previousParams, currentParams := previous.ParamTypes(), current.ParamTypes()
	for i, arg := range n.Args {
		if previousParams[i] != currentParams[i] {
			return newCodeGenError("parameter %s of %s redeclared as %s, previously %s",
				arg.Name, n.Name, typeName(currentParams[i]), typeName(previousParams[i]))
		}
	}

	return nil
}

func (e *Emitter) VisitFunctionDecl(n *ast.FunctionDecl) error {
	fn, err := e.declare(n)
	if err != nil {
		return err
	}

	return e.values.Set(n, fn)
}

func (e *Emitter) VisitFunctionDef(n *ast.FunctionDef) error {
	if err := n.Decl.Accept(e); err != nil {
		return err
	}

	fn := e.funcsMap[n.Decl.Name]
	if fn.BasicBlocksCount() > 0 {
		return newCodeGenError("function %s already has a body", n.Decl.Name)
	}

	e.currentFunc = fn
	e.entryBlock = e.context.AddBasicBlock(fn, "entry")
	e.builder.SetInsertPointAtEnd(e.entryBlock)
	clear(e.variablesMap)

	paramTypes := fn.GlobalValueType().ParamTypes()
	for i, arg := range n.Decl.Args {
		ptr := e.createEntryAlloca(paramTypes[i], arg.Name)
		e.builder.CreateStore(fn.Param(i), ptr)
		e.variablesMap[arg.Name] = variable{ptr: ptr, typ: paramTypes[i]}
	}

	if err := e.emitForStmts(n.Body); err != nil {
		return err
	}

	if !isTerminated(e.builder.GetInsertBlock()) {
		returnType := fn.GlobalValueType().ReturnType()
		if isVoid(returnType) {
			e.builder.CreateRetVoid()
		} else {
			e.builder.CreateRet(llvm.ConstNull(returnType))
		}
	}

	if err := llvm.VerifyFunction(fn, llvm.ReturnStatusAction); err != nil {
		return newCodeGenError("function %s failed verification: %v", n.Decl.Name, err)
	}

	e.logger.Info("function emitted",
		zap.String("name", n.Decl.Name),
		zap.Int("blocks", fn.BasicBlocksCount()))

	return e.values.Set(n, fn)
}

// emitForStmts emits a statement list. Statements that follow a terminator
// go into a fresh block with no predecessors.
func (e *Emitter) emitForStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if isTerminated(e.builder.GetInsertBlock()) {
			e.builder.SetInsertPointAtEnd(e.addBlocks("dead")[0])
		}
		if err := stmt.Accept(e); err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) VisitVariableDecl(n *ast.VariableDecl) error {
	typ, err := e.resolveType(n.Type)
	if err != nil {
		return err
	}
	if isVoid(typ) {
		return newCodeGenError("variable %s has type void", n.Name)
	}

	value := llvm.ConstNull(typ)
	if n.Init != nil {
		init, err := e.emitForExpr(n.Init)
		if err != nil {
			return err
		}
		if value, err = e.convert(init, typ); err != nil {
			return err
		}
	}

	ptr := e.createEntryAlloca(typ, n.Name)
	e.builder.CreateStore(value, ptr)
	e.variablesMap[n.Name] = variable{ptr: ptr, typ: typ}

	return e.values.Set(n, ptr)
}

func (e *Emitter) VisitIfCond(n *ast.IfCond) error {
	cond, err := e.emitForCondition(n.Cond)
	if err != nil {
		return err
	}

	blocks := e.addBlocks("then", "else", "ifcont")
	thenBlock, elseBlock, mergeBlock := blocks[0], blocks[1], blocks[2]
	e.builder.CreateCondBr(cond, thenBlock, elseBlock)

	e.builder.SetInsertPointAtEnd(thenBlock)
	if err := e.emitForStmts(n.Then); err != nil {
		return err
	}
	e.branchIfOpen(mergeBlock)

	e.builder.SetInsertPointAtEnd(elseBlock)
	if err := e.emitForStmts(n.Else); err != nil {
		return err
	}
	e.branchIfOpen(mergeBlock)

	e.builder.SetInsertPointAtEnd(mergeBlock)

	return nil
}

// VisitWhileLoop evaluates the condition once before the loop and once
// more at the end of every iteration. The second evaluation records its
// values in a scratch table.
func (e *Emitter) VisitWhileLoop(n *ast.WhileLoop) error {
	cond, err := e.emitForCondition(n.Cond)
	if err != nil {
		return err
	}

	blocks := e.addBlocks("loop", "afterloop")
	loopBlock, afterBlock := blocks[0], blocks[1]
	e.builder.CreateCondBr(cond, loopBlock, afterBlock)

	e.builder.SetInsertPointAtEnd(loopBlock)
	if err := e.emitForStmts(n.Body); err != nil {
		return err
	}

	if !isTerminated(e.builder.GetInsertBlock()) {
		primary := e.values
		e.values = NewValueTable()
		cond, err := e.emitForCondition(n.Cond)
		e.values = primary
		if err != nil {
			return err
		}
		e.builder.CreateCondBr(cond, loopBlock, afterBlock)
	}

	e.builder.SetInsertPointAtEnd(afterBlock)

	return nil
}

// VisitForLoop is not lowered yet; the loop and its parts are skipped.
func (e *Emitter) VisitForLoop(n *ast.ForLoop) error {
	e.logger.Debug("for loop skipped", zap.Int("id", int(n.ID())))
	return nil
}

func (e *Emitter) VisitReturn(n *ast.Return) error {
	returnType := e.currentFunc.GlobalValueType().ReturnType()
	name := e.currentFunc.Name()

	if n.Expr == nil {
		if !isVoid(returnType) {
			return newCodeGenError("function %s must return a value", name)
		}
		e.builder.CreateRetVoid()
		return nil
	}

	value, err := e.emitForExpr(n.Expr)
	if err != nil {
		return err
	}
	if isVoid(returnType) {
		return newCodeGenError("void function %s cannot return a value", name)
	}
	if value, err = e.convert(value, returnType); err != nil {
		return err
	}

	return e.values.Set(n, e.builder.CreateRet(value))
}

// VisitUnaryOp is not lowered yet and produces no value.
func (e *Emitter) VisitUnaryOp(n *ast.UnaryOp) error {
	e.logger.Debug("unary operator skipped", zap.Stringer("op", n.Op))
	return nil
}

func (e *Emitter) VisitBinaryOp(n *ast.BinaryOp) error {
	switch n.Op {
	case lexer.COMMA:
		return e.emitForComma(n)
	case lexer.ASSIGN:
		return e.emitForAssign(n)
	}
	if _, ok := compoundAssignOps[n.Op]; ok {
		return e.emitForAssign(n)
	}

	left, err := e.emitForExpr(n.Left)
	if err != nil {
		return err
	}
	right, err := e.emitForExpr(n.Right)
	if err != nil {
		return err
	}

	value, err := e.emitForBinaryOp(n.Op, left, right)
	if err != nil {
		return err
	}

	return e.values.Set(n, value)
}

func (e *Emitter) emitForComma(n *ast.BinaryOp) error {
	if err := n.Left.Accept(e); err != nil {
		return err
	}
	if err := n.Right.Accept(e); err != nil {
		return err
	}

	if value, ok := e.values.Get(n.Right); ok {
		return e.values.Set(n, value)
	}

	return nil
}

// emitForAssign stores into the variable on the left. The left node's
// table entry is its storage pointer and the result is the stored value.
func (e *Emitter) emitForAssign(n *ast.BinaryOp) error {
	ref, ok := n.Left.(*ast.VariableRef)
	if !ok {
		return newCodeGenError("left side of %s is not assignable", n.Op)
	}

	v, ok := e.variablesMap[ref.Name]
	if !ok {
		return newCodeGenError("undefined variable %s", ref.Name)
	}
	if err := e.values.Set(ref, v.ptr); err != nil {
		return err
	}

	var current llvm.Value
	if n.Op != lexer.ASSIGN {
		current = e.builder.CreateLoad(v.typ, v.ptr, ref.Name)
	}

	value, err := e.emitForExpr(n.Right)
	if err != nil {
		return err
	}

	if n.Op != lexer.ASSIGN {
		if value, err = e.emitForBinaryOp(compoundAssignOps[n.Op], current, value); err != nil {
			return err
		}
	}

	if value, err = e.convert(value, v.typ); err != nil {
		return err
	}
	e.builder.CreateStore(value, v.ptr)

	return e.values.Set(n, value)
}

func (e *Emitter) VisitTernaryCond(n *ast.TernaryCond) error {
	cond, err := e.emitForCondition(n.Cond)
	if err != nil {
		return err
	}

	blocks := e.addBlocks("tthen", "telse", "tcont")
	thenBlock, elseBlock, mergeBlock := blocks[0], blocks[1], blocks[2]
	e.builder.CreateCondBr(cond, thenBlock, elseBlock)

	e.builder.SetInsertPointAtEnd(thenBlock)
	thenValue, err := e.emitForExpr(n.Then)
	if err != nil {
		return err
	}
	thenEnd := e.builder.GetInsertBlock()

	e.builder.SetInsertPointAtEnd(elseBlock)
	elseValue, err := e.emitForExpr(n.Else)
	if err != nil {
		return err
	}
	elseEnd := e.builder.GetInsertBlock()

	typ, err := commonType(thenValue.Type(), elseValue.Type())
	if err != nil {
		return err
	}

	e.builder.SetInsertPointAtEnd(thenEnd)
	if thenValue, err = e.convert(thenValue, typ); err != nil {
		return err
	}
	e.builder.CreateBr(mergeBlock)

	e.builder.SetInsertPointAtEnd(elseEnd)
	if elseValue, err = e.convert(elseValue, typ); err != nil {
		return err
	}
	e.builder.CreateBr(mergeBlock)

	e.builder.SetInsertPointAtEnd(mergeBlock)
	phi := e.builder.CreatePHI(typ, "ternarytmp")
	phi.AddIncoming([]llvm.Value{thenValue, elseValue}, []llvm.BasicBlock{thenEnd, elseEnd})

	return e.values.Set(n, phi)
}

func (e *Emitter) VisitIntegerLiteral(n *ast.IntegerLiteral) error {
	typ := e.context.Int32Type()
	if mathutil.BitLenUint64(n.Value) > 31 {
		typ = e.context.Int64Type()
	}

	return e.values.Set(n, llvm.ConstInt(typ, n.Value, false))
}

func (e *Emitter) VisitFloatLiteral(n *ast.FloatLiteral) error {
	return e.values.Set(n, llvm.ConstFloat(e.context.FloatType(), n.Value))
}

func (e *Emitter) VisitCharLiteral(n *ast.CharLiteral) error {
	return e.values.Set(n, llvm.ConstInt(e.context.Int8Type(), uint64(n.Value), false))
}

func (e *Emitter) VisitStringLiteral(n *ast.StringLiteral) error {
	ptr := e.builder.CreateGlobalStringPtr(n.Value, "str")

	global := ptr
	if global.IsAGlobalVariable().IsNil() {
		global = ptr.Operand(0)
	}
	e.globals = append(e.globals, global)

	return e.values.Set(n, ptr)
}

func (e *Emitter) VisitVariableRef(n *ast.VariableRef) error {
	v, ok := e.variablesMap[n.Name]
	if !ok {
		return newCodeGenError("undefined variable %s", n.Name)
	}

	return e.values.Set(n, e.builder.CreateLoad(v.typ, v.ptr, n.Name))
}

// VisitMemberAccess is not lowered yet and produces no value.
func (e *Emitter) VisitMemberAccess(n *ast.MemberAccess) error {
	e.logger.Debug("member access skipped", zap.String("member", n.MemberName))
	return nil
}

func (e *Emitter) VisitFunctionCall(n *ast.FunctionCall) error {
	fn, ok := e.funcsMap[n.Name]
	if !ok {
		return newCodeGenError("undefined function %s", n.Name)
	}

	fnType := fn.GlobalValueType()
	paramTypes := fnType.ParamTypes()
	if len(paramTypes) != len(n.Args) {
		return newCodeGenError("call to %s: expected %d but got %d arguments",
			n.Name, len(paramTypes), len(n.Args))
	}

	args := make([]llvm.Value, 0, len(n.Args))
	for i, arg := range n.Args {
		value, err := e.emitForExpr(arg)
		if err != nil {
			return err
		}
		if value, err = e.convert(value, paramTypes[i]); err != nil {
			return err
		}
		args = append(args, value)
	}

	if isVoid(fnType.ReturnType()) {
		e.builder.CreateCall(fnType, fn, args, "")
		return nil
	}

	return e.values.Set(n, e.builder.CreateCall(fnType, fn, args, "calltmp"))
}

// emitForExpr visits an expression and returns the value it produced.
func (e *Emitter) emitForExpr(expr ast.Expr) (llvm.Value, error) {
	if err := expr.Accept(e); err != nil {
		return llvm.Value{}, err
	}

	value, ok := e.values.Get(expr)
	if !ok {
		return llvm.Value{}, newCodeGenError("expression produces no value")
	}

	return value, nil
}

func (e *Emitter) emitForCondition(expr ast.Expr) (llvm.Value, error) {
	if err := expr.Accept(e); err != nil {
		return llvm.Value{}, err
	}

	value, ok := e.values.Get(expr)
	if !ok {
		return llvm.Value{}, newCodeGenError("condition produces no value")
	}

	return e.condition(value)
}

// createEntryAlloca places stack storage at the top of the entry block so
// every alloca dominates its uses.
func (e *Emitter) createEntryAlloca(typ llvm.Type, name string) llvm.Value {
	current := e.builder.GetInsertBlock()

	first := e.entryBlock.FirstInstruction()
	if first.IsNil() {
		e.builder.SetInsertPointAtEnd(e.entryBlock)
	} else {
		e.builder.SetInsertPointBefore(first)
	}
	alloca := e.builder.CreateAlloca(typ, name)

	e.builder.SetInsertPointAtEnd(current)

	return alloca
}

// addBlocks creates blocks right after the current one, in order.
func (e *Emitter) addBlocks(names ...string) []llvm.BasicBlock {
	next := e.builder.GetInsertBlock().NextBasicBlock()

	blocks := make([]llvm.BasicBlock, len(names))
	for i, name := range names {
		if next.AsValue().IsNil() {
			blocks[i] = e.context.AddBasicBlock(e.currentFunc, name)
		} else {
			blocks[i] = e.context.InsertBasicBlock(next, name)
		}
	}

	return blocks
}

func (e *Emitter) branchIfOpen(target llvm.BasicBlock) {
	if !isTerminated(e.builder.GetInsertBlock()) {
		e.builder.CreateBr(target)
	}
}

func isTerminated(block llvm.BasicBlock) bool {
	last := block.LastInstruction()
	if last.IsNil() {
		return false
	}

	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Unreachable:
		return true
	}

	return false
}
