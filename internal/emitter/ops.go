package emitter

import (
	"github.com/kievzenit/ycc/internal/lexer"
	"tinygo.org/x/go-llvm"
)

var compoundAssignOps = map[lexer.TokenKind]lexer.TokenKind{
	lexer.ADD_ASSIGN:  lexer.PLUS,
	lexer.SUB_ASSIGN:  lexer.MINUS,
	lexer.MUL_ASSIGN:  lexer.ASTERISK,
	lexer.DIV_ASSIGN:  lexer.SLASH,
	lexer.MOD_ASSIGN:  lexer.PERCENT,
	lexer.BAND_ASSIGN: lexer.BAND,
	lexer.BOR_ASSIGN:  lexer.BOR,
	lexer.XOR_ASSIGN:  lexer.XOR,
	lexer.SHL_ASSIGN:  lexer.SHL,
	lexer.SHR_ASSIGN:  lexer.SHR,
}

var intPredicates = map[lexer.TokenKind]llvm.IntPredicate{
	lexer.EQ:  llvm.IntEQ,
	lexer.NEQ: llvm.IntNE,
	lexer.LT:  llvm.IntSLT,
	lexer.LEQ: llvm.IntSLE,
	lexer.GT:  llvm.IntSGT,
	lexer.GEQ: llvm.IntSGE,
}

var floatPredicates = map[lexer.TokenKind]llvm.FloatPredicate{
	lexer.EQ:  llvm.FloatOEQ,
	lexer.NEQ: llvm.FloatUNE,
	lexer.LT:  llvm.FloatOLT,
	lexer.LEQ: llvm.FloatOLE,
	lexer.GT:  llvm.FloatOGT,
	lexer.GEQ: llvm.FloatOGE,
}

// convert coerces a value to the given type. Integers are sign extended,
// except i1 which is zero extended.
func (e *Emitter) convert(value llvm.Value, to llvm.Type) (llvm.Value, error) {
	from := value.Type()
	if from == to {
		return value, nil
	}

	switch {
	case isInt(from) && isInt(to):
		fromWidth, toWidth := from.IntTypeWidth(), to.IntTypeWidth()
		switch {
		case toWidth == 1:
			return e.builder.CreateICmp(llvm.IntNE, value, llvm.ConstInt(from, 0, false), "tobool"), nil
		case fromWidth > toWidth:
			return e.builder.CreateTrunc(value, to, "trunctmp"), nil
		case fromWidth == 1:
			return e.builder.CreateZExt(value, to, "zexttmp"), nil
		default:
			return e.builder.CreateSExt(value, to, "sexttmp"), nil
		}
	case isInt(from) && isFloat(to):
		if from.IntTypeWidth() == 1 {
			return e.builder.CreateUIToFP(value, to, "fptmp"), nil
		}
		return e.builder.CreateSIToFP(value, to, "fptmp"), nil
	case isFloat(from) && isInt(to):
		if to.IntTypeWidth() == 1 {
			return e.builder.CreateFCmp(llvm.FloatUNE, value, llvm.ConstFloat(from, 0), "tobool"), nil
		}
		return e.builder.CreateFPToSI(value, to, "inttmp"), nil
	case isFloat(from) && isFloat(to):
		if floatWidth(from) < floatWidth(to) {
			return e.builder.CreateFPExt(value, to, "fpexttmp"), nil
		}
		return e.builder.CreateFPTrunc(value, to, "fptrunctmp"), nil
	case isPointer(from) && isPointer(to):
		return e.builder.CreateBitCast(value, to, "casttmp"), nil
	case isInt(from) && isPointer(to):
		return e.builder.CreateIntToPtr(value, to, "ptrtmp"), nil
	case isPointer(from) && isInt(to):
		return e.builder.CreatePtrToInt(value, to, "inttmp"), nil
	}

	return llvm.Value{}, newCodeGenError("cannot convert %s to %s", typeName(from), typeName(to))
}

// unify converts both operands to their common type.
func (e *Emitter) unify(left, right llvm.Value) (llvm.Value, llvm.Value, error) {
	typ, err := commonType(left.Type(), right.Type())
	if err != nil {
		return llvm.Value{}, llvm.Value{}, err
	}

	if left, err = e.convert(left, typ); err != nil {
		return llvm.Value{}, llvm.Value{}, err
	}
	if right, err = e.convert(right, typ); err != nil {
		return llvm.Value{}, llvm.Value{}, err
	}

	return left, right, nil
}

// condition turns a value into an i1 suitable for a conditional branch.
func (e *Emitter) condition(value llvm.Value) (llvm.Value, error) {
	typ := value.Type()

	switch {
	case isInt(typ):
		if typ.IntTypeWidth() == 1 {
			return value, nil
		}
		return e.builder.CreateICmp(llvm.IntNE, value, llvm.ConstInt(typ, 0, false), "condtmp"), nil
	case isFloat(typ):
		return e.builder.CreateFCmp(llvm.FloatONE, value, llvm.ConstFloat(typ, 0), "condtmp"), nil
	case isPointer(typ):
		return e.builder.CreateICmp(llvm.IntNE, value, llvm.ConstNull(typ), "condtmp"), nil
	}

	return llvm.Value{}, newCodeGenError("value of type %s cannot be used as a condition", typeName(typ))
}

// emitForBinaryOp lowers every binary operator except assignment and comma.
func (e *Emitter) emitForBinaryOp(op lexer.TokenKind, left, right llvm.Value) (llvm.Value, error) {
	if (op == lexer.EQ || op == lexer.NEQ) && (isPointer(left.Type()) || isPointer(right.Type())) {
		l, r, err := e.unify(left, right)
		if err != nil {
			return llvm.Value{}, err
		}
		return e.builder.CreateICmp(intPredicates[op], l, r, "cmptmp"), nil
	}

	for _, value := range []llvm.Value{left, right} {
		if !isInt(value.Type()) && !isFloat(value.Type()) {
			return llvm.Value{}, newCodeGenError("invalid operand of type %s for operator %s", typeName(value.Type()), op)
		}
	}

	if op == lexer.LAND || op == lexer.LOR {
		l, err := e.condition(left)
		if err != nil {
			return llvm.Value{}, err
		}
		r, err := e.condition(right)
		if err != nil {
			return llvm.Value{}, err
		}
		if op == lexer.LAND {
			return e.builder.CreateAnd(l, r, "andtmp"), nil
		}
		return e.builder.CreateOr(l, r, "ortmp"), nil
	}

	left, right, err := e.unify(left, right)
	if err != nil {
		return llvm.Value{}, err
	}
	floating := isFloat(left.Type())

	if predicate, ok := intPredicates[op]; ok {
		if floating {
			return e.builder.CreateFCmp(floatPredicates[op], left, right, "cmptmp"), nil
		}
		return e.builder.CreateICmp(predicate, left, right, "cmptmp"), nil
	}

	switch op {
	case lexer.PLUS:
		if floating {
			return e.builder.CreateFAdd(left, right, "addtmp"), nil
		}
		return e.builder.CreateAdd(left, right, "addtmp"), nil
	case lexer.MINUS:
		if floating {
			return e.builder.CreateFSub(left, right, "subtmp"), nil
		}
		return e.builder.CreateSub(left, right, "subtmp"), nil
	case lexer.ASTERISK:
		if floating {
			return e.builder.CreateFMul(left, right, "multmp"), nil
		}
		return e.builder.CreateMul(left, right, "multmp"), nil
	case lexer.SLASH:
		if floating {
			return e.builder.CreateFDiv(left, right, "divtmp"), nil
		}
		return e.builder.CreateSDiv(left, right, "divtmp"), nil
	case lexer.PERCENT:
		if floating {
			return e.builder.CreateFRem(left, right, "modtmp"), nil
		}
		return e.builder.CreateSRem(left, right, "modtmp"), nil
	}

	if floating {
		return llvm.Value{}, newCodeGenError("operator %s is not defined for floating point operands", op)
	}

	switch op {
	case lexer.BAND:
		return e.builder.CreateAnd(left, right, "andtmp"), nil
	case lexer.BOR:
		return e.builder.CreateOr(left, right, "ortmp"), nil
	case lexer.XOR:
		return e.builder.CreateXor(left, right, "xortmp"), nil
	case lexer.SHL:
		return e.builder.CreateShl(left, right, "shltmp"), nil
	case lexer.SHR:
		return e.builder.CreateAShr(left, right, "shrtmp"), nil
	}

	return llvm.Value{}, newCodeGenError("unknown binary operator %s", op)
}
