package emitter

import (
	"fmt"

	"github.com/kievzenit/ycc/internal/ast"
	"tinygo.org/x/go-llvm"
)

// resolveType maps a declared C type to its backend type.
func (e *Emitter) resolveType(t ast.CType) (llvm.Type, error) {
	var base llvm.Type

	switch t.Kind {
	case ast.Int:
		switch t.Length {
		case ast.Short:
			base = e.context.Int16Type()
		case ast.DefaultLength, ast.Long:
			base = e.context.Int32Type()
		case ast.LongLong:
			base = e.context.Int64Type()
		default:
			return llvm.Type{}, unsupportedType(t)
		}
	case ast.Char:
		if t.Length != ast.DefaultLength {
			return llvm.Type{}, unsupportedType(t)
		}
		base = e.context.Int8Type()
	case ast.Float:
		if t.Length != ast.DefaultLength || !t.Signed {
			return llvm.Type{}, unsupportedType(t)
		}
		base = e.context.FloatType()
	case ast.Double:
		if !t.Signed {
			return llvm.Type{}, unsupportedType(t)
		}
		switch t.Length {
		case ast.DefaultLength:
			base = e.context.DoubleType()
		case ast.Long:
			base = e.context.X86FP80Type()
		default:
			return llvm.Type{}, unsupportedType(t)
		}
	case ast.Void:
		if t.Length != ast.DefaultLength || !t.Signed {
			return llvm.Type{}, unsupportedType(t)
		}
		if t.PointerDepth == 0 {
			return e.context.VoidType(), nil
		}
		base = e.context.Int8Type()
	default:
		return llvm.Type{}, unsupportedType(t)
	}

	for range t.PointerDepth {
		base = llvm.PointerType(base, 0)
	}

	return base, nil
}

func unsupportedType(t ast.CType) error {
	return newCodeGenError("unsupported type: %s", t)
}

func isVoid(t llvm.Type) bool {
	return t.TypeKind() == llvm.VoidTypeKind
}

func isInt(t llvm.Type) bool {
	return t.TypeKind() == llvm.IntegerTypeKind
}

func isPointer(t llvm.Type) bool {
	return t.TypeKind() == llvm.PointerTypeKind
}

func isFloat(t llvm.Type) bool {
	return floatWidth(t) > 0
}

// floatWidth returns the width of a floating point type, or 0 for any
// other type.
func floatWidth(t llvm.Type) int {
	switch t.TypeKind() {
	case llvm.FloatTypeKind:
		return 32
	case llvm.DoubleTypeKind:
		return 64
	case llvm.X86_FP80TypeKind:
		return 80
	}

	return 0
}

// commonType picks the type both operands of a binary operation are
// converted to. Any float operand wins over integers and the wider type
// wins otherwise.
func commonType(a, b llvm.Type) (llvm.Type, error) {
	if a == b {
		return a, nil
	}

	switch {
	case isFloat(a) || isFloat(b):
		if !(isFloat(a) || isInt(a)) || !(isFloat(b) || isInt(b)) {
			break
		}
		if floatWidth(a) >= floatWidth(b) {
			return a, nil
		}
		return b, nil
	case isInt(a) && isInt(b):
		if a.IntTypeWidth() >= b.IntTypeWidth() {
			return a, nil
		}
		return b, nil
	case isPointer(a) && isPointer(b):
		return a, nil
	case isPointer(a) && isInt(b):
		return a, nil
	case isInt(a) && isPointer(b):
		return b, nil
	}

	return llvm.Type{}, newCodeGenError("incompatible operand types %s and %s", typeName(a), typeName(b))
}

// typeName spells a type the way textual IR does. Pointers are opaque, so
// no pointee type is ever looked up.
func typeName(t llvm.Type) string {
	switch t.TypeKind() {
	case llvm.IntegerTypeKind:
		return fmt.Sprintf("i%d", t.IntTypeWidth())
	case llvm.FloatTypeKind:
		return "float"
	case llvm.DoubleTypeKind:
		return "double"
	case llvm.X86_FP80TypeKind:
		return "x86_fp80"
	case llvm.PointerTypeKind:
		return "ptr"
	case llvm.VoidTypeKind:
		return "void"
	}

	return t.TypeKind().String()
}
