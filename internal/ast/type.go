package ast

import "strings"

type CTypeKind int

const (
	Int CTypeKind = iota
	Float
	Double
	Char
	Void
)

func (k CTypeKind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	case Char:
		return "char"
	case Void:
		return "void"
	}

	return "UNKNOWN"
}

type CLength int

const (
	DefaultLength CLength = iota
	Short
	Long
	LongLong
)

func (l CLength) String() string {
	switch l {
	case DefaultLength:
		return ""
	case Short:
		return "short"
	case Long:
		return "long"
	case LongLong:
		return "long long"
	}

	return "UNKNOWN"
}

// CType is a C type as written in a declaration.
type CType struct {
	Kind         CTypeKind
	Length       CLength
	Signed       bool
	PointerDepth uint
}

func (t CType) String() string {
	parts := make([]string, 0, 3)
	if !t.Signed {
		parts = append(parts, "unsigned")
	}
	if t.Length != DefaultLength {
		parts = append(parts, t.Length.String())
	}
	parts = append(parts, t.Kind.String())

	return strings.Join(parts, " ") + strings.Repeat("*", int(t.PointerDepth))
}
