package emitter

import (
	"github.com/kievzenit/ycc/internal/ast"
	"tinygo.org/x/go-llvm"
)

// ValueTable maps tree nodes to the backend value computed for them. Nodes
// are keyed by identity, so trees from different parsers or built by hand
// can share one table. Each node gets at most one value.
type ValueTable struct {
	values map[ast.Node]llvm.Value
}

func NewValueTable() *ValueTable {
	return &ValueTable{
		values: make(map[ast.Node]llvm.Value),
	}
}

func (t *ValueTable) Set(node ast.Node, value llvm.Value) error {
	if _, ok := t.values[node]; ok {
		return newCodeGenError("value for %T node %d is already set", node, node.ID())
	}
	t.values[node] = value

	return nil
}

func (t *ValueTable) Get(node ast.Node) (llvm.Value, bool) {
	value, ok := t.values[node]
	return value, ok
}

func (t *ValueTable) Len() int {
	return len(t.values)
}

// merge moves every entry of other into t. Nothing is moved if any node
// already has a value in t.
func (t *ValueTable) merge(other *ValueTable) error {
	for node := range other.values {
		if _, ok := t.values[node]; ok {
			return newCodeGenError("value for %T node %d is already set", node, node.ID())
		}
	}
	for node, value := range other.values {
		t.values[node] = value
	}

	return nil
}
