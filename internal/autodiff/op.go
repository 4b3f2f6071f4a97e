package autodiff

import (
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Value is a materialized node result: a single array, or an ordered group
// of arrays for tuple nodes.
type Value struct {
	Array *tensor.NDArray   // set for tensor nodes
	Items []*tensor.NDArray // set for tuple nodes
}

// IsTuple reports whether the value holds a group of arrays.
func (v Value) IsTuple() bool {
	return v.Items != nil
}

// Meta is the statically inferred signature of a node: a shape for tensor
// nodes, one shape per item for tuple nodes.
type Meta struct {
	Shape tensor.Shape
	Items []tensor.Shape
}

// IsTuple reports whether the meta describes a tuple node.
func (m Meta) IsTuple() bool {
	return m.Items != nil
}

// TensorMeta returns the Meta of a tensor node.
func TensorMeta(shape tensor.Shape) Meta {
	return Meta{Shape: shape}
}

// TupleMeta returns the Meta of a tuple node.
func TupleMeta(items []tensor.Shape) Meta {
	if items == nil {
		items = []tensor.Shape{}
	}
	return Meta{Items: items}
}

// Op is one operator instance. It holds only its construction parameters
// (scalar, axes, target shape, ...) and must not be mutated after it has
// been applied.
//
// Infer validates the operand kinds and shapes and returns the output
// signature; it runs when the node is built, before the graph changes.
// Compute evaluates the operator on materialized inputs and must not modify
// them.
type Op interface {
	Name() string
	Infer(inputs []Meta) (Meta, error)
	Compute(inputs []Value) (Value, error)
}

// Differentiable is implemented by operators that have a gradient rule.
//
// Gradient receives the gradient flowing into node (the output of this
// operator) and returns one gradient per input, built from other operators
// so the result is itself differentiable. The returned slice must have one
// entry per input.
type Differentiable interface {
	Op
	Gradient(outGrad, node Tensor) ([]Tensor, error)
}
