package autodiff

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Tensor is a handle to a node of a Graph. It is a small value type and is
// meant to be passed by value. The zero Tensor is invalid.
//
// Accessors that describe the node (Shape, Op, Inputs, ...) panic on an
// invalid handle; operations that can fail (Realize, Backward, SetData)
// return an error instead.
type Tensor struct {
	g   *Graph
	id  NodeID
	gen uint64
}

// Valid reports whether t refers to a live node.
func (t Tensor) Valid() bool {
	return t.g != nil && t.g.check(t) == nil
}

// Err returns the reason t is not a valid handle, or nil.
func (t Tensor) Err() error {
	if t.g == nil {
		return errors.Wrap(ErrType, "zero-value tensor")
	}
	return t.g.check(t)
}

func (t Tensor) node() *node {
	if err := t.Err(); err != nil {
		panic(err)
	}
	return &t.g.nodes[t.id]
}

// ID returns the node id.
func (t Tensor) ID() NodeID {
	return t.id
}

// Graph returns the owning graph.
func (t Tensor) Graph() *Graph {
	return t.g
}

// Meta returns the inferred signature of the node.
func (t Tensor) Meta() Meta {
	return t.node().meta
}

// Shape returns the shape of a tensor node (nil for tuples).
func (t Tensor) Shape() tensor.Shape {
	return t.node().meta.Shape
}

// IsTuple reports whether the node is a tuple.
func (t Tensor) IsTuple() bool {
	return t.node().meta.IsTuple()
}

// Len returns the number of items of a tuple node, 0 for tensors.
func (t Tensor) Len() int {
	return len(t.node().meta.Items)
}

// RequiresGrad reports whether gradients flow into this node.
func (t Tensor) RequiresGrad() bool {
	return t.node().requiresGrad
}

// IsLeaf reports whether the node was created from data rather than by an op.
func (t Tensor) IsLeaf() bool {
	return t.node().op == nil
}

// Op returns the operator that produced the node, nil for leaves.
func (t Tensor) Op() Op {
	return t.node().op
}

// Inputs returns the operands of the producing op.
func (t Tensor) Inputs() []Tensor {
	n := t.node()
	out := make([]Tensor, len(n.inputs))
	for i, id := range n.inputs {
		out[i] = t.g.handle(id)
	}
	return out
}

// Input returns operand i of the producing op.
func (t Tensor) Input(i int) Tensor {
	return t.g.handle(t.node().inputs[i])
}

func (g *Graph) handle(id NodeID) Tensor {
	return Tensor{g: g, id: id, gen: g.nodes[id].gen}
}

// IsRealized reports whether the node value has been computed.
func (t Tensor) IsRealized() bool {
	return t.node().realized
}

// Realize computes the node value if needed and returns it.
func (t Tensor) Realize() (Value, error) {
	if err := t.Err(); err != nil {
		return Value{}, err
	}
	return t.g.realize(t.id)
}

// Data realizes a tensor node and returns its array. The array is shared
// with the graph and must not be modified.
func (t Tensor) Data() (*tensor.NDArray, error) {
	v, err := t.Realize()
	if err != nil {
		return nil, err
	}
	if v.IsTuple() {
		return nil, errors.Wrapf(ErrType, "node %d is a tuple", t.id)
	}
	return v.Array, nil
}

// Items realizes a tuple node and returns its arrays.
func (t Tensor) Items() ([]*tensor.NDArray, error) {
	v, err := t.Realize()
	if err != nil {
		return nil, err
	}
	if !v.IsTuple() {
		return nil, errors.Wrapf(ErrType, "node %d is not a tuple", t.id)
	}
	return v.Items, nil
}

// Grad returns the gradient computed by the last backward pass that reached
// this node.
func (t Tensor) Grad() (Tensor, bool) {
	n := t.node()
	if !n.hasGrad {
		return Tensor{}, false
	}
	return t.g.handle(n.grad), true
}

// ResetGrad clears the gradient.
func (t Tensor) ResetGrad() {
	t.node().hasGrad = false
}

// SetGrad replaces the gradient with a constant holding a. The shape must
// match the node's shape.
func (t Tensor) SetGrad(a *tensor.NDArray) error {
	if err := t.Err(); err != nil {
		return err
	}
	if a == nil || t.IsTuple() {
		return errors.Wrap(ErrType, "SetGrad: nil array or tuple node")
	}
	if !a.Shape().Equal(t.Shape()) {
		return errors.Wrapf(ErrShape, "SetGrad: gradient %v for node of shape %v", a.Shape(), t.Shape())
	}
	c := t.g.Constant(a)
	n := t.node()
	n.grad, n.hasGrad = c.id, true
	return nil
}

// SetData replaces the value of a leaf with an array of the same shape.
// Nodes that were already realized from the old value keep their result.
func (t Tensor) SetData(a *tensor.NDArray) error {
	if err := t.Err(); err != nil {
		return err
	}
	if a == nil {
		return errors.Wrap(ErrType, "nil array")
	}
	return t.g.setLeaf(t.id, a)
}

// Detach realizes t and returns a constant leaf holding the same array.
func (t Tensor) Detach() (Tensor, error) {
	a, err := t.Data()
	if err != nil {
		return Tensor{}, err
	}
	return t.g.Constant(a), nil
}

// Backward runs the backward pass from t, seeded with ones.
func (t Tensor) Backward() error {
	if err := t.Err(); err != nil {
		return err
	}
	return t.g.Backward(t, nil)
}

// BackwardWith runs the backward pass from t with an explicit seed gradient.
func (t Tensor) BackwardWith(seed *tensor.NDArray) error {
	if err := t.Err(); err != nil {
		return err
	}
	return t.g.Backward(t, seed)
}

func (t Tensor) String() string {
	if err := t.Err(); err != nil {
		return fmt.Sprintf("Tensor(invalid: %v)", err)
	}
	n := &t.g.nodes[t.id]
	name := "Leaf"
	if n.op != nil {
		name = n.op.Name()
	}
	if n.meta.IsTuple() {
		return fmt.Sprintf("Tuple(id=%d, op=%s, items=%v)", t.id, name, n.meta.Items)
	}
	return fmt.Sprintf("Tensor(id=%d, op=%s, shape=%v)", t.id, name, []int(n.meta.Shape))
}
