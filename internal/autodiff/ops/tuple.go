package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// MakeTupleOp groups tensors into one tuple node.
//
// Backward pass: item i of the tuple gradient goes to input i.
type MakeTupleOp struct{}

// MakeTuple groups items into a tuple.
func MakeTuple(items ...autodiff.Tensor) (autodiff.Tensor, error) {
	return apply(MakeTupleOp{}, items...)
}

// Name implements autodiff.Op.
func (MakeTupleOp) Name() string { return "MakeTuple" }

// Infer implements autodiff.Op.
func (MakeTupleOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, len(inputs)); err != nil {
		return autodiff.Meta{}, err
	}
	shapes := make([]tensor.Shape, len(inputs))
	for i, m := range inputs {
		shapes[i] = m.Shape
	}
	return autodiff.TupleMeta(shapes), nil
}

// Compute implements autodiff.Op.
func (MakeTupleOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	items := make([]*tensor.NDArray, len(inputs))
	for i, in := range inputs {
		items[i] = in.Array
	}
	return autodiff.Value{Items: items}, nil
}

// Gradient implements autodiff.Differentiable.
func (MakeTupleOp) Gradient(outGrad, node autodiff.Tensor) (grads []autodiff.Tensor, err error) {
	defer autodiff.Guard(&err)
	grads = make([]autodiff.Tensor, node.Len())
	for i := range grads {
		grads[i] = autodiff.Must(TupleGetItem(outGrad, i))
	}
	return grads, nil
}

// TupleGetItemOp selects item Index of a tuple.
//
// Backward pass: a tuple of zeros with outGrad at position Index.
type TupleGetItemOp struct {
	Index int
}

// TupleGetItem returns item i of tuple t.
func TupleGetItem(t autodiff.Tensor, i int) (autodiff.Tensor, error) {
	return apply(TupleGetItemOp{Index: i}, t)
}

// Name implements autodiff.Op.
func (TupleGetItemOp) Name() string { return "TupleGetItem" }

// Infer implements autodiff.Op.
func (op TupleGetItemOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if len(inputs) != 1 || !inputs[0].IsTuple() {
		return autodiff.Meta{}, errors.Wrap(autodiff.ErrType, "operand must be a single tuple")
	}
	items := inputs[0].Items
	if op.Index < 0 || op.Index >= len(items) {
		return autodiff.Meta{}, errors.Wrapf(tensor.ErrAxis, "index %d out of range for tuple of %d", op.Index, len(items))
	}
	return autodiff.TensorMeta(items[op.Index]), nil
}

// Compute implements autodiff.Op.
func (op TupleGetItemOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return autodiff.Value{Array: inputs[0].Items[op.Index]}, nil
}

// Gradient implements autodiff.Differentiable.
func (op TupleGetItemOp) Gradient(outGrad, node autodiff.Tensor) ([]autodiff.Tensor, error) {
	tuple := node.Input(0)
	meta := tuple.Meta()
	g := node.Graph()
	items := make([]autodiff.Tensor, len(meta.Items))
	for j, shape := range meta.Items {
		if j == op.Index {
			items[j] = outGrad
			continue
		}
		items[j] = g.Constant(tensor.Zeros(shape))
	}
	grad, err := MakeTuple(items...)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{grad}, nil
}

// SplitOp slices a tensor along Axis into a tuple of shape[Axis] tensors
// with that axis removed.
//
// Backward pass: Stack of the tuple gradient along Axis.
type SplitOp struct {
	Axis int
}

// Split slices a along axis into a tuple.
func Split(a autodiff.Tensor, axis int) (autodiff.Tensor, error) {
	return apply(SplitOp{Axis: axis}, a)
}

// Name implements autodiff.Op.
func (SplitOp) Name() string { return "Split" }

// Infer implements autodiff.Op.
func (op SplitOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if err := expectTensors(inputs, 1); err != nil {
		return autodiff.Meta{}, err
	}
	shape := inputs[0].Shape
	axis, err := tensor.NormalizeAxis(op.Axis, len(shape))
	if err != nil {
		return autodiff.Meta{}, err
	}
	part := tensor.ReduceShape(shape, []int{axis}, false)
	items := make([]tensor.Shape, shape[axis])
	for i := range items {
		items[i] = part
	}
	return autodiff.TupleMeta(items), nil
}

// Compute implements autodiff.Op.
func (op SplitOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	parts, err := inputs[0].Array.Split(op.Axis)
	if err != nil {
		return autodiff.Value{}, err
	}
	return autodiff.Value{Items: parts}, nil
}

// Gradient implements autodiff.Differentiable.
func (op SplitOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Stack(outGrad, op.Axis)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}

// StackOp joins the items of a tuple along a new axis.
//
// Backward pass: Split of outGrad along Axis.
type StackOp struct {
	Axis int
}

// Stack joins the same-shaped items of tuple t along a new axis.
func Stack(t autodiff.Tensor, axis int) (autodiff.Tensor, error) {
	return apply(StackOp{Axis: axis}, t)
}

// Name implements autodiff.Op.
func (StackOp) Name() string { return "Stack" }

// Infer implements autodiff.Op.
func (op StackOp) Infer(inputs []autodiff.Meta) (autodiff.Meta, error) {
	if len(inputs) != 1 || !inputs[0].IsTuple() {
		return autodiff.Meta{}, errors.Wrap(autodiff.ErrType, "operand must be a single tuple")
	}
	items := inputs[0].Items
	if len(items) == 0 {
		return autodiff.Meta{}, errors.Wrap(autodiff.ErrShape, "cannot stack an empty tuple")
	}
	base := items[0]
	for i, s := range items[1:] {
		if !s.Equal(base) {
			return autodiff.Meta{}, errors.Wrapf(autodiff.ErrShape, "item %d has shape %v, want %v", i+1, s, base)
		}
	}
	axis, err := tensor.NormalizeAxis(op.Axis, len(base)+1)
	if err != nil {
		return autodiff.Meta{}, err
	}
	shape := make(tensor.Shape, 0, len(base)+1)
	shape = append(shape, base[:axis]...)
	shape = append(shape, len(items))
	shape = append(shape, base[axis:]...)
	return autodiff.TensorMeta(shape), nil
}

// Compute implements autodiff.Op.
func (op StackOp) Compute(inputs []autodiff.Value) (autodiff.Value, error) {
	return single(tensor.Stack(inputs[0].Items, op.Axis))
}

// Gradient implements autodiff.Differentiable.
func (op StackOp) Gradient(outGrad, _ autodiff.Tensor) ([]autodiff.Tensor, error) {
	g, err := Split(outGrad, op.Axis)
	if err != nil {
		return nil, err
	}
	return []autodiff.Tensor{g}, nil
}
