package tensor

import (
	"github.com/pkg/errors"
)

// Shape represents the dimensions of an array.
type Shape []int

// NumElements returns the total number of elements in the array.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Wrapf(ErrShape, "invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed, and an error if incompatible.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(1, 5) + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, Error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, errors.Wrapf(ErrShape, "shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}

// CheckBroadcastTo reports whether from can be broadcast to the target shape
// without changing the target (the one-directional form used by BroadcastTo).
func CheckBroadcastTo(from, to Shape) error {
	if len(from) > len(to) {
		return errors.Wrapf(ErrShape, "cannot broadcast %v to lower-rank shape %v", from, to)
	}
	diff := len(to) - len(from)
	for i, dim := range from {
		if dim != 1 && dim != to[i+diff] {
			return errors.Wrapf(ErrShape, "cannot broadcast %v to %v (dimension %d: %d vs %d)", from, to, i, dim, to[i+diff])
		}
	}
	return nil
}

// NormalizeAxis maps a possibly negative axis into [0, rank).
func NormalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, errors.Wrapf(ErrAxis, "axis %d out of range for rank %d", axis, rank)
	}
	return axis, nil
}

// NormalizeAxes normalizes every axis and rejects duplicates.
// A nil slice means "all axes" and expands to [0, rank).
func NormalizeAxes(axes []int, rank int) ([]int, error) {
	if axes == nil {
		all := make([]int, rank)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]bool, len(axes))
	out := make([]int, 0, len(axes))
	for _, a := range axes {
		n, err := NormalizeAxis(a, rank)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			return nil, errors.Wrapf(ErrAxis, "duplicate axis %d", a)
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// ReduceShape returns the shape left after reducing the given (normalized) axes.
func ReduceShape(s Shape, axes []int, keepDims bool) Shape {
	reduced := make(map[int]bool, len(axes))
	for _, a := range axes {
		reduced[a] = true
	}
	out := make(Shape, 0, len(s))
	for i, dim := range s {
		switch {
		case !reduced[i]:
			out = append(out, dim)
		case keepDims:
			out = append(out, 1)
		}
	}
	return out
}

// ResolveReshape resolves a target shape against the number of elements in
// from. At most one target dimension may be -1; it is inferred.
func ResolveReshape(from, to Shape) (Shape, error) {
	out := to.Clone()
	infer := -1
	known := 1
	for i, dim := range out {
		switch {
		case dim == -1 && infer == -1:
			infer = i
		case dim == -1:
			return nil, errors.Wrapf(ErrShape, "reshape %v: only one dimension can be inferred", to)
		case dim <= 0:
			return nil, errors.Wrapf(ErrShape, "reshape %v: invalid dimension %d", to, dim)
		default:
			known *= dim
		}
	}
	n := from.NumElements()
	if infer >= 0 {
		if known == 0 || n%known != 0 {
			return nil, errors.Wrapf(ErrShape, "cannot reshape %v into %v", from, to)
		}
		out[infer] = n / known
	}
	if out.NumElements() != n {
		return nil, errors.Wrapf(ErrShape, "cannot reshape %v (%d elements) into %v", from, n, to)
	}
	return out, nil
}

// SwapAxesShape returns s with axes a1 and a2 exchanged.
func SwapAxesShape(s Shape, a1, a2 int) (Shape, error) {
	i, err := NormalizeAxis(a1, len(s))
	if err != nil {
		return nil, err
	}
	j, err := NormalizeAxis(a2, len(s))
	if err != nil {
		return nil, err
	}
	out := s.Clone()
	out[i], out[j] = out[j], out[i]
	return out, nil
}

// MatMulShape infers the output shape of a (batched) matrix product.
// Both operands need rank >= 2; leading batch dimensions broadcast.
func MatMulShape(a, b Shape) (Shape, error) {
	if len(a) < 2 || len(b) < 2 {
		return nil, errors.Wrapf(ErrShape, "matmul requires rank >= 2 operands, got %v and %v", a, b)
	}
	m, k := a[len(a)-2], a[len(a)-1]
	k2, n := b[len(b)-2], b[len(b)-1]
	if k != k2 {
		return nil, errors.Wrapf(ErrShape, "matmul inner dimensions differ: %v @ %v", a, b)
	}
	batch, _, err := BroadcastShapes(a[:len(a)-2], b[:len(b)-2])
	if err != nil {
		return nil, errors.Wrapf(err, "matmul batch dimensions %v @ %v", a, b)
	}
	return append(batch, m, n), nil
}
