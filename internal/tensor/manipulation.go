package tensor

import (
	"github.com/pkg/errors"
)

// Reshape returns a copy of the array with a new shape. One dimension may
// be -1 and is inferred from the element count.
func (a *NDArray) Reshape(shape Shape) (*NDArray, error) {
	resolved, err := ResolveReshape(a.shape, shape)
	if err != nil {
		return nil, err
	}
	out := a.Clone()
	out.shape = resolved
	return out, nil
}

// Permute reorders the axes: output axis i is input axis perm[i].
func (a *NDArray) Permute(perm []int) (*NDArray, error) {
	rank := len(a.shape)
	if len(perm) != rank {
		return nil, errors.Wrapf(ErrAxis, "permutation %v for rank %d", perm, rank)
	}
	norm, err := NormalizeAxes(perm, rank)
	if err != nil {
		return nil, err
	}

	outShape := make(Shape, rank)
	inStrides := a.shape.ComputeStrides()
	permStrides := make([]int, rank)
	for i, p := range norm {
		outShape[i] = a.shape[p]
		permStrides[i] = inStrides[p]
	}

	out := Zeros(outShape)
	outStrides := outShape.ComputeStrides()
	for i := range out.data {
		out.data[i] = a.data[flatIndex(i, outStrides, permStrides)]
	}
	return out, nil
}

// SwapAxes exchanges two axes.
func (a *NDArray) SwapAxes(a1, a2 int) (*NDArray, error) {
	rank := len(a.shape)
	i, err := NormalizeAxis(a1, rank)
	if err != nil {
		return nil, err
	}
	j, err := NormalizeAxis(a2, rank)
	if err != nil {
		return nil, err
	}
	perm := make([]int, rank)
	for k := range perm {
		perm[k] = k
	}
	perm[i], perm[j] = perm[j], perm[i]
	return a.Permute(perm)
}

// Stack joins same-shaped arrays along a new axis.
func Stack(arrays []*NDArray, axis int) (*NDArray, error) {
	if len(arrays) == 0 {
		return nil, errors.Wrap(ErrShape, "stack: at least one array required")
	}
	base := arrays[0].shape
	for i, arr := range arrays[1:] {
		if !arr.shape.Equal(base) {
			return nil, errors.Wrapf(ErrShape, "stack: array %d has shape %v, want %v", i+1, arr.shape, base)
		}
	}
	ax, err := NormalizeAxis(axis, len(base)+1)
	if err != nil {
		return nil, err
	}

	outShape := make(Shape, 0, len(base)+1)
	outShape = append(outShape, base[:ax]...)
	outShape = append(outShape, len(arrays))
	outShape = append(outShape, base[ax:]...)
	out := Zeros(outShape)

	// outer: product of dims before axis, inner: product of dims after axis.
	outer := Shape(base[:ax]).NumElements()
	inner := Shape(base[ax:]).NumElements()
	n := len(arrays)
	for o := 0; o < outer; o++ {
		for k, arr := range arrays {
			dst := out.data[(o*n+k)*inner : (o*n+k+1)*inner]
			copy(dst, arr.data[o*inner:(o+1)*inner])
		}
	}
	return out, nil
}

// Split slices the array along axis into shape[axis] arrays with that axis
// removed. It is the inverse of Stack.
func (a *NDArray) Split(axis int) ([]*NDArray, error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}
	n := a.shape[ax]
	partShape := make(Shape, 0, len(a.shape)-1)
	partShape = append(partShape, a.shape[:ax]...)
	partShape = append(partShape, a.shape[ax+1:]...)

	outer := a.shape[:ax].NumElements()
	inner := a.shape[ax+1:].NumElements()
	parts := make([]*NDArray, n)
	for k := range parts {
		part := Zeros(partShape)
		for o := 0; o < outer; o++ {
			copy(part.data[o*inner:(o+1)*inner], a.data[(o*n+k)*inner:(o*n+k+1)*inner])
		}
		parts[k] = part
	}
	return parts, nil
}
