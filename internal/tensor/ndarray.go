// Package tensor provides the n-dimensional float32 array used as the
// numeric backend of the autodiff engine.
//
// An NDArray is a dense, row-major, contiguous buffer plus its Shape.
// Every operation returns a new array; receivers and arguments are never
// modified. Operations that can fail on incompatible shapes return an
// error wrapping ErrShape or ErrAxis.
package tensor

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// NDArray is a dense float32 array.
type NDArray struct {
	shape Shape
	data  []float32
}

// New creates an array with the given shape, taking ownership of data.
func New(shape Shape, data []float32) (*NDArray, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShape, "shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &NDArray{shape: shape.Clone(), data: data}, nil
}

// FromSlice creates an array from a copy of data.
func FromSlice(data []float32, shape Shape) (*NDArray, error) {
	buf := make([]float32, len(data))
	copy(buf, data)
	return New(shape, buf)
}

// MustFromSlice is FromSlice that panics on error. Intended for literals in
// tests and examples.
func MustFromSlice(data []float32, shape Shape) *NDArray {
	a, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return a
}

// Zeros creates an array filled with zeros.
func Zeros(shape Shape) *NDArray {
	return &NDArray{shape: shape.Clone(), data: make([]float32, shape.NumElements())}
}

// Ones creates an array filled with ones.
func Ones(shape Shape) *NDArray {
	return Full(shape, 1)
}

// Full creates an array filled with value.
func Full(shape Shape, value float32) *NDArray {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = value
	}
	return a
}

// Scalar creates a rank-0 array.
func Scalar(value float32) *NDArray {
	return &NDArray{shape: Shape{}, data: []float32{value}}
}

// Shape returns the array's shape. The result must not be modified.
func (a *NDArray) Shape() Shape {
	return a.shape
}

// Rank returns the number of dimensions.
func (a *NDArray) Rank() int {
	return len(a.shape)
}

// Len returns the total number of elements.
func (a *NDArray) Len() int {
	return len(a.data)
}

// Data returns the underlying buffer.
// WARNING: Direct access to underlying memory. Use with caution.
func (a *NDArray) Data() []float32 {
	return a.data
}

// Item returns the only element of a single-element array.
func (a *NDArray) Item() float32 {
	if len(a.data) != 1 {
		panic(errors.Wrapf(ErrShape, "Item: array of shape %v has %d elements", a.shape, len(a.data)))
	}
	return a.data[0]
}

// At returns the element at the given coordinates.
func (a *NDArray) At(idx ...int) float32 {
	if len(idx) != len(a.shape) {
		panic(errors.Wrapf(ErrShape, "At: %d indices for rank %d", len(idx), len(a.shape)))
	}
	strides := a.shape.ComputeStrides()
	off := 0
	for d, i := range idx {
		if i < 0 || i >= a.shape[d] {
			panic(errors.Wrapf(ErrShape, "At: index %d out of range for dimension %d of size %d", i, d, a.shape[d]))
		}
		off += i * strides[d]
	}
	return a.data[off]
}

// Clone returns a deep copy.
func (a *NDArray) Clone() *NDArray {
	data := make([]float32, len(a.data))
	copy(data, a.data)
	return &NDArray{shape: a.shape.Clone(), data: data}
}

// AllClose reports whether both arrays have the same shape and every pair
// of elements satisfies |a-b| <= atol + rtol*|b|.
func (a *NDArray) AllClose(b *NDArray, rtol, atol float32) bool {
	if !a.shape.Equal(b.shape) {
		return false
	}
	for i, x := range a.data {
		y := b.data[i]
		if math32.IsNaN(x) || math32.IsNaN(y) {
			return false
		}
		if math32.Abs(x-y) > atol+rtol*math32.Abs(y) {
			return false
		}
	}
	return true
}

// String formats the array for debugging.
func (a *NDArray) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "NDArray%v", []int(a.shape))
	const limit = 16
	if len(a.data) <= limit {
		fmt.Fprintf(&sb, "%v", a.data)
	} else {
		fmt.Fprintf(&sb, "%v...", a.data[:limit])
	}
	return sb.String()
}
