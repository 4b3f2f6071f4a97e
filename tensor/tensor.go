// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// NDArray is a dense row-major float32 array.
type NDArray = tensor.NDArray

// Shape represents array dimensions. The empty shape is a scalar.
type Shape = tensor.Shape

// Sentinel errors.
var (
	ErrShape = tensor.ErrShape
	ErrAxis  = tensor.ErrAxis
)

// New creates an array with the given shape that takes ownership of data.
func New(shape Shape, data []float32) (*NDArray, error) {
	return tensor.New(shape, data)
}

// FromSlice creates an array from a slice.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice(data []float32, shape Shape) (*NDArray, error) {
	return tensor.FromSlice(data, shape)
}

// MustFromSlice is like FromSlice but panics on error.
func MustFromSlice(data []float32, shape Shape) *NDArray {
	return tensor.MustFromSlice(data, shape)
}

// Zeros creates a zero-filled array.
func Zeros(shape Shape) *NDArray {
	return tensor.Zeros(shape)
}

// Ones creates an array filled with ones.
func Ones(shape Shape) *NDArray {
	return tensor.Ones(shape)
}

// Full creates an array filled with value.
func Full(shape Shape, value float32) *NDArray {
	return tensor.Full(shape, value)
}

// Scalar creates a rank-0 array.
func Scalar(value float32) *NDArray {
	return tensor.Scalar(value)
}

// Rand samples uniformly from [low, high).
func Rand(shape Shape, low, high float32, rng *rand.Rand) *NDArray {
	return tensor.Rand(shape, low, high, rng)
}

// Randn samples from a normal distribution.
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	w := tensor.Randn(tensor.Shape{784, 128}, 0, 0.01, rng)
func Randn(shape Shape, mean, std float32, rng *rand.Rand) *NDArray {
	return tensor.Randn(shape, mean, std, rng)
}

// Bernoulli samples 1 with probability p and 0 otherwise.
func Bernoulli(shape Shape, p float32, rng *rand.Rand) *NDArray {
	return tensor.Bernoulli(shape, p, rng)
}

// OneHot encodes labels as rows of a [len(labels), classes] array.
func OneHot(labels []int, classes int) *NDArray {
	return tensor.OneHot(labels, classes)
}

// Stack joins equally shaped arrays along a new axis.
func Stack(arrays []*NDArray, axis int) (*NDArray, error) {
	return tensor.Stack(arrays, axis)
}

// BroadcastShapes returns the broadcast shape of a and b and whether it
// differs from either input.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
