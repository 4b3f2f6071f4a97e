// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazygrad/tensor"
)

// TestNDArrayAPI verifies the NDArray alias exposes the expected API.
func TestNDArrayAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)

	assert.True(t, x.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, 2, x.Rank())
	assert.Equal(t, 6, x.Len())
	assert.Equal(t, float32(6), x.At(1, 2))

	clone := x.Clone()
	clone.Data()[0] = 100
	assert.Equal(t, float32(1), x.Data()[0], "Clone must not share storage")

	sum, err := x.Sum([]int{1}, false)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 15}, sum.Data())
}

func TestCreation(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, tensor.Zeros(tensor.Shape{2}).Data())
	assert.Equal(t, []float32{1, 1}, tensor.Ones(tensor.Shape{2}).Data())
	assert.Equal(t, []float32{7, 7}, tensor.Full(tensor.Shape{2}, 7).Data())
	assert.Equal(t, float32(3), tensor.Scalar(3).Item())
	assert.Equal(t, []float32{0, 1, 1, 0}, tensor.OneHot([]int{1, 0}, 2).Data())
}

func TestErrors(t *testing.T) {
	_, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2})
	assert.ErrorIs(t, err, tensor.ErrShape)

	x := tensor.Ones(tensor.Shape{2, 2})
	_, err = x.Add(tensor.Ones(tensor.Shape{3}))
	assert.ErrorIs(t, err, tensor.ErrShape)
}
