package tensor

// broadcastStrides computes strides for reading an array of inShape as if
// it had outShape. Dimensions of size 1 and padded leading dimensions get
// stride 0.
func broadcastStrides(inShape, outShape Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a flat output index to the flat source index.
// outStrides: strides of the output shape.
// inStrides: broadcast-adjusted strides of the input shape.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}

// BroadcastTo expands the array to shape following NumPy rules: leading
// dimensions may be added and size-1 dimensions repeated.
func (a *NDArray) BroadcastTo(shape Shape) (*NDArray, error) {
	if err := CheckBroadcastTo(a.shape, shape); err != nil {
		return nil, err
	}
	if a.shape.Equal(shape) {
		return a.Clone(), nil
	}
	out := Zeros(shape)
	outStrides := shape.ComputeStrides()
	inStrides := broadcastStrides(a.shape, shape)
	for i := range out.data {
		out.data[i] = a.data[flatIndex(i, outStrides, inStrides)]
	}
	return out, nil
}
