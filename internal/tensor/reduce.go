package tensor

import (
	"github.com/chewxy/math32"
)

// reduce folds the array over axes (nil = all axes). init seeds every
// output slot and f combines the accumulator with one input element.
func (a *NDArray) reduce(axes []int, keepDims bool, init float32, f func(acc, x float32) float32) (*NDArray, error) {
	norm, err := NormalizeAxes(axes, len(a.shape))
	if err != nil {
		return nil, err
	}

	kept := ReduceShape(a.shape, norm, true)
	out := Full(kept, init)

	// Reading out through stride-0 axes maps every input index onto its
	// reduction slot.
	inStrides := a.shape.ComputeStrides()
	slotStrides := broadcastStrides(kept, a.shape)
	for i, x := range a.data {
		slot := flatIndex(i, inStrides, slotStrides)
		out.data[slot] = f(out.data[slot], x)
	}

	if !keepDims {
		out.shape = ReduceShape(a.shape, norm, false)
	}
	return out, nil
}

// Sum adds elements over the given axes (nil = all axes).
func (a *NDArray) Sum(axes []int, keepDims bool) (*NDArray, error) {
	return a.reduce(axes, keepDims, 0, func(acc, x float32) float32 { return acc + x })
}

// Max takes the maximum over the given axes (nil = all axes).
func (a *NDArray) Max(axes []int, keepDims bool) (*NDArray, error) {
	return a.reduce(axes, keepDims, math32.Inf(-1), func(acc, x float32) float32 {
		if x > acc {
			return x
		}
		return acc
	})
}

// Mean averages elements over the given axes (nil = all axes).
func (a *NDArray) Mean(axes []int, keepDims bool) (*NDArray, error) {
	sum, err := a.Sum(axes, keepDims)
	if err != nil {
		return nil, err
	}
	return sum.DivScalar(float32(a.Len() / sum.Len())), nil
}

// Argmax returns the index of the maximum along axis (first one on ties),
// as float32 values, with the axis removed.
func (a *NDArray) Argmax(axis int) (*NDArray, error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}
	n := a.shape[ax]
	outer := a.shape[:ax].NumElements()
	inner := a.shape[ax+1:].NumElements()

	out := Zeros(ReduceShape(a.shape, []int{ax}, false))
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			best := 0
			bestVal := a.data[o*n*inner+in]
			for k := 1; k < n; k++ {
				v := a.data[(o*n+k)*inner+in]
				if v > bestVal {
					best, bestVal = k, v
				}
			}
			out.data[o*inner+in] = float32(best)
		}
	}
	return out, nil
}
