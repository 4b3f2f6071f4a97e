package tensor

import (
	"golang.org/x/exp/rand"
)

// Random constructors take the generator explicitly; there is no package
// level source, so results depend only on the caller's seed.

// Rand creates an array with values drawn uniformly from [low, high).
func Rand(shape Shape, low, high float32, rng *rand.Rand) *NDArray {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = low + (high-low)*rng.Float32()
	}
	return a
}

// Randn creates an array with values drawn from N(mean, std²).
func Randn(shape Shape, mean, std float32, rng *rand.Rand) *NDArray {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = mean + std*float32(rng.NormFloat64())
	}
	return a
}

// Bernoulli creates an array of 1s (probability p) and 0s.
func Bernoulli(shape Shape, p float32, rng *rand.Rand) *NDArray {
	a := Zeros(shape)
	for i := range a.data {
		if rng.Float32() < p {
			a.data[i] = 1
		}
	}
	return a
}

// OneHot encodes integer labels as rows of a [len(labels), classes] array.
// Labels outside [0, classes) produce an all-zero row.
func OneHot(labels []int, classes int) *NDArray {
	a := Zeros(Shape{len(labels), classes})
	for i, y := range labels {
		if y >= 0 && y < classes {
			a.data[i*classes+y] = 1
		}
	}
	return a
}
