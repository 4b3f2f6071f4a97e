package tensor

import (
	"fmt"
	"testing"

	"golang.org/x/exp/rand"
)

func BenchmarkCreation(b *testing.B) {
	shape := Shape{100, 100}
	rng := rand.New(rand.NewSource(0))

	b.Run("Zeros", func(b *testing.B) {
		for b.Loop() {
			_ = Zeros(shape)
		}
	})

	b.Run("Randn", func(b *testing.B) {
		for b.Loop() {
			_ = Randn(shape, 0, 1, rng)
		}
	})
}

func BenchmarkShapeOperations(b *testing.B) {
	shape1 := Shape{100, 1}
	shape2 := Shape{1, 100}

	b.Run("ComputeStrides", func(b *testing.B) {
		for b.Loop() {
			_ = shape1.ComputeStrides()
		}
	})

	b.Run("BroadcastShapes", func(b *testing.B) {
		for b.Loop() {
			_, _, _ = BroadcastShapes(shape1, shape2)
		}
	})
}

func BenchmarkMatMul(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	for _, n := range []int{32, 128, 256} {
		x := Randn(Shape{n, n}, 0, 1, rng)
		y := Randn(Shape{n, n}, 0, 1, rng)
		b.Run(fmt.Sprintf("%dx%d", n, n), func(b *testing.B) {
			for b.Loop() {
				_, _ = x.MatMul(y)
			}
		})
	}
}

func BenchmarkElementwise(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	x := Randn(Shape{256, 256}, 0, 1, rng)
	y := Randn(Shape{256, 256}, 0, 1, rng)

	b.Run("Add", func(b *testing.B) {
		for b.Loop() {
			_, _ = x.Add(y)
		}
	})

	b.Run("BroadcastTo", func(b *testing.B) {
		row := Randn(Shape{1, 256}, 0, 1, rng)
		for b.Loop() {
			_, _ = row.BroadcastTo(Shape{256, 256})
		}
	})

	b.Run("Sum", func(b *testing.B) {
		for b.Loop() {
			_, _ = x.Sum([]int{1}, false)
		}
	})
}
