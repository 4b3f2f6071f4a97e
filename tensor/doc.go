// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float32 arrays for the lazygrad framework.
//
// # Overview
//
// NDArray is the concrete storage every graph node realizes to. It is a
// contiguous row-major buffer with a shape, and this package provides:
//   - Creation: New, FromSlice, Zeros, Ones, Full, Scalar
//   - Random creation: Rand, Randn, Bernoulli (seeded *rand.Rand)
//   - Elementwise arithmetic with NumPy broadcasting
//   - Reductions: Sum, Max, Mean, Argmax
//   - Manipulation: Reshape, Permute, SwapAxes, Stack, Split
//   - MatMul backed by gonum's BLAS
//
// # Basic Usage
//
//	import "github.com/born-ml/lazygrad/tensor"
//
//	func main() {
//	    x := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := tensor.Ones(tensor.Shape{2, 2})
//
//	    z, err := x.Add(y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(z)
//	}
//
// # Errors
//
// Operations on incompatible shapes return errors wrapping ErrShape; bad
// axes wrap ErrAxis. Match them with errors.Is.
package tensor
