// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the differentiable operators of the autodiff graph.
//
// Every function validates its operands, adds one node to the operands'
// graph and returns a handle to it. Shape and type errors are reported at
// construction and leave the graph unchanged.
//
// Elementwise operators require equal shapes; use BroadcastTo to expand an
// operand first:
//
//	b2, err := ops.BroadcastTo(b, tensor.Shape{batch, out})
//	y, err := ops.Add(xw, b2)
package ops

import (
	"github.com/born-ml/lazygrad/internal/autodiff/ops"
)

// Elementwise arithmetic.
var (
	Add         = ops.Add
	Sub         = ops.Sub
	Mul         = ops.Mul
	Div         = ops.Div
	Pow         = ops.Pow
	Negate      = ops.Negate
	AddScalar   = ops.AddScalar
	MulScalar   = ops.MulScalar
	DivScalar   = ops.DivScalar
	PowerScalar = ops.PowerScalar
)

// Unary functions.
var (
	Exp  = ops.Exp
	Log  = ops.Log
	ReLU = ops.ReLU
)

// Shape manipulation and reductions.
var (
	Reshape     = ops.Reshape
	Flatten     = ops.Flatten
	Transpose   = ops.Transpose
	BroadcastTo = ops.BroadcastTo
	BroadcastAs = ops.BroadcastAs
	Summation   = ops.Summation
	Mean        = ops.Mean
	MatMul      = ops.MatMul
	LogSumExp   = ops.LogSumExp
	LogSoftmax  = ops.LogSoftmax
	Argmax      = ops.Argmax
)

// Tuples.
var (
	MakeTuple    = ops.MakeTuple
	TupleGetItem = ops.TupleGetItem
	Split        = ops.Split
	Stack        = ops.Stack
)
