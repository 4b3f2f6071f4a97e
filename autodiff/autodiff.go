// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides the lazy computational graph and reverse-mode
// automatic differentiation.
//
// A Graph owns every node of a computation. Tensors are lightweight handles
// into it; building an expression records operator nodes without computing
// them, and values are realized on first access (or at construction when
// the graph is eager). Backward builds gradient nodes in the same graph, so
// gradients are themselves differentiable.
//
// Example:
//
//	import (
//	    "github.com/born-ml/lazygrad/autodiff"
//	    "github.com/born-ml/lazygrad/ops"
//	    "github.com/born-ml/lazygrad/tensor"
//	)
//
//	func main() {
//	    g := autodiff.NewGraph(autodiff.Config{})
//	    x := g.Variable(tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3}))
//
//	    y, _ := ops.Mul(x, x)  // recorded, not computed
//	    s, _ := ops.Summation(y)
//
//	    _ = s.Backward()
//	    grad, _ := x.Grad()
//	    data, _ := grad.Data()  // [2 4 6]
//	}
//
// Memory is reclaimed with Mark and Release around each training step:
//
//	m := g.Mark()
//	defer g.Release(m)
package autodiff

import (
	"github.com/born-ml/lazygrad/internal/autodiff"
)

// Graph owns the nodes of a computation.
type Graph = autodiff.Graph

// Config configures a Graph.
type Config = autodiff.Config

// Tensor is a handle to a node of a Graph.
type Tensor = autodiff.Tensor

// NodeID addresses a node in its Graph.
type NodeID = autodiff.NodeID

// Mark records the graph length for Release.
type Mark = autodiff.Mark

// Op is an operator; Differentiable adds a gradient rule.
type (
	Op             = autodiff.Op
	Differentiable = autodiff.Differentiable
)

// Value is a realized node result and Meta its inferred signature.
type (
	Value = autodiff.Value
	Meta  = autodiff.Meta
)

// Sentinel errors.
var (
	ErrType           = autodiff.ErrType
	ErrShape          = autodiff.ErrShape
	ErrNotImplemented = autodiff.ErrNotImplemented
	ErrNoGrad         = autodiff.ErrNoGrad
	ErrStaleTensor    = autodiff.ErrStaleTensor
)

// NewGraph creates an empty graph.
//
// Example:
//
//	g := autodiff.NewGraph(autodiff.Config{Eager: true})
func NewGraph(cfg Config) *Graph {
	return autodiff.NewGraph(cfg)
}

// Must returns t, or panics with err in a way Guard recovers.
func Must(t Tensor, err error) Tensor {
	return autodiff.Must(t, err)
}

// Guard converts a panic raised by Must back into an error.
//
// Example:
//
//	func forward(x autodiff.Tensor) (y autodiff.Tensor, err error) {
//	    defer autodiff.Guard(&err)
//	    h := autodiff.Must(ops.MatMul(x, w))
//	    return autodiff.Must(ops.ReLU(h)), nil
//	}
//
// recover only stops a panic in the deferred function itself, so Guard
// must not be wrapped.
var Guard = autodiff.Guard
