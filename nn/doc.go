// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations and shape helpers: ReLU, Identity, Flatten
//   - Containers: Sequential, Residual
//   - Normalization: BatchNorm1d, LayerNorm1d
//   - Regularization: Dropout
//   - Loss functions: SoftmaxLoss, MSELoss
//   - Initialization: Xavier and Kaiming, uniform and normal
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/lazygrad/autodiff"
//	    "github.com/born-ml/lazygrad/nn"
//	    "golang.org/x/exp/rand"
//	)
//
//	func main() {
//	    g := autodiff.NewGraph(autodiff.Config{})
//	    rng := rand.New(rand.NewSource(0))
//
//	    // Build a simple MLP
//	    model := nn.NewSequential(
//	        nn.NewLinear(g, 784, 128, rng),
//	        nn.NewReLU(),
//	        nn.NewLinear(g, 128, 10, rng),
//	    )
//
//	    // Forward pass; Call reports misuse as an error
//	    logits, err := nn.Call(model, g.Constant(batch))
//	    loss, err := nn.NewSoftmaxLoss().Forward(logits, labels)
//	}
//
// # Parameters
//
// Layer weights are Parameters: leaf tensors that require grad, created in
// the graph passed to the constructor. They survive Graph.Release as long
// as the layer was built before the mark.
package nn
