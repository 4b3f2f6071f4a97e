// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum and weight decay
//   - Adam: Adaptive Moment Estimation with bias correction
//   - ClipGradNorm: global gradient norm clipping
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/lazygrad/autodiff"
//	    "github.com/born-ml/lazygrad/nn"
//	    "github.com/born-ml/lazygrad/optim"
//	)
//
//	func main() {
//	    g := autodiff.NewGraph(autodiff.Config{})
//	    model := nn.NewLinear(g, 784, 10, rng)
//
//	    // Create optimizer
//	    optimizer := optim.NewAdam(
//	        model.Parameters(),
//	        optim.AdamConfig{
//	            LR:    0.001,
//	            Betas: [2]float32{0.9, 0.999},
//	        },
//	    )
//	}
//
// # Training Loop Pattern
//
//	for epoch := range numEpochs {
//	    for _, batch := range batches {
//	        mark := g.Mark()
//
//	        // 1. Forward pass
//	        logits, _ := nn.Call(model, g.Constant(batch.X))
//	        loss, _ := criterion.Forward(logits, batch.Labels())
//
//	        // 2. Backward pass
//	        optimizer.ResetGrad()
//	        _ = loss.Backward()
//
//	        // 3. Update parameters
//	        _ = optimizer.Step()
//
//	        // 4. Drop the step's nodes
//	        g.Release(mark)
//	    }
//	}
package optim
