// Package train assembles models, runs training epochs and drives the MNIST
// experiment.
//
// The models are compositions of nn modules:
//
//	ResidualBlock = Sequential(Residual(Linear, Norm, ReLU, Dropout, Linear, Norm), ReLU)
//	MLPResNet     = Sequential(Linear, ReLU, ResidualBlock × blocks, Linear)
//
// Epoch marks the graph before every batch and releases the batch's nodes
// after the optimizer step, so memory stays bounded by one step's graph.
package train

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/nn"
)

// Norm builds a normalization layer over dim features.
type Norm func(g *autodiff.Graph, dim int) nn.Module

// BatchNorm is the default Norm.
func BatchNorm(g *autodiff.Graph, dim int) nn.Module {
	return nn.NewBatchNorm1d(g, dim, nn.NormConfig{})
}

// LayerNorm normalizes each sample instead of each feature.
func LayerNorm(g *autodiff.Graph, dim int) nn.Module {
	return nn.NewLayerNorm1d(g, dim, nn.NormConfig{})
}

// ResidualBlock builds
//
//	Sequential(
//	    Residual(Sequential(Linear(dim, hidden), norm(hidden), ReLU, Dropout(dropProb),
//	                        Linear(hidden, dim), norm(dim))),
//	    ReLU,
//	)
//
// A nil norm means BatchNorm. rng initializes the weights and drives the
// dropout masks.
func ResidualBlock(g *autodiff.Graph, dim, hidden int, norm Norm, dropProb float32, rng *rand.Rand) *nn.Sequential {
	if norm == nil {
		norm = BatchNorm
	}
	return nn.NewSequential(
		nn.NewResidual(nn.NewSequential(
			nn.NewLinear(g, dim, hidden, rng),
			norm(g, hidden),
			nn.NewReLU(),
			nn.NewDropout(dropProb, rng),
			nn.NewLinear(g, hidden, dim, rng),
			norm(g, dim),
		)),
		nn.NewReLU(),
	)
}

// MLPResNet builds
//
//	Sequential(Linear(dim, hidden), ReLU,
//	           ResidualBlock(hidden, hidden/2) × blocks,
//	           Linear(hidden, classes))
func MLPResNet(g *autodiff.Graph, dim, hidden, blocks, classes int, norm Norm, dropProb float32, rng *rand.Rand) *nn.Sequential {
	layers := []nn.Module{
		nn.NewLinear(g, dim, hidden, rng),
		nn.NewReLU(),
	}
	for range blocks {
		layers = append(layers, ResidualBlock(g, hidden, hidden/2, norm, dropProb, rng))
	}
	layers = append(layers, nn.NewLinear(g, hidden, classes, rng))
	return nn.NewSequential(layers...)
}
