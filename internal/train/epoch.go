package train

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/data"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/optim"
)

// Stats summarizes one pass over a dataset.
type Stats struct {
	ErrorRate float32 // fraction of misclassified samples
	Loss      float32 // mean softmax loss per sample
}

// Epoch runs one pass of loader through model.
//
// With a non-nil opt the model is put in training mode and every batch is
// followed by backward and an optimizer step; with a nil opt the model is
// evaluated in eval mode. The model's parameters must live in g and be
// created before Epoch is called.
func Epoch(g *autodiff.Graph, loader *data.DataLoader, model nn.Module, opt optim.Optimizer) (Stats, error) {
	if opt != nil {
		model.Train()
	} else {
		model.Eval()
	}
	lossFn := nn.NewSoftmaxLoss()

	var (
		wrong     int
		totalLoss float64
		seen      int
	)
	loader.Reset()
	for {
		batch, err := loader.Next()
		if err != nil {
			return Stats{}, err
		}
		if batch == nil {
			break
		}

		w, l, err := step(g, batch, model, lossFn, opt)
		if err != nil {
			return Stats{}, errors.Wrapf(err, "batch at sample %d", seen)
		}
		wrong += w
		totalLoss += float64(l) * float64(batch.Size())
		seen += batch.Size()
	}
	if seen == 0 {
		return Stats{}, nil
	}
	return Stats{
		ErrorRate: float32(wrong) / float32(seen),
		Loss:      float32(totalLoss / float64(seen)),
	}, nil
}

// step runs one batch and releases its graph nodes. It returns the number of
// misclassified samples and the mean batch loss.
func step(g *autodiff.Graph, batch *data.Batch, model nn.Module, lossFn *nn.SoftmaxLoss, opt optim.Optimizer) (int, float32, error) {
	mark := g.Mark()
	defer g.Release(mark)

	labels := batch.Labels()
	logits, err := nn.Call(model, g.Constant(batch.X))
	if err != nil {
		return 0, 0, err
	}
	loss, err := lossFn.Forward(logits, labels)
	if err != nil {
		return 0, 0, err
	}

	if opt != nil {
		opt.ResetGrad()
		if err := loss.Backward(); err != nil {
			return 0, 0, err
		}
		if err := opt.Step(); err != nil {
			return 0, 0, err
		}
	}

	lossValue, err := loss.Data()
	if err != nil {
		return 0, 0, err
	}
	scores, err := logits.Data()
	if err != nil {
		return 0, 0, err
	}
	pred, err := scores.Argmax(1)
	if err != nil {
		return 0, 0, err
	}
	wrong := 0
	for i, p := range pred.Data() {
		if int(p) != labels[i] {
			wrong++
		}
	}
	return wrong, lossValue.Item(), nil
}
