package train

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/autodiff"
	"github.com/born-ml/lazygrad/internal/data"
	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/optim"
	"github.com/born-ml/lazygrad/internal/serialization"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// MNIST file names inside Config.DataDir.
const (
	TrainImages = "train-images-idx3-ubyte.gz"
	TrainLabels = "train-labels-idx1-ubyte.gz"
	TestImages  = "t10k-images-idx3-ubyte.gz"
	TestLabels  = "t10k-labels-idx1-ubyte.gz"
)

// augmentStream separates the augmentation generator from the one that
// drives initialization, dropout and shuffling.
const augmentStream = 0x9e3779b97f4a7c15

// augmentRNG returns the augmentation generator for seed.
func augmentRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ augmentStream))
}

// Config configures TrainMNIST. Zero fields take the defaults shown.
type Config struct {
	DataDir     string       // directory holding the four MNIST files (default "data")
	BatchSize   int          // default 100
	Epochs      int          // default 10
	Optimizer   string       // "adam" (default) or "sgd"
	LR          float32      // default 0.001
	WeightDecay float32      // default 0.001; negative disables
	Momentum    float32      // SGD only
	Hidden      int          // hidden width of MLPResNet (default 100)
	Blocks      int          // residual blocks (default 3)
	DropProb    float32      // dropout probability (default 0.1); negative disables
	LayerNorm   bool         // use LayerNorm1d instead of BatchNorm1d
	Augment     bool         // random flips and crops on training images
	Eager       bool         // realize every node at construction
	Seed        uint64       // seeds initialization, dropout, shuffling and augmentation
	Save        string       // checkpoint path written after training (optional)
	Logger      *slog.Logger // progress reporting; nil discards
}

// DefaultConfig returns the defaults applied to zero fields.
func DefaultConfig() Config {
	return Config{
		DataDir:     "data",
		BatchSize:   100,
		Epochs:      10,
		Optimizer:   "adam",
		LR:          0.001,
		WeightDecay: 0.001,
		Hidden:      100,
		Blocks:      3,
		DropProb:    0.1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Epochs == 0 {
		c.Epochs = d.Epochs
	}
	if c.Optimizer == "" {
		c.Optimizer = d.Optimizer
	}
	if c.LR == 0 {
		c.LR = d.LR
	}
	switch {
	case c.WeightDecay == 0:
		c.WeightDecay = d.WeightDecay
	case c.WeightDecay < 0:
		c.WeightDecay = 0
	}
	if c.Hidden == 0 {
		c.Hidden = d.Hidden
	}
	if c.Blocks == 0 {
		c.Blocks = d.Blocks
	}
	switch {
	case c.DropProb == 0:
		c.DropProb = d.DropProb
	case c.DropProb < 0:
		c.DropProb = 0
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Result holds the statistics of the last epoch.
type Result struct {
	Train Stats
	Test  Stats
}

// NewOptimizer creates the optimizer named by cfg.Optimizer.
func NewOptimizer(cfg Config, params []*nn.Parameter) (optim.Optimizer, error) {
	switch cfg.Optimizer {
	case "adam":
		return optim.NewAdam(params, optim.AdamConfig{LR: cfg.LR, WeightDecay: cfg.WeightDecay}), nil
	case "sgd":
		return optim.NewSGD(params, optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum, WeightDecay: cfg.WeightDecay}), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q (want adam or sgd)", cfg.Optimizer)
	}
}

// TrainMNIST trains an MLPResNet on MNIST and evaluates it on the test set
// after every epoch.
//
// It returns the statistics of the final epoch. ctx is checked between
// epochs.
func TrainMNIST(ctx context.Context, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger

	var transforms []data.Transform
	if cfg.Augment {
		rng := augmentRNG(cfg.Seed)
		transforms = append(transforms, data.NewRandomFlipHorizontal(0.5, rng), data.NewRandomCrop(2, rng))
	}
	trainSet, err := data.NewMNISTDataset(filepath.Join(cfg.DataDir, TrainImages), filepath.Join(cfg.DataDir, TrainLabels), transforms...)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading training set")
	}
	testSet, err := data.NewMNISTDataset(filepath.Join(cfg.DataDir, TestImages), filepath.Join(cfg.DataDir, TestLabels))
	if err != nil {
		return Result{}, errors.Wrap(err, "loading test set")
	}
	log.Info("loaded MNIST", "train", trainSet.Len(), "test", testSet.Len())

	return Run(ctx, cfg, trainSet, testSet, trainSet.Rows*trainSet.Cols)
}

// Run trains an MLPResNet with dim inputs on trainSet and evaluates it on
// testSet after every epoch.
func Run(ctx context.Context, cfg Config, trainSet, testSet data.Dataset, dim int) (Result, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger
	rng := rand.New(rand.NewSource(cfg.Seed))

	norm := BatchNorm
	if cfg.LayerNorm {
		norm = LayerNorm
	}
	g := autodiff.NewGraph(autodiff.Config{Eager: cfg.Eager})
	model := MLPResNet(g, dim, cfg.Hidden, cfg.Blocks, 10, norm, cfg.DropProb, rng)
	opt, err := NewOptimizer(cfg, model.Parameters())
	if err != nil {
		return Result{}, err
	}

	log.Debug("model",
		"dim", dim,
		"hidden", cfg.Hidden,
		"blocks", cfg.Blocks,
		"params", len(model.Parameters()),
		"optimizer", cfg.Optimizer,
		"lr", cfg.LR,
		"eager", cfg.Eager,
	)

	trainLoader := data.NewDataLoader(trainSet, cfg.BatchSize, true, rng)
	testLoader := data.NewDataLoader(testSet, cfg.BatchSize, false, nil)

	var res Result
	for epoch := range cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		if res.Train, err = Epoch(g, trainLoader, model, opt); err != nil {
			return res, errors.Wrapf(err, "epoch %d", epoch+1)
		}
		if res.Test, err = Epoch(g, testLoader, model, nil); err != nil {
			return res, errors.Wrapf(err, "epoch %d evaluation", epoch+1)
		}
		log.Info("epoch",
			"n", epoch+1,
			"train_loss", res.Train.Loss,
			"train_err", res.Train.ErrorRate,
			"test_loss", res.Test.Loss,
			"test_err", res.Test.ErrorRate,
			"nodes", g.Len(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}

	if cfg.Save != "" {
		var state map[string]*tensor.NDArray
		if s, ok := opt.(interface {
			StateDict() map[string]*tensor.NDArray
		}); ok {
			state = s.StateDict()
		}
		if err := serialization.SaveFile(cfg.Save, model.Parameters(), nn.Buffers(model), state); err != nil {
			return res, errors.Wrap(err, "saving checkpoint")
		}
		log.Info("saved checkpoint", "path", cfg.Save)
	}
	return res, nil
}
