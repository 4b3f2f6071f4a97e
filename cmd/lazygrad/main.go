// Package main provides the lazygrad CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/train"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("lazygrad %s\n", version)
	case "train":
		if err := runTrain(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "train: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("lazygrad - lazy autodiff and neural network training for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  train      Train an MLPResNet on MNIST (train -h for flags)")
}

func runTrain(args []string) error {
	cfg, verbose, err := parseTrainFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := train.TrainMNIST(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("train error %.4f loss %.4f | test error %.4f loss %.4f\n",
		res.Train.ErrorRate, res.Train.Loss, res.Test.ErrorRate, res.Test.Loss)
	return nil
}

// parseTrainFlags turns the train flags into a Config. An explicit -wd 0 or
// -dropout 0 disables weight decay or dropout instead of selecting the
// default.
func parseTrainFlags(args []string) (cfg train.Config, verbose bool, err error) {
	def := train.DefaultConfig()
	cfg = def

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data", def.DataDir, "directory with the gzipped MNIST IDX files")
	fs.IntVar(&cfg.Epochs, "epochs", def.Epochs, "number of epochs")
	fs.IntVar(&cfg.BatchSize, "batch", def.BatchSize, "batch size")
	fs.StringVar(&cfg.Optimizer, "optimizer", def.Optimizer, "adam or sgd")
	lr := fs.Float64("lr", float64(def.LR), "learning rate")
	wd := fs.Float64("wd", float64(def.WeightDecay), "weight decay (0 disables)")
	momentum := fs.Float64("momentum", 0, "SGD momentum")
	drop := fs.Float64("dropout", float64(def.DropProb), "dropout probability (0 disables)")
	fs.IntVar(&cfg.Hidden, "hidden", def.Hidden, "hidden width")
	fs.IntVar(&cfg.Blocks, "blocks", def.Blocks, "number of residual blocks")
	fs.BoolVar(&cfg.LayerNorm, "layernorm", false, "use LayerNorm1d instead of BatchNorm1d")
	fs.BoolVar(&cfg.Augment, "augment", false, "random flips and crops on training images")
	fs.BoolVar(&cfg.Eager, "eager", false, "realize every node at construction")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "random seed")
	fs.StringVar(&cfg.Save, "save", "", "write a checkpoint to this path after training")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}

	cfg.LR = float32(*lr)
	cfg.WeightDecay = float32(*wd)
	cfg.Momentum = float32(*momentum)
	cfg.DropProb = float32(*drop)
	// Config treats zero as "use the default" and negative as "off".
	fs.Visit(func(f *flag.Flag) {
		switch {
		case f.Name == "wd" && *wd == 0:
			cfg.WeightDecay = -1
		case f.Name == "dropout" && *drop == 0:
			cfg.DropProb = -1
		}
	})
	return cfg, verbose, nil
}
