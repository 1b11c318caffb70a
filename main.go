package main

import (
	"flag"
	"fmt"
	"os"

	"nnlab/config"
	"nnlab/dataset"
	"nnlab/ml"
	"nnlab/preprocess"
	"nnlab/train"
	"nnlab/util"
)

func main() {
	util.InitLogger("nnlab")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <mnist|gan|cifar> [flags]\n", os.Args[0])
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "mnist":
		err = runMNIST(os.Args[2:])
	case "gan":
		err = runGAN(os.Args[2:])
	case "cifar":
		err = runCIFAR(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q; want mnist, gan or cifar\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		util.Logger.Fatal(err)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfgPath := fs.String("config", "", "YAML config file")
	dataDir := fs.String("data", "", "dataset cache directory")
	batch := fs.Int("batch", 0, "batch size")
	epochs := fs.Int("epochs", 0, "number of epochs")
	lr := fs.Float64("lr", 0, "learning rate")
	seed := fs.Int64("seed", 0, "random seed")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyOverrides(config.Overrides{
		DataDir:      *dataDir,
		BatchSize:    *batch,
		Epochs:       *epochs,
		LearningRate: *lr,
		Seed:         *seed,
	})
	return cfg, cfg.Validate()
}

func runMNIST(args []string) error {
	fs := flag.NewFlagSet("mnist", flag.ExitOnError)
	useTorch := fs.Bool("torch", false, "train the gotorch-backed model instead of the gonum one")
	save := fs.String("save", "", "gob file to save the trained model to")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	if err := dataset.EnsureMNIST(cfg.DataDir); err != nil {
		return err
	}
	trainSplit, testSplit, err := dataset.LoadMNIST(cfg.DataDir)
	if err != nil {
		return err
	}
	trainSet, err := preprocess.Run(trainSplit.X, trainSplit.Y, preprocess.Options{})
	if err != nil {
		return err
	}
	testSet, err := preprocess.Run(testSplit.X, testSplit.Y, preprocess.Options{Test: true})
	if err != nil {
		return err
	}

	var model ml.Model
	if *useTorch {
		model = ml.NewTorchMLP(cfg.LearningRate)
	} else {
		model = ml.NewMLP(28*28, cfg.Hidden, 10, cfg.LearningRate, cfg.Seed)
	}

	trainer := train.NewTrainer(model, cfg.BatchSize, cfg.Epochs)
	if cfg.Seed != 0 {
		trainer.Seed(cfg.Seed)
	}
	trainer.Train(trainSet.X, trainSet.Y)
	if *save != "" {
		if err := saveTrainedModel(trainer, model, *save); err != nil {
			return err
		}
		util.Logger.Printf("model saved: %s", *save)
	}

	_, _, err = train.NewEvaluator(model, model.Loss).Evaluate(testSet.X, testSet.Y)
	return err
}

// stateSaver is implemented by models that write their own state dict
// instead of gob-encoding the whole struct. The gotorch model has no
// exported fields, so gob cannot serialize it directly.
type stateSaver interface {
	SaveState(path string) error
}

// saveTrainedModel persists the trained model, preferring the model's own
// state writer when it has one.
func saveTrainedModel(trainer *train.Trainer, model ml.Model, path string) error {
	if s, ok := model.(stateSaver); ok {
		return s.SaveState(path)
	}
	return trainer.SaveModel(path)
}

func runGAN(args []string) error {
	fs := flag.NewFlagSet("gan", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	if err := dataset.EnsureMNIST(cfg.DataDir); err != nil {
		return err
	}
	trainSplit, _, err := dataset.LoadMNIST(cfg.DataDir)
	if err != nil {
		return err
	}
	trainSet, err := preprocess.Run(trainSplit.X, trainSplit.Y, preprocess.Options{Test: true})
	if err != nil {
		return err
	}

	gen := ml.NewGenerator(cfg.GAN.LatentDim, cfg.Hidden, 28*28, cfg.LearningRate, cfg.Seed)
	disc := ml.NewDiscriminatorMLP(28*28, cfg.Hidden, cfg.LearningRate, cfg.Seed+1)

	gan := train.NewTrainerGAN(gen, disc, train.GANConfig{
		BatchSize:  cfg.BatchSize,
		Iterations: cfg.GAN.Iterations,
		LatentDim:  cfg.GAN.LatentDim,
		K:          cfg.GAN.K,
		ReportFreq: cfg.GAN.ReportFreq,
	})
	if cfg.Seed != 0 {
		gan.Seed(cfg.Seed)
	}
	return gan.Train(trainSet.X)
}

func runCIFAR(args []string) error {
	fs := flag.NewFlagSet("cifar", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	trainSet, testSet, err := dataset.LoadCIFAR10(cfg.DataDir)
	if err != nil {
		return err
	}
	util.Logger.Printf("cifar10 train: x=%v", trainSet.X.Shape())
	util.Logger.Printf("cifar10 test: x=%v", testSet.X.Shape())
	tr, _ := trainSet.Y.Dims()
	te, _ := testSet.Y.Dims()
	util.Logger.Printf("cifar10 labels: train=%d test=%d", tr, te)
	return nil
}
