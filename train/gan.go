package train

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"nnlab/ml"
	"nnlab/plot"
	"nnlab/util"
)

// GANConfig holds the adversarial training knobs.
type GANConfig struct {
	BatchSize  int
	Iterations int
	LatentDim  int // defaults to 100
	K          int // discriminator steps per iteration, defaults to 1
	ReportFreq int // defaults to 40
}

func (c *GANConfig) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.LatentDim <= 0 {
		c.LatentDim = 100
	}
	if c.K <= 0 {
		c.K = 1
	}
	if c.ReportFreq <= 0 {
		c.ReportFreq = 40
	}
}

// TrainerGAN alternates discriminator and generator updates. The generator
// step is an explicit two-stage handoff: the discriminator scores the fake
// batch and hands back the gradient with respect to its input, which the
// generator then backpropagates through itself.
type TrainerGAN struct {
	gen  ml.Generator
	disc ml.Discriminator
	cfg  GANConfig
	rng  *rand.Rand

	// saveGrid is swapped out by tests.
	saveGrid func(images *mat.Dense, iteration int) (string, error)
}

func NewTrainerGAN(gen ml.Generator, disc ml.Discriminator, cfg GANConfig) *TrainerGAN {
	cfg.setDefaults()
	return &TrainerGAN{
		gen:      gen,
		disc:     disc,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		saveGrid: plot.SaveGridImages,
	}
}

// Seed makes noise and real-batch sampling deterministic.
func (t *TrainerGAN) Seed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

// Train runs the configured number of adversarial iterations over X. Every
// ReportFreq iterations the current losses are logged and a 4x4 grid of
// fresh samples is written as gan-<iteration>.png.
func (t *TrainerGAN) Train(X *mat.Dense) error {
	ones := onesColumn(t.cfg.BatchSize)

	for i := 1; i <= t.cfg.Iterations; i++ {
		z := t.noise(t.cfg.BatchSize, t.cfg.LatentDim)
		fake := t.gen.Generate(z)

		var dLoss float64
		for s := 0; s < t.cfg.K; s++ {
			real := sampleRows(X, t.cfg.BatchSize, t.rng)
			xb, yb, err := AdversarialBatch(real, fake)
			if err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			yHat := t.disc.PredictRaw(xb)
			dLoss += t.disc.Loss(yHat, yb)
			t.disc.Update(yb, yHat, xb)
		}

		yHat := t.disc.PredictRaw(fake)
		gLoss := t.disc.Loss(yHat, ones)
		upstream := t.disc.InputGrad(ones, yHat, fake)
		t.gen.Update(z, upstream)

		if i%t.cfg.ReportFreq == 0 {
			util.Logger.Printf("iteration %d: d_loss=%.5f g_loss=%.5f", i, dLoss/float64(t.cfg.K), gLoss)
			samples := t.gen.Sample(t.noise(t.cfg.BatchSize, t.cfg.LatentDim))
			if _, err := t.saveGrid(samples, i); err != nil {
				util.Logger.Printf("iteration %d: grid save: %v", i, err)
			}
		}
	}
	return nil
}

// noise draws a standard-normal latent batch.
func (t *TrainerGAN) noise(n, dim int) *mat.Dense {
	z := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			z.Set(i, j, t.rng.NormFloat64())
		}
	}
	return z
}

// sampleRows draws n rows from X uniformly with replacement.
func sampleRows(X *mat.Dense, n int, rng *rand.Rand) *mat.Dense {
	m, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, X.RawRowView(rng.Intn(m)))
	}
	return out
}

func onesColumn(n int) *mat.Dense {
	ones := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		ones.Set(i, 0, 1)
	}
	return ones
}
