// Package train drives minibatch training and evaluation of models behind
// the ml interfaces. The loops own shuffling, batching and reporting; every
// parameter update is delegated to the model.
package train

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"nnlab/ml"
	"nnlab/util"
)

// Trainer runs epoch-based supervised training of a single model.
type Trainer struct {
	model     ml.Model
	batchSize int
	epochs    int
	rng       *rand.Rand
}

func NewTrainer(model ml.Model, batchSize, epochs int) *Trainer {
	return &Trainer{
		model:     model,
		batchSize: batchSize,
		epochs:    epochs,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed makes the shuffle order deterministic.
func (t *Trainer) Seed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

// Train runs the configured number of epochs over (X, y). Each epoch draws a
// fresh permutation, walks batch slices (the tail batch may be smaller) and
// lets the model update itself from prediction and loss. Returns the mean
// batch loss per epoch.
func (t *Trainer) Train(X, y *mat.Dense) []float64 {
	n, d := X.Dims()
	_, c := y.Dims()
	losses := make([]float64, 0, t.epochs)

	for e := 0; e < t.epochs; e++ {
		start := time.Now()
		Xs, ys := shuffled(X, y, t.rng)

		var epochLoss float64
		batches := 0
		for at := 0; at < n; at += t.batchSize {
			end := at + t.batchSize
			if end > n {
				end = n
			}
			xb := Xs.Slice(at, end, 0, d).(*mat.Dense)
			yb := ys.Slice(at, end, 0, c).(*mat.Dense)

			yHat := t.model.PredictRaw(xb)
			epochLoss += t.model.Loss(yHat, yb)
			t.model.Update(yb, yHat, xb)
			batches++
		}

		mean := epochLoss / float64(batches)
		losses = append(losses, mean)
		throughput := float64(n) / time.Since(start).Seconds()
		util.Logger.Printf("epoch %d: loss=%.5f throughput=%.0f samples/sec", e+1, mean, throughput)
	}
	return losses
}

// SaveModel gob-encodes the whole model object.
func (t *Trainer) SaveModel(path string) error {
	return ml.Save(path, t.model)
}

// shuffled returns copies of X and y with rows moved through the same fresh
// permutation, keeping every sample paired with its label.
func shuffled(X, y *mat.Dense, rng *rand.Rand) (*mat.Dense, *mat.Dense) {
	n, d := X.Dims()
	_, c := y.Dims()
	Xs := mat.NewDense(n, d, nil)
	ys := mat.NewDense(n, c, nil)
	for to, from := range rng.Perm(n) {
		Xs.SetRow(to, X.RawRowView(from))
		ys.SetRow(to, y.RawRowView(from))
	}
	return Xs, ys
}
