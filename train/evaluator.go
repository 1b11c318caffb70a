package train

import (
	"gonum.org/v1/gonum/mat"

	"nnlab/metrics"
	"nnlab/ml"
	"nnlab/util"
)

// Evaluator computes test-set loss and a confusion matrix for a trained
// model. The loss function is supplied separately so a model can be scored
// against a criterion other than its training one.
type Evaluator struct {
	model ml.Model
	loss  ml.LossFunc
}

func NewEvaluator(model ml.Model, loss ml.LossFunc) *Evaluator {
	return &Evaluator{model: model, loss: loss}
}

// Evaluate scores the model on (X, y), logs the loss and the confusion
// matrix, and returns both. y may be a label column or a one-hot matrix.
func (e *Evaluator) Evaluate(X, y *mat.Dense) (float64, *mat.Dense, error) {
	pred := e.model.PredictLabels(X)
	loss := e.loss(e.model.PredictRaw(X), y)

	cm, err := metrics.Confusion(labelSlice(y), pred)
	if err != nil {
		return 0, nil, err
	}

	util.Logger.Printf("testing loss: %.5f", loss)
	util.Logger.Printf("confusion matrix:\n%s", metrics.Format(cm))
	return loss, cm, nil
}

// labelSlice reduces targets to class indices: a single column is read
// directly, anything wider by row argmax.
func labelSlice(y *mat.Dense) []int {
	r, c := y.Dims()
	labels := make([]int, r)
	for i := 0; i < r; i++ {
		if c == 1 {
			labels[i] = int(y.At(i, 0))
			continue
		}
		best := 0
		for j := 1; j < c; j++ {
			if y.At(i, j) > y.At(i, best) {
				best = j
			}
		}
		labels[i] = best
	}
	return labels
}
