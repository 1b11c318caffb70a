// Package metrics computes evaluation statistics for classifiers.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Confusion counts predicted-vs-actual outcomes. Row is the true class,
// column the predicted one; the matrix is square over the largest class
// index seen in either slice.
func Confusion(yTrue, yPred []int) (*mat.Dense, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("confusion: %d truths vs %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("confusion: empty input")
	}
	n := 0
	for i := range yTrue {
		if yTrue[i] < 0 || yPred[i] < 0 {
			return nil, fmt.Errorf("confusion: negative class index at %d", i)
		}
		if yTrue[i] >= n {
			n = yTrue[i] + 1
		}
		if yPred[i] >= n {
			n = yPred[i] + 1
		}
	}
	cm := mat.NewDense(n, n, nil)
	for i := range yTrue {
		cm.Set(yTrue[i], yPred[i], cm.At(yTrue[i], yPred[i])+1)
	}
	return cm, nil
}

// Accuracy is the fraction of matching entries.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if i < len(yPred) && yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

// Format renders a counts matrix for logging.
func Format(cm *mat.Dense) string {
	return fmt.Sprintf("%v", mat.Formatted(cm, mat.Squeeze()))
}
