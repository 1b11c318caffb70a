package ml

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const lossEps = 1e-12

// CrossEntropy is the mean negative log-likelihood of the target class.
// y may be a one-hot matrix or a single label column.
func CrossEntropy(yHat, y *mat.Dense) float64 {
	r, c := y.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		var p float64
		if c == 1 {
			p = yHat.At(i, int(y.At(i, 0)))
		} else {
			for j := 0; j < c; j++ {
				if y.At(i, j) > 0 {
					p = yHat.At(i, j)
					break
				}
			}
		}
		sum -= math.Log(math.Max(p, lossEps))
	}
	return sum / float64(r)
}

// BCE is the mean binary cross-entropy over all elements.
func BCE(yHat, y *mat.Dense) float64 {
	r, c := y.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p := math.Min(math.Max(yHat.At(i, j), lossEps), 1-lossEps)
			t := y.At(i, j)
			sum -= t*math.Log(p) + (1-t)*math.Log(1-p)
		}
	}
	return sum / float64(r*c)
}

// MSE is the mean squared error over all elements.
func MSE(yHat, y *mat.Dense) float64 {
	r, c := y.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := yHat.At(i, j) - y.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(r*c)
}
