package train

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// fixedModel predicts a fixed label sequence.
type fixedModel struct {
	labels []int
}

func (f *fixedModel) PredictRaw(x *mat.Dense) *mat.Dense {
	r, _ := x.Dims()
	return mat.NewDense(r, 1, nil)
}

func (f *fixedModel) Loss(yHat, y *mat.Dense) float64 { return 0 }

func (f *fixedModel) Update(y, yHat, x *mat.Dense) {}

func (f *fixedModel) PredictLabels(x *mat.Dense) []int { return f.labels }

func TestEvaluate(t *testing.T) {
	model := &fixedModel{labels: []int{0, 1, 1, 0}}
	ev := NewEvaluator(model, func(yHat, y *mat.Dense) float64 { return 1.25 })

	X := mat.NewDense(4, 2, nil)
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 0})

	loss, cm, err := ev.Evaluate(X, y)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if loss != 1.25 {
		t.Fatalf("loss %v, want 1.25", loss)
	}

	// truth 0: predicted 0 twice, 1 once; truth 1: predicted 1 once.
	want := [2][2]float64{{2, 1}, {0, 1}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if cm.At(i, j) != want[i][j] {
				t.Fatalf("cm[%d][%d] = %v, want %v", i, j, cm.At(i, j), want[i][j])
			}
		}
	}
}

func TestEvaluateOneHotTruth(t *testing.T) {
	model := &fixedModel{labels: []int{1, 1}}
	ev := NewEvaluator(model, func(yHat, y *mat.Dense) float64 { return 0 })

	X := mat.NewDense(2, 2, nil)
	y := mat.NewDense(2, 2, []float64{0, 1, 1, 0})

	_, cm, err := ev.Evaluate(X, y)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if cm.At(1, 1) != 1 || cm.At(0, 1) != 1 {
		t.Fatalf("unexpected confusion matrix %v", mat.Formatted(cm))
	}
}
