package metrics

import "testing"

func TestConfusion(t *testing.T) {
	yTrue := []int{0, 0, 1, 2, 2, 2}
	yPred := []int{0, 1, 1, 2, 0, 2}

	cm, err := Confusion(yTrue, yPred)
	if err != nil {
		t.Fatalf("Confusion: %v", err)
	}
	r, c := cm.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("got %dx%d, want 3x3", r, c)
	}

	want := [3][3]float64{
		{1, 1, 0},
		{0, 1, 0},
		{1, 0, 2},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if cm.At(i, j) != want[i][j] {
				t.Fatalf("cm[%d][%d] = %v, want %v", i, j, cm.At(i, j), want[i][j])
			}
		}
	}

	var total float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			total += cm.At(i, j)
		}
	}
	if total != float64(len(yTrue)) {
		t.Fatalf("entries sum to %v, want %d", total, len(yTrue))
	}
}

func TestConfusionSizedByPredictions(t *testing.T) {
	cm, err := Confusion([]int{0, 0}, []int{0, 4})
	if err != nil {
		t.Fatalf("Confusion: %v", err)
	}
	r, c := cm.Dims()
	if r != 5 || c != 5 {
		t.Fatalf("got %dx%d, want 5x5", r, c)
	}
}

func TestConfusionErrors(t *testing.T) {
	if _, err := Confusion([]int{1}, []int{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if _, err := Confusion(nil, nil); err == nil {
		t.Fatal("expected empty input error")
	}
	if _, err := Confusion([]int{-1}, []int{0}); err == nil {
		t.Fatal("expected negative class error")
	}
}

func TestAccuracy(t *testing.T) {
	if got := Accuracy([]int{1, 2, 3, 4}, []int{1, 0, 3, 0}); got != 0.5 {
		t.Fatalf("got %v, want 0.5", got)
	}
	if got := Accuracy(nil, nil); got != 0 {
		t.Fatalf("got %v for empty input, want 0", got)
	}
}
