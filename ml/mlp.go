package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Output activations for MLP.
const (
	outSoftmax = iota
	outSigmoid
)

// MLP is a one-hidden-layer reference network: sigmoid hidden units and
// either a softmax head (classifier, cross-entropy) or a sigmoid head
// (discriminator, binary cross-entropy). Parameters are exported flat
// slices so a whole model gob-encodes.
type MLP struct {
	In, Hidden, Out int
	LR              float64
	Kind            int
	W1, B1, W2, B2  []float64
}

// NewMLP builds a softmax classifier with the given layer sizes.
func NewMLP(in, hidden, out int, lr float64, seed int64) *MLP {
	m := &MLP{In: in, Hidden: hidden, Out: out, LR: lr, Kind: outSoftmax}
	m.initWeights(seed)
	return m
}

// NewDiscriminatorMLP builds a single-output sigmoid network scoring
// real-vs-generated samples.
func NewDiscriminatorMLP(in, hidden int, lr float64, seed int64) *MLP {
	m := &MLP{In: in, Hidden: hidden, Out: 1, LR: lr, Kind: outSigmoid}
	m.initWeights(seed)
	return m
}

func (m *MLP) initWeights(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	m.W1 = randomWeights(rng, m.In, m.Hidden)
	m.B1 = make([]float64, m.Hidden)
	m.W2 = randomWeights(rng, m.Hidden, m.Out)
	m.B2 = make([]float64, m.Out)
}

func randomWeights(rng *rand.Rand, fanIn, fanOut int) []float64 {
	w := make([]float64, fanIn*fanOut)
	scale := math.Sqrt(1.0 / float64(fanIn))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
	return w
}

// forward returns the hidden activations and the network output.
func (m *MLP) forward(x *mat.Dense) (a1, a2 *mat.Dense) {
	n, _ := x.Dims()

	a1 = mat.NewDense(n, m.Hidden, nil)
	a1.Mul(x, mat.NewDense(m.In, m.Hidden, m.W1))
	addBias(a1, m.B1)
	apply(a1, sigmoid)

	a2 = mat.NewDense(n, m.Out, nil)
	a2.Mul(a1, mat.NewDense(m.Hidden, m.Out, m.W2))
	addBias(a2, m.B2)
	if m.Kind == outSoftmax {
		softmaxRows(a2)
	} else {
		apply(a2, sigmoid)
	}
	return a1, a2
}

func (m *MLP) PredictRaw(x *mat.Dense) *mat.Dense {
	_, a2 := m.forward(x)
	return a2
}

func (m *MLP) Loss(yHat, y *mat.Dense) float64 {
	if m.Kind == outSigmoid {
		return BCE(yHat, y)
	}
	return CrossEntropy(yHat, y)
}

// Update runs one SGD step on the minibatch. The forward pass is recomputed
// so the step never depends on a stale yHat.
func (m *MLP) Update(y, yHat, x *mat.Dense) {
	n, _ := x.Dims()
	a1, a2 := m.forward(x)

	// For both softmax+CE and sigmoid+BCE the output delta is (a2-y)/n.
	delta2 := mat.NewDense(n, m.Out, nil)
	delta2.Sub(a2, y)
	delta2.Scale(1/float64(n), delta2)

	delta1 := m.hiddenDelta(a1, delta2)

	w2 := mat.NewDense(m.Hidden, m.Out, m.W2)
	gradW2 := mat.NewDense(m.Hidden, m.Out, nil)
	gradW2.Mul(a1.T(), delta2)
	w1 := mat.NewDense(m.In, m.Hidden, m.W1)
	gradW1 := mat.NewDense(m.In, m.Hidden, nil)
	gradW1.Mul(x.T(), delta1)

	step(w2, gradW2, m.LR)
	step(w1, gradW1, m.LR)
	stepBias(m.B2, delta2, m.LR)
	stepBias(m.B1, delta1, m.LR)
}

// InputGrad returns d(loss)/d(x) for the minibatch without touching any
// parameter. y is the target the loss was taken against.
func (m *MLP) InputGrad(y, yHat, x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	a1, a2 := m.forward(x)

	delta2 := mat.NewDense(n, m.Out, nil)
	delta2.Sub(a2, y)
	delta2.Scale(1/float64(n), delta2)

	delta1 := m.hiddenDelta(a1, delta2)

	grad := mat.NewDense(n, m.In, nil)
	grad.Mul(delta1, mat.NewDense(m.In, m.Hidden, m.W1).T())
	return grad
}

// hiddenDelta backpropagates the output delta through the sigmoid hidden
// layer: (delta2 W2^T) .* a1 .* (1-a1).
func (m *MLP) hiddenDelta(a1, delta2 *mat.Dense) *mat.Dense {
	n, _ := a1.Dims()
	delta1 := mat.NewDense(n, m.Hidden, nil)
	delta1.Mul(delta2, mat.NewDense(m.Hidden, m.Out, m.W2).T())
	for i := 0; i < n; i++ {
		for j := 0; j < m.Hidden; j++ {
			a := a1.At(i, j)
			delta1.Set(i, j, delta1.At(i, j)*a*(1-a))
		}
	}
	return delta1
}

func (m *MLP) PredictLabels(x *mat.Dense) []int {
	_, a2 := m.forward(x)
	n, _ := a2.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		if m.Kind == outSigmoid && m.Out == 1 {
			if a2.At(i, 0) >= 0.5 {
				labels[i] = 1
			}
			continue
		}
		labels[i] = argmaxRow(a2, i)
	}
	return labels
}

func argmaxRow(a *mat.Dense, i int) int {
	_, c := a.Dims()
	best := 0
	for j := 1; j < c; j++ {
		if a.At(i, j) > a.At(i, best) {
			best = j
		}
	}
	return best
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

func apply(a *mat.Dense, f func(float64) float64) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, f(a.At(i, j)))
		}
	}
}

func addBias(a *mat.Dense, b []float64) {
	r, _ := a.Dims()
	for i := 0; i < r; i++ {
		for j, v := range b {
			a.Set(i, j, a.At(i, j)+v)
		}
	}
}

// softmaxRows applies a max-shifted softmax to every row.
func softmaxRows(a *mat.Dense) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		max := a.At(i, 0)
		for j := 1; j < c; j++ {
			if a.At(i, j) > max {
				max = a.At(i, j)
			}
		}
		var sum float64
		for j := 0; j < c; j++ {
			e := math.Exp(a.At(i, j) - max)
			a.Set(i, j, e)
			sum += e
		}
		for j := 0; j < c; j++ {
			a.Set(i, j, a.At(i, j)/sum)
		}
	}
}

func step(w, grad *mat.Dense, lr float64) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w.Set(i, j, w.At(i, j)-lr*grad.At(i, j))
		}
	}
}

func stepBias(b []float64, delta *mat.Dense, lr float64) {
	r, _ := delta.Dims()
	for j := range b {
		var sum float64
		for i := 0; i < r; i++ {
			sum += delta.At(i, j)
		}
		b[j] -= lr * sum
	}
}
