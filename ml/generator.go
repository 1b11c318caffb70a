package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// GenMLP is a one-hidden-layer reference generator: tanh hidden units, a
// sigmoid output over pixels. It never sees a loss of its own; Update takes
// the upstream gradient a Discriminator computed on the generated batch.
type GenMLP struct {
	Latent, Hidden, Out int
	LR                  float64
	W1, B1, W2, B2      []float64
}

// NewGenerator builds a generator mapping latent-dim noise to out pixels.
func NewGenerator(latent, hidden, out int, lr float64, seed int64) *GenMLP {
	rng := rand.New(rand.NewSource(seed))
	return &GenMLP{
		Latent: latent, Hidden: hidden, Out: out, LR: lr,
		W1: randomWeights(rng, latent, hidden),
		B1: make([]float64, hidden),
		W2: randomWeights(rng, hidden, out),
		B2: make([]float64, out),
	}
}

func (g *GenMLP) forward(z *mat.Dense) (h, out *mat.Dense) {
	n, _ := z.Dims()

	h = mat.NewDense(n, g.Hidden, nil)
	h.Mul(z, mat.NewDense(g.Latent, g.Hidden, g.W1))
	addBias(h, g.B1)
	apply(h, math.Tanh)

	out = mat.NewDense(n, g.Out, nil)
	out.Mul(h, mat.NewDense(g.Hidden, g.Out, g.W2))
	addBias(out, g.B2)
	apply(out, sigmoid)
	return h, out
}

// Generate runs the training-mode forward pass.
func (g *GenMLP) Generate(z *mat.Dense) *mat.Dense {
	_, out := g.forward(z)
	return out
}

// Sample runs the inference-mode forward pass. The reference generator has
// no train-only layers, so it matches Generate.
func (g *GenMLP) Sample(z *mat.Dense) *mat.Dense {
	return g.Generate(z)
}

// Update backpropagates upstream = d(loss)/d(Generate(z)) through the
// network and steps the parameters.
func (g *GenMLP) Update(z, upstream *mat.Dense) {
	n, _ := z.Dims()
	h, out := g.forward(z)

	// Through the sigmoid output: delta = upstream .* out .* (1-out).
	deltaOut := mat.NewDense(n, g.Out, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < g.Out; j++ {
			o := out.At(i, j)
			deltaOut.Set(i, j, upstream.At(i, j)*o*(1-o))
		}
	}

	// Through the tanh hidden layer: delta = (deltaOut W2^T) .* (1-h^2).
	deltaH := mat.NewDense(n, g.Hidden, nil)
	deltaH.Mul(deltaOut, mat.NewDense(g.Hidden, g.Out, g.W2).T())
	for i := 0; i < n; i++ {
		for j := 0; j < g.Hidden; j++ {
			t := h.At(i, j)
			deltaH.Set(i, j, deltaH.At(i, j)*(1-t*t))
		}
	}

	w2 := mat.NewDense(g.Hidden, g.Out, g.W2)
	gradW2 := mat.NewDense(g.Hidden, g.Out, nil)
	gradW2.Mul(h.T(), deltaOut)
	w1 := mat.NewDense(g.Latent, g.Hidden, g.W1)
	gradW1 := mat.NewDense(g.Latent, g.Hidden, nil)
	gradW1.Mul(z.T(), deltaH)

	step(w2, gradW2, g.LR)
	step(w1, gradW1, g.LR)
	stepBias(g.B2, deltaOut, g.LR)
	stepBias(g.B1, deltaH, g.LR)
}
