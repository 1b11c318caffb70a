// Package ml defines the model contract the training and evaluation loops
// drive, plus small reference implementations of it.
package ml

import "gonum.org/v1/gonum/mat"

// Model is what a trainable classifier exposes to the loops. Update performs
// an in-place parameter step from one minibatch; the loops never touch
// parameters directly.
type Model interface {
	// PredictRaw runs the forward pass and returns the raw outputs,
	// one row per input row.
	PredictRaw(x *mat.Dense) *mat.Dense
	// Loss scores predictions against targets.
	Loss(yHat, y *mat.Dense) float64
	// Update applies one gradient step computed from the minibatch.
	Update(y, yHat, x *mat.Dense)
	// PredictLabels returns the predicted class index per input row.
	PredictLabels(x *mat.Dense) []int
}

// LossFunc scores predictions against targets.
type LossFunc func(yHat, y *mat.Dense) float64

// Discriminator extends Model with the gradient of its loss with respect to
// the input minibatch. InputGrad must not update parameters; it is the first
// half of the adversarial handoff to the generator.
type Discriminator interface {
	Model
	InputGrad(y, yHat, x *mat.Dense) *mat.Dense
}

// Generator maps latent noise to samples. Update consumes the upstream
// gradient produced by a Discriminator's InputGrad on the generated batch,
// completing the handoff without either model holding a reference to the
// other.
type Generator interface {
	// Generate runs the training-mode forward pass.
	Generate(z *mat.Dense) *mat.Dense
	// Sample runs the inference-mode forward pass.
	Sample(z *mat.Dense) *mat.Dense
	// Update backpropagates the upstream gradient d(loss)/d(Generate(z))
	// and steps the parameters.
	Update(z, upstream *mat.Dense)
}
