// Package preprocess turns raw pixel matrices into model-ready inputs:
// unit-range scaling, optional image-tensor layout, one-hot labels.
package preprocess

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

const mnistSide = 28

// Options selects the optional preprocessing steps.
type Options struct {
	// ImageLayout additionally produces the scaled features as an
	// (N, 28, 28, 1) tensor for convolutional models.
	ImageLayout bool
	// Test keeps labels as raw class indices instead of one-hot rows.
	Test bool
}

// Result carries the preprocessed arrays. Images is nil unless
// Options.ImageLayout was set.
type Result struct {
	X      *mat.Dense
	Images *tensor.Dense
	Y      *mat.Dense
}

// Run scales X from [0,255] into [0,1] and encodes y according to opt.
// Inputs are not modified.
func Run(X, y *mat.Dense, opt Options) (*Result, error) {
	r, c := X.Dims()
	scaled := mat.NewDense(r, c, nil)
	scaled.Scale(1.0/255.0, X)

	out := &Result{X: scaled, Y: y}

	if opt.ImageLayout {
		if c != mnistSide*mnistSide {
			return nil, fmt.Errorf("preprocess: image layout needs %d features per row, got %d", mnistSide*mnistSide, c)
		}
		backing := make([]float64, r*c)
		copy(backing, scaled.RawMatrix().Data)
		out.Images = tensor.New(
			tensor.WithShape(r, mnistSide, mnistSide, 1),
			tensor.WithBacking(backing),
		)
	}

	if !opt.Test {
		oh, err := OneHot(y)
		if err != nil {
			return nil, err
		}
		out.Y = oh
	}
	return out, nil
}

// OneHot expands a label column into a dense indicator matrix. Output
// columns follow sorted unique label order; every row has exactly one 1.
func OneHot(y *mat.Dense) (*mat.Dense, error) {
	r, c := y.Dims()
	if c != 1 {
		return nil, fmt.Errorf("one-hot: want a label column, got %dx%d", r, c)
	}

	index := make(map[float64]int)
	for i := 0; i < r; i++ {
		index[y.At(i, 0)] = 0
	}
	classes := make([]float64, 0, len(index))
	for v := range index {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	for i, v := range classes {
		index[v] = i
	}

	out := mat.NewDense(r, len(classes), nil)
	for i := 0; i < r; i++ {
		out.Set(i, index[y.At(i, 0)], 1)
	}
	return out, nil
}
