package train

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AdversarialBatch builds the discriminator minibatch from a real and a
// generated batch. Every row is written together with its label (real=1,
// fake=0), so a row can never end up under the wrong label regardless of
// input order or later reshuffling of this code.
func AdversarialBatch(real, fake *mat.Dense) (x, y *mat.Dense, err error) {
	nr, d := real.Dims()
	nf, df := fake.Dims()
	if d != df {
		return nil, nil, fmt.Errorf("adversarial batch: real width %d vs fake width %d", d, df)
	}

	x = mat.NewDense(nr+nf, d, nil)
	y = mat.NewDense(nr+nf, 1, nil)
	row := 0
	for i := 0; i < nr; i++ {
		x.SetRow(row, real.RawRowView(i))
		y.Set(row, 0, 1)
		row++
	}
	for i := 0; i < nf; i++ {
		x.SetRow(row, fake.RawRowView(i))
		y.Set(row, 0, 0)
		row++
	}
	return x, y, nil
}
