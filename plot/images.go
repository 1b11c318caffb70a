// Package plot renders MNIST-sized images to disk and screen through gocv.
package plot

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"nnlab/util"
)

const (
	imgSide  = 28
	gridRows = 4
	gridCols = 4
	gridPad  = 2
)

// SaveGridImages writes the first 16 rows of images as a 4x4 grid PNG named
// gan-<iteration>.png in the current directory and returns the absolute
// path. Rows are flat 784-pixel vectors with values in [0,1].
func SaveGridImages(images *mat.Dense, iteration int) (string, error) {
	data, h, w, err := gridBytes(images, gridRows, gridCols, imgSide, gridPad)
	if err != nil {
		return "", err
	}

	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	if err != nil {
		return "", fmt.Errorf("grid mat: %w", err)
	}
	defer m.Close()

	name := fmt.Sprintf("gan-%d.png", iteration)
	if ok := gocv.IMWrite(name, m); !ok {
		return "", fmt.Errorf("write %s failed", name)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	util.Logger.Printf("image saved: %s", abs)
	return abs, nil
}

// PlotImage shows a flat 784-pixel vector as a 28x28 grayscale image in a
// window, blocking until a key is pressed.
func PlotImage(image []float64, title string) error {
	if len(image) != imgSide*imgSide {
		return fmt.Errorf("plot image: want %d pixels, got %d", imgSide*imgSide, len(image))
	}
	data := make([]byte, len(image))
	for i, v := range image {
		data[i] = pixelByte(v)
	}
	m, err := gocv.NewMatFromBytes(imgSide, imgSide, gocv.MatTypeCV8U, data)
	if err != nil {
		return fmt.Errorf("plot image: %w", err)
	}
	defer m.Close()

	win := gocv.NewWindow(title)
	defer win.Close()
	win.IMShow(m)
	win.WaitKey(0)
	return nil
}

// gridBytes lays out up to rows*cols images on one grayscale canvas with a
// pad-pixel gap between tiles. Missing tiles stay black.
func gridBytes(images *mat.Dense, rows, cols, side, pad int) (data []byte, h, w int, err error) {
	n, d := images.Dims()
	if d != side*side {
		return nil, 0, 0, fmt.Errorf("grid: want %d pixels per row, got %d", side*side, d)
	}

	h = rows*side + (rows-1)*pad
	w = cols*side + (cols-1)*pad
	data = make([]byte, h*w)

	for tile := 0; tile < rows*cols && tile < n; tile++ {
		top := (tile / cols) * (side + pad)
		left := (tile % cols) * (side + pad)
		for py := 0; py < side; py++ {
			for px := 0; px < side; px++ {
				data[(top+py)*w+left+px] = pixelByte(images.At(tile, py*side+px))
			}
		}
	}
	return data, h, w, nil
}

// pixelByte maps a unit-range intensity to 0..255, clamping out-of-range
// values.
func pixelByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}
