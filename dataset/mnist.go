// Package dataset fetches and parses the MNIST and CIFAR-10 image corpora
// into in-memory matrices. Downloads are cached on disk under an explicit
// directory; a file that is already unpacked is never fetched again.
package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"nnlab/util"
)

// mnistBaseURL is a variable so tests can point it at a local server.
var mnistBaseURL = "http://yann.lecun.com/exdb/mnist/"

var mnistArchives = []string{
	"train-images-idx3-ubyte.gz",
	"train-labels-idx1-ubyte.gz",
	"t10k-images-idx3-ubyte.gz",
	"t10k-labels-idx1-ubyte.gz",
}

// IDX header magic numbers.
const (
	idxImageMagic = 2051
	idxLabelMagic = 2049
)

// Split holds one side of a dataset: flat features (one row per sample,
// values still in [0,255]) and a label column.
type Split struct {
	X *mat.Dense // (N, 784)
	Y *mat.Dense // (N, 1)
}

// EnsureMNIST makes sure the four decompressed IDX files exist under dir,
// downloading and unpacking any that are missing. The presence check is a
// stat of the decompressed target, so a second call with the same dir
// performs no network I/O. Archives are removed once unpacked; the
// decompressed files are the whole on-disk state LoadMNIST reads.
func EnsureMNIST(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mnist dir: %w", err)
	}
	for _, name := range mnistArchives {
		raw := filepath.Join(dir, strings.TrimSuffix(name, ".gz"))
		if _, err := os.Stat(raw); err == nil {
			continue
		}
		archive := filepath.Join(dir, name)
		if _, err := os.Stat(archive); err != nil {
			util.Logger.Printf("downloading %s", name)
			if err := fetch(mnistBaseURL+name, archive); err != nil {
				return err
			}
		}
		if err := gunzip(archive, raw); err != nil {
			return err
		}
		os.Remove(archive)
	}
	return nil
}

// LoadMNIST parses the decompressed IDX files under dir into train and test
// splits. Call EnsureMNIST first.
func LoadMNIST(dir string) (train, test *Split, err error) {
	train, err = readIDXPair(
		filepath.Join(dir, "train-images-idx3-ubyte"),
		filepath.Join(dir, "train-labels-idx1-ubyte"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("mnist train set: %w", err)
	}
	test, err = readIDXPair(
		filepath.Join(dir, "t10k-images-idx3-ubyte"),
		filepath.Join(dir, "t10k-labels-idx1-ubyte"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("mnist test set: %w", err)
	}
	return train, test, nil
}

func readIDXPair(imgPath, lblPath string) (*Split, error) {
	pixels, n, rows, cols, err := readIDXImages(imgPath)
	if err != nil {
		return nil, err
	}
	labels, err := readIDXLabels(lblPath)
	if err != nil {
		return nil, err
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%d images but %d labels", n, len(labels))
	}

	d := rows * cols
	x := mat.NewDense(n, d, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, float64(pixels[i*d+j]))
		}
		y.Set(i, 0, float64(labels[i]))
	}
	return &Split{X: x, Y: y}, nil
}

// readIDXImages parses an IDX3 image file: a big-endian header of magic,
// count, rows and cols, then count*rows*cols pixel bytes.
func readIDXImages(path string) (pixels []byte, n, rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	defer f.Close()

	var hdr struct{ Magic, Count, Rows, Cols int32 }
	if err := binary.Read(f, binary.BigEndian, &hdr); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if hdr.Magic != idxImageMagic {
		return nil, 0, 0, 0, fmt.Errorf("%s: magic %d, want %d", filepath.Base(path), hdr.Magic, idxImageMagic)
	}

	pixels = make([]byte, int(hdr.Count)*int(hdr.Rows)*int(hdr.Cols))
	if _, err := io.ReadFull(f, pixels); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%s: pixels: %w", filepath.Base(path), err)
	}
	return pixels, int(hdr.Count), int(hdr.Rows), int(hdr.Cols), nil
}

// readIDXLabels parses an IDX1 label file: magic and count, then count
// label bytes.
func readIDXLabels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hdr struct{ Magic, Count int32 }
	if err := binary.Read(f, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%s: header: %w", filepath.Base(path), err)
	}
	if hdr.Magic != idxLabelMagic {
		return nil, fmt.Errorf("%s: magic %d, want %d", filepath.Base(path), hdr.Magic, idxLabelMagic)
	}

	labels := make([]byte, int(hdr.Count))
	if _, err := io.ReadFull(f, labels); err != nil {
		return nil, fmt.Errorf("%s: labels: %w", filepath.Base(path), err)
	}
	return labels, nil
}
