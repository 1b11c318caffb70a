package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"nnlab/util"
)

// cifarURL is a variable so tests can point it at a local server.
var cifarURL = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"

const (
	cifarDirName   = "cifar-10-batches-bin"
	cifarImageSize = 3 * 32 * 32
	cifarRecord    = 1 + cifarImageSize
	cifarBatchLen  = 10000
	cifarBatches   = 5
)

// ImageSplit holds one side of an image dataset: an (N, C, H, W) tensor with
// values in [0,255] and a label column.
type ImageSplit struct {
	X *tensor.Dense // (N, 3, 32, 32)
	Y *mat.Dense    // (N, 1)
}

// LoadCIFAR10 downloads and extracts the CIFAR-10 binary batches under dir
// if they are not already there, then reads the five training batches and
// the test batch. Train shapes are (50000,3,32,32)/(50000,1), test
// (10000,3,32,32)/(10000,1).
func LoadCIFAR10(dir string) (train, test *ImageSplit, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cifar dir: %w", err)
	}
	batchDir := filepath.Join(dir, cifarDirName)
	if _, err := os.Stat(batchDir); err != nil {
		archive := filepath.Join(dir, "cifar-10-binary.tar.gz")
		if _, err := os.Stat(archive); err != nil {
			util.Logger.Printf("downloading %s", filepath.Base(archive))
			if err := fetch(cifarURL, archive); err != nil {
				return nil, nil, err
			}
		}
		if err := untarGz(archive, dir); err != nil {
			return nil, nil, err
		}
	}

	trainX := make([]float64, cifarBatches*cifarBatchLen*cifarImageSize)
	trainY := mat.NewDense(cifarBatches*cifarBatchLen, 1, nil)
	for i := 0; i < cifarBatches; i++ {
		name := filepath.Join(batchDir, fmt.Sprintf("data_batch_%d.bin", i+1))
		off := i * cifarBatchLen
		if err := readCIFARBatch(name, cifarBatchLen, trainX[off*cifarImageSize:], trainY, off); err != nil {
			return nil, nil, err
		}
	}

	testX := make([]float64, cifarBatchLen*cifarImageSize)
	testY := mat.NewDense(cifarBatchLen, 1, nil)
	name := filepath.Join(batchDir, "test_batch.bin")
	if err := readCIFARBatch(name, cifarBatchLen, testX, testY, 0); err != nil {
		return nil, nil, err
	}

	train = &ImageSplit{
		X: tensor.New(tensor.WithShape(cifarBatches*cifarBatchLen, 3, 32, 32), tensor.WithBacking(trainX)),
		Y: trainY,
	}
	test = &ImageSplit{
		X: tensor.New(tensor.WithShape(cifarBatchLen, 3, 32, 32), tensor.WithBacking(testX)),
		Y: testY,
	}
	return train, test, nil
}

// readCIFARBatch parses count records from a CIFAR-10 binary batch file.
// Each record is one label byte followed by 3072 pixel bytes laid out as
// three 1024-byte colour planes. Pixels land in x, labels in column y
// starting at row yOff.
func readCIFARBatch(path string, count int, x []float64, y *mat.Dense, yOff int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, count*cifarRecord)
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("cifar batch %s: %w", filepath.Base(path), err)
	}
	for i := 0; i < count; i++ {
		rec := buf[i*cifarRecord : (i+1)*cifarRecord]
		y.Set(yOff+i, 0, float64(rec[0]))
		pixels := rec[1:]
		base := i * cifarImageSize
		for j, p := range pixels {
			x[base+j] = float64(p)
		}
	}
	return nil
}
