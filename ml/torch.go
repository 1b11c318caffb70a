package ml

import (
	"encoding/gob"
	"fmt"
	"os"

	torch "github.com/wangkuiyi/gotorch"
	F "github.com/wangkuiyi/gotorch/nn/functional"
	"github.com/wangkuiyi/gotorch/vision/models"
	"gonum.org/v1/gonum/mat"
)

// TorchMLP puts the gotorch vision MLP behind the Model interface. Training
// is a manual SGD step: forward, NllLoss backward, then Sub+SetData on each
// parameter and a grad reset. The forward output is log-softmax, so
// PredictRaw rows are log-probabilities.
type TorchMLP struct {
	net    *models.MLPModule
	lr     float64
	device torch.Device
}

// NewTorchMLP builds the MLP on CUDA when available, otherwise CPU.
func NewTorchMLP(lr float64) *TorchMLP {
	device := torch.NewDevice("cpu")
	if torch.IsCUDAAvailable() {
		device = torch.NewDevice("cuda")
	}
	m := &TorchMLP{net: models.MLP(), lr: lr, device: device}
	m.net.To(device)
	return m
}

func (m *TorchMLP) toTensor(x *mat.Dense) torch.Tensor {
	r, c := x.Dims()
	rows := make([][]float32, r)
	for i := 0; i < r; i++ {
		row := make([]float32, c)
		for j := 0; j < c; j++ {
			row[j] = float32(x.At(i, j))
		}
		rows[i] = row
	}
	t := torch.NewTensor(rows)
	return t.To(m.device, t.Dtype())
}

func (m *TorchMLP) labelTensor(y *mat.Dense) torch.Tensor {
	labels := labelColumn(y)
	t := torch.NewTensor(labels)
	return t.To(m.device, t.Dtype())
}

// labelColumn reduces targets to class indices: a single column is read
// directly, a one-hot matrix by row argmax.
func labelColumn(y *mat.Dense) []int64 {
	r, c := y.Dims()
	labels := make([]int64, r)
	for i := 0; i < r; i++ {
		if c == 1 {
			labels[i] = int64(y.At(i, 0))
			continue
		}
		labels[i] = int64(argmaxRow(y, i))
	}
	return labels
}

func (m *TorchMLP) PredictRaw(x *mat.Dense) *mat.Dense {
	r, _ := x.Dims()
	pred := m.net.Forward(m.toTensor(x))
	shape := pred.Shape()
	out := mat.NewDense(r, int(shape[1]), nil)
	for i := 0; i < r; i++ {
		for j := 0; j < int(shape[1]); j++ {
			out.Set(i, j, float64(pred.Index(int64(i), int64(j)).Item().(float32)))
		}
	}
	return out
}

// Loss is the mean negative log-likelihood of the target class over
// log-probability rows.
func (m *TorchMLP) Loss(yHat, y *mat.Dense) float64 {
	labels := labelColumn(y)
	var sum float64
	for i, l := range labels {
		sum -= yHat.At(i, int(l))
	}
	return sum / float64(len(labels))
}

// Update reruns the forward pass on the device, backpropagates NllLoss and
// applies one SGD step.
func (m *TorchMLP) Update(y, yHat, x *mat.Dense) {
	pred := m.net.Forward(m.toTensor(x))
	loss := F.NllLoss(pred, m.labelTensor(y), torch.Tensor{}, -100, "mean")
	loss.Backward()
	m.sgdStep()
	m.zeroGrad()
}

func (m *TorchMLP) PredictLabels(x *mat.Dense) []int {
	r, _ := x.Dims()
	pred := m.net.Forward(m.toTensor(x)).Argmax(1)
	labels := make([]int, r)
	for i := 0; i < r; i++ {
		labels[i] = int(pred.Index(int64(i)).Item().(int64))
	}
	return labels
}

func (m *TorchMLP) sgdStep() {
	lr := float32(m.lr)
	m.net.FC1.Weight.SetData(torch.Sub(m.net.FC1.Weight, m.net.FC1.Weight.Grad(), lr))
	m.net.FC2.Weight.SetData(torch.Sub(m.net.FC2.Weight, m.net.FC2.Weight.Grad(), lr))
	m.net.FC3.Weight.SetData(torch.Sub(m.net.FC3.Weight, m.net.FC3.Weight.Grad(), lr))
	m.net.FC1.Bias.SetData(torch.Sub(m.net.FC1.Bias, m.net.FC1.Bias.Grad(), lr))
	m.net.FC2.Bias.SetData(torch.Sub(m.net.FC2.Bias, m.net.FC2.Bias.Grad(), lr))
	m.net.FC3.Bias.SetData(torch.Sub(m.net.FC3.Bias, m.net.FC3.Bias.Grad(), lr))
}

func (m *TorchMLP) zeroGrad() {
	for _, p := range []torch.Tensor{
		m.net.FC1.Weight, m.net.FC2.Weight, m.net.FC3.Weight,
		m.net.FC1.Bias, m.net.FC2.Bias, m.net.FC3.Bias,
	} {
		shape := p.Grad().Shape()
		p.Grad().SetData(torch.Full(shape, 0, true))
	}
}

// SaveState gob-encodes the state dict after moving the net to CPU.
func (m *TorchMLP) SaveState(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer f.Close()

	m.net.To(torch.NewDevice("cpu"))
	defer m.net.To(m.device)
	if err := gob.NewEncoder(f).Encode(m.net.StateDict()); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// LoadState restores a state dict written by SaveState.
func (m *TorchMLP) LoadState(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer f.Close()

	states := make(map[string]torch.Tensor)
	if err := gob.NewDecoder(f).Decode(&states); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	m.net.SetStateDict(states)
	m.net.To(m.device)
	return nil
}
