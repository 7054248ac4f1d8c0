// Package model is a small inference runtime for colorization networks made
// of same-padded 2D convolutions. Models are stored as JSON and list the
// metrics they were compiled with. Every metric must be supplied by name in
// CustomObjects when loading.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/setanarut/colorizer"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MetricPSNR is the name the shipped model registers its PSNR metric under.
const MetricPSNR = "psnr"

// FileName is looked up when Load is given a directory.
const FileName = "model.json"

var (
	ErrUnknownObject = errors.New("unknown custom object")
	ErrInputShape    = errors.New("unexpected input shape")
)

// Metric scores a prediction against ground truth, both in [0,1].
type Metric func(orig, pred []float32) float64

// CustomObjects resolves metric names found in a model file.
type CustomObjects map[string]Metric

// DefaultObjects returns the objects the shipped model needs.
func DefaultObjects() CustomObjects {
	return CustomObjects{MetricPSNR: colorizer.PSNR}
}

// Model is read-only once loaded, so concurrent Predict calls are safe.
type Model struct {
	Name      string
	InputSize int

	layers  []*conv2d
	metrics []string
	objects CustomObjects
}

type file struct {
	Name      string      `json:"name"`
	InputSize int         `json:"input_size"`
	Metrics   []string    `json:"metrics,omitempty"`
	Layers    []LayerSpec `json:"layers"`
}

// Load reads a model from a JSON file or from FileName inside a directory.
func Load(path string, objects CustomObjects) (*Model, error) {
	if fi, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	} else if fi.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: reading %s: %w", path, err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("model: parsing %s: %w", path, err)
	}
	m, err := New(f.Name, f.InputSize, f.Layers...)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	if err := m.compile(f.Metrics, objects); err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	return m, nil
}

// New builds a model from layer specs. The first layer must take one channel
// and the last must produce two.
func New(name string, inputSize int, specs ...LayerSpec) (*Model, error) {
	if inputSize < 0 {
		return nil, fmt.Errorf("negative input size %d", inputSize)
	}
	if len(specs) == 0 {
		return nil, errors.New("no layers")
	}
	m := &Model{Name: name, InputSize: inputSize}
	channels := 1
	for i, s := range specs {
		if s.In != channels {
			return nil, fmt.Errorf("layer %d: expects %d input channels, previous layer gives %d", i, s.In, channels)
		}
		l, err := newConv2D(s)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		m.layers = append(m.layers, l)
		channels = s.Out
	}
	if channels != 2 {
		return nil, fmt.Errorf("last layer produces %d channels, want 2", channels)
	}
	return m, nil
}

// Compile attaches metrics by name; each must be present in objects.
func (m *Model) Compile(metrics []string, objects CustomObjects) error {
	return m.compile(metrics, objects)
}

func (m *Model) compile(metrics []string, objects CustomObjects) error {
	for _, name := range metrics {
		if _, ok := objects[name]; !ok {
			return fmt.Errorf("%w: metric %q (pass it in CustomObjects)", ErrUnknownObject, name)
		}
	}
	m.metrics = append([]string(nil), metrics...)
	m.objects = objects
	return nil
}

// Metrics lists the compiled metric names.
func (m *Model) Metrics() []string {
	return append([]string(nil), m.metrics...)
}

// Save writes the model in the format Load reads. A directory path gets
// FileName appended.
func (m *Model) Save(path string) error {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, FileName)
	}
	f := file{Name: m.Name, InputSize: m.InputSize, Metrics: m.metrics}
	for _, l := range m.layers {
		f.Layers = append(f.Layers, l.spec())
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("model: writing %s: %w", path, err)
	}
	return nil
}

// Predict maps a luminance batch [N,S,S,1] to chrominance [N,S,S,2].
func (m *Model) Predict(batch *colorizer.Tensor) (*colorizer.Tensor, error) {
	if batch == nil || len(batch.Shape) != 4 || batch.Shape[3] != 1 || !batch.HasShape(batch.Shape...) {
		return nil, fmt.Errorf("%w: want [N S S 1], got %v", ErrInputShape, batch)
	}
	n, h, w := batch.Shape[0], batch.Shape[1], batch.Shape[2]
	if m.InputSize > 0 && (h != m.InputSize || w != m.InputSize) {
		return nil, fmt.Errorf("%w: model %q takes %dx%d, got %dx%d", ErrInputShape, m.Name, m.InputSize, m.InputSize, w, h)
	}
	out := colorizer.NewTensor(n, h, w, 2)
	for i := range n {
		x := mat.NewDense(h*w, 1, nil)
		for j, v := range batch.Item(i) {
			x.Set(j, 0, float64(v))
		}
		for _, l := range m.layers {
			x = l.forward(x, w, h)
		}
		dst := out.Item(i)
		for j := range h * w {
			dst[j*2] = float32(x.At(j, 0))
			dst[j*2+1] = float32(x.At(j, 1))
		}
	}
	return out, nil
}

// Evaluate predicts x and scores the result against the chrominance batch y
// with every compiled metric, averaged over the batch. Items with a perfect
// (+Inf) score are left out of the mean; an all-perfect batch scores +Inf.
func (m *Model) Evaluate(x, y *colorizer.Tensor) (map[string]float64, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return nil, err
	}
	if !y.HasShape(pred.Shape...) {
		return nil, fmt.Errorf("%w: targets %v do not match predictions %v", ErrInputShape, y, pred)
	}
	n := pred.Shape[0]
	scores := make(map[string]float64, len(m.metrics))
	for _, name := range m.metrics {
		metric := m.objects[name]
		vals := make([]float64, 0, n)
		for i := range n {
			v := metric(y.Item(i), pred.Item(i))
			if math.IsInf(v, 1) {
				continue
			}
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			scores[name] = math.Inf(1)
			continue
		}
		scores[name] = stat.Mean(vals, nil)
	}
	return scores, nil
}

// Neutral returns a single-layer model that predicts zero a* and b*
// everywhere. It is useful for trying the pipeline without weights.
func Neutral(inputSize int) *Model {
	m, err := New("neutral", inputSize, LayerSpec{
		Kind:       KindConv2D,
		Kernel:     1,
		In:         1,
		Out:        2,
		Activation: ActivationLinear,
		Weights:    []float64{0, 0},
		Bias:       []float64{colorizer.NeutralChroma, colorizer.NeutralChroma},
	})
	if err != nil {
		panic(err)
	}
	return m
}
