package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const KindConv2D = "conv2d"

const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

// LayerSpec is the serialized form of a layer.
type LayerSpec struct {
	Kind string `json:"kind"`
	// Odd square kernel side; padding keeps the spatial size.
	Kernel     int    `json:"kernel"`
	In         int    `json:"in"`
	Out        int    `json:"out"`
	Activation string `json:"activation"`
	// Out rows of Kernel*Kernel*In values, ordered (ky, kx, channel).
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias"`
}

type conv2d struct {
	kernel, in, out int
	activation      string
	act             func(float64) float64
	w               *mat.Dense // out × kernel*kernel*in
	bias            []float64
}

func newConv2D(s LayerSpec) (*conv2d, error) {
	if s.Kind != KindConv2D {
		return nil, fmt.Errorf("unsupported layer kind %q", s.Kind)
	}
	if s.Kernel <= 0 || s.Kernel%2 == 0 {
		return nil, fmt.Errorf("kernel size must be odd and positive, got %d", s.Kernel)
	}
	if s.In <= 0 || s.Out <= 0 {
		return nil, fmt.Errorf("channels must be positive, got in=%d out=%d", s.In, s.Out)
	}
	taps := s.Kernel * s.Kernel * s.In
	if len(s.Weights) != s.Out*taps {
		return nil, fmt.Errorf("expected %d weights, got %d", s.Out*taps, len(s.Weights))
	}
	if len(s.Bias) != s.Out {
		return nil, fmt.Errorf("expected %d biases, got %d", s.Out, len(s.Bias))
	}
	act, err := activation(s.Activation)
	if err != nil {
		return nil, err
	}
	return &conv2d{
		kernel:     s.Kernel,
		in:         s.In,
		out:        s.Out,
		activation: s.Activation,
		act:        act,
		w:          mat.NewDense(s.Out, taps, append([]float64(nil), s.Weights...)),
		bias:       append([]float64(nil), s.Bias...),
	}, nil
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", ActivationLinear:
		return func(v float64) float64 { return v }, nil
	case ActivationReLU:
		return func(v float64) float64 { return max(0, v) }, nil
	case ActivationSigmoid:
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, nil
	case ActivationTanh:
		return math.Tanh, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

func (l *conv2d) spec() LayerSpec {
	return LayerSpec{
		Kind:       KindConv2D,
		Kernel:     l.kernel,
		In:         l.in,
		Out:        l.out,
		Activation: l.activation,
		Weights:    append([]float64(nil), l.w.RawMatrix().Data...),
		Bias:       append([]float64(nil), l.bias...),
	}
}

// forward takes x as (w*h) × in, one row per pixel in row-major order, and
// returns (w*h) × out.
func (l *conv2d) forward(x *mat.Dense, w, h int) *mat.Dense {
	cols := l.im2col(x, w, h)
	var y mat.Dense
	y.Mul(cols, l.w.T())
	y.Apply(func(_, j int, v float64) float64 {
		return l.act(v + l.bias[j])
	}, &y)
	return &y
}

// im2col lays every zero-padded kernel window out as one row.
func (l *conv2d) im2col(x *mat.Dense, w, h int) *mat.Dense {
	half := l.kernel / 2
	taps := l.kernel * l.kernel * l.in
	cols := mat.NewDense(w*h, taps, nil)
	raw := cols.RawMatrix()
	for y := range h {
		for xx := range w {
			row := raw.Data[(y*w+xx)*raw.Stride : (y*w+xx)*raw.Stride+taps]
			k := 0
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					sy, sx := y+ky, xx+kx
					inside := sy >= 0 && sy < h && sx >= 0 && sx < w
					for c := range l.in {
						if inside {
							row[k] = x.At(sy*w+sx, c)
						}
						k++
					}
				}
			}
		}
	}
	return cols
}
