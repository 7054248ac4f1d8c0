// Package colorizer turns grayscale photographs into colour ones with a
// network that predicts the chrominance of a CIELAB image from its lightness.
//
// The package owns the deterministic part of the job: conversion between RGB
// and the 8-bit CIELAB encoding the network was trained on, resizing to the
// network input, assembling its output and converting back. The network is a
// Predictor supplied by the caller.
package colorizer

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidInputShape = errors.New("invalid input shape")
	ErrInferenceFailure  = errors.New("inference failure")
)

// DefaultInputSize is the square input resolution of the shipped network.
const DefaultInputSize = 128

// NeutralChroma is the normalized chrominance that quantizes to code 128,
// i.e. zero a* or b*. Plain 128/255 can truncate to 127.
const NeutralChroma = 128.5 / 255.0

// Predictor maps a luminance batch [N,S,S,1] to a chrominance batch
// [N,S,S,2], both normalized to [0,1].
type Predictor interface {
	Predict(batch *Tensor) (*Tensor, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(batch *Tensor) (*Tensor, error)

func (f PredictorFunc) Predict(batch *Tensor) (*Tensor, error) { return f(batch) }

type Options struct {
	// Square side of the network input and of every output image.
	InputSize int
	// Saturate predicted chrominance into [0,255] before the truncating
	// cast. Off by default: out-of-range predictions wrap modulo 256.
	ClampChroma bool
}

func DefaultOptions() Options {
	return Options{InputSize: DefaultInputSize}
}

// Result holds the three images shown side by side.
type Result struct {
	Reference *RGB8    // input chrominance at network resolution
	Gray      *Plane64 // normalized luminance fed to the predictor
	Predicted *RGB8
}

// Colorizer binds a predictor to pipeline options. It holds no per-call
// state and may be shared.
type Colorizer struct {
	predictor Predictor
	opt       Options
}

func New(p Predictor, opt Options) (*Colorizer, error) {
	if p == nil {
		return nil, errors.New("colorizer: nil predictor")
	}
	if opt.InputSize <= 0 {
		return nil, fmt.Errorf("colorizer: input size must be positive, got %d", opt.InputSize)
	}
	return &Colorizer{predictor: p, opt: opt}, nil
}

// Reconstruct runs the pipeline once with default options and the given
// input size.
func Reconstruct(src *RGB8, inputSize int, p Predictor) (*Result, error) {
	opt := DefaultOptions()
	opt.InputSize = inputSize
	c, err := New(p, opt)
	if err != nil {
		return nil, err
	}
	return c.Reconstruct(src)
}

// Prepare converts src to the normalized perceptual space and resizes it to
// size×size.
func Prepare(src *RGB8, size int) (*Lab64, error) {
	lab, err := RGBToLab(src)
	if err != nil {
		return nil, err
	}
	return lab.Resize(size), nil
}

// Reconstruct produces the reference, grayscale and predicted images for src.
func (c *Colorizer) Reconstruct(src *RGB8) (*Result, error) {
	// 1-2. Perceptual space, network resolution
	resized, err := Prepare(src, c.opt.InputSize)
	if err != nil {
		return nil, err
	}
	Logf("colorizer: %dx%d -> %dx%d", src.W, src.H, resized.W, resized.H)

	// 3. Luminance
	gray := resized.Channel(0)

	// 4-5. Predicted chrominance
	ab, err := c.predict(gray)
	if err != nil {
		return nil, err
	}
	predicted, err := c.toRGB(Merge(gray, ab))
	if err != nil {
		return nil, err
	}

	// 6. Reference keeps the resized source chrominance
	reference, err := c.toRGB(Merge(gray, resized.Chroma()))
	if err != nil {
		return nil, err
	}

	return &Result{
		Reference: reference,
		Gray:      gray,
		Predicted: predicted,
	}, nil
}

// Predict returns only the predicted image for src.
func (c *Colorizer) Predict(src *RGB8) (*RGB8, error) {
	resized, err := Prepare(src, c.opt.InputSize)
	if err != nil {
		return nil, err
	}
	gray := resized.Channel(0)
	ab, err := c.predict(gray)
	if err != nil {
		return nil, err
	}
	return c.toRGB(Merge(gray, ab))
}

// maxWrapMagnitude bounds |v*255| for the wrapping cast to stay defined.
const maxWrapMagnitude = 1 << 63

// predict runs a batch of one and checks the returned shape and values.
func (c *Colorizer) predict(gray *Plane64) ([]float64, error) {
	size := c.opt.InputSize
	out, err := c.predictor.Predict(LuminanceBatch(gray))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInferenceFailure, err)
	}
	if !out.HasShape(1, size, size, 2) {
		return nil, fmt.Errorf("%w: expected output shape [1 %d %d 2], got %v",
			ErrInferenceFailure, size, size, out)
	}
	ab := make([]float64, len(out.Data))
	for i, v := range out.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite chrominance at index %d", ErrInferenceFailure, i)
		}
		if !c.opt.ClampChroma && math.Abs(f*255) >= maxWrapMagnitude {
			return nil, fmt.Errorf("%w: chrominance %g at index %d is too large to wrap", ErrInferenceFailure, f, i)
		}
		ab[i] = f
	}
	return ab, nil
}

// toRGB denormalizes with the truncating cast and converts back to RGB.
func (c *Colorizer) toRGB(lab *Lab64) (*RGB8, error) {
	return LabToRGB(lab.Quantize(c.opt.ClampChroma))
}
