package colorizer

import (
	"fmt"
	"slices"
)

// Tensor is a dense float32 array in NHWC order.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{Shape: slices.Clone(shape), Data: make([]float32, product(shape))}
}

// HasShape reports whether t is exactly shape.
func (t *Tensor) HasShape(shape ...int) bool {
	return t != nil && slices.Equal(t.Shape, shape) && len(t.Data) == product(shape)
}

// Item returns the backing slice of batch entry i.
func (t *Tensor) Item(i int) []float32 {
	stride := product(t.Shape[1:])
	return t.Data[i*stride : (i+1)*stride]
}

func (t *Tensor) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprint(t.Shape)
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// LuminanceBatch stacks equally sized planes into an [N,H,W,1] tensor.
func LuminanceBatch(planes ...*Plane64) *Tensor {
	if len(planes) == 0 {
		return NewTensor(0, 0, 0, 1)
	}
	w, h := planes[0].W, planes[0].H
	t := NewTensor(len(planes), h, w, 1)
	for i, p := range planes {
		item := t.Item(i)
		for j, v := range p.Pix {
			item[j] = float32(v)
		}
	}
	return t
}

// ChromaBatch stacks the chrominance channels of equally sized images into
// an [N,H,W,2] tensor.
func ChromaBatch(images ...*Lab64) *Tensor {
	if len(images) == 0 {
		return NewTensor(0, 0, 0, 2)
	}
	w, h := images[0].W, images[0].H
	t := NewTensor(len(images), h, w, 2)
	for i, m := range images {
		item := t.Item(i)
		for j, v := range m.Chroma() {
			item[j] = float32(v)
		}
	}
	return t
}
