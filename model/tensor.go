package model

import (
	"errors"
	"fmt"
)

var ErrShape = errors.New("shape mismatch")

// Vector is the numeric vector exchanged with input sources and output consumers.
type Vector []float64

// Tensor is a dense float64 tensor. Tensors built with FromVector share the vector's buffer.
type Tensor struct {
	shape []int
	data  []float64
}

// FromVector views v as a tensor of shape [len(v)] without copying.
func FromVector(v Vector) Tensor {
	return Tensor{shape: []int{len(v)}, data: v}
}

// NewTensor wraps data with the given shape. The product of the shape must match len(data).
func NewTensor(data []float64, shape ...int) (Tensor, error) {
	size := 1
	for _, dim := range shape {
		if dim < 0 {
			return Tensor{}, fmt.Errorf("%w: negative dimension %v", ErrShape, shape)
		}
		size *= dim
	}
	if size != len(data) {
		return Tensor{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShape, shape, size, len(data))
	}

	return Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the tensor's shape.
func (t Tensor) Shape() []int { return append([]int(nil), t.shape...) }

func (t Tensor) Dim() int { return len(t.shape) }

func (t Tensor) Len() int { return len(t.data) }

// Data returns the underlying buffer.
func (t Tensor) Data() []float64 { return t.data }

func (t Tensor) At(i int) float64 { return t.data[i] }

// CopyTo copies a one dimensional tensor into dst, resizing it to the tensor's length.
// dst's buffer is reused when large enough.
func (t Tensor) CopyTo(dst Vector) (Vector, error) {
	if t.Dim() != 1 {
		return dst, fmt.Errorf("%w: expected a 1-d tensor, got shape %v", ErrShape, t.shape)
	}

	size := t.shape[0]
	if cap(dst) < size {
		dst = make(Vector, size)
	}
	dst = dst[:size]

	for i := 0; i < size; i++ {
		dst[i] = t.data[i]
	}

	return dst, nil
}

func (t Tensor) String() string {
	return fmt.Sprintf("tensor%v%v", t.shape, t.data)
}
