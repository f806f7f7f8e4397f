package tensor

import (
	"errors"
)

// Tensor is a dense, row-major float64 tensor. Tensors are plain value
// holders: ops in this package never mutate their inputs and always
// allocate their result, so a tensor shared between goroutines is safe
// to read concurrently.
type Tensor struct {
	data    []float64
	shape   []int
	strides []int
	device  Device
}

func New(data []float64, shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, errors.New("shape is required")
	}
	total := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, errors.New("invalid shape")
		}
		total *= dim
	}
	if total != len(data) {
		return nil, errors.New("data and shape mismatch")
	}
	t := &Tensor{
		data:    append([]float64(nil), data...),
		shape:   append([]int(nil), shape...),
		strides: makeStrides(shape),
		device:  CPU,
	}
	return t, nil
}

func MustNew(data []float64, shape ...int) *Tensor {
	t, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return t
}

func Zeros(shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return MustNew(make([]float64, size), shape...)
}

func Ones(shape ...int) *Tensor {
	return Full(1, shape...)
}

func Full(value float64, shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = value
	}
	return MustNew(data, shape...)
}

// Eye returns the d-by-d identity matrix.
func Eye(d int) *Tensor {
	out := Zeros(d, d)
	for i := 0; i < d; i++ {
		out.data[i*d+i] = 1
	}
	return out
}

func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	return &Tensor{
		data:    append([]float64(nil), t.data...),
		shape:   append([]int(nil), t.shape...),
		strides: append([]int(nil), t.strides...),
		device:  t.device,
	}
}

func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

func (t *Tensor) Rank() int {
	return len(t.shape)
}

func (t *Tensor) Numel() int {
	return len(t.data)
}

func (t *Tensor) Data() []float64 {
	return append([]float64(nil), t.data...)
}

// At returns the element at the given multi-index.
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.shape) {
		panic("At expects one index per dimension")
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic("index out of range")
		}
		offset += idx * t.strides[i]
	}
	return t.data[offset]
}

// SetData overwrites the tensor's underlying values. The provided slice must match Numel().
func (t *Tensor) SetData(values []float64) error {
	if len(values) != len(t.data) {
		return errors.New("SetData expects matching element count")
	}
	copy(t.data, values)
	return nil
}

// CopyInto copies the contents of src into dst, ensuring shapes match.
func CopyInto(dst, src *Tensor) error {
	if dst == nil || src == nil {
		return errors.New("CopyInto requires non-nil tensors")
	}
	if !sameShape(dst.shape, src.shape) {
		return errors.New("CopyInto shape mismatch")
	}
	copy(dst.data, src.data)
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, dim := range a {
		if dim != b[i] {
			return false
		}
	}
	return true
}

func makeStrides(shape []int) []int {
	if len(shape) == 0 {
		return nil
	}
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}
