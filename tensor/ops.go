package tensor

import (
	"errors"
	"math"

	"github.com/fumitoshi0524/ixeoriProb/internal/parallel"
)

func binaryOp(a, b *Tensor, fn func(x, y float64) float64) (*Tensor, error) {
	if a == nil || b == nil {
		return nil, errors.New("binary op requires non-nil tensors")
	}
	if !sameDevice(a, b) {
		return nil, errors.New("tensors are on different devices")
	}
	if !sameShape(a.shape, b.shape) {
		return nil, errors.New("shape mismatch")
	}
	out := Zeros(a.shape...)
	out.device = a.device
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = fn(a.data[i], b.data[i])
		}
	})
	return out, nil
}

func unaryOp(a *Tensor, fn func(x float64) float64) *Tensor {
	out := Zeros(a.shape...)
	out.device = a.device
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			out.data[i] = fn(a.data[i])
		}
	})
	return out
}

func Add(a, b *Tensor) (*Tensor, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x + y })
}

func Sub(a, b *Tensor) (*Tensor, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x - y })
}

func Mul(a, b *Tensor) (*Tensor, error) {
	return binaryOp(a, b, func(x, y float64) float64 { return x * y })
}

// Exp exponentiates every element.
func Exp(a *Tensor) *Tensor {
	return unaryOp(a, math.Exp)
}

// Log takes the natural logarithm of every element.
func Log(a *Tensor) *Tensor {
	return unaryOp(a, math.Log)
}

func AddScalar(a *Tensor, value float64) *Tensor {
	return unaryOp(a, func(x float64) float64 { return x + value })
}

func MulScalar(a *Tensor, value float64) *Tensor {
	return unaryOp(a, func(x float64) float64 { return x * value })
}
