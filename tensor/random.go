package tensor

import (
	"math/rand"
	"sync"
	"time"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))
var rngLock sync.Mutex

// Randn fills a tensor of the given shape with standard normal draws.
func Randn(shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	data := make([]float64, size)
	rngLock.Lock()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	rngLock.Unlock()
	return MustNew(data, shape...)
}

// Rand fills a tensor of the given shape with uniform draws in [0, 1).
func Rand(shape ...int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	data := make([]float64, size)
	rngLock.Lock()
	for i := range data {
		data[i] = rng.Float64()
	}
	rngLock.Unlock()
	return MustNew(data, shape...)
}
