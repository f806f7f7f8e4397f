package tensor

import (
	"errors"

	"github.com/fumitoshi0524/ixeoriProb/internal/parallel"
)

// BroadcastShapes returns the shape both arguments broadcast to under
// the usual trailing-alignment rules, or an error when a pair of
// dimensions is incompatible.
func BroadcastShapes(a, b []int) ([]int, error) {
	rank := len(a)
	if len(b) > rank {
		rank = len(b)
	}
	out := make([]int, rank)
	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if i >= rank-len(a) {
			da = a[i-(rank-len(a))]
		}
		if i >= rank-len(b) {
			db = b[i-(rank-len(b))]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, errors.New("incompatible broadcast dimensions")
		}
	}
	return out, nil
}

// BroadcastTo materializes t expanded to targetShape. Dimensions of
// size one (and missing leading dimensions) are repeated; the result
// is a contiguous tensor on t's device.
func BroadcastTo(t *Tensor, targetShape []int) (*Tensor, error) {
	srcShape := t.shape
	srcRank := len(srcShape)
	tgtRank := len(targetShape)
	if tgtRank < srcRank {
		return nil, errors.New("target rank must be >= source rank")
	}
	off := tgtRank - srcRank
	// Source strides aligned to the target shape, zero where repeated.
	strides := make([]int, tgtRank)
	for i := tgtRank - 1; i >= 0; i-- {
		srcDim, stride := 1, 0
		if i-off >= 0 {
			srcDim = srcShape[i-off]
			stride = t.strides[i-off]
		}
		tgtDim := targetShape[i]
		if srcDim == tgtDim {
			strides[i] = stride
			continue
		}
		if srcDim != 1 {
			return nil, errors.New("incompatible broadcast dimensions")
		}
		strides[i] = 0
	}
	out := Zeros(targetShape...)
	out.device = t.device
	parallel.For(len(out.data), func(start, end int) {
		for i := start; i < end; i++ {
			rem := i
			src := 0
			for axis := 0; axis < tgtRank; axis++ {
				idx := rem / out.strides[axis]
				rem -= idx * out.strides[axis]
				src += idx * strides[axis]
			}
			out.data[i] = t.data[src]
		}
	})
	return out, nil
}
