// Package dist provides batched probability distributions over tensors.
// The linear algebra and density math are delegated to gonum; this
// package adds batch-shape handling, eager derivation of the covariance
// family, and device bookkeeping on top.
package dist

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/fumitoshi0524/ixeoriProb/internal/parallel"
	"github.com/fumitoshi0524/ixeoriProb/tensor"
)

var (
	// ErrInvalidCovariance marks a covariance-family parameter that is
	// asymmetric, not positive-definite, or not a valid Cholesky factor.
	ErrInvalidCovariance = errors.New("invalid covariance")
	// ErrShape marks an event-size or batch-broadcast incompatibility.
	ErrShape = errors.New("incompatible shape")
)

// Config selects the covariance parameterization for a multivariate
// normal. Exactly one of CovarianceMatrix, ScaleTril, and
// PrecisionMatrix must be set; the other two are derived at
// construction time. All fields are read once by NewMultivariateNormal
// and never again.
type Config struct {
	CovarianceMatrix *tensor.Tensor
	ScaleTril        *tensor.Tensor
	PrecisionMatrix  *tensor.Tensor

	// ValidateArgs enables structural checks (symmetry, triangularity)
	// on the supplied parameter. Positive-definiteness is always
	// required: the derived matrices are computed eagerly and a failed
	// factorization aborts construction regardless of this flag.
	ValidateArgs bool

	// Source drives Sample. A nil source falls back to the global one.
	Source rand.Source
}

// MultivariateNormal is a (possibly batched) multivariate Gaussian.
// Leading dimensions of loc and the covariance parameter are broadcast
// together into the batch shape; the trailing dimension of loc is the
// event dimension. Instances are immutable after construction, so all
// methods are safe for concurrent use.
type MultivariateNormal struct {
	loc        *tensor.Tensor // batch + [d]
	covariance *tensor.Tensor // batch + [d, d]
	scaleTril  *tensor.Tensor
	precision  *tensor.Tensor
	batchShape []int
	eventDim   int
	validate   bool
	normals    []*distmv.Normal
}

func NewMultivariateNormal(loc *tensor.Tensor, cfg Config) (*MultivariateNormal, error) {
	if loc == nil || loc.Rank() < 1 {
		return nil, errors.New("loc tensor is required")
	}
	param, kind, err := cfg.parameter()
	if err != nil {
		return nil, err
	}
	locShape := loc.Shape()
	d := locShape[len(locShape)-1]
	pShape := param.Shape()
	if len(pShape) < 2 || pShape[len(pShape)-1] != d || pShape[len(pShape)-2] != d {
		return nil, fmt.Errorf("%w: %s must have trailing dims [%d %d], got %v", ErrShape, kind, d, d, pShape)
	}
	if loc.Device() != param.Device() {
		return nil, fmt.Errorf("loc on %s but %s on %s", loc.Device(), kind, param.Device())
	}
	batchShape, err := tensor.BroadcastShapes(locShape[:len(locShape)-1], pShape[:len(pShape)-2])
	if err != nil {
		return nil, fmt.Errorf("%w: loc and %s batch dims do not broadcast", ErrShape, kind)
	}
	locFull, err := tensor.BroadcastTo(loc, append(append([]int(nil), batchShape...), d))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	paramFull, err := tensor.BroadcastTo(param, append(append([]int(nil), batchShape...), d, d))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}

	nbatch := numel(batchShape)
	locData := locFull.Data()
	paramData := paramFull.Data()
	covData := make([]float64, nbatch*d*d)
	trilData := make([]float64, nbatch*d*d)
	precData := make([]float64, nbatch*d*d)
	normals := make([]*distmv.Normal, nbatch)
	for b := 0; b < nbatch; b++ {
		mu := locData[b*d : (b+1)*d]
		block := paramData[b*d*d : (b+1)*d*d]
		sym, err := covarianceFor(kind, d, block, cfg.ValidateArgs)
		if err != nil {
			return nil, err
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(sym); !ok {
			return nil, fmt.Errorf("%w: matrix is not positive definite", ErrInvalidCovariance)
		}
		l := mat.NewTriDense(d, mat.Lower, nil)
		chol.LTo(l)
		var prec mat.SymDense
		if err := chol.InverseTo(&prec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCovariance, err)
		}
		normal, ok := distmv.NewNormal(mu, sym, cfg.Source)
		if !ok {
			return nil, fmt.Errorf("%w: matrix is not positive definite", ErrInvalidCovariance)
		}
		normals[b] = normal
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				covData[b*d*d+i*d+j] = sym.At(i, j)
				trilData[b*d*d+i*d+j] = l.At(i, j)
				precData[b*d*d+i*d+j] = prec.At(i, j)
			}
		}
	}

	matShape := append(append([]int(nil), batchShape...), d, d)
	dev := loc.Device()
	return &MultivariateNormal{
		loc:        locFull,
		covariance: tensor.MustNew(covData, matShape...).To(dev),
		scaleTril:  tensor.MustNew(trilData, matShape...).To(dev),
		precision:  tensor.MustNew(precData, matShape...).To(dev),
		batchShape: batchShape,
		eventDim:   d,
		validate:   cfg.ValidateArgs,
		normals:    normals,
	}, nil
}

// parameter returns the single covariance-family tensor set in the
// config, or an error when none or several are set.
func (cfg Config) parameter() (*tensor.Tensor, string, error) {
	var param *tensor.Tensor
	var kind string
	count := 0
	if cfg.CovarianceMatrix != nil {
		param, kind, count = cfg.CovarianceMatrix, "covariance matrix", count+1
	}
	if cfg.ScaleTril != nil {
		param, kind, count = cfg.ScaleTril, "scale tril", count+1
	}
	if cfg.PrecisionMatrix != nil {
		param, kind, count = cfg.PrecisionMatrix, "precision matrix", count+1
	}
	if count != 1 {
		return nil, "", errors.New("exactly one of covariance matrix, scale tril, precision matrix is required")
	}
	return param, kind, nil
}

// covarianceFor turns one batch element's parameter block into the
// covariance matrix it implies.
func covarianceFor(kind string, d int, block []float64, validate bool) (*mat.SymDense, error) {
	switch kind {
	case "covariance matrix":
		if validate {
			for i := 0; i < d; i++ {
				for j := i + 1; j < d; j++ {
					if block[i*d+j] != block[j*d+i] {
						return nil, fmt.Errorf("%w: covariance matrix is not symmetric", ErrInvalidCovariance)
					}
				}
			}
		}
		return mat.NewSymDense(d, append([]float64(nil), block...)), nil
	case "scale tril":
		if validate {
			for i := 0; i < d; i++ {
				if block[i*d+i] <= 0 {
					return nil, fmt.Errorf("%w: scale tril needs a positive diagonal", ErrInvalidCovariance)
				}
				for j := i + 1; j < d; j++ {
					if block[i*d+j] != 0 {
						return nil, fmt.Errorf("%w: scale tril is not lower triangular", ErrInvalidCovariance)
					}
				}
			}
		}
		// Sigma = L L^T, touching only the lower triangle of the input.
		sym := mat.NewSymDense(d, nil)
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				sum := 0.0
				for k := 0; k <= i && k <= j; k++ {
					sum += block[i*d+k] * block[j*d+k]
				}
				sym.SetSym(i, j, sum)
			}
		}
		return sym, nil
	case "precision matrix":
		if validate {
			for i := 0; i < d; i++ {
				for j := i + 1; j < d; j++ {
					if block[i*d+j] != block[j*d+i] {
						return nil, fmt.Errorf("%w: precision matrix is not symmetric", ErrInvalidCovariance)
					}
				}
			}
		}
		precSym := mat.NewSymDense(d, append([]float64(nil), block...))
		var chol mat.Cholesky
		if ok := chol.Factorize(precSym); !ok {
			return nil, fmt.Errorf("%w: precision matrix is not positive definite", ErrInvalidCovariance)
		}
		var cov mat.SymDense
		if err := chol.InverseTo(&cov); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCovariance, err)
		}
		return &cov, nil
	}
	panic("unreachable covariance kind")
}

// LogProb evaluates the log density at value. The trailing dimension of
// value must equal the event dimension; its leading dimensions are
// broadcast against the batch shape and the result has the broadcast
// shape. A fully scalar result is returned with shape [1].
func (m *MultivariateNormal) LogProb(value *tensor.Tensor) (*tensor.Tensor, error) {
	if value == nil || value.Rank() < 1 {
		return nil, errors.New("value tensor is required")
	}
	if value.Device() != m.Device() {
		return nil, fmt.Errorf("value on %s but distribution on %s", value.Device(), m.Device())
	}
	vShape := value.Shape()
	d := m.eventDim
	if vShape[len(vShape)-1] != d {
		return nil, fmt.Errorf("%w: event size %d, got trailing dim %d", ErrShape, d, vShape[len(vShape)-1])
	}
	lead := vShape[:len(vShape)-1]
	resShape, err := tensor.BroadcastShapes(lead, m.batchShape)
	if err != nil {
		return nil, fmt.Errorf("%w: sample dims %v do not broadcast with batch %v", ErrShape, lead, m.batchShape)
	}
	full, err := tensor.BroadcastTo(value, append(append([]int(nil), resShape...), d))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	data := full.Data()

	n := numel(resShape)
	resStrides := rowMajorStrides(resShape)
	batchStrides := batchStridesFor(resShape, m.batchShape)
	out := make([]float64, n)
	parallel.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			rem := i
			bIdx := 0
			for axis := range resShape {
				idx := rem / resStrides[axis]
				rem -= idx * resStrides[axis]
				bIdx += idx * batchStrides[axis]
			}
			out[i] = m.normals[bIdx].LogProb(data[i*d : (i+1)*d])
		}
	})
	outShape := resShape
	if len(outShape) == 0 {
		outShape = []int{1}
	}
	return tensor.MustNew(out, outShape...).To(m.Device()), nil
}

// Sample draws shape + batch + [d] values using the configured source.
func (m *MultivariateNormal) Sample(shape ...int) (*tensor.Tensor, error) {
	for _, dim := range shape {
		if dim <= 0 {
			return nil, errors.New("sample shape dims must be positive")
		}
	}
	nSamples := numel(shape)
	nbatch := len(m.normals)
	d := m.eventDim
	data := make([]float64, nSamples*nbatch*d)
	off := 0
	for s := 0; s < nSamples; s++ {
		for b := 0; b < nbatch; b++ {
			m.normals[b].Rand(data[off : off+d])
			off += d
		}
	}
	outShape := append(append(append([]int(nil), shape...), m.batchShape...), d)
	return tensor.MustNew(data, outShape...).To(m.Device()), nil
}

// Entropy returns the differential entropy per batch element, shaped
// like the batch (shape [1] when unbatched).
func (m *MultivariateNormal) Entropy() *tensor.Tensor {
	out := make([]float64, len(m.normals))
	for b, n := range m.normals {
		out[b] = n.Entropy()
	}
	shape := m.batchShape
	if len(shape) == 0 {
		shape = []int{1}
	}
	return tensor.MustNew(out, shape...).To(m.Device())
}

// To returns an equivalent distribution with every parameter tensor
// placed on the given device. The density evaluators are shared; they
// are immutable.
func (m *MultivariateNormal) To(d tensor.Device) *MultivariateNormal {
	return &MultivariateNormal{
		loc:        m.loc.To(d),
		covariance: m.covariance.To(d),
		scaleTril:  m.scaleTril.To(d),
		precision:  m.precision.To(d),
		batchShape: m.batchShape,
		eventDim:   m.eventDim,
		validate:   m.validate,
		normals:    m.normals,
	}
}

func (m *MultivariateNormal) Loc() *tensor.Tensor              { return m.loc }
func (m *MultivariateNormal) CovarianceMatrix() *tensor.Tensor { return m.covariance }
func (m *MultivariateNormal) ScaleTril() *tensor.Tensor        { return m.scaleTril }
func (m *MultivariateNormal) PrecisionMatrix() *tensor.Tensor  { return m.precision }
func (m *MultivariateNormal) ValidateArgs() bool               { return m.validate }
func (m *MultivariateNormal) EventDim() int                    { return m.eventDim }

func (m *MultivariateNormal) BatchShape() []int {
	return append([]int(nil), m.batchShape...)
}

func (m *MultivariateNormal) Device() tensor.Device {
	return m.loc.Device()
}

func numel(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// batchStridesFor maps an axis of the result shape to its stride into
// the flattened batch. Batch dims align to the trailing axes of the
// result; size-one batch dims contribute nothing.
func batchStridesFor(resShape, batchShape []int) []int {
	bs := rowMajorStrides(batchShape)
	out := make([]int, len(resShape))
	off := len(resShape) - len(batchShape)
	for axis := range resShape {
		if j := axis - off; j >= 0 && batchShape[j] > 1 {
			out[axis] = bs[j]
		}
	}
	return out
}
