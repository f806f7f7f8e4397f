package prior

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/fumitoshi0524/ixeoriProb/dist"
	"github.com/fumitoshi0524/ixeoriProb/tensor"
)

// Config configures a multivariate normal prior. Exactly one of the
// covariance-family fields must be set; see dist.Config. LogTransform
// and ValidateArgs are fixed at construction.
type Config struct {
	CovarianceMatrix *tensor.Tensor
	ScaleTril        *tensor.Tensor
	PrecisionMatrix  *tensor.Tensor

	// LogTransform exponentiates inputs element-wise before density
	// evaluation, turning this into a log-normal-style prior over the
	// untransformed variable.
	LogTransform bool

	ValidateArgs bool
	Source       rand.Source
}

// MultivariateNormal is a multivariate Gaussian prior. It owns no
// density math of its own: parameter storage, batching and evaluation
// live in the underlying dist.MultivariateNormal, and the prior only
// applies the optional log transform before delegating.
type MultivariateNormal struct {
	mvn          *dist.MultivariateNormal
	logTransform bool
	validate     bool
	source       rand.Source
}

func NewMultivariateNormal(loc *tensor.Tensor, cfg Config) (*MultivariateNormal, error) {
	mvn, err := dist.NewMultivariateNormal(loc, dist.Config{
		CovarianceMatrix: cfg.CovarianceMatrix,
		ScaleTril:        cfg.ScaleTril,
		PrecisionMatrix:  cfg.PrecisionMatrix,
		ValidateArgs:     cfg.ValidateArgs,
		Source:           cfg.Source,
	})
	if err != nil {
		return nil, err
	}
	return &MultivariateNormal{
		mvn:          mvn,
		logTransform: cfg.LogTransform,
		validate:     cfg.ValidateArgs,
		source:       cfg.Source,
	}, nil
}

// LogProb returns the log density at value, exponentiating value first
// when the prior was built with LogTransform. Shape and device rules
// are those of the underlying distribution.
func (m *MultivariateNormal) LogProb(value *tensor.Tensor) (*tensor.Tensor, error) {
	if value == nil {
		return nil, errors.New("value tensor is required")
	}
	if m.logTransform {
		value = tensor.Exp(value)
	}
	return m.mvn.LogProb(value)
}

func (m *MultivariateNormal) Sample(shape ...int) (*tensor.Tensor, error) {
	return m.mvn.Sample(shape...)
}

// To returns an equivalent prior with all parameter tensors on the
// given device.
func (m *MultivariateNormal) To(d tensor.Device) *MultivariateNormal {
	return &MultivariateNormal{
		mvn:          m.mvn.To(d),
		logTransform: m.logTransform,
		validate:     m.validate,
		source:       m.source,
	}
}

func (m *MultivariateNormal) Loc() *tensor.Tensor              { return m.mvn.Loc() }
func (m *MultivariateNormal) CovarianceMatrix() *tensor.Tensor { return m.mvn.CovarianceMatrix() }
func (m *MultivariateNormal) ScaleTril() *tensor.Tensor        { return m.mvn.ScaleTril() }
func (m *MultivariateNormal) PrecisionMatrix() *tensor.Tensor  { return m.mvn.PrecisionMatrix() }
func (m *MultivariateNormal) LogTransform() bool               { return m.logTransform }
func (m *MultivariateNormal) ValidateArgs() bool               { return m.validate }
func (m *MultivariateNormal) BatchShape() []int                { return m.mvn.BatchShape() }
func (m *MultivariateNormal) EventDim() int                    { return m.mvn.EventDim() }
func (m *MultivariateNormal) Device() tensor.Device            { return m.mvn.Device() }

func (m *MultivariateNormal) StateDict(prefix string, state map[string]*tensor.Tensor) {
	if state == nil {
		return
	}
	state[joinPrefix(prefix, "loc")] = m.mvn.Loc().Clone()
	state[joinPrefix(prefix, "covariance_matrix")] = m.mvn.CovarianceMatrix().Clone()
}

// LoadState rebuilds the underlying distribution from a captured
// parameter set. The log-transform and validation flags are kept.
func (m *MultivariateNormal) LoadState(prefix string, state map[string]*tensor.Tensor) error {
	if state == nil {
		return errors.New("state dict is nil")
	}
	locKey := joinPrefix(prefix, "loc")
	loc, ok := state[locKey]
	if !ok {
		return fmt.Errorf("MultivariateNormal missing %s", locKey)
	}
	covKey := joinPrefix(prefix, "covariance_matrix")
	cov, ok := state[covKey]
	if !ok {
		return fmt.Errorf("MultivariateNormal missing %s", covKey)
	}
	mvn, err := dist.NewMultivariateNormal(loc, dist.Config{
		CovarianceMatrix: cov,
		ValidateArgs:     m.validate,
		Source:           m.source,
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", covKey, err)
	}
	m.mvn = mvn
	return nil
}
