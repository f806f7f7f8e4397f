// Package prior provides probability distributions used as Bayesian
// priors over tensor-valued parameters.
package prior

import (
	"errors"

	"github.com/fumitoshi0524/ixeoriProb/tensor"
)

// Prior is a distribution queried for log density and samples.
type Prior interface {
	LogProb(value *tensor.Tensor) (*tensor.Tensor, error)
	Sample(shape ...int) (*tensor.Tensor, error)
}

// Stateful is implemented by priors whose parameters can be captured
// into a named tensor set and restored from one.
type Stateful interface {
	Prior
	StateDict(prefix string, state map[string]*tensor.Tensor)
	LoadState(prefix string, state map[string]*tensor.Tensor) error
}

// Save writes a prior's parameters to path.
func Save(path string, p Stateful) error {
	if p == nil {
		return errors.New("Save requires a non-nil prior")
	}
	state := make(map[string]*tensor.Tensor)
	p.StateDict("", state)
	if len(state) == 0 {
		return errors.New("prior has no state to save")
	}
	return tensor.SaveTensors(path, state)
}

// Load restores a prior's parameters from a file written by Save.
func Load(path string, p Stateful) error {
	if p == nil {
		return errors.New("Load requires a non-nil prior")
	}
	state, err := tensor.LoadTensors(path)
	if err != nil {
		return err
	}
	return p.LoadState("", state)
}

func joinPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
