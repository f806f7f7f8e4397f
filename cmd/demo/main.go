package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"

	"github.com/fumitoshi0524/ixeoriProb/prior"
	"github.com/fumitoshi0524/ixeoriProb/tensor"
)

func main() {
	// Batch of two independent 2-D Gaussian priors.
	loc := tensor.MustNew([]float64{0, 1, -0.5, 2}, 2, 2)
	cov := tensor.Eye(2)
	p, err := prior.NewMultivariateNormal(loc, prior.Config{
		CovarianceMatrix: cov,
		Source:           rand.NewSource(42),
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("batch shape %v, event dim %d, device %s\n", p.BatchShape(), p.EventDim(), p.Device())

	point := tensor.MustNew([]float64{-1, 0.5}, 2)
	lp, err := p.LogProb(point)
	if err != nil {
		panic(err)
	}
	fmt.Printf("log prob at %v: %v\n", point.Data(), lp.Data())

	samples, err := p.Sample(3)
	if err != nil {
		panic(err)
	}
	fmt.Printf("samples %v: %v\n", samples.Shape(), samples.Data())

	// A log-normal style prior over the same location.
	lnPrior, err := prior.NewMultivariateNormal(loc, prior.Config{
		CovarianceMatrix: cov,
		LogTransform:     true,
	})
	if err != nil {
		panic(err)
	}
	lnLp, err := lnPrior.LogProb(point)
	if err != nil {
		panic(err)
	}
	fmt.Printf("log-transformed log prob: %v\n", lnLp.Data())

	dir, err := os.MkdirTemp("", "prior-demo")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "prior.json")
	if err := prior.Save(path, p); err != nil {
		panic(err)
	}
	if err := prior.Load(path, p); err != nil {
		panic(err)
	}
	fmt.Printf("state round-tripped through %s\n", filepath.Base(path))
}
