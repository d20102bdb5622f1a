package trajectory

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/banshee-data/racing-line/internal/monitoring"
)

// Result is the outcome of one minimisation over the blend parameters.
type Result struct {
	State       State
	Value       float64
	Converged   bool
	Status      string
	Evaluations int
}

// The minimiser searches an unbounded vector x and maps each element into the
// box [0, 1] with alpha = (1 + sin x) / 2, so x = 0 is the centreline.
func toAlphas(dst, x []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	for i, v := range x {
		dst[i] = 0.5 + 0.5*math.Sin(v)
	}
	return dst
}

// Minimise searches for the blend parameters minimising obj, starting from
// the centreline. A run that stops without converging still returns its best
// state, with Converged false and a warning logged. Cancelling ctx stops the
// search at its next evaluation and returns the context's error.
func (o *Optimiser) Minimise(ctx context.Context, obj Objective) (Result, error) {
	var evals atomic.Int64
	f := func(x []float64) float64 {
		evals.Add(1)
		st, err := o.Update(toAlphas(nil, x))
		if err != nil {
			return math.Inf(1)
		}
		v, _ := obj(st)
		return v
	}
	settings := &fd.Settings{Concurrent: o.cfg.GetConcurrentGradient()}

	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, f, x, settings)
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	opts := &optimize.Settings{
		GradientThreshold: o.cfg.GetGradientThreshold(),
		MajorIterations:   o.cfg.GetMaxIterations(),
	}

	res, err := optimize.Minimize(problem, make([]float64, o.track.Size()), opts, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if res == nil {
		return Result{}, fmt.Errorf("minimise: %w", err)
	}

	st, uerr := o.Update(toAlphas(nil, res.X))
	if uerr != nil {
		return Result{}, fmt.Errorf("minimise: final state: %w", uerr)
	}
	value, st := obj(st)

	out := Result{
		State:       st,
		Value:       value,
		Converged:   err == nil && !res.Status.Early(),
		Status:      res.Status.String(),
		Evaluations: int(evals.Load()),
	}
	if !out.Converged {
		if err != nil {
			monitoring.Warnf("minimiser stopped early (%s after %d evaluations): %v", out.Status, out.Evaluations, err)
		} else {
			monitoring.Warnf("minimiser stopped early (%s after %d evaluations)", out.Status, out.Evaluations)
		}
	}
	return out, nil
}
