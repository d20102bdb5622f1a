package trajectory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/track"
)

// EpsilonSample is one evaluation of the optimal compromise search.
type EpsilonSample struct {
	Epsilon float64 `json:"eps"`
	LapTime float64 `json:"lap_time"`
}

// Outcome is the result of one optimisation method.
type Outcome struct {
	State       State
	RunTime     time.Duration
	Converged   bool
	Status      string
	Evaluations int

	// Epsilon is the compromise weight used, nil for methods without one.
	Epsilon *float64
	// Trace records every weight tried by the optimal compromise search.
	Trace []EpsilonSample
	// Corners are the detected corners, for methods that use them.
	Corners []track.Corner
}

func (o *Optimiser) outcome(res Result, start time.Time) Outcome {
	return Outcome{
		State:       res.State,
		RunTime:     o.clock.Since(start),
		Converged:   res.Converged,
		Status:      res.Status,
		Evaluations: res.Evaluations,
	}
}

// MinimiseCurvature finds the path with the least curvature energy.
func (o *Optimiser) MinimiseCurvature(ctx context.Context) (Outcome, error) {
	start := o.clock.Now()
	res, err := o.Minimise(ctx, o.Curvature())
	if err != nil {
		return Outcome{}, fmt.Errorf("minimise curvature: %w", err)
	}
	return o.outcome(res, start), nil
}

// MinimiseCompromise finds the path minimising the compromise objective with
// length weight eps.
func (o *Optimiser) MinimiseCompromise(ctx context.Context, eps float64) (Outcome, error) {
	if err := checkEpsilon(eps); err != nil {
		return Outcome{}, err
	}
	start := o.clock.Now()
	res, err := o.Minimise(ctx, o.Compromise(eps))
	if err != nil {
		return Outcome{}, fmt.Errorf("minimise compromise: %w", err)
	}
	out := o.outcome(res, start)
	out.Epsilon = &eps
	return out, nil
}

// MinimiseLapTime finds the path minimising lap time directly, rebuilding the
// velocity profile at every evaluation.
func (o *Optimiser) MinimiseLapTime(ctx context.Context) (Outcome, error) {
	start := o.clock.Now()
	res, err := o.Minimise(ctx, o.LapTimeObjective())
	if err != nil {
		return Outcome{}, fmt.Errorf("minimise lap time: %w", err)
	}
	return o.outcome(res, start), nil
}

// MinimiseOptimalCompromise searches the configured eps range for the
// compromise weight whose path gives the lowest lap time. Each step of the
// search runs a full compromise minimisation.
func (o *Optimiser) MinimiseOptimalCompromise(ctx context.Context) (Outcome, error) {
	start := o.clock.Now()
	var trace []EpsilonSample
	converged := true

	lapTime := func(ctx context.Context, eps float64) (float64, error) {
		res, err := o.Minimise(ctx, o.Compromise(eps))
		if err != nil {
			return 0, err
		}
		converged = converged && res.Converged
		t, err := o.LapTime(res.State)
		if err != nil {
			return 0, err
		}
		trace = append(trace, EpsilonSample{Epsilon: eps, LapTime: t})
		return t, nil
	}

	best, err := minimiseBounded(ctx, lapTime, o.cfg.GetEpsMin(), o.cfg.GetEpsMax())
	if err != nil {
		return Outcome{}, fmt.Errorf("optimal compromise: %w", err)
	}
	if !best.Converged {
		monitoring.Warnf("compromise weight search stopped after %d evaluations", best.Evaluations)
	}

	res, err := o.Minimise(ctx, o.Compromise(best.X))
	if err != nil {
		return Outcome{}, fmt.Errorf("optimal compromise: %w", err)
	}
	out := o.outcome(res, start)
	out.Converged = out.Converged && converged && best.Converged
	out.Epsilon = &best.X
	out.Trace = trace
	return out, nil
}

// EstimatedCompromise minimises the compromise objective once, with a weight
// proportional to the mean centreline curvature through the detected corners.
func (o *Optimiser) EstimatedCompromise(ctx context.Context) (Outcome, error) {
	start := o.clock.Now()
	mid, err := o.Centreline()
	if err != nil {
		return Outcome{}, err
	}
	corners, mask, err := o.Corners(mid)
	switch {
	case errors.Is(err, track.ErrUniformClassification):
		mask = o.classify(mid)
		monitoring.Logf("corner classification is uniform, using every sample with curvature above %.3f", o.cfg.GetKMin())
	case err != nil:
		return Outcome{}, fmt.Errorf("estimated compromise: %w", err)
	}

	var inCorner []float64
	for i, c := range mask {
		if c {
			inCorner = append(inCorner, mid.S[i])
		}
	}
	eps := o.cfg.GetEstimateScale() * o.track.AvgCurvature(inCorner)
	if eps > 1 {
		monitoring.Warnf("estimated compromise weight %.4f clamped to 1", eps)
		eps = 1
	}
	monitoring.Logf("epsilon = %.4f", eps)

	res, err := o.Minimise(ctx, o.Compromise(eps))
	if err != nil {
		return Outcome{}, fmt.Errorf("estimated compromise: %w", err)
	}
	out := o.outcome(res, start)
	out.Epsilon = &eps
	out.Corners = corners
	return out, nil
}

// Corners detects corners on the centreline at the samples of st, using the
// configured thresholds. The mask has one entry per sample.
func (o *Optimiser) Corners(st State) ([]track.Corner, []bool, error) {
	return o.track.Corners(st.S, o.cfg.GetKMin(), o.cfg.GetProximity(), o.cfg.GetLength())
}

// classify marks the samples of st whose centreline curvature exceeds k_min,
// without any run filtering.
func (o *Optimiser) classify(st State) []bool {
	k := o.track.Mid().Curvature(st.S)
	mask := make([]bool, len(k))
	kMin := o.cfg.GetKMin()
	for i, v := range k {
		mask[i] = v > kMin
	}
	return mask
}
