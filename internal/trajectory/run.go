package trajectory

import (
	"context"
	"fmt"
	"strings"

	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/track"
)

// Method selects how the racing line is generated.
type Method int

const (
	MethodCurvature Method = iota
	MethodCompromise
	MethodLapTime
	MethodSectors
	MethodEstimated
)

var methodNames = [...]string{
	MethodCurvature:  "curvature",
	MethodCompromise: "compromise",
	MethodLapTime:    "laptime",
	MethodSectors:    "sectors",
	MethodEstimated:  "estimated",
}

var methodStages = [...]string{
	MethodCurvature:  "Minimising curvature",
	MethodCompromise: "Minimising optimal compromise",
	MethodLapTime:    "Minimising lap time",
	MethodSectors:    "Optimising sectors",
	MethodEstimated:  "Minimising pre-computed compromise",
}

// Methods lists every method in order.
func Methods() []Method {
	return []Method{MethodCurvature, MethodCompromise, MethodLapTime, MethodSectors, MethodEstimated}
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod returns the method with the given name.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods() {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Report collects everything a finished run produces.
type Report struct {
	Track     string  `json:"track"`
	Vehicle   string  `json:"vehicle"`
	Method    string  `json:"method"`
	LapTime   float64 `json:"lap_time"`
	RunTime   float64 `json:"run_time"` // seconds
	Converged bool    `json:"converged"`
	Status    string  `json:"status"`

	Epsilon *float64        `json:"eps,omitempty"`
	Trace   []EpsilonSample `json:"eps_trace,omitempty"`
	Corners []track.Corner  `json:"corners,omitempty"`

	Left      []path.Point `json:"left"`
	Right     []path.Point `json:"right"`
	Alphas    []float64    `json:"alphas"`
	Controls  []path.Point `json:"controls"`
	S         []float64    `json:"s"`
	Positions []path.Point `json:"positions"`
	Velocity  []float64    `json:"velocity"`
}

// Run generates a racing line with method m, then computes its velocity
// profile and lap time.
func (o *Optimiser) Run(ctx context.Context, m Method) (*Report, error) {
	var (
		out Outcome
		err error
	)
	if m >= 0 && int(m) < len(methodStages) {
		monitoring.Stagef("%s", methodStages[m])
	}
	switch m {
	case MethodCurvature:
		out, err = o.MinimiseCurvature(ctx)
	case MethodCompromise:
		out, err = o.MinimiseOptimalCompromise(ctx)
		if err == nil {
			monitoring.Logf("  epsilon = %.4f", *out.Epsilon)
		}
	case MethodLapTime:
		out, err = o.MinimiseLapTime(ctx)
	case MethodSectors:
		out, err = o.OptimiseSectors(ctx)
	case MethodEstimated:
		out, err = o.EstimatedCompromise(ctx)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, m)
	}
	if err != nil {
		return nil, err
	}

	monitoring.Stagef("Computing lap time")
	st, err := o.WithVelocity(out.State)
	if err != nil {
		return nil, fmt.Errorf("velocity profile: %w", err)
	}
	lap, err := o.LapTime(st)
	if err != nil {
		return nil, err
	}

	return &Report{
		Track:     o.track.Name(),
		Vehicle:   o.vehicle.Name(),
		Method:    m.String(),
		LapTime:   lap,
		RunTime:   out.RunTime.Seconds(),
		Converged: out.Converged,
		Status:    out.Status,
		Epsilon:   out.Epsilon,
		Trace:     out.Trace,
		Corners:   out.Corners,
		Left:      o.track.Left(),
		Right:     o.track.Right(),
		Alphas:    st.Alphas,
		Controls:  st.Path.Controls(),
		S:         st.S,
		Positions: st.Path.Position(st.S),
		Velocity:  st.Velocity.V,
	}, nil
}
