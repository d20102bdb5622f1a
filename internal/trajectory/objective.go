package trajectory

import (
	"math"

	"github.com/banshee-data/racing-line/internal/velocity"
)

// Objective scores a candidate state. It returns the value to minimise and
// the state it was computed on, which may carry extra derived data such as a
// velocity profile. Objectives must be safe for concurrent use.
type Objective func(st State) (float64, State)

// Curvature scores a path by its curvature energy.
func (o *Optimiser) Curvature() Objective {
	return func(st State) (float64, State) {
		return st.Path.Gamma2(st.S), st
	}
}

// Compromise scores a path by (1-eps) times its curvature energy plus eps
// times its length.
func (o *Optimiser) Compromise(eps float64) Objective {
	return func(st State) (float64, State) {
		return (1-eps)*st.Path.Gamma2(st.S) + eps*st.Path.Length(), st
	}
}

// LapTimeObjective scores a path by the lap time of its velocity profile.
// Paths whose profile cannot be built score +Inf.
func (o *Optimiser) LapTimeObjective() Objective {
	return func(st State) (float64, State) {
		st, err := o.WithVelocity(st)
		if err != nil {
			return math.Inf(1), st
		}
		t, err := velocity.LapTime(st.S, st.Velocity.V)
		if err != nil {
			return math.Inf(1), st
		}
		return t, st
	}
}
