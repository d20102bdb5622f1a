// Package vehicle models the longitudinal and lateral force limits of a car:
// engine force as a function of speed, and the traction left over for
// accelerating or braking while cornering.
package vehicle

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/monitoring"
)

// Gravity is the gravitational acceleration in m/s².
const Gravity = 9.81

var (
	// ErrInvalidVehicle is returned for non-positive mass or friction.
	ErrInvalidVehicle = errors.New("vehicle: invalid parameters")
	// ErrInvalidEngineMap is returned when the engine map is empty, has
	// mismatched lengths, or velocities that are not strictly increasing.
	ErrInvalidEngineMap = errors.New("vehicle: invalid engine map")
)

// EngineMap is a lookup of engine force (N) against velocity (m/s).
type EngineMap struct {
	V []float64 `json:"v"`
	F []float64 `json:"f"`
}

// Spec is the exchange record for a vehicle.
type Spec struct {
	Name      string    `json:"name"`
	Mass      float64   `json:"mass"`
	Friction  float64   `json:"frictionCoefficient"`
	EngineMap EngineMap `json:"engineMap"`
}

// Vehicle is immutable after construction and safe for concurrent use.
type Vehicle struct {
	name     string
	mass     float64
	friction float64
	engine   EngineMap

	// constant is set when every engine map force is equal, which also
	// covers an unlimited (+Inf) engine.
	constant *float64
	lookup   interp.PiecewiseLinear
}

// New validates spec and builds a Vehicle.
func New(spec Spec) (*Vehicle, error) {
	if !(spec.Mass > 0) || math.IsInf(spec.Mass, 0) {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidVehicle, spec.Mass)
	}
	if !(spec.Friction > 0) || math.IsInf(spec.Friction, 0) {
		return nil, fmt.Errorf("%w: friction coefficient %v", ErrInvalidVehicle, spec.Friction)
	}
	em := spec.EngineMap
	if len(em.V) == 0 || len(em.V) != len(em.F) {
		return nil, fmt.Errorf("%w: %d velocities, %d forces", ErrInvalidEngineMap, len(em.V), len(em.F))
	}
	for i := 1; i < len(em.V); i++ {
		if !(em.V[i] > em.V[i-1]) {
			return nil, fmt.Errorf("%w: velocities not strictly increasing at index %d", ErrInvalidEngineMap, i)
		}
	}
	for i, f := range em.F {
		if math.IsNaN(f) || f < 0 {
			return nil, fmt.Errorf("%w: force %v at index %d", ErrInvalidEngineMap, f, i)
		}
	}

	v := &Vehicle{
		name:     spec.Name,
		mass:     spec.Mass,
		friction: spec.Friction,
		engine: EngineMap{
			V: append([]float64(nil), em.V...),
			F: append([]float64(nil), em.F...),
		},
	}
	if uniform(em.F) {
		f := em.F[0]
		v.constant = &f
	} else {
		if math.IsInf(maxOf(em.F), 1) {
			return nil, fmt.Errorf("%w: infinite force is only allowed for a flat map", ErrInvalidEngineMap)
		}
		// Fit panics on bad input; everything it checks was validated above.
		_ = v.lookup.Fit(v.engine.V, v.engine.F)
	}
	return v, nil
}

// Load reads a vehicle exchange record from a JSON file.
func Load(fsys fsutil.FileSystem, name string) (*Vehicle, error) {
	var spec Spec
	if err := fsutil.ReadJSON(fsys, name, fsutil.MaxJSONSize, &spec); err != nil {
		return nil, fmt.Errorf("vehicle: %w", err)
	}
	v, err := New(spec)
	if err != nil {
		return nil, err
	}
	monitoring.Stagef("Imported %s", v.name)
	return v, nil
}

func uniform(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}

// Name returns the vehicle's identifier.
func (v *Vehicle) Name() string { return v.name }

// Mass returns the vehicle mass in kg.
func (v *Vehicle) Mass() float64 { return v.mass }

// Friction returns the tyre-road friction coefficient.
func (v *Vehicle) Friction() float64 { return v.friction }

// Spec returns the exchange record the vehicle was built from.
func (v *Vehicle) Spec() Spec {
	return Spec{
		Name:     v.name,
		Mass:     v.mass,
		Friction: v.friction,
		EngineMap: EngineMap{
			V: append([]float64(nil), v.engine.V...),
			F: append([]float64(nil), v.engine.F...),
		},
	}
}

// EngineForce returns the engine force at velocity, linearly interpolated
// from the engine map and clamped to its end values outside the mapped range.
func (v *Vehicle) EngineForce(velocity float64) float64 {
	if v.constant != nil {
		return *v.constant
	}
	return v.lookup.Predict(velocity)
}

// TopSpeed returns the first mapped velocity with zero engine force, or the
// last mapped velocity when the force never drops to zero. Infinite engines
// and single point maps with a positive force are unlimited (+Inf).
func (v *Vehicle) TopSpeed() float64 {
	em := v.engine
	if math.IsInf(em.F[0], 1) {
		return math.Inf(1)
	}
	for i, f := range em.F {
		if f == 0 {
			return em.V[i]
		}
	}
	if len(em.V) == 1 {
		return math.Inf(1)
	}
	return em.V[len(em.V)-1]
}

// Traction returns the longitudinal force still available when the car is
// travelling at velocity through a bend of the given curvature. It is zero
// once lateral demand uses up the whole friction circle.
func (v *Vehicle) Traction(velocity, curvature float64) float64 {
	f := v.friction * v.mass * Gravity
	fLat := v.mass * velocity * velocity * curvature
	if f <= fLat {
		return 0
	}
	return math.Sqrt(f*f - fLat*fLat)
}

// CorneringLimit returns the highest speed lateral grip alone can sustain at
// curvature k. It is +Inf for k == 0.
func (v *Vehicle) CorneringLimit(k float64) float64 {
	if k == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(v.friction * Gravity / k)
}
