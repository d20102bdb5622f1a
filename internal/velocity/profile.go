// Package velocity computes the fastest speed profile a vehicle can hold
// along a sampled path. Each sample is first capped by lateral grip, then two
// sweeps starting from the slowest sample limit how quickly the car can
// accelerate out of and brake into every corner.
package velocity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/racing-line/internal/ring"
)

// ErrSampleMismatch is returned when positions and curvatures differ in
// length, or no samples are given.
var ErrSampleMismatch = errors.New("velocity: sample mismatch")

// Vehicle is the force model a profile is computed for.
type Vehicle interface {
	Mass() float64
	EngineForce(v float64) float64
	Traction(v, k float64) float64
	CorneringLimit(k float64) float64
	TopSpeed() float64
}

// Options describe the path the samples were taken from.
type Options struct {
	// Closed paths sweep across the seam from the last sample back to the
	// first, covering Length minus the last sample position.
	Closed bool
	Length float64
	// Entry caps the speed at the first sample of an open path, e.g. 0 for
	// a standing start. Nil leaves it at the local limit.
	Entry *float64
}

// Profile holds the speed limits at each sample, in m/s.
type Profile struct {
	S      []float64
	Local  []float64 // lateral grip limit, capped at the vehicle's top speed
	Accel  []float64 // Local limited by acceleration from the slowest sample
	Decel  []float64 // Local limited by braking into the slowest sample
	V      []float64 // min(Accel, Decel)
	Anchor int       // index of the slowest sample
}

// New computes the profile for samples at positions s with curvature k. For
// closed paths s must not repeat the first sample at the end.
func New(veh Vehicle, s, k []float64, opts Options) (*Profile, error) {
	n := len(s)
	if n == 0 || len(k) != n {
		return nil, fmt.Errorf("%w: %d positions, %d curvatures", ErrSampleMismatch, n, len(k))
	}

	// Straights are limited by the engine rather than by grip.
	top := veh.TopSpeed()
	local := make([]float64, n)
	for i, ki := range k {
		local[i] = math.Min(veh.CorneringLimit(ki), top)
	}
	if !opts.Closed && opts.Entry != nil {
		local[0] = math.Min(local[0], *opts.Entry)
	}

	p := &Profile{
		S:      append([]float64(nil), s...),
		Local:  local,
		Anchor: floats.MinIdx(local),
	}
	r := ring.New(n)
	p.Accel = p.limitAcceleration(veh, r, k, opts)
	p.Decel = p.limitDeceleration(veh, r, k, opts)
	p.V = make([]float64, n)
	for i := range p.V {
		p.V[i] = math.Min(p.Accel[i], p.Decel[i])
	}
	return p, nil
}

// limitAcceleration walks forward from the anchor. Each sample is capped by
// the speed reachable from the previous one under the lesser of engine force
// and remaining traction.
func (p *Profile) limitAcceleration(veh Vehicle, r ring.Ring, k []float64, opts Options) []float64 {
	v := append([]float64(nil), p.Local...)
	m := veh.Mass()
	for j := 1; j < r.N; j++ {
		cur := r.Offset(p.Anchor, j)
		prev := r.Prev(cur)
		wrap := cur == 0
		if wrap && !opts.Closed {
			continue
		}
		if v[cur] <= v[prev] {
			continue
		}
		force := math.Min(veh.EngineForce(v[prev]), veh.Traction(v[prev], k[prev]))
		ds := p.S[cur] - p.S[prev]
		if wrap {
			ds = opts.Length - p.S[prev] + p.S[cur]
		}
		v[cur] = math.Min(v[cur], reachable(v[prev], force/m, ds))
	}
	return v
}

// limitDeceleration walks backward from the anchor. Each sample is capped by
// the speed from which the car can still brake to the next one using the
// traction it has left.
func (p *Profile) limitDeceleration(veh Vehicle, r ring.Ring, k []float64, opts Options) []float64 {
	v := append([]float64(nil), p.Local...)
	m := veh.Mass()
	for j := 1; j < r.N; j++ {
		cur := r.Offset(p.Anchor, -j)
		next := r.Next(cur)
		wrap := next == 0
		if wrap && !opts.Closed {
			continue
		}
		if v[cur] <= v[next] {
			continue
		}
		ds := p.S[next] - p.S[cur]
		if wrap {
			ds = opts.Length - p.S[cur] + p.S[next]
		}
		v[cur] = math.Min(v[cur], reachable(v[next], veh.Traction(v[next], k[next])/m, ds))
	}
	return v
}

func reachable(v, accel, ds float64) float64 {
	return math.Sqrt(v*v + 2*accel*ds)
}

// LapTime sums the time to cover each interval of the sample positions s at
// the speed of its starting sample. s has one more element than the profile.
func LapTime(s, v []float64) (float64, error) {
	if len(s) != len(v)+1 {
		return 0, fmt.Errorf("%w: %d positions for %d speeds", ErrSampleMismatch, len(s), len(v))
	}
	var t float64
	for i, vi := range v {
		t += (s[i+1] - s[i]) / vi
	}
	return t, nil
}
