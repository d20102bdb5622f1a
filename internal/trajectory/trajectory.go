// Package trajectory searches for the racing line through a track. A
// candidate line is a vector of blend parameters, one per cone pair, and each
// search minimises an objective over that vector: curvature energy, a
// length/curvature compromise, or lap time itself. Long tracks can also be
// split into per-corner sectors that are optimised in parallel and merged.
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/racing-line/internal/config"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/timeutil"
	"github.com/banshee-data/racing-line/internal/track"
	"github.com/banshee-data/racing-line/internal/vehicle"
	"github.com/banshee-data/racing-line/internal/velocity"
)

var (
	// ErrTooFewCorners is returned by sector optimisation when fewer than two
	// corners are detected.
	ErrTooFewCorners = errors.New("trajectory: sector optimisation needs at least two corners")
	// ErrInvalidEpsilon is returned for a compromise weight outside [0, 1].
	ErrInvalidEpsilon = errors.New("trajectory: compromise weight must be within [0, 1]")
	// ErrUnknownMethod is returned for an unrecognised method name.
	ErrUnknownMethod = errors.New("trajectory: unknown method")
)

// State is one candidate racing line. States are never modified after they
// are built; every change produces a new State.
type State struct {
	Alphas   []float64
	Path     *path.Path
	S        []float64          // sample positions along Path, first and last at the ends
	Velocity *velocity.Profile // nil until WithVelocity
}

// Optimiser owns a track and vehicle pair and builds states for them.
type Optimiser struct {
	track   *track.Track
	vehicle *vehicle.Vehicle
	cfg     *config.RunConfig
	clock   timeutil.Clock
	ns      int
}

// Option configures an Optimiser.
type Option func(*Optimiser)

// WithConfig sets the run configuration. The default is an empty config, so
// every value takes its built-in default.
func WithConfig(cfg *config.RunConfig) Option {
	return func(o *Optimiser) { o.cfg = cfg }
}

// WithClock sets the clock used to measure run times.
func WithClock(c timeutil.Clock) Option {
	return func(o *Optimiser) { o.clock = c }
}

// New returns an optimiser for t and v. The number of samples is fixed here
// from the centreline length and the configured spacing, and reused for every
// candidate so that objectives stay comparable.
func New(t *track.Track, v *vehicle.Vehicle, opts ...Option) *Optimiser {
	o := &Optimiser{
		track:   t,
		vehicle: v,
		cfg:     config.EmptyRunConfig(),
		clock:   timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.ns = max(int(math.Ceil(t.Length()/o.cfg.GetSampleSpacing())), 2)
	return o
}

// Track returns the optimiser's track.
func (o *Optimiser) Track() *track.Track { return o.track }

// Vehicle returns the optimiser's vehicle.
func (o *Optimiser) Vehicle() *vehicle.Vehicle { return o.vehicle }

// Samples is the number of sample positions in every state.
func (o *Optimiser) Samples() int { return o.ns }

// Centreline returns the state with every blend parameter at 0.5.
func (o *Optimiser) Centreline() (State, error) {
	return o.Update(track.Uniform(o.track.Size(), 0.5))
}

// Update builds the state for alphas: the path through the blended control
// points and evenly spaced samples along it.
func (o *Optimiser) Update(alphas []float64) (State, error) {
	p, err := o.track.Path(alphas)
	if err != nil {
		return State{}, err
	}
	s := make([]float64, o.ns)
	floats.Span(s, 0, p.Length())
	return State{
		Alphas: append([]float64(nil), alphas...),
		Path:   p,
		S:      s,
	}, nil
}

// WithVelocity returns st with its velocity profile computed. The last
// sample is dropped: on a closed path it repeats the first, and the lap time
// sum needs one fewer speed than positions either way. Open paths without an
// entry speed start at the vehicle's top speed.
func (o *Optimiser) WithVelocity(st State) (State, error) {
	s := st.S[:len(st.S)-1]
	opts := velocity.Options{
		Closed: o.track.Closed(),
		Length: st.Path.Length(),
		Entry:  o.cfg.GetEntrySpeed(),
	}
	prof, err := velocity.New(o.vehicle, s, st.Path.Curvature(s), opts)
	if err != nil {
		return State{}, err
	}
	st.Velocity = prof
	return st, nil
}

// LapTime returns the lap time of st, computing its velocity profile first
// if needed.
func (o *Optimiser) LapTime(st State) (float64, error) {
	if st.Velocity == nil {
		var err error
		if st, err = o.WithVelocity(st); err != nil {
			return 0, err
		}
	}
	return velocity.LapTime(st.S, st.Velocity.V)
}

// withConfig returns an optimiser for a sector of o's track. Sectors start
// mid-lap, so they never inherit an entry speed.
func (o *Optimiser) withConfig(t *track.Track) *Optimiser {
	cfg := *o.cfg
	cfg.EntrySpeed = nil
	return New(t, o.vehicle, WithConfig(&cfg), WithClock(o.clock))
}

func checkEpsilon(eps float64) error {
	if !(eps >= 0 && eps <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidEpsilon, eps)
	}
	return nil
}
