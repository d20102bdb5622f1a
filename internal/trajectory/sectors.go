package trajectory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/ring"
	"github.com/banshee-data/racing-line/internal/track"
)

// sector is the index range around one corner: from the previous corner's
// exit a, through this corner's entry b and exit c, to the next corner's
// entry d. It covers [a, d) around the ring.
type sector struct {
	a, b, c, d int
}

func sectorsFor(corners []track.Corner, r ring.Ring) []sector {
	nc := len(corners)
	out := make([]sector, nc)
	for i, c := range corners {
		out[i] = sector{
			a: r.Wrap(corners[(i-1+nc)%nc].Exit),
			b: r.Wrap(c.Entry),
			c: r.Wrap(c.Exit),
			d: r.Wrap(corners[(i+1)%nc].Entry),
		}
	}
	return out
}

// weights ramps linearly from 0 to 1 across the entry straight [a, b), holds
// 1 through the corner and ramps back to 0 across the exit straight [c, d).
func (s sector) weights(r ring.Ring) []float64 {
	span := r.Span(s.a, s.d)
	w := make([]float64, span)
	for i := range w {
		w[i] = 1
	}
	entry := min(r.Wrap(s.b-s.a), span)
	linspace(w[:entry], 0, 1)
	exit := min(r.Wrap(s.c-s.a), span)
	linspace(w[exit:], 1, 0)
	return w
}

func linspace(dst []float64, lo, hi float64) {
	switch len(dst) {
	case 0:
	case 1:
		dst[0] = lo
	default:
		floats.Span(dst, lo, hi)
	}
}

// contribution is one sector's weighted blend parameters and the track
// indices they belong to.
type contribution struct {
	idxs   []int
	alphas []float64
}

// mergeSectors sums the contributions into a blend vector of length n.
func mergeSectors(n int, parts []contribution) []float64 {
	out := make([]float64, n)
	for _, p := range parts {
		for k, i := range p.idxs {
			out[i] += p.alphas[k]
		}
	}
	return out
}

// OptimiseSectors splits the track at its detected corners, runs the optimal
// compromise search on each sector independently and in parallel, and merges
// the sector paths with weights that taper across the straights between
// corners. At least two corners are required.
func (o *Optimiser) OptimiseSectors(ctx context.Context) (Outcome, error) {
	start := o.clock.Now()
	mid, err := o.Centreline()
	if err != nil {
		return Outcome{}, err
	}
	corners, _, err := o.Corners(mid)
	if err != nil {
		return Outcome{}, fmt.Errorf("optimise sectors: %w", err)
	}
	if len(corners) < 2 {
		return Outcome{}, fmt.Errorf("%w: found %d", ErrTooFewCorners, len(corners))
	}

	r := ring.New(o.track.Size())
	sectors := sectorsFor(corners, r)
	parts := make([]contribution, len(sectors))
	converged := make([]bool, len(sectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.GetWorkers())
	for i, sec := range sectors {
		g.Go(func() error {
			part, ok, err := o.optimiseSector(gctx, i, sec, r)
			if err != nil {
				return fmt.Errorf("sector %d: %w", i, err)
			}
			parts[i], converged[i] = part, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, fmt.Errorf("optimise sectors: %w", err)
	}

	st, err := o.Update(mergeSectors(r.N, parts))
	if err != nil {
		return Outcome{}, fmt.Errorf("optimise sectors: merged path: %w", err)
	}
	out := Outcome{
		State:     st,
		RunTime:   o.clock.Since(start),
		Converged: true,
		Status:    "Merged",
		Corners:   corners,
	}
	for _, ok := range converged {
		out.Converged = out.Converged && ok
	}
	return out, nil
}

func (o *Optimiser) optimiseSector(ctx context.Context, i int, sec sector, r ring.Ring) (contribution, bool, error) {
	idxs := r.Range(sec.a, sec.d)
	sub, err := o.track.Sub(fmt.Sprintf("%s sector %d", o.track.Name(), i), idxs)
	if err != nil {
		return contribution{}, false, err
	}
	so := o.withConfig(sub)
	res, err := so.MinimiseOptimalCompromise(ctx)
	if err != nil {
		return contribution{}, false, err
	}

	if got := len(res.State.Alphas); got != len(idxs) {
		return contribution{}, false, fmt.Errorf("sector track has %d blend parameters for %d indices", got, len(idxs))
	}
	w := sec.weights(r)
	alphas := make([]float64, len(idxs))
	for k := range alphas {
		alphas[k] = res.State.Alphas[k] * w[k]
	}
	monitoring.Logf("Sector %d: eps=%.4f, run time=%.2fs", i, *res.Epsilon, res.RunTime.Seconds())
	return contribution{idxs: idxs, alphas: alphas}, res.Converged, nil
}
