// Package track models a track as a pair of cone boundaries and turns blend
// parameters into spline paths between them.
package track

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/ring"
)

// Excluded marks a blend parameter whose index is left out of the control
// sequence.
const Excluded = -1.0

var (
	// ErrEmptyBoundary is returned when a boundary has no points.
	ErrEmptyBoundary = errors.New("track: empty boundary")
	// ErrBoundaryMismatch is returned when left and right differ in length,
	// or a boundary's x and y sequences do.
	ErrBoundaryMismatch = errors.New("track: boundary length mismatch")
	// ErrAlphaLength is returned when a blend vector does not have Size
	// elements.
	ErrAlphaLength = errors.New("track: blend vector length does not match track size")
)

// Track is immutable after construction and safe for concurrent use.
type Track struct {
	name   string
	left   []path.Point
	right  []path.Point
	closed bool
	size   int
	mid    *path.Path
}

// New builds a track from paired boundaries. The track is closed when both
// boundaries end exactly where they start.
func New(name string, left, right []path.Point) (*Track, error) {
	if len(left) == 0 || len(right) == 0 {
		return nil, ErrEmptyBoundary
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: left %d, right %d", ErrBoundaryMismatch, len(left), len(right))
	}
	t := &Track{
		name:  name,
		left:  append([]path.Point(nil), left...),
		right: append([]path.Point(nil), right...),
	}
	n := len(left)
	t.closed = left[0] == left[n-1] && right[0] == right[n-1]
	t.size = n
	if t.closed {
		t.size--
	}

	mid, err := t.Path(Uniform(t.size, 0.5))
	if err != nil {
		return nil, fmt.Errorf("track %q: centreline: %w", name, err)
	}
	t.mid = mid
	return t, nil
}

// Uniform returns a blend vector of n copies of alpha.
func Uniform(n int, alpha float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = alpha
	}
	return out
}

// Name returns the track identifier.
func (t *Track) Name() string { return t.name }

// Closed reports whether the track is a loop.
func (t *Track) Closed() bool { return t.closed }

// Size is the number of independent blend parameters.
func (t *Track) Size() int { return t.size }

// Left returns a copy of the left boundary.
func (t *Track) Left() []path.Point { return append([]path.Point(nil), t.left...) }

// Right returns a copy of the right boundary.
func (t *Track) Right() []path.Point { return append([]path.Point(nil), t.right...) }

// Mid is the centreline path at alpha 0.5 everywhere.
func (t *Track) Mid() *path.Path { return t.mid }

// Length is the centreline length.
func (t *Track) Length() float64 { return t.mid.Length() }

// ControlPoints places one point per included index at the blend position
// between the boundaries. Closed tracks repeat the first blend value for the
// closing point. Indices blended with Excluded are skipped.
func (t *Track) ControlPoints(alphas []float64) ([]path.Point, error) {
	if len(alphas) != t.size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrAlphaLength, len(alphas), t.size)
	}
	if t.closed {
		alphas = append(alphas[:len(alphas):len(alphas)], alphas[0])
	}
	out := make([]path.Point, 0, len(alphas))
	for i, a := range alphas {
		if a == Excluded {
			continue
		}
		out = append(out, t.left[i].Add(t.right[i].Sub(t.left[i]).Scale(a)))
	}
	return out, nil
}

// Path fits a spline through the control points for alphas.
func (t *Track) Path(alphas []float64) (*path.Path, error) {
	controls, err := t.ControlPoints(alphas)
	if err != nil {
		return nil, err
	}
	return path.New(controls, t.closed)
}

// AvgCurvature is the mean centreline curvature proxy over the samples s.
func (t *Track) AvgCurvature(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(t.mid.Curvature(s), nil)
}

// Corners runs corner detection on the centreline at samples s.
func (t *Track) Corners(s []float64, kMin, proximity, length float64) ([]Corner, []bool, error) {
	return DetectCorners(t.mid, s, kMin, proximity, length)
}

// Sub returns the open track formed by the boundary points at idxs, in order.
func (t *Track) Sub(name string, idxs []int) (*Track, error) {
	return New(name, ring.Gather(t.left, idxs), ring.Gather(t.right, idxs))
}

// Boundary is the exchange form of one track edge.
type Boundary struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Spec is the exchange record for a track.
type Spec struct {
	Name  string   `json:"name"`
	Left  Boundary `json:"left"`
	Right Boundary `json:"right"`
}

func (b Boundary) points() ([]path.Point, error) {
	if len(b.X) != len(b.Y) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrBoundaryMismatch, len(b.X), len(b.Y))
	}
	out := make([]path.Point, len(b.X))
	for i := range out {
		out[i] = path.Point{X: b.X[i], Y: b.Y[i]}
	}
	return out, nil
}

func boundary(ps []path.Point) Boundary {
	b := Boundary{X: make([]float64, len(ps)), Y: make([]float64, len(ps))}
	for i, p := range ps {
		b.X[i], b.Y[i] = p.X, p.Y
	}
	return b
}

// FromSpec builds a track from its exchange record.
func FromSpec(spec Spec) (*Track, error) {
	left, err := spec.Left.points()
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	right, err := spec.Right.points()
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	return New(spec.Name, left, right)
}

// Spec returns the exchange record for t.
func (t *Track) Spec() Spec {
	return Spec{Name: t.name, Left: boundary(t.left), Right: boundary(t.right)}
}

// Load reads a track exchange record from a JSON file.
func Load(fsys fsutil.FileSystem, name string) (*Track, error) {
	var spec Spec
	if err := fsutil.ReadJSON(fsys, name, fsutil.MaxJSONSize, &spec); err != nil {
		return nil, fmt.Errorf("track: %w", err)
	}
	t, err := FromSpec(spec)
	if err != nil {
		return nil, err
	}
	monitoring.Stagef("Imported %s", t.name)
	return t, nil
}
