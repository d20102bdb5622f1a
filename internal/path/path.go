// Package path wraps a boundary-constrained cubic spline fitted through a
// sequence of control points, parametrised by cumulative chord length.
//
// The curvature reported here is the magnitude of the second derivative of
// the curve with respect to its parameter. It is not normalised by the first
// derivative, so it is a monotone proxy for geometric curvature rather than
// the curvature itself. Corner thresholds and grip limits elsewhere are
// calibrated against this proxy.
package path

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/racing-line/internal/spline"
)

var (
	// ErrTooFewPoints is returned when fewer than 4 control points are given.
	ErrTooFewPoints = spline.ErrTooFewPoints
	// ErrNotClosed is returned when a closed path is requested but the first
	// and last control points differ.
	ErrNotClosed = errors.New("path: closed path requires coincident first and last points")
	// ErrDegenerateSegment is returned when consecutive control points coincide.
	ErrDegenerateSegment = spline.ErrDegenerateSegment
)

// Point is a planar coordinate in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Path is an immutable spline through control points.
type Path struct {
	controls []Point
	closed   bool
	dists    []float64
	length   float64
	curve    *spline.Cubic
}

// New fits a path through controls. A closed path must repeat its first
// point at the end, after at least 4 distinct points.
func New(controls []Point, closed bool) (*Path, error) {
	if len(controls) < spline.MinPoints {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(controls))
	}
	if closed && controls[0] != controls[len(controls)-1] {
		return nil, ErrNotClosed
	}
	if closed && len(controls)-1 < spline.MinPoints {
		return nil, fmt.Errorf("%w: got %d distinct", ErrTooFewPoints, len(controls)-1)
	}

	dists := CumulativeDistances(controls)
	xs := make([]float64, len(controls))
	ys := make([]float64, len(controls))
	for i, p := range controls {
		xs[i], ys[i] = p.X, p.Y
	}
	curve, err := spline.Fit(dists, xs, ys, closed)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}
	return &Path{
		controls: append([]Point(nil), controls...),
		closed:   closed,
		dists:    dists,
		length:   dists[len(dists)-1],
		curve:    curve,
	}, nil
}

// CumulativeDistances returns the running chord length at each point,
// starting at 0.
func CumulativeDistances(points []Point) []float64 {
	seg := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		seg[i] = points[i].Dist(points[i-1])
	}
	return floats.CumSum(seg, seg)
}

// Closed reports whether the path is a loop.
func (p *Path) Closed() bool { return p.closed }

// Length is the total chord length of the control polygon.
func (p *Path) Length() float64 { return p.length }

// Dists returns the parameter value at each control point.
func (p *Path) Dists() []float64 { return append([]float64(nil), p.dists...) }

// Controls returns a copy of the control points.
func (p *Path) Controls() []Point { return append([]Point(nil), p.controls...) }

// Position evaluates the path at each parameter value. A nil s returns the
// control points themselves.
func (p *Path) Position(s []float64) []Point {
	if s == nil {
		return p.Controls()
	}
	out := make([]Point, len(s))
	for i, v := range s {
		out[i].X, out[i].Y = p.curve.At(v)
	}
	return out
}

// Curvature returns the curvature proxy |r''(s)| at each parameter value. A
// nil s samples at the control points.
func (p *Path) Curvature(s []float64) []float64 {
	if s == nil {
		s = p.dists
	}
	out := make([]float64, len(s))
	for i, v := range s {
		ddx, ddy := p.curve.SecondDerivative(v)
		out[i] = math.Sqrt(ddx*ddx + ddy*ddy)
	}
	return out
}

// Gamma2 returns the curvature energy: the sum of squared curvature-proxy
// samples. A nil s samples at the control points.
func (p *Path) Gamma2(s []float64) float64 {
	if s == nil {
		s = p.dists
	}
	var sum float64
	for _, v := range s {
		ddx, ddy := p.curve.SecondDerivative(v)
		sum += ddx*ddx + ddy*ddy
	}
	return sum
}
