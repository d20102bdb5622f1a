// Package spline fits interpolating cubic splines through planar points over a
// caller-supplied, strictly increasing parameter. Open curves use not-a-knot
// end conditions; periodic curves are closed with C2 continuity across the
// seam. Both reduce to tridiagonal systems solved with gonum/mat.
package spline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MinPoints is the minimum number of points a degree-3 fit requires.
const MinPoints = 4

var (
	// ErrTooFewPoints is returned when fewer than MinPoints are supplied.
	ErrTooFewPoints = errors.New("spline: at least 4 points are required")
	// ErrNotPeriodic is returned when a periodic fit is requested but the
	// first and last points differ.
	ErrNotPeriodic = errors.New("spline: periodic fit requires first and last points to coincide")
	// ErrDegenerateSegment is returned when the parameter is not strictly
	// increasing, e.g. because two consecutive points coincide.
	ErrDegenerateSegment = errors.New("spline: parameter must be strictly increasing")
)

// Cubic is a fitted planar cubic spline. It is immutable after Fit.
type Cubic struct {
	u        []float64
	x, y     []float64
	mx, my   []float64 // second derivatives at the knots
	periodic bool
}

// Fit interpolates the points (x[i], y[i]) at parameter values u[i].
func Fit(u, x, y []float64, periodic bool) (*Cubic, error) {
	n := len(u)
	if len(x) != n || len(y) != n {
		return nil, fmt.Errorf("spline: mismatched lengths u=%d x=%d y=%d", n, len(x), len(y))
	}
	if n < MinPoints {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	if periodic && (x[0] != x[n-1] || y[0] != y[n-1]) {
		return nil, ErrNotPeriodic
	}
	// The closing point of a periodic fit does not count.
	if periodic && n-1 < MinPoints {
		return nil, fmt.Errorf("%w: got %d distinct", ErrTooFewPoints, n-1)
	}
	h := make([]float64, n-1)
	for i := range h {
		h[i] = u[i+1] - u[i]
		if !(h[i] > 0) {
			return nil, fmt.Errorf("%w: segment %d has width %g", ErrDegenerateSegment, i, h[i])
		}
	}

	c := &Cubic{
		u:        append([]float64(nil), u...),
		x:        append([]float64(nil), x...),
		y:        append([]float64(nil), y...),
		periodic: periodic,
	}
	var err error
	if periodic {
		c.mx, c.my, err = solvePeriodic(h, x, y)
	} else {
		c.mx, c.my, err = solveNotAKnot(h, x, y)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// rhs returns the right-hand side of the second-derivative equation at
// interior knot i, with neighbours at ip (previous) and in (next).
func rhs(ys []float64, hPrev, hNext float64, ip, i, in int) float64 {
	return 6 * ((ys[in]-ys[i])/hNext - (ys[i]-ys[ip])/hPrev)
}

// solveNotAKnot solves for the knot second derivatives of an open spline
// whose third derivative is continuous across the second and penultimate
// knots. M0 and M(n-1) are eliminated so the remaining system is tridiagonal.
func solveNotAKnot(h, x, y []float64) ([]float64, []float64, error) {
	n := len(x)
	m := n - 2
	dl := make([]float64, m-1)
	d := make([]float64, m)
	du := make([]float64, m-1)
	b := mat.NewDense(m, 2, nil)

	for k := 0; k < m; k++ {
		i := k + 1
		d[k] = 2 * (h[i-1] + h[i])
		if k > 0 {
			dl[k-1] = h[i-1]
		}
		if k < m-1 {
			du[k] = h[i]
		}
		b.Set(k, 0, rhs(x, h[i-1], h[i], i-1, i, i+1))
		b.Set(k, 1, rhs(y, h[i-1], h[i], i-1, i, i+1))
	}

	h0, h1 := h[0], h[1]
	d[0] += h0 * (1 + h0/h1)
	hl, hp := h[n-2], h[n-3]
	d[m-1] += hl * (1 + hl/hp)
	du[0] = h1 - h0*h0/h1
	dl[m-2] = hp - hl*hl/hp

	var sol mat.Dense
	if err := mat.NewTridiag(m, dl, d, du).SolveTo(&sol, false, b); err != nil {
		return nil, nil, fmt.Errorf("spline: not-a-knot system: %w", err)
	}

	mx := make([]float64, n)
	my := make([]float64, n)
	for k := 0; k < m; k++ {
		mx[k+1] = sol.At(k, 0)
		my[k+1] = sol.At(k, 1)
	}
	for _, ms := range [][]float64{mx, my} {
		ms[0] = ms[1]*(1+h0/h1) - ms[2]*(h0/h1)
		ms[n-1] = ms[n-2]*(1+hl/hp) - ms[n-3]*(hl/hp)
	}
	return mx, my, nil
}

// solvePeriodic solves the cyclic tridiagonal system of a closed spline using
// the Sherman-Morrison correction for the two corner entries.
func solvePeriodic(h, x, y []float64) ([]float64, []float64, error) {
	n := len(x)
	m := n - 1 // the closing point repeats the first
	dl := make([]float64, m-1)
	d := make([]float64, m)
	du := make([]float64, m-1)
	b := mat.NewDense(m, 3, nil)

	for i := 0; i < m; i++ {
		ip := (i - 1 + m) % m
		hPrev := h[ip]
		d[i] = 2 * (hPrev + h[i])
		if i < m-1 {
			du[i] = h[i]
			dl[i] = h[i]
		}
		b.Set(i, 0, rhs(x, hPrev, h[i], ip, i, i+1))
		b.Set(i, 1, rhs(y, hPrev, h[i], ip, i, i+1))
	}

	// Corner entries A[0][m-1] and A[m-1][0] both equal the closing segment width.
	corner := h[m-1]
	gamma := -d[0]
	d[0] -= gamma
	d[m-1] -= corner * corner / gamma
	b.Set(0, 2, gamma)
	b.Set(m-1, 2, corner)

	var sol mat.Dense
	if err := mat.NewTridiag(m, dl, d, du).SolveTo(&sol, false, b); err != nil {
		return nil, nil, fmt.Errorf("spline: periodic system: %w", err)
	}

	z0, zl := sol.At(0, 2), sol.At(m-1, 2)
	denom := 1 + z0 + corner*zl/gamma
	out := make([][]float64, 2)
	for col := range out {
		ms := make([]float64, n)
		factor := (sol.At(0, col) + corner*sol.At(m-1, col)/gamma) / denom
		for i := 0; i < m; i++ {
			ms[i] = sol.At(i, col) - factor*sol.At(i, 2)
		}
		ms[m] = ms[0]
		out[col] = ms
	}
	return out[0], out[1], nil
}

// Periodic reports whether the spline closes on itself.
func (c *Cubic) Periodic() bool { return c.periodic }

// Domain returns the first and last parameter values.
func (c *Cubic) Domain() (lo, hi float64) { return c.u[0], c.u[len(c.u)-1] }

// Knots returns a copy of the parameter values at the interpolated points.
func (c *Cubic) Knots() []float64 { return append([]float64(nil), c.u...) }

// segment locates s and returns the segment index along with the barycentric
// weights a (towards the left knot) and b (towards the right knot). Periodic
// splines wrap s into the domain; open splines extrapolate the end segments.
func (c *Cubic) segment(s float64) (i int, a, b, h float64) {
	lo, hi := c.Domain()
	if c.periodic && (s < lo || s > hi) {
		period := hi - lo
		s = lo + modPositive(s-lo, period)
	}
	n := len(c.u)
	i = sort.Search(n, func(j int) bool { return c.u[j] > s }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	h = c.u[i+1] - c.u[i]
	a = (c.u[i+1] - s) / h
	b = (s - c.u[i]) / h
	return i, a, b, h
}

// At evaluates the curve at parameter s.
func (c *Cubic) At(s float64) (x, y float64) {
	i, a, b, h := c.segment(s)
	ca := (a*a*a - a) * h * h / 6
	cb := (b*b*b - b) * h * h / 6
	x = a*c.x[i] + b*c.x[i+1] + ca*c.mx[i] + cb*c.mx[i+1]
	y = a*c.y[i] + b*c.y[i+1] + ca*c.my[i] + cb*c.my[i+1]
	return x, y
}

// SecondDerivative evaluates d²x/ds² and d²y/ds² at parameter s.
func (c *Cubic) SecondDerivative(s float64) (ddx, ddy float64) {
	i, a, b, _ := c.segment(s)
	return a*c.mx[i] + b*c.mx[i+1], a*c.my[i] + b*c.my[i+1]
}

func modPositive(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}
