package spline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRejectsBadInput(t *testing.T) {
	testCases := []struct {
		name     string
		u, x, y  []float64
		periodic bool
		want     error
	}{
		{
			name: "too_few_points",
			u:    []float64{0, 1, 2},
			x:    []float64{0, 1, 2},
			y:    []float64{0, 0, 0},
			want: ErrTooFewPoints,
		},
		{
			name:     "periodic_not_closed",
			u:        []float64{0, 1, 2, 3},
			x:        []float64{0, 1, 1, 0.5},
			y:        []float64{0, 0, 1, 1},
			periodic: true,
			want:     ErrNotPeriodic,
		},
		{
			name:     "periodic_three_distinct",
			u:        []float64{0, 10, 19.4, 28.8},
			x:        []float64{0, 10, 5, 0},
			y:        []float64{0, 0, 8, 0},
			periodic: true,
			want:     ErrTooFewPoints,
		},
		{
			name: "repeated_parameter",
			u:    []float64{0, 1, 1, 2},
			x:    []float64{0, 1, 1, 2},
			y:    []float64{0, 0, 0, 0},
			want: ErrDegenerateSegment,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fit(tc.u, tc.x, tc.y, tc.periodic)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Fit([]float64{0, 1, 2, 3}, []float64{0, 1}, []float64{0, 1, 2, 3}, false)
	assert.Error(t, err)
}

func TestNotAKnotReproducesCubic(t *testing.T) {
	u := []float64{0, 1, 2.5, 4, 5}
	x := make([]float64, len(u))
	y := make([]float64, len(u))
	for i, s := range u {
		x[i] = s
		y[i] = s*s*s - 2*s
	}
	c, err := Fit(u, x, y, false)
	require.NoError(t, err)

	for _, s := range []float64{0, 0.3, 1.7, 2.5, 3.9, 5} {
		px, py := c.At(s)
		assert.InDelta(t, s, px, 1e-9)
		assert.InDelta(t, s*s*s-2*s, py, 1e-9)

		ddx, ddy := c.SecondDerivative(s)
		assert.InDelta(t, 0, ddx, 1e-9)
		assert.InDelta(t, 6*s, ddy, 1e-9)
	}
}

func TestMinimalOpenFit(t *testing.T) {
	u := []float64{0, 1, 2, 3}
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 8, 27}
	c, err := Fit(u, x, y, false)
	require.NoError(t, err)
	_, ddy := c.SecondDerivative(1.5)
	assert.InDelta(t, 9, ddy, 1e-9)
}

func circle(n int, radius float64) (u, x, y []float64) {
	u = make([]float64, n+1)
	x = make([]float64, n+1)
	y = make([]float64, n+1)
	for i := 0; i <= n; i++ {
		theta := 2 * math.Pi * float64(i%n) / float64(n)
		x[i] = radius * math.Cos(theta)
		y[i] = radius * math.Sin(theta)
		if i > 0 {
			u[i] = u[i-1] + math.Hypot(x[i]-x[i-1], y[i]-y[i-1])
		}
	}
	return u, x, y
}

func TestPeriodicCircle(t *testing.T) {
	const radius = 50.0
	u, x, y := circle(64, radius)
	c, err := Fit(u, x, y, true)
	require.NoError(t, err)
	assert.True(t, c.Periodic())

	for i := range u {
		px, py := c.At(u[i])
		assert.InDelta(t, x[i], px, 1e-9)
		assert.InDelta(t, y[i], py, 1e-9)
	}

	_, hi := c.Domain()
	ax, ay := c.SecondDerivative(0)
	bx, by := c.SecondDerivative(hi)
	assert.InDelta(t, ax, bx, 1e-9, "second derivative must be continuous across the seam")
	assert.InDelta(t, ay, by, 1e-9)

	// Chord parametrisation is close to arclength, so |r''| is close to 1/R.
	for _, s := range []float64{0, hi / 7, hi / 3, hi / 2, 0.9 * hi} {
		ddx, ddy := c.SecondDerivative(s)
		assert.InDelta(t, 1/radius, math.Hypot(ddx, ddy), 1e-3)
	}

	// Parameters outside the domain wrap.
	wx, wy := c.At(hi + u[5])
	px, py := c.At(u[5])
	assert.InDelta(t, px, wx, 1e-9)
	assert.InDelta(t, py, wy, 1e-9)
}

func TestKnotsAreCopied(t *testing.T) {
	u := []float64{0, 1, 2, 3}
	c, err := Fit(u, []float64{0, 1, 2, 3}, []float64{0, 0, 0, 0}, false)
	require.NoError(t, err)
	k := c.Knots()
	k[0] = 99
	u[1] = 42
	assert.Equal(t, []float64{0, 1, 2, 3}, c.Knots())
}
