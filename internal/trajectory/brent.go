package trajectory

import (
	"context"
	"math"
)

const (
	brentTolerance     = 1e-5
	brentMaxEvaluation = 500
)

var goldenMean = 0.5 * (3 - math.Sqrt(5))

// scalarResult is the outcome of a bounded scalar search.
type scalarResult struct {
	X           float64
	F           float64
	Evaluations int
	Converged   bool
}

// minimiseBounded finds a local minimum of f on [lo, hi] with Brent's method:
// parabolic interpolation steps where the fit is trusted, golden-section steps
// otherwise. The search stops once the bracket around the best point is
// within the absolute tolerance, or after brentMaxEvaluation evaluations.
// Errors from f, including cancellation, end the search immediately.
func minimiseBounded(ctx context.Context, f func(context.Context, float64) (float64, error), lo, hi float64) (scalarResult, error) {
	sqrtEps := math.Sqrt(2.2e-16)
	a, b := lo, hi

	// v and w hold the second and third best points so far.
	v := a + goldenMean*(b-a)
	w, x := v, v
	var d, e float64

	fx, err := f(ctx, x)
	if err != nil {
		return scalarResult{}, err
	}
	evals := 1
	fv, fw := fx, fx

	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(x) + brentTolerance/3
	tol2 := 2 * tol1

	for math.Abs(x-xm) > tol2-0.5*(b-a) {
		if evals >= brentMaxEvaluation {
			return scalarResult{X: x, F: fx, Evaluations: evals}, nil
		}
		golden := true
		if math.Abs(e) > tol1 {
			golden = false
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = d

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, xm-x)
				}
			} else {
				golden = true
			}
		}
		if golden {
			if x >= xm {
				e = a - x
			} else {
				e = b - x
			}
			d = goldenMean * e
		}

		step := math.Max(math.Abs(d), tol1)
		if d < 0 {
			step = -step
		}
		u := x + step
		fu, err := f(ctx, u)
		if err != nil {
			return scalarResult{}, err
		}
		evals++

		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(x) + brentTolerance/3
		tol2 = 2 * tol1
	}
	return scalarResult{X: x, F: fx, Evaluations: evals, Converged: true}, nil
}
