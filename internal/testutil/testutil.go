// Package testutil provides shared track geometry fixtures for tests.
//
// Fixtures are returned as raw boundary points so that the packages that
// build tracks from them can use them without an import cycle.
package testutil

import (
	"math"

	"github.com/banshee-data/racing-line/internal/path"
)

// Circle returns closed boundaries around a centreline circle of the given
// radius, with n cones per side. The last cone repeats the first exactly.
func Circle(radius, width float64, n int) (left, right []path.Point) {
	left = make([]path.Point, n+1)
	right = make([]path.Point, n+1)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		c, s := math.Cos(theta), math.Sin(theta)
		left[i] = path.Point{X: (radius - width/2) * c, Y: (radius - width/2) * s}
		right[i] = path.Point{X: (radius + width/2) * c, Y: (radius + width/2) * s}
	}
	left[n], right[n] = left[0], right[0]
	return left, right
}

// Straight returns open boundaries along the x axis from 0 to length with a
// cone every spacing metres.
func Straight(length, width, spacing float64) (left, right []path.Point) {
	n := int(math.Round(length/spacing)) + 1
	left = make([]path.Point, n)
	right = make([]path.Point, n)
	for i := range left {
		x := float64(i) * spacing
		left[i] = path.Point{X: x, Y: width / 2}
		right[i] = path.Point{X: x, Y: -width / 2}
	}
	return left, right
}

// Stadium returns closed boundaries around a centreline made of two straights
// joined by two semicircles of the given radius: two corners in total. Cones
// are placed every spacing metres of centreline, starting at the middle of the
// bottom straight.
func Stadium(straight, radius, width, spacing float64) (left, right []path.Point) {
	total := 2*straight + 2*math.Pi*radius
	n := int(math.Round(total / spacing))
	step := total / float64(n)
	left = make([]path.Point, n+1)
	right = make([]path.Point, n+1)
	for i := 0; i < n; i++ {
		c, normal := StadiumPoint(straight, radius, math.Mod(straight/2+float64(i)*step, total))
		left[i] = c.Add(normal.Scale(width / 2))
		right[i] = c.Sub(normal.Scale(width / 2))
	}
	left[n], right[n] = left[0], right[0]
	return left, right
}

// StadiumPoint returns the centreline point and its left-hand unit normal at
// arclength u, measured anticlockwise from the start of the bottom straight.
func StadiumPoint(straight, radius, u float64) (c, normal path.Point) {
	arc := math.Pi * radius
	switch {
	case u < straight:
		return path.Point{X: u, Y: -radius}, path.Point{X: 0, Y: 1}
	case u < straight+arc:
		theta := -math.Pi/2 + (u-straight)/radius
		return path.Point{X: straight + radius*math.Cos(theta), Y: radius * math.Sin(theta)},
			path.Point{X: -math.Cos(theta), Y: -math.Sin(theta)}
	case u < 2*straight+arc:
		return path.Point{X: straight - (u - straight - arc), Y: radius}, path.Point{X: 0, Y: -1}
	default:
		theta := math.Pi/2 + (u-2*straight-arc)/radius
		return path.Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)},
			path.Point{X: -math.Cos(theta), Y: -math.Sin(theta)}
	}
}

// Teardrop returns closed boundaries around a centreline that joins a tight
// circle at the origin to a wide circle centred distance metres along the x
// axis by their two outer tangents. With a tight radius above and a wide
// radius below the corner threshold, exactly one corner is detected. Cones
// are placed every spacing metres of centreline.
func Teardrop(tight, wide, distance, width, spacing float64) (left, right []path.Point) {
	total := teardropLength(tight, wide, distance)
	n := int(math.Round(total / spacing))
	step := total / float64(n)
	left = make([]path.Point, n+1)
	right = make([]path.Point, n+1)
	for i := 0; i < n; i++ {
		c, normal := TeardropPoint(tight, wide, distance, float64(i)*step)
		left[i] = c.Add(normal.Scale(width / 2))
		right[i] = c.Sub(normal.Scale(width / 2))
	}
	left[n], right[n] = left[0], right[0]
	return left, right
}

// teardrop holds the tangent geometry shared by Teardrop and TeardropPoint.
type teardrop struct {
	a, b     float64 // the lower tangent's outward normal is (-a, -b)
	lo, hi   float64 // tangent angles on both circles
	straight float64
	wideArc  float64
	tightArc float64
}

func newTeardrop(tight, wide, distance float64) teardrop {
	a := (wide - tight) / distance
	b := math.Sqrt(1 - a*a)
	lo, hi := math.Atan2(-b, -a), math.Atan2(b, -a)
	return teardrop{
		a:        a,
		b:        b,
		lo:       lo,
		hi:       hi,
		straight: distance * b,
		wideArc:  wide * (hi - lo),
		tightArc: tight * (2*math.Pi - (hi - lo)),
	}
}

func teardropLength(tight, wide, distance float64) float64 {
	g := newTeardrop(tight, wide, distance)
	return 2*g.straight + g.wideArc + g.tightArc
}

// TeardropPoint returns the centreline point and its left-hand unit normal
// at arclength u, measured anticlockwise from the tight circle's end of the
// lower tangent.
func TeardropPoint(tight, wide, distance, u float64) (c, normal path.Point) {
	g := newTeardrop(tight, wide, distance)
	switch {
	case u < g.straight:
		start := path.Point{X: -g.a * tight, Y: -g.b * tight}
		return start.Add(path.Point{X: g.b, Y: -g.a}.Scale(u)), path.Point{X: g.a, Y: g.b}
	case u < g.straight+g.wideArc:
		theta := g.lo + (u-g.straight)/wide
		return path.Point{X: distance + wide*math.Cos(theta), Y: wide * math.Sin(theta)},
			path.Point{X: -math.Cos(theta), Y: -math.Sin(theta)}
	case u < 2*g.straight+g.wideArc:
		start := path.Point{X: distance - g.a*wide, Y: g.b * wide}
		return start.Add(path.Point{X: -g.b, Y: -g.a}.Scale(u - g.straight - g.wideArc)), path.Point{X: g.a, Y: -g.b}
	default:
		theta := g.hi + (u-2*g.straight-g.wideArc)/tight
		return path.Point{X: tight * math.Cos(theta), Y: tight * math.Sin(theta)},
			path.Point{X: -math.Cos(theta), Y: -math.Sin(theta)}
	}
}
