// Package ring provides index arithmetic over a circular index space of fixed
// size. Track indices, sample indices and corner intervals all live on such a
// space when the track is closed, so the modulo logic is kept here rather than
// re-derived at each call site.
package ring

// Ring is a circular index space {0, ..., N-1}.
type Ring struct {
	N int
}

// New returns a ring of size n. It panics if n is not positive.
func New(n int) Ring {
	if n <= 0 {
		panic("ring: size must be positive")
	}
	return Ring{N: n}
}

// Wrap maps any integer (including negatives) onto [0, N).
func (r Ring) Wrap(i int) int {
	i %= r.N
	if i < 0 {
		i += r.N
	}
	return i
}

// Next returns the index after i.
func (r Ring) Next(i int) int { return r.Wrap(i + 1) }

// Prev returns the index before i.
func (r Ring) Prev(i int) int { return r.Wrap(i - 1) }

// Offset steps k places from i; negative k steps backwards.
func (r Ring) Offset(i, k int) int { return r.Wrap(i + k) }

// Span returns the number of indices in the half-open circular range [a, b).
// A range whose ends coincide covers the whole ring.
func (r Ring) Span(a, b int) int {
	d := r.Wrap(b - a)
	if d == 0 {
		return r.N
	}
	return d
}

// Range returns the indices of the half-open circular range [a, b), wrapping
// to 0 after N-1. When a and b coincide the whole ring is returned, starting
// at a.
func (r Ring) Range(a, b int) []int {
	i := r.Wrap(a)
	n := r.Span(a, b)
	out := make([]int, n)
	for k := range out {
		out[k] = i
		i = r.Next(i)
	}
	return out
}

// Rotate returns a copy of xs shifted so that element start becomes element 0.
// len(xs) must equal N.
func Rotate[T any](r Ring, xs []T, start int) []T {
	if len(xs) != r.N {
		panic("ring: slice length does not match ring size")
	}
	out := make([]T, r.N)
	start = r.Wrap(start)
	n := copy(out, xs[start:])
	copy(out[n:], xs[:start])
	return out
}

// Unrotate reverses Rotate: element 0 of xs is moved back to position start.
func Unrotate[T any](r Ring, xs []T, start int) []T {
	return Rotate(r, xs, r.N-r.Wrap(start))
}

// Gather returns xs[i] for each index i, in order.
func Gather[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for k, i := range idx {
		out[k] = xs[i]
	}
	return out
}

// FirstChange returns the first index i such that xs[i] differs from xs[0].
// The second result is false when all elements are equal, in which case no
// rotation can place a run boundary at index 0.
func FirstChange(xs []bool) (int, bool) {
	for i := 1; i < len(xs); i++ {
		if xs[i] != xs[0] {
			return i, true
		}
	}
	return 0, false
}
