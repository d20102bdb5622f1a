package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	r := New(5)
	testCases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{4, 4},
		{5, 0},
		{7, 2},
		{-1, 4},
		{-6, 4},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, r.Wrap(tc.in), "Wrap(%d)", tc.in)
	}
	assert.Equal(t, 0, r.Next(4))
	assert.Equal(t, 4, r.Prev(0))
	assert.Equal(t, 1, r.Offset(3, 3))
	assert.Equal(t, 3, r.Offset(1, -3))
}

func TestNewPanicsOnEmptyRing(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}

func TestRange(t *testing.T) {
	r := New(6)
	testCases := []struct {
		name string
		a, b int
		want []int
	}{
		{"forward", 1, 4, []int{1, 2, 3}},
		{"wrapping", 4, 2, []int{4, 5, 0, 1}},
		{"unreduced_inputs", 10, 14, []int{4, 5, 0, 1}},
		{"coincident_ends_cover_ring", 3, 3, []int{3, 4, 5, 0, 1, 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Range(tc.a, tc.b)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.want), r.Span(tc.a, tc.b))
		})
	}
}

func TestRotateRoundTrip(t *testing.T) {
	r := New(5)
	xs := []int{10, 11, 12, 13, 14}

	rot := Rotate(r, xs, 2)
	assert.Equal(t, []int{12, 13, 14, 10, 11}, rot)
	assert.Equal(t, xs, Unrotate(r, rot, 2))

	assert.Equal(t, xs, Rotate(r, xs, 0))
	assert.Equal(t, xs, Unrotate(r, Rotate(r, xs, -1), -1))
	assert.Equal(t, []int{10, 11, 12, 13, 14}, xs, "input must not be modified")
}

func TestGather(t *testing.T) {
	xs := []string{"a", "b", "c", "d"}
	assert.Equal(t, []string{"d", "a", "b"}, Gather(xs, New(4).Range(3, 2)))
}

func TestFirstChange(t *testing.T) {
	i, ok := FirstChange([]bool{true, true, false, true})
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = FirstChange([]bool{false, false, false})
	assert.False(t, ok)

	_, ok = FirstChange(nil)
	assert.False(t, ok)
}
