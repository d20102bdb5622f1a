package track

import (
	"errors"
	"fmt"

	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/ring"
)

// ErrUniformClassification is returned when every sample is a corner or
// every sample is a straight, so no run boundary exists.
var ErrUniformClassification = errors.New("track: uniform corner classification")

// Corner is a detected corner as a pair of control point indices.
type Corner struct {
	Entry int `json:"entry"`
	Exit  int `json:"exit"`
}

// DetectCorners classifies the samples s of p as corner or straight by
// curvature, merges straights shorter than proximity into corners, demotes
// corners no longer than length to straights, and returns the surviving
// corners as control point intervals along with the per-sample mask.
func DetectCorners(p *path.Path, s []float64, kMin, proximity, length float64) ([]Corner, []bool, error) {
	k := p.Curvature(s)
	mask := make([]bool, len(k))
	for i, v := range k {
		mask[i] = v > kMin
	}
	mask, err := FilterCorners(mask, s, length, proximity)
	if err != nil {
		return nil, nil, err
	}
	runs, err := cornerRuns(mask)
	if err != nil {
		return nil, nil, err
	}
	return samplesToControls(s, runs, p.Dists()), mask, nil
}

// FilterCorners applies the proximity and length rules to a corner mask over
// samples at distances dists. Runs are measured around the circle, so a run
// crossing the end of the samples is treated as one run.
func FilterCorners(mask []bool, dists []float64, length, proximity float64) ([]bool, error) {
	if len(mask) != len(dists) {
		return nil, fmt.Errorf("track: %d mask values for %d samples", len(mask), len(dists))
	}
	if _, ok := ring.FirstChange(mask); !ok {
		return nil, ErrUniformClassification
	}
	// Short straights become corners first, which can only lengthen corners.
	out := flipRuns(mask, dists, false, func(span float64) bool { return span < proximity })
	out = flipRuns(out, dists, true, func(span float64) bool { return span <= length })
	return out, nil
}

// flipRuns inverts every run of value target whose span satisfies short. A
// uniform mask has no runs to measure and is returned unchanged.
func flipRuns(mask []bool, dists []float64, target bool, short func(float64) bool) []bool {
	shift, ok := ring.FirstChange(mask)
	if !ok {
		return append([]bool(nil), mask...)
	}
	r := ring.New(len(mask))
	m := ring.Rotate(r, mask, shift)
	d := runDistances(r, dists, shift)
	for start := 0; start < len(m); {
		end := start + 1
		for end < len(m) && m[end] == m[start] {
			end++
		}
		if m[start] == target && short(d[end]-d[start]) {
			fill(m[start:end], !target)
		}
		start = end
	}
	return ring.Unrotate(r, m, shift)
}

// runDistances returns the cumulative distance along the rotated samples,
// with n+1 entries so that the run closing the circle can be measured. The
// step across the seam is the mean sample spacing.
func runDistances(r ring.Ring, dists []float64, shift int) []float64 {
	n := r.N
	seam := 0.0
	if n > 1 {
		seam = (dists[n-1] - dists[0]) / float64(n-1)
	}
	out := make([]float64, n+1)
	for j := 1; j <= n; j++ {
		hi := r.Offset(shift, j)
		lo := r.Prev(hi)
		step := dists[hi] - dists[lo]
		if hi == 0 {
			step = seam
		}
		out[j] = out[j-1] + step
	}
	return out
}

func fill(xs []bool, v bool) {
	for i := range xs {
		xs[i] = v
	}
}

// cornerRuns returns the [start, end) sample index pairs of every corner run
// in mask, walking the circle once from the first run boundary.
func cornerRuns(mask []bool) ([][2]int, error) {
	shift, ok := ring.FirstChange(mask)
	if !ok {
		return nil, ErrUniformClassification
	}
	r := ring.New(len(mask))
	m := ring.Rotate(r, mask, shift)
	n := len(m)

	var runs [][2]int
	start := shift
	for j := 1; j <= n; j++ {
		i := j % n
		prev := m[r.Prev(i)]
		switch {
		case prev && !m[i]:
			runs = append(runs, [2]int{start, r.Offset(i, shift)})
		case !prev && m[i]:
			start = r.Offset(i, shift)
		}
	}
	return runs, nil
}

// samplesToControls maps each sample index to the first control point at or
// beyond the sample's distance.
func samplesToControls(sDist []float64, runs [][2]int, cDist []float64) []Corner {
	toControl := func(idx int) int {
		j := 0
		for j < len(cDist)-1 && sDist[idx] > cDist[j] {
			j++
		}
		return j
	}
	out := make([]Corner, len(runs))
	for i, run := range runs {
		out[i] = Corner{Entry: toControl(run[0]), Exit: toControl(run[1])}
	}
	return out
}
