// Package plot renders track and racing line figures with gonum/plot. The
// output format follows the file extension: png, svg, pdf, eps, jpg or tiff.
package plot

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/trajectory"
)

var (
	boundaryColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	pathColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	controlColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	cornerColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	straightColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

const plotWidth = 10 * vg.Inch

func xys(ps []path.Point) plotter.XYs {
	out := make(plotter.XYs, len(ps))
	for i, p := range ps {
		out[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return out
}

// newTrackPlot returns a plot with both boundaries drawn.
func newTrackPlot(title string, left, right []path.Point) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	for _, b := range [][]path.Point{left, right} {
		l, err := plotter.NewLine(xys(b))
		if err != nil {
			return nil, err
		}
		l.Color = boundaryColor
		l.Width = vg.Points(1)
		p.Add(l)
	}
	return p, nil
}

// size keeps metres square on the page: the height follows the aspect ratio
// of the data, within sensible limits.
func size(p *plot.Plot) (w, h vg.Length) {
	dx := p.X.Max - p.X.Min
	dy := p.Y.Max - p.Y.Min
	ratio := 1.0
	if dx > 0 && dy > 0 {
		ratio = math.Min(math.Max(dy/dx, 0.3), 1.5)
	}
	return plotWidth, vg.Length(float64(plotWidth) * ratio)
}

func save(fsys fsutil.FileSystem, p *plot.Plot, name string) error {
	w, h := size(p)
	return saveSized(fsys, p, name, w, h)
}

func saveSized(fsys fsutil.FileSystem, p *plot.Plot, name string, w, h vg.Length) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("plot %s: %w", name, err)
	}
	if err := fsys.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("plot %s: %w", name, err)
	}
	f, err := fsys.Create(name)
	if err != nil {
		return fmt.Errorf("plot %s: %w", name, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("plot %s: %w", name, err)
	}
	return f.Close()
}

// Path draws the boundaries, the sampled racing line and its control points.
func Path(fsys fsutil.FileSystem, name string, left, right, positions, controls []path.Point) error {
	p, err := newTrackPlot("Racing line", left, right)
	if err != nil {
		return err
	}
	line, err := plotter.NewLine(xys(positions))
	if err != nil {
		return err
	}
	line.Color = pathColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("path", line)

	pts, err := plotter.NewScatter(xys(controls))
	if err != nil {
		return err
	}
	pts.GlyphStyle = draw.GlyphStyle{Color: controlColor, Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
	p.Add(pts)
	p.Legend.Add("control points", pts)
	p.Legend.Top = true
	return save(fsys, p, name)
}

// Corners draws the centreline samples coloured by the corner mask.
func Corners(fsys fsutil.FileSystem, name string, left, right, mid []path.Point, isCorner []bool) error {
	if len(mid) != len(isCorner) {
		return fmt.Errorf("plot corners: %d samples for %d mask values", len(mid), len(isCorner))
	}
	p, err := newTrackPlot("Corners", left, right)
	if err != nil {
		return err
	}
	pts, err := plotter.NewScatter(xys(mid))
	if err != nil {
		return err
	}
	pts.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c := straightColor
		if isCorner[i] {
			c = cornerColor
		}
		return draw.GlyphStyle{Color: c, Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	}
	p.Add(pts)
	return save(fsys, p, name)
}

// Trajectory draws the racing line coloured from blue (slow) to red (fast).
// Positions beyond the last velocity sample are not drawn.
func Trajectory(fsys fsutil.FileSystem, name string, left, right, positions []path.Point, v []float64) error {
	n := min(len(positions), len(v))
	if n == 0 {
		return fmt.Errorf("plot trajectory: no samples")
	}
	p, err := newTrackPlot("Trajectory", left, right)
	if err != nil {
		return err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v[:n] {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			continue
		}
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	switch {
	case math.IsInf(lo, 1):
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-1, hi+1
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)

	pts, err := plotter.NewScatter(xys(positions[:n]))
	if err != nil {
		return err
	}
	pts.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		c, err := cmap.At(math.Max(lo, math.Min(hi, v[i])))
		if err != nil {
			c = pathColor
		}
		return draw.GlyphStyle{Color: c, Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	}
	p.Add(pts)
	p.Title.Text = fmt.Sprintf("Trajectory (%.1f to %.1f m/s)", lo, hi)
	return save(fsys, p, name)
}

// EpsilonTrace draws lap time against compromise weight for every step of the
// optimal compromise search.
func EpsilonTrace(fsys fsutil.FileSystem, name string, trace []trajectory.EpsilonSample) error {
	if len(trace) == 0 {
		return fmt.Errorf("plot epsilon trace: no samples")
	}
	p := plot.New()
	p.Title.Text = "Compromise weight search"
	p.X.Label.Text = "eps"
	p.Y.Label.Text = "Lap time (s)"

	data := make(plotter.XYs, len(trace))
	for i, s := range trace {
		data[i] = plotter.XY{X: s.Epsilon, Y: s.LapTime}
	}
	pts, err := plotter.NewScatter(data)
	if err != nil {
		return err
	}
	pts.GlyphStyle = draw.GlyphStyle{Color: pathColor, Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	p.Add(pts)
	p.Add(plotter.NewGrid())
	return saveSized(fsys, p, name, 8*vg.Inch, 5*vg.Inch)
}
