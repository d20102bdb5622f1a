package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/path"
)

var speedColors = []string{"#313695", "#4575b4", "#74add1", "#abd9e9", "#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026"}

func finite(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

// speedRange returns the smallest and largest finite speeds, or 0 and 1 when
// there are none.
func (d *Document) speedRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range d.Report.Velocity {
		if finite(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

func (d *Document) subtitle() string {
	s := fmt.Sprintf("track=%s vehicle=%s method=%s lap=%.3fs run=%.3fs", d.Track, d.Vehicle, d.Method, d.LapTime, d.RunTime)
	if d.Epsilon != nil {
		s += fmt.Sprintf(" eps=%.4f", *d.Epsilon)
	}
	return s
}

func (d *Document) velocityChart() *charts.Line {
	data := make([]opts.LineData, 0, len(d.Report.Velocity))
	for i, v := range d.Report.Velocity {
		if !finite(v) {
			continue
		}
		data = append(data, opts.LineData{Value: []interface{}{d.S[i], v}})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Velocity profile", Subtitle: d.subtitle()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "s (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "v (m/s)", NameLocation: "middle", NameGap: 35}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.AddSeries("velocity", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func (d *Document) trackChart() *charts.Scatter {
	lo, hi := d.speedRange()
	line := make([]opts.ScatterData, 0, len(d.Report.Velocity))
	for i, v := range d.Report.Velocity {
		if i >= len(d.Positions) {
			break
		}
		p := d.Positions[i]
		if !finite(v) {
			v = hi
		}
		line = append(line, opts.ScatterData{Value: []interface{}{p.X, p.Y, v}})
	}
	edges := make([]opts.ScatterData, 0, len(d.Left)+len(d.Right))
	for _, side := range [][]path.Point{d.Left, d.Right} {
		for _, p := range side {
			edges = append(edges, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Racing line", Subtitle: d.Track}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "x (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Dimension:  "2",
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: speedColors},
		}),
	)
	scatter.AddSeries("cones", edges, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("line", line, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter
}

func (d *Document) traceChart() *charts.Scatter {
	data := make([]opts.ScatterData, len(d.Trace))
	for i, s := range d.Trace {
		data[i] = opts.ScatterData{Value: []interface{}{s.Epsilon, s.LapTime}}
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Compromise weight search", Subtitle: fmt.Sprintf("%d evaluations", len(d.Trace))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "eps", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "lap time (s)", NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)
	scatter.AddSeries("trace", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// RenderHTML renders the chart page.
func (d *Document) RenderHTML() ([]byte, error) {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s %s", d.Track, d.Method))
	page.AddCharts(d.velocityChart(), d.trackChart())
	if len(d.Trace) > 0 {
		page.AddCharts(d.traceChart())
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders the chart page to name.
func (d *Document) WriteHTML(fsys fsutil.FileSystem, name string) error {
	html, err := d.RenderHTML()
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := fsys.WriteFile(name, html, 0644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
