package report

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/trajectory"
	"github.com/banshee-data/racing-line/internal/version"
)

func sampleReport() *trajectory.Report {
	eps := 0.0875
	return &trajectory.Report{
		Track:     "stadium",
		Vehicle:   "racer",
		Method:    "compromise",
		LapTime:   31.25,
		RunTime:   4.5,
		Converged: true,
		Status:    "GradientThreshold",
		Epsilon:   &eps,
		Trace: []trajectory.EpsilonSample{
			{Epsilon: 0.076, LapTime: 31.4},
			{Epsilon: 0.0875, LapTime: 31.25},
		},
		Left:      []path.Point{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}},
		Right:     []path.Point{{X: 0, Y: -5}, {X: 10, Y: -5}, {X: 20, Y: -5}},
		Alphas:    []float64{0.5, 0.4, 0.5},
		Controls:  []path.Point{{X: 0, Y: 0}, {X: 10, Y: 1}, {X: 20, Y: 0}},
		S:         []float64{0, 10, 20},
		Positions: []path.Point{{X: 0, Y: 0}, {X: 10, Y: 1}, {X: 20, Y: 0}},
		Velocity:  []float64{12.5, math.Inf(1)},
	}
}

func TestNumberMarshal(t *testing.T) {
	data, err := json.Marshal([]Number{1.5, Number(math.Inf(1)), Number(math.NaN())})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,null]", string(data))
}

func TestWriteJSON(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	doc := New(sampleReport(), "run-1", created)

	require.NoError(t, doc.WriteJSON(mfs, "/out/stadium/compromise/report.json"))

	var got map[string]interface{}
	require.NoError(t, fsutil.ReadJSON(mfs, "/out/stadium/compromise/report.json", fsutil.MaxJSONSize, &got))
	assert.Equal(t, "stadium", got["track"])
	assert.Equal(t, "compromise", got["method"])
	assert.Equal(t, 0.0875, got["eps"])
	assert.Equal(t, "run-1", got["id"])
	assert.Equal(t, version.Version, got["version"])
	assert.Equal(t, "2024-03-01T11:00:00Z", got["created_at"])
	assert.Equal(t, []interface{}{12.5, nil}, got["velocity"])
	assert.Len(t, got["eps_trace"], 2)
	assert.Len(t, got["positions"], 3)
}

func TestWriteCSV(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	doc := New(sampleReport(), "", time.Now())
	require.NoError(t, doc.WriteCSV(mfs, "/out/samples.csv"))

	data, err := mfs.ReadFile("/out/samples.csv")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"s", "x", "y", "v"},
		{"0", "0", "0", "12.5"},
		{"10", "10", "1", "+Inf"},
	}, rows)
}

func TestRenderHTML(t *testing.T) {
	doc := New(sampleReport(), "", time.Now())
	html, err := doc.RenderHTML()
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Velocity profile")
	assert.Contains(t, page, "Racing line")
	assert.Contains(t, page, "Compromise weight search")
	assert.Contains(t, page, "eps=0.0875")

	// Methods without a weight search leave the trace chart out.
	rep := sampleReport()
	rep.Trace = nil
	rep.Epsilon = nil
	html, err = New(rep, "", time.Now()).RenderHTML()
	require.NoError(t, err)
	assert.NotContains(t, string(html), "Compromise weight search")
}

func TestWriteHTML(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	doc := New(sampleReport(), "", time.Now())
	require.NoError(t, doc.WriteHTML(mfs, "/out/report.html"))
	assert.True(t, mfs.Exists("/out/report.html"))
}

func TestSpeedRange(t *testing.T) {
	doc := New(sampleReport(), "", time.Now())
	lo, hi := doc.speedRange()
	assert.Equal(t, 12.5, lo)
	assert.Equal(t, 12.5, hi)

	rep := sampleReport()
	rep.Velocity = []float64{math.Inf(1)}
	lo, hi = New(rep, "", time.Now()).speedRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}
