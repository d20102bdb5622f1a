package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/security"
	"github.com/banshee-data/racing-line/internal/testutil"
	"github.com/banshee-data/racing-line/internal/track"
	"github.com/banshee-data/racing-line/internal/units"
	"github.com/banshee-data/racing-line/internal/vehicle"
	"github.com/banshee-data/racing-line/internal/version"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// setupInputs writes a circular track, a vehicle and a fast run
// configuration into a memory filesystem.
func setupInputs(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()

	left, right := testutil.Circle(50, 10, 16)
	tr, err := track.New("circle", left, right)
	require.NoError(t, err)
	require.NoError(t, fsutil.WriteJSON(mfs, "/in/circle.json", tr.Spec()))

	require.NoError(t, fsutil.WriteJSON(mfs, "/in/racer.json", vehicle.Spec{
		Name: "racer", Mass: 750, Friction: 1.3,
		EngineMap: vehicle.EngineMap{
			V: []float64{0, 20, 40, 60},
			F: []float64{9000, 8000, 6000, 3000},
		},
	}))
	require.NoError(t, mfs.WriteFile("/in/quick.json", []byte(`{"max_iterations": 2, "sample_spacing": 2}`), 0644))
	return mfs
}

func TestRunCurvature(t *testing.T) {
	mfs := setupInputs(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-method", "curvature",
		"-config", "/in/quick.json",
		"-out", "/out",
		"-plot-all", "-plot-format", "svg",
		"-report",
		"-db", dbPath,
		"/in/circle.json", "/in/racer.json",
	}, &stdout, &stderr, mfs)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "=== Results ===")
	assert.Contains(t, out, "Lap time = ")
	assert.Contains(t, out, "Run time = ")
	assert.NotContains(t, out, "Epsilon", "curvature runs have no weight")
	assert.Contains(t, out, " km/h")

	dir := "/out/circle/curvature"
	for _, name := range []string{"path.svg", "trajectory.svg", "report.json", "report.html", "samples.csv"} {
		assert.True(t, mfs.Exists(filepath.Join(dir, name)), "missing %s", name)
	}
	// A circle has no straights, so the corner plot is skipped.
	assert.False(t, mfs.Exists(filepath.Join(dir, "corners.svg")))
	assert.False(t, mfs.Exists(filepath.Join(dir, "epsilon.svg")))

	var doc map[string]interface{}
	require.NoError(t, fsutil.ReadJSON(mfs, filepath.Join(dir, "report.json"), fsutil.MaxJSONSize, &doc))
	assert.Equal(t, "curvature", doc["method"])
	assert.NotEmpty(t, doc["id"])

	// The run was recorded under the same id as the report.
	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"runs", "-db", dbPath}, &stdout, &stderr, mfs))
	assert.Contains(t, stdout.String(), doc["id"].(string))
	assert.Contains(t, stdout.String(), "circle")
}

func TestRunEstimated(t *testing.T) {
	mfs := setupInputs(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-method", "estimated", "-config", "/in/quick.json", "-out", "/out",
		"/in/circle.json", "/in/racer.json",
	}, &stdout, &stderr, mfs)
	require.NoError(t, err)
	// The circle is one uniform bend, so the estimated weight is zero.
	assert.Contains(t, stdout.String(), "Epsilon  = 0.0000")
	assert.False(t, mfs.Exists("/out/circle/estimated/report.json"), "reports are opt-in")
}

func TestRunErrors(t *testing.T) {
	mfs := setupInputs(t)
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	err := run(ctx, []string{"/in/circle.json"}, &stdout, &stderr, mfs)
	assert.True(t, errors.Is(err, errUsage))
	assert.Contains(t, stderr.String(), "Usage: racingline")

	err = run(ctx, []string{"-method", "fastest", "/in/circle.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.Error(t, err)

	err = run(ctx, []string{"/in/missing.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.Error(t, err)

	require.NoError(t, mfs.WriteFile("/in/typo.json", []byte(`{"max_iteration": 2}`), 0644))
	err = run(ctx, []string{"-config", "/in/typo.json", "/in/circle.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.Error(t, err, "unknown config keys are rejected")

	err = run(ctx, []string{"-units", "knots", "/in/circle.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.True(t, errors.Is(err, units.ErrUnknownUnit))

	left, right := testutil.Circle(50, 10, 16)
	escape, err := track.New("../escape", left, right)
	require.NoError(t, err)
	require.NoError(t, fsutil.WriteJSON(mfs, "/in/escape.json", escape.Spec()))
	err = run(ctx, []string{"-config", "/in/quick.json", "-method", "curvature", "-out", "/out", "/in/escape.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.True(t, errors.Is(err, security.ErrPathTraversal), "track names cannot leave the output directory")

	err = run(ctx, []string{"runs"}, &stdout, &stderr, mfs)
	assert.True(t, errors.Is(err, errUsage))
}

func TestRunCancelled(t *testing.T) {
	mfs := setupInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-method", "laptime", "/in/circle.json", "/in/racer.json"}, &stdout, &stderr, mfs)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, strings.Contains(stdout.String(), "=== Results ==="))
}

func TestPrintSpeeds(t *testing.T) {
	tests := []struct {
		name string
		v    []float64
		unit units.Unit
		want string
	}{
		{"kph", []float64{10, 20}, units.KPH, "Speed    = 36.0 to 72.0 km/h\n"},
		{"partly unlimited", []float64{10, math.Inf(1)}, units.MPS, "Speed    = 10.0 to 10.0 m/s (unlimited in places)\n"},
		{"all unlimited", []float64{math.Inf(1)}, units.MPH, "Speed    = unlimited\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSpeeds(&buf, tt.v, tt.unit)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestVersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr, fsutil.NewMemoryFileSystem()))
	assert.Equal(t, version.String()+"\n", stdout.String())
}
