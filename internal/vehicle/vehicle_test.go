package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/monitoring"
)

func testSpec() Spec {
	return Spec{
		Name:      "kart",
		Mass:      200,
		Friction:  1.2,
		EngineMap: EngineMap{V: []float64{0, 10, 30}, F: []float64{2000, 1500, 500}},
	}
}

func TestNewValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Spec)
		want   error
	}{
		{"zero_mass", func(s *Spec) { s.Mass = 0 }, ErrInvalidVehicle},
		{"negative_friction", func(s *Spec) { s.Friction = -1 }, ErrInvalidVehicle},
		{"nan_mass", func(s *Spec) { s.Mass = math.NaN() }, ErrInvalidVehicle},
		{"empty_map", func(s *Spec) { s.EngineMap = EngineMap{} }, ErrInvalidEngineMap},
		{"length_mismatch", func(s *Spec) { s.EngineMap.F = s.EngineMap.F[:2] }, ErrInvalidEngineMap},
		{"unsorted", func(s *Spec) { s.EngineMap.V = []float64{0, 30, 10} }, ErrInvalidEngineMap},
		{"negative_force", func(s *Spec) { s.EngineMap.F[1] = -5 }, ErrInvalidEngineMap},
		{"partial_inf", func(s *Spec) { s.EngineMap.F[0] = math.Inf(1) }, ErrInvalidEngineMap},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := testSpec()
			tc.mutate(&spec)
			_, err := New(spec)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEngineForceInterpolatesAndClamps(t *testing.T) {
	v, err := New(testSpec())
	require.NoError(t, err)

	assert.InDelta(t, 2000, v.EngineForce(-5), 1e-12)
	assert.InDelta(t, 1750, v.EngineForce(5), 1e-12)
	assert.InDelta(t, 1000, v.EngineForce(20), 1e-12)
	assert.InDelta(t, 500, v.EngineForce(30), 1e-12)
	assert.InDelta(t, 500, v.EngineForce(100), 1e-12)
}

func TestUnlimitedEngine(t *testing.T) {
	v, err := New(Spec{Name: "rocket", Mass: 1, Friction: 1,
		EngineMap: EngineMap{V: []float64{0, 100}, F: []float64{math.Inf(1), math.Inf(1)}}})
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.EngineForce(50), 1))

	single, err := New(Spec{Name: "single", Mass: 1, Friction: 1,
		EngineMap: EngineMap{V: []float64{10}, F: []float64{300}}})
	require.NoError(t, err)
	assert.Equal(t, 300.0, single.EngineForce(0))
	assert.Equal(t, 300.0, single.EngineForce(99))
}

func TestTraction(t *testing.T) {
	v, err := New(testSpec())
	require.NoError(t, err)
	grip := 1.2 * 200 * Gravity

	assert.InDelta(t, grip, v.Traction(30, 0), 1e-9, "straight line leaves the whole friction circle")

	fLat := 200.0 * 10 * 10 * 0.05
	assert.InDelta(t, math.Sqrt(grip*grip-fLat*fLat), v.Traction(10, 0.05), 1e-9)

	// At or beyond the cornering limit no longitudinal force remains.
	limit := v.CorneringLimit(0.05)
	assert.Equal(t, 0.0, v.Traction(limit*1.01, 0.05))
	assert.InDelta(t, 0, v.Traction(limit, 0.05), 1e-6)
}

func TestCorneringLimit(t *testing.T) {
	v, err := New(testSpec())
	require.NoError(t, err)
	assert.True(t, math.IsInf(v.CorneringLimit(0), 1))
	assert.InDelta(t, math.Sqrt(1.2*Gravity/0.02), v.CorneringLimit(0.02), 1e-12)
}

func TestTopSpeed(t *testing.T) {
	testCases := []struct {
		name string
		em   EngineMap
		want float64
	}{
		{"last_mapped", EngineMap{V: []float64{0, 10, 30}, F: []float64{2000, 1500, 500}}, 30},
		{"zero_at_end", EngineMap{V: []float64{0, 20, 40}, F: []float64{4000, 3000, 0}}, 40},
		{"crosses_zero", EngineMap{V: []float64{0, 20, 40, 60}, F: []float64{4000, 2000, 0, 0}}, 40},
		{"unlimited", EngineMap{V: []float64{0, 100}, F: []float64{math.Inf(1), math.Inf(1)}}, math.Inf(1)},
		{"single_point", EngineMap{V: []float64{10}, F: []float64{300}}, math.Inf(1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := New(Spec{Name: tc.name, Mass: 1, Friction: 1, EngineMap: tc.em})
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.TopSpeed())
		})
	}
}

func TestLoad(t *testing.T) {
	monitoring.SetLogger(nil)
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/data/kart.json", []byte(`{
		"name": "kart",
		"mass": 200,
		"frictionCoefficient": 1.2,
		"engineMap": {"v": [0, 10, 30], "f": [2000, 1500, 500]}
	}`), 0644))
	require.NoError(t, mfs.WriteFile("/data/bad.json", []byte(`{"name":"x","mass":0,"frictionCoefficient":1,"engineMap":{"v":[0],"f":[1]}}`), 0644))

	v, err := Load(mfs, "/data/kart.json")
	require.NoError(t, err)
	assert.Equal(t, "kart", v.Name())
	assert.Equal(t, testSpec(), v.Spec())

	_, err = Load(mfs, "/data/bad.json")
	assert.ErrorIs(t, err, ErrInvalidVehicle)

	_, err = Load(mfs, "/data/missing.json")
	assert.Error(t, err)
}
