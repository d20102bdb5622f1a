package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string    `json:"name"`
	Value []float64 `json:"value"`
}

func TestReadJSON(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in/good.json", []byte(`{"name":"a","value":[1,2]}`), 0644))
	require.NoError(t, mfs.WriteFile("/in/unknown.json", []byte(`{"name":"a","extra":1}`), 0644))
	require.NoError(t, mfs.WriteFile("/in/broken.json", []byte(`{"name":`), 0644))
	require.NoError(t, mfs.WriteFile("/in/data.txt", []byte(`{}`), 0644))

	var got sample
	require.NoError(t, ReadJSON(mfs, "/in/good.json", MaxJSONSize, &got))
	assert.Equal(t, sample{Name: "a", Value: []float64{1, 2}}, got)

	var lenient sample
	require.NoError(t, ReadJSON(mfs, "/in/unknown.json", MaxJSONSize, &lenient))
	assert.Error(t, ReadJSONStrict(mfs, "/in/unknown.json", MaxJSONSize, &lenient))

	testCases := []struct {
		name    string
		path    string
		maxSize int64
	}{
		{"malformed", "/in/broken.json", MaxJSONSize},
		{"wrong_extension", "/in/data.txt", MaxJSONSize},
		{"missing", "/in/missing.json", MaxJSONSize},
		{"too_large", "/in/good.json", 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var v sample
			assert.Error(t, ReadJSON(mfs, tc.path, tc.maxSize, &v))
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	mfs := NewMemoryFileSystem()
	in := sample{Name: "out", Value: []float64{0.5}}
	require.NoError(t, WriteJSON(mfs, "/out/nested/result.json", in))
	assert.True(t, mfs.Exists("/out/nested"))
	assert.True(t, mfs.Exists("/out"))

	var back sample
	require.NoError(t, ReadJSON(mfs, "/out/nested/result.json", MaxJSONSize, &back))
	assert.Equal(t, in, back)
}

func TestMemoryFileSystem_CreateAndStat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	w, err := mfs.Create("/plots/a.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := mfs.Stat("/plots/a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	assert.False(t, info.IsDir())

	data, err := mfs.ReadFile("/plots/a.png")
	require.NoError(t, err)
	data[0] = 'x'
	again, _ := mfs.ReadFile("/plots/a.png")
	assert.Equal(t, "png", string(again), "ReadFile must return a copy")

	_, err = mfs.Stat("/nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := t.TempDir()
	name := filepath.Join(dir, "sub", "v.json")

	require.NoError(t, WriteJSON(fsys, name, sample{Name: "disk"}))
	assert.True(t, fsys.Exists(name))
	assert.False(t, fsys.Exists(filepath.Join(dir, "absent.json")))

	var got sample
	require.NoError(t, ReadJSON(fsys, name, MaxJSONSize, &got))
	assert.Equal(t, "disk", got.Name)
}
