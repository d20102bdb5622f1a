// Package report writes the outputs of an optimisation run for people and
// other tools: a JSON document of every output array, a CSV of the sampled
// line, and an HTML page of interactive charts.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/path"
	"github.com/banshee-data/racing-line/internal/trajectory"
	"github.com/banshee-data/racing-line/internal/version"
)

// Number is a float that encodes non-finite values as JSON null. Straights
// with no engine limit have an infinite speed.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func numbers(xs []float64) []Number {
	out := make([]Number, len(xs))
	for i, x := range xs {
		out[i] = Number(x)
	}
	return out
}

// Document is the exported form of a run.
type Document struct {
	*trajectory.Report
	Velocity []Number `json:"velocity"`

	ID        string    `json:"id,omitempty"`
	Version   string    `json:"version"`
	GitSHA    string    `json:"git_sha"`
	CreatedAt time.Time `json:"created_at"`
}

// New wraps rep with build information. The id may be empty.
func New(rep *trajectory.Report, id string, createdAt time.Time) *Document {
	return &Document{
		Report:    rep,
		Velocity:  numbers(rep.Velocity),
		ID:        id,
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		CreatedAt: createdAt.UTC(),
	}
}

// WriteJSON writes the document to name.
func (d *Document) WriteJSON(fsys fsutil.FileSystem, name string) error {
	if err := fsutil.WriteJSON(fsys, name, d); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteCSV writes one row per velocity sample: position along the line,
// coordinates and speed.
func (d *Document) WriteCSV(fsys fsutil.FileSystem, name string) error {
	if err := fsys.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	f, err := fsys.Create(name)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"s", "x", "y", "v"})
	for i, v := range d.Report.Velocity {
		var p path.Point
		if i < len(d.Positions) {
			p = d.Positions[i]
		}
		_ = w.Write([]string{
			formatFloat(d.S[i]),
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(v),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("report: %w", err)
	}
	return f.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
