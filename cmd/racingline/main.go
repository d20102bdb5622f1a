// Command racingline generates a racing line and velocity profile for a track
// and vehicle, then reports the lap time.
//
//	racingline [flags] <track.json> <vehicle.json>
//	racingline runs -db runs.db [-track name] [-limit n]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/racing-line/internal/config"
	"github.com/banshee-data/racing-line/internal/db"
	"github.com/banshee-data/racing-line/internal/fsutil"
	"github.com/banshee-data/racing-line/internal/monitoring"
	"github.com/banshee-data/racing-line/internal/plot"
	"github.com/banshee-data/racing-line/internal/report"
	"github.com/banshee-data/racing-line/internal/security"
	"github.com/banshee-data/racing-line/internal/track"
	"github.com/banshee-data/racing-line/internal/trajectory"
	"github.com/banshee-data/racing-line/internal/units"
	"github.com/banshee-data/racing-line/internal/vehicle"
	"github.com/banshee-data/racing-line/internal/version"
)

var errUsage = errors.New("usage")

type options struct {
	method     string
	configPath string
	out        string
	format     string
	dbPath     string
	report     bool
	units      string

	plotCorners    bool
	plotPath       bool
	plotTrajectory bool
	plotAll        bool

	trackPath   string
	vehiclePath string
}

func parseFlags(args []string, stderr io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("racingline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.method, "method", trajectory.MethodCompromise.String(), "Optimisation method: curvature, compromise, laptime, sectors or estimated")
	fs.StringVar(&opts.configPath, "config", "", "Path to a run configuration JSON file (defaults apply when empty)")
	fs.StringVar(&opts.out, "out", "data/plots", "Output directory for plots and reports")
	fs.StringVar(&opts.format, "plot-format", "png", "Plot file format: png, svg, pdf, eps, jpg or tiff")
	fs.StringVar(&opts.dbPath, "db", "", "Record the run in this SQLite database")
	fs.StringVar(&opts.units, "units", string(units.KPH), "Speed units for printed results: mps, kph or mph")
	fs.BoolVar(&opts.report, "report", false, "Write report.json, report.html and samples.csv")
	fs.BoolVar(&opts.plotCorners, "plot-corners", false, "Plot corners detected on the centreline")
	fs.BoolVar(&opts.plotPath, "plot-path", false, "Plot the racing line and its control points")
	fs.BoolVar(&opts.plotTrajectory, "plot-trajectory", false, "Plot the racing line coloured by speed")
	fs.BoolVar(&opts.plotAll, "plot-all", false, "Enable every plot")
	showVersion := fs.Bool("version", false, "Print version information and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: racingline [flags] <track.json> <vehicle.json>\n       racingline runs -db <path> [-track name] [-limit n]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if *showVersion {
		return opts, true, nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, false, errUsage
	}
	opts.trackPath, opts.vehiclePath = fs.Arg(0), fs.Arg(1)
	if opts.plotAll {
		opts.plotCorners, opts.plotPath, opts.plotTrajectory = true, true, true
	}
	return opts, false, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem) error {
	if len(args) > 0 && args[0] == "runs" {
		return listRuns(ctx, args[1:], stdout, stderr)
	}

	opts, showVersion, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	method, err := trajectory.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	unit, err := units.Parse(opts.units)
	if err != nil {
		return err
	}
	cfg := config.EmptyRunConfig()
	if opts.configPath != "" {
		if cfg, err = config.LoadRunConfig(fsys, opts.configPath); err != nil {
			return err
		}
	}

	t, err := track.Load(fsys, opts.trackPath)
	if err != nil {
		return err
	}
	v, err := vehicle.Load(fsys, opts.vehiclePath)
	if err != nil {
		return err
	}

	dir, err := security.JoinWithin(opts.out, t.Name(), method.String())
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	o := trajectory.New(t, v, trajectory.WithConfig(cfg))
	rep, err := o.Run(ctx, method)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "=== Results ===")
	fmt.Fprintf(stdout, "Lap time = %.3fs\n", rep.LapTime)
	fmt.Fprintf(stdout, "Run time = %.3fs\n", rep.RunTime)
	if rep.Epsilon != nil {
		fmt.Fprintf(stdout, "Epsilon  = %.4f\n", *rep.Epsilon)
	}
	printSpeeds(stdout, rep.Velocity, unit)
	if !rep.Converged {
		fmt.Fprintf(stdout, "Status   = %s (not converged)\n", rep.Status)
	}

	if err := writePlots(o, rep, opts, dir, fsys); err != nil {
		return err
	}

	doc := report.New(rep, uuid.NewString(), time.Now())
	if opts.report {
		if err := writeReport(doc, dir, fsys); err != nil {
			return err
		}
	}
	if opts.dbPath != "" {
		store, err := db.NewDB(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.RecordRun(ctx, doc); err != nil {
			return err
		}
		if best, err := store.BestRun(ctx, rep.Track, rep.Vehicle); err == nil && best.ID != doc.ID {
			fmt.Fprintf(stdout, "Best     = %.3fs (%s, %s)\n", best.LapTime, best.Method, best.CreatedAt.Format(time.RFC3339))
		}
	}
	return nil
}

// printSpeeds prints the slowest and fastest finite speeds. Straights with
// no engine limit have an infinite speed.
func printSpeeds(w io.Writer, v []float64, u units.Unit) {
	lo, hi := math.Inf(1), math.Inf(-1)
	unlimited := false
	for _, x := range v {
		if math.IsInf(x, 1) {
			unlimited = true
			continue
		}
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	if lo > hi {
		fmt.Fprintln(w, "Speed    = unlimited")
		return
	}
	fmt.Fprintf(w, "Speed    = %.1f to %.1f %s", u.Convert(lo), u.Convert(hi), u.Label())
	if unlimited {
		fmt.Fprint(w, " (unlimited in places)")
	}
	fmt.Fprintln(w)
}

func writePlots(o *trajectory.Optimiser, rep *trajectory.Report, opts *options, dir string, fsys fsutil.FileSystem) error {
	name := func(base string) string { return filepath.Join(dir, base+"."+opts.format) }

	if opts.plotCorners {
		mid, err := o.Centreline()
		if err != nil {
			return err
		}
		if _, mask, err := o.Corners(mid); err != nil {
			monitoring.Warnf("skipping corner plot: %v", err)
		} else if err := plot.Corners(fsys, name("corners"), rep.Left, rep.Right, mid.Path.Position(mid.S), mask); err != nil {
			return err
		}
	}
	if opts.plotPath {
		if err := plot.Path(fsys, name("path"), rep.Left, rep.Right, rep.Positions, rep.Controls); err != nil {
			return err
		}
	}
	if opts.plotTrajectory {
		if err := plot.Trajectory(fsys, name("trajectory"), rep.Left, rep.Right, rep.Positions, rep.Velocity); err != nil {
			return err
		}
		if len(rep.Trace) > 0 {
			if err := plot.EpsilonTrace(fsys, name("epsilon"), rep.Trace); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReport(doc *report.Document, dir string, fsys fsutil.FileSystem) error {
	if err := doc.WriteJSON(fsys, filepath.Join(dir, "report.json")); err != nil {
		return err
	}
	if err := doc.WriteHTML(fsys, filepath.Join(dir, "report.html")); err != nil {
		return err
	}
	return doc.WriteCSV(fsys, filepath.Join(dir, "samples.csv"))
}

func listRuns(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "SQLite database of recorded runs")
	trackName := fs.String("track", "", "Only show runs on this track")
	limit := fs.Int("limit", 20, "Maximum number of runs to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return errUsage
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	runs, err := store.ListRuns(ctx, db.RunFilter{Track: *trackName, Limit: *limit})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRACK\tVEHICLE\tMETHOD\tLAP (s)\tEPS\tCREATED")
	for _, r := range runs {
		eps := "-"
		if r.Epsilon != nil {
			eps = fmt.Sprintf("%.4f", *r.Epsilon)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3f\t%s\t%s\n",
			r.ID, r.Track, r.Vehicle, r.Method, r.LapTime, eps, r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{})
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Printf("racingline: %v", err)
		stop()
		os.Exit(1)
	}
}
