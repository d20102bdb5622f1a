package config

import (
	"fmt"
	"runtime"

	"github.com/banshee-data/racing-line/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/racingline.defaults.json"

// maxFileSize caps config files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// RunConfig holds the tunable parameters of an optimisation run. Fields are
// pointers so that omitted values fall back to the Get* defaults.
type RunConfig struct {
	// Corner detection
	KMin      *float64 `json:"k_min,omitempty"`
	Proximity *float64 `json:"proximity,omitempty"`
	Length    *float64 `json:"length,omitempty"`

	// Compromise search
	EpsMin        *float64 `json:"eps_min,omitempty"`
	EpsMax        *float64 `json:"eps_max,omitempty"`
	EstimateScale *float64 `json:"estimate_scale,omitempty"`

	// Sampling and speed
	SampleSpacing *float64 `json:"sample_spacing,omitempty"`
	EntrySpeed    *float64 `json:"entry_speed,omitempty"` // open tracks only; unset for a flying start

	// Minimiser
	MaxIterations      *int     `json:"max_iterations,omitempty"`
	GradientThreshold  *float64 `json:"gradient_threshold,omitempty"`
	ConcurrentGradient *bool    `json:"concurrent_gradient,omitempty"`

	// Sector fan-out
	Workers *int `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyRunConfig returns a RunConfig with every field unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field set to its default.
func DefaultRunConfig() *RunConfig {
	c := EmptyRunConfig()
	return &RunConfig{
		KMin:               ptrFloat64(c.GetKMin()),
		Proximity:          ptrFloat64(c.GetProximity()),
		Length:             ptrFloat64(c.GetLength()),
		EpsMin:             ptrFloat64(c.GetEpsMin()),
		EpsMax:             ptrFloat64(c.GetEpsMax()),
		EstimateScale:      ptrFloat64(c.GetEstimateScale()),
		SampleSpacing:      ptrFloat64(c.GetSampleSpacing()),
		MaxIterations:      ptrInt(c.GetMaxIterations()),
		GradientThreshold:  ptrFloat64(c.GetGradientThreshold()),
		ConcurrentGradient: ptrBool(c.GetConcurrentGradient()),
		Workers:            ptrInt(c.GetWorkers()),
	}
}

// LoadRunConfig loads a RunConfig from a JSON file. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func LoadRunConfig(fsys fsutil.FileSystem, path string) (*RunConfig, error) {
	cfg := EmptyRunConfig()
	if err := fsutil.ReadJSONStrict(fsys, path, maxFileSize, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upwards from the working directory. Intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(fsutil.OSFileSystem{}, path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *RunConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"k_min", c.KMin},
		{"proximity", c.Proximity},
		{"length", c.Length},
		{"sample_spacing", c.SampleSpacing},
		{"entry_speed", c.EntrySpeed},
	}
	for _, p := range positive {
		if p.v != nil && !(*p.v > 0) {
			return fmt.Errorf("%s must be positive, got %v", p.name, *p.v)
		}
	}

	lo, hi := c.GetEpsMin(), c.GetEpsMax()
	if lo < 0 || hi > 1 || lo > hi {
		return fmt.Errorf("eps range must satisfy 0 <= eps_min <= eps_max <= 1, got [%v, %v]", lo, hi)
	}
	if c.EstimateScale != nil && *c.EstimateScale < 0 {
		return fmt.Errorf("estimate_scale must be non-negative, got %v", *c.EstimateScale)
	}
	if c.MaxIterations != nil && *c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", *c.MaxIterations)
	}
	if c.GradientThreshold != nil && *c.GradientThreshold < 0 {
		return fmt.Errorf("gradient_threshold must be non-negative, got %v", *c.GradientThreshold)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetKMin returns the k_min value or the default.
func (c *RunConfig) GetKMin() float64 {
	if c.KMin == nil {
		return 0.03
	}
	return *c.KMin
}

// GetProximity returns the proximity value or the default.
func (c *RunConfig) GetProximity() float64 {
	if c.Proximity == nil {
		return 40
	}
	return *c.Proximity
}

// GetLength returns the length value or the default.
func (c *RunConfig) GetLength() float64 {
	if c.Length == nil {
		return 10
	}
	return *c.Length
}

// GetEpsMin returns the eps_min value or the default.
func (c *RunConfig) GetEpsMin() float64 {
	if c.EpsMin == nil {
		return 0
	}
	return *c.EpsMin
}

// GetEpsMax returns the eps_max value or the default.
func (c *RunConfig) GetEpsMax() float64 {
	if c.EpsMax == nil {
		return 0.2
	}
	return *c.EpsMax
}

// GetEstimateScale returns the estimate_scale value or the default.
func (c *RunConfig) GetEstimateScale() float64 {
	if c.EstimateScale == nil {
		return 0.406
	}
	return *c.EstimateScale
}

// GetSampleSpacing returns the sample_spacing value or the default.
func (c *RunConfig) GetSampleSpacing() float64 {
	if c.SampleSpacing == nil {
		return 1.0
	}
	return *c.SampleSpacing
}

// GetEntrySpeed returns the entry_speed value, or nil for a flying start.
func (c *RunConfig) GetEntrySpeed() *float64 {
	if c.EntrySpeed == nil {
		return nil
	}
	v := *c.EntrySpeed
	return &v
}

// GetMaxIterations returns the max_iterations value or the default (0, no cap).
func (c *RunConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 0
	}
	return *c.MaxIterations
}

// GetGradientThreshold returns the gradient_threshold value or the default.
func (c *RunConfig) GetGradientThreshold() float64 {
	if c.GradientThreshold == nil {
		return 1e-6
	}
	return *c.GradientThreshold
}

// GetConcurrentGradient returns the concurrent_gradient value or the default.
func (c *RunConfig) GetConcurrentGradient() bool {
	if c.ConcurrentGradient == nil {
		return false
	}
	return *c.ConcurrentGradient
}

// GetWorkers returns the workers value, defaulting to one less than the
// number of CPUs. Zero also selects the default. The result is at least 1.
func (c *RunConfig) GetWorkers() int {
	if c.Workers != nil && *c.Workers > 0 {
		return *c.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}
