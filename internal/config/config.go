// Package config handles tool configuration and the .contraline
// directory structure. Every project that previews dances gets a
// .contraline/ folder created in its root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kingrea/contraline/internal/check"
	"github.com/kingrea/contraline/internal/relate"
)

const (
	// AppDir is the name of the directory we create in each project.
	AppDir = ".contraline"

	configFile = "config.toml"
)

const defaultConfigTOML = `# contraline configuration

[engine]
# Sub-step resolution of generated timelines, in beats per keyframe.
beats_per_step = 0.25

[search]
# Directional relationship search. These are tuned heuristics, not
# invariants; change them only to taste.
bias_degrees = 70.0
off_axis_cutoff = 0.1
window = 2

[checks]
max_hand_reach = 1.5
min_separation = 0.25
max_spin_rate_degrees = 270.0
progression_tolerance = 0.1
`

// Engine tunes timeline generation.
type Engine struct {
	BeatsPerStep float64 `toml:"beats_per_step"`
}

// Search tunes the directional relationship search.
type Search struct {
	BiasDegrees   float64 `toml:"bias_degrees"`
	OffAxisCutoff float64 `toml:"off_axis_cutoff"`
	Window        int     `toml:"window"`
}

// Checks tunes the timeline validator thresholds.
type Checks struct {
	MaxHandReach       float64 `toml:"max_hand_reach"`
	MinSeparation      float64 `toml:"min_separation"`
	MaxSpinRateDegrees float64 `toml:"max_spin_rate_degrees"`
	ProgressionTol     float64 `toml:"progression_tolerance"`
}

// Config models .contraline/config.toml.
type Config struct {
	Engine Engine `toml:"engine"`
	Search Search `toml:"search"`
	Checks Checks `toml:"checks"`
}

// Default returns the stock configuration, identical to what Init
// writes on first run.
func Default() Config {
	return Config{
		Engine: Engine{BeatsPerStep: 0.25},
		Search: Search{BiasDegrees: 70, OffAxisCutoff: 0.1, Window: 2},
		Checks: Checks{
			MaxHandReach:       1.5,
			MinSeparation:      0.25,
			MaxSpinRateDegrees: 270,
			ProgressionTol:     0.1,
		},
	}
}

// Tuning converts the search section to resolver tuning.
func (c Config) Tuning() relate.Tuning {
	return relate.Tuning{
		BiasAngle:     c.Search.BiasDegrees * degToRad,
		OffAxisCutoff: c.Search.OffAxisCutoff,
		Window:        c.Search.Window,
	}
}

// Limits converts the checks section to validator limits.
func (c Config) Limits() check.Limits {
	return check.Limits{
		MaxHandReach:   c.Checks.MaxHandReach,
		MinSeparation:  c.Checks.MinSeparation,
		MaxSpinRate:    c.Checks.MaxSpinRateDegrees * degToRad,
		ProgressionTol: c.Checks.ProgressionTol,
	}
}

const degToRad = math.Pi / 180

// Path returns the config file location for a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, AppDir, configFile)
}

// Init creates the .contraline directory structure and writes the
// default config file if one does not exist yet.
func Init(projectDir string) error {
	appDir := filepath.Join(projectDir, AppDir)
	for _, dir := range []string{
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "out"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	path := Path(projectDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}

// Load reads the project config, falling back to the defaults when no
// file exists. Keys absent from the file keep their default values.
func Load(projectDir string) (Config, error) {
	cfg := Default()
	path := Path(projectDir)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Engine.BeatsPerStep <= 0 {
		return fmt.Errorf("engine.beats_per_step must be > 0")
	}
	if c.Search.Window < 1 {
		return fmt.Errorf("search.window must be >= 1")
	}
	if c.Checks.MaxHandReach <= 0 || c.Checks.MinSeparation < 0 {
		return fmt.Errorf("checks thresholds must be positive")
	}
	return nil
}
