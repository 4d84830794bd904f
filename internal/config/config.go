// Package config loads the TOML configuration used by the CLI shell,
// in the same decode-onto-defaults style as the teacher's config.go.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// LocatorConfig mirrors internal/locate.Options' tunables (spec §6's
// LocatorOptions), exposed as TOML so a deployment can retune placement
// without a rebuild.
type LocatorConfig struct {
	// WorkingDPI is advisory only: the CLI does not pass it on, the
	// coordinator uses the adaptive per-page-count DPI from its tuning
	// table, and LocateStamp always runs at the raster's own DPI.
	WorkingDPI        int     `toml:"working_dpi"`
	AcceptableOverlap float64 `toml:"acceptable_overlap"`
	FallbackOverlap   float64 `toml:"fallback_overlap"`
	Margin            int     `toml:"margin"`
	PreferCorners     bool    `toml:"prefer_corners"`
}

// StampConfig configures the composited stamp image and caption.
type StampConfig struct {
	ImagePath     string  `toml:"image_path"`
	FontPath      string  `toml:"font_path"`
	CaptionSizePx float64 `toml:"caption_size_px"`
	Prefix        string  `toml:"prefix"`
	DocumentIndex int     `toml:"document_index"`
}

// CoordinatorConfig configures the page coordinator's worker pool and
// memory budget (spec §5).
type CoordinatorConfig struct {
	MaxMemoryBytes int64 `toml:"max_memory_bytes"`
}

// WatchConfig configures watch-mode input/output directories, mirroring
// the teacher's WatchConfig but generalized to plain PDF inputs.
type WatchConfig struct {
	InputDir     string `toml:"input_dir"`
	OutputDir    string `toml:"output_dir"`
	PollInterval int    `toml:"poll_interval"` // seconds, 0 = default (5s)
}

func (w WatchConfig) PollDuration() time.Duration {
	if w.PollInterval > 0 {
		return time.Duration(w.PollInterval) * time.Second
	}
	return 5 * time.Second
}

type Config struct {
	Locator     LocatorConfig     `toml:"locator"`
	Stamp       StampConfig       `toml:"stamp"`
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Watch       WatchConfig       `toml:"watch"`
}

func defaultConfig() *Config {
	return &Config{
		Locator: LocatorConfig{
			WorkingDPI:        200,
			AcceptableOverlap: 0.02,
			FallbackOverlap:   0.10,
			Margin:            40,
			PreferCorners:     true,
		},
		Stamp: StampConfig{
			CaptionSizePx: 18,
			Prefix:        "A",
		},
		Coordinator: CoordinatorConfig{
			MaxMemoryBytes: 1 << 30, // 1 GiB
		},
		Watch: WatchConfig{
			PollInterval: 5,
		},
	}
}

// Load reads a TOML config file, falling back to defaults when it does
// not exist (the teacher's LoadConfig does the same for a missing
// config at the default path).
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
