package ela

import (
	"fmt"
	"strings"
)

// Overall scores, higher meaning less likely manipulated.
const (
	ScoreHigh   = 30
	ScoreMedium = 60
	ScoreLow    = 85
)

// Config holds the tunable constants of error level analysis.
type Config struct {
	// Quality of the reference JPEG re-encoding, in (0, 1].
	Quality float64 `yaml:"quality"`

	// Amplification applied to the normalised difference in the heatmap.
	Amplification float64 `yaml:"amplification"`

	// GridSize is the side of the square cells scanned for suspicious zones.
	GridSize int `yaml:"grid_size"`

	// ZoneThreshold: a cell is suspicious when its mean difference exceeds
	// ZoneThreshold * maximum difference.
	ZoneThreshold float64 `yaml:"zone_threshold"`

	// MaxZones caps the number of reported zones.
	MaxZones int `yaml:"max_zones"`

	// OutlierFactor: a pixel is a high-difference pixel when its difference
	// exceeds OutlierFactor * mean difference.
	OutlierFactor float64 `yaml:"outlier_factor"`

	// HighRatio and MediumRatio bound the share of high-difference pixels
	// for the 30 and 60 scores.
	HighRatio   float64 `yaml:"high_ratio"`
	MediumRatio float64 `yaml:"medium_ratio"`
}

// DefaultConfig returns the calibrated constants.
func DefaultConfig() Config {
	return Config{
		Quality:       0.95,
		Amplification: 3,
		GridSize:      32,
		ZoneThreshold: 0.4,
		MaxZones:      10,
		OutlierFactor: 2,
		HighRatio:     0.15,
		MediumRatio:   0.08,
	}
}

// Validate checks the configuration for values the analyzer cannot use.
func (c Config) Validate() error {
	var errs []string

	if c.Quality <= 0 || c.Quality > 1 {
		errs = append(errs, fmt.Sprintf("quality out of range: %g (must be in (0,1])", c.Quality))
	}
	if c.Amplification <= 0 {
		errs = append(errs, fmt.Sprintf("amplification must be positive: %g", c.Amplification))
	}
	if c.GridSize < 1 {
		errs = append(errs, fmt.Sprintf("grid_size must be positive: %d", c.GridSize))
	}
	if c.ZoneThreshold < 0 || c.ZoneThreshold > 1 {
		errs = append(errs, fmt.Sprintf("zone_threshold out of range: %g (must be in [0,1])", c.ZoneThreshold))
	}
	if c.MaxZones < 0 {
		errs = append(errs, fmt.Sprintf("max_zones must not be negative: %d", c.MaxZones))
	}
	if c.MediumRatio > c.HighRatio {
		errs = append(errs, fmt.Sprintf("medium_ratio %g must not exceed high_ratio %g", c.MediumRatio, c.HighRatio))
	}

	if len(errs) > 0 {
		return fmt.Errorf("ela config: %s", strings.Join(errs, "; "))
	}
	return nil
}
