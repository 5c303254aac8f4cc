package spectral

import (
	"fmt"
	"strings"
)

// Config holds the tunable constants of the frequency-domain check.
// The defaults reproduce the calibrated values; change them only together
// with a fresh calibration.
type Config struct {
	// WorkingSize is the side of the square grid the transform runs on.
	WorkingSize int `yaml:"working_size"`

	// HighFrequencyRadius is the distance from DC, as a fraction of
	// WorkingSize, beyond which energy counts as high frequency.
	HighFrequencyRadius float64 `yaml:"high_frequency_radius"`

	// AICutoff: a high-frequency ratio below this flags the image.
	AICutoff float64 `yaml:"ai_cutoff"`

	// HighProbabilityCutoff and LikelyRealCutoff bound the narrative tiers.
	HighProbabilityCutoff float64 `yaml:"high_probability_cutoff"`
	LikelyRealCutoff      float64 `yaml:"likely_real_cutoff"`

	// ConfidenceScale converts the distance from AICutoff into a confidence.
	ConfidenceScale float64 `yaml:"confidence_scale"`

	// RadialBands is the number of concentric bands of the radial profile.
	RadialBands int `yaml:"radial_bands"`

	// ExpectedDecay is the assumed band-to-band decay of a natural spectrum.
	ExpectedDecay float64 `yaml:"expected_decay"`

	// AnomalyThreshold: anomalies above it are called out in the details.
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
}

// DefaultConfig returns the calibrated constants.
func DefaultConfig() Config {
	return Config{
		WorkingSize:           256,
		HighFrequencyRadius:   0.25,
		AICutoff:              0.15,
		HighProbabilityCutoff: 0.12,
		LikelyRealCutoff:      0.20,
		ConfidenceScale:       5,
		RadialBands:           50,
		ExpectedDecay:         0.95,
		AnomalyThreshold:      0.3,
	}
}

// Validate checks the configuration for values the analyzer cannot use.
func (c Config) Validate() error {
	var errs []string

	if c.WorkingSize < 8 {
		errs = append(errs, fmt.Sprintf("working_size too small: %d (minimum 8)", c.WorkingSize))
	}
	if c.HighFrequencyRadius <= 0 || c.HighFrequencyRadius >= 1 {
		errs = append(errs, fmt.Sprintf("high_frequency_radius out of range: %g (must be in (0,1))", c.HighFrequencyRadius))
	}
	if !(c.HighProbabilityCutoff <= c.AICutoff && c.AICutoff <= c.LikelyRealCutoff) {
		errs = append(errs, fmt.Sprintf("tier cutoffs must be ordered: %g <= %g <= %g",
			c.HighProbabilityCutoff, c.AICutoff, c.LikelyRealCutoff))
	}
	if c.ConfidenceScale <= 0 {
		errs = append(errs, fmt.Sprintf("confidence_scale must be positive: %g", c.ConfidenceScale))
	}
	if c.RadialBands < 3 {
		errs = append(errs, fmt.Sprintf("radial_bands too small: %d (minimum 3)", c.RadialBands))
	}
	if c.ExpectedDecay <= 0 {
		errs = append(errs, fmt.Sprintf("expected_decay must be positive: %g", c.ExpectedDecay))
	}

	if len(errs) > 0 {
		return fmt.Errorf("spectral config: %s", strings.Join(errs, "; "))
	}
	return nil
}
