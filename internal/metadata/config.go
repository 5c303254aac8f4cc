package metadata

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the keyword lists and tolerances of the consistency rules.
type Config struct {
	// EditingSoftware lists lower-case substrings of photo editor names.
	EditingSoftware []string `yaml:"editing_software"`

	// AIIndicators lists lower-case substrings that point at generative tools.
	AIIndicators []string `yaml:"ai_indicators"`

	// MaxDateSkew is the largest tolerated gap between capture and
	// modification timestamps.
	MaxDateSkew time.Duration `yaml:"max_date_skew"`
}

// DefaultConfig returns the stock keyword lists.
func DefaultConfig() Config {
	return Config{
		EditingSoftware: []string{
			"photoshop", "gimp", "affinity", "lightroom",
			"paint.net", "pixlr", "canva", "adobe",
			"facetune", "snapseed", "vsco",
		},
		AIIndicators: []string{
			"midjourney", "stable diffusion", "dall-e", "dalle",
			"ai", "generated", "synthetic", "gan",
		},
		MaxDateSkew: 60 * time.Second,
	}
}

// Validate checks the configuration for values the analyzer cannot use.
func (c Config) Validate() error {
	var errs []string

	if c.MaxDateSkew < 0 {
		errs = append(errs, fmt.Sprintf("max_date_skew must not be negative: %s", c.MaxDateSkew))
	}
	for _, kw := range c.EditingSoftware {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, "editing_software contains an empty keyword")
			break
		}
	}
	for _, kw := range c.AIIndicators {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, "ai_indicators contains an empty keyword")
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("metadata config: %s", strings.Join(errs, "; "))
	}
	return nil
}
