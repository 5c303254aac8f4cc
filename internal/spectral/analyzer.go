// Package spectral estimates whether an image's noise spectrum looks like a
// camera sensor or a generative model.
//
// The image is resampled to a fixed square grid, reduced to luminance and
// passed through a separable Fourier magnitude transform. Two statistics are
// read from the centred spectrum:
//
//   - the high-frequency energy ratio: generative models under-produce true
//     sensor noise, so little energy far from DC is suspicious
//   - the spectral anomaly: the mean deviation of the radial profile from a
//     steady decay
//
// Both are cheap, explainable heuristics rather than a certainty measure.
package spectral

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/humanmark/forensics/internal/imaging"
)

// Result is the frequency-domain report for one image.
type Result struct {
	HighFrequencyRatio float64 `json:"highFrequencyRatio"`
	SpectralAnomaly    float64 `json:"spectralAnomaly"`
	IsAIGenerated      bool    `json:"isAiGenerated"`
	Confidence         float64 `json:"confidence"`
	Details            string  `json:"details"`
}

// Tier is the narrative band a high-frequency ratio falls into.
type Tier string

const (
	TierHighAI     Tier = "high"
	TierMediumAI   Tier = "medium"
	TierLowAI      Tier = "low"
	TierLikelyReal Tier = "likely_real"
)

var tierDetails = map[Tier]string{
	TierHighAI:     "HIGH AI probability: high frequencies almost absent (typical of GAN and diffusion models).",
	TierMediumAI:   "MEDIUM AI probability: suspiciously uniform noise pattern.",
	TierLowAI:      "LOW AI probability: some high frequencies present but below the camera average.",
	TierLikelyReal: "Likely REAL: high-frequency noise consistent with a camera sensor.",
}

// Analyzer runs the frequency-domain check.
type Analyzer struct {
	config      Config
	transformer Transformer
}

// NewAnalyzer creates an analyzer. A nil transformer selects FFT.
func NewAnalyzer(cfg Config, t Transformer) *Analyzer {
	if t == nil {
		t = FFT{}
	}
	return &Analyzer{
		config:      cfg,
		transformer: t,
	}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze resamples buf onto the working grid, transforms it and classifies
// the spectrum. The only error returned is the context's.
func (a *Analyzer) Analyze(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	field := imaging.WorkingField(buf, a.config.WorkingSize)

	spectrum, err := a.transformer.Transform(ctx, field)
	if err != nil {
		return nil, fmt.Errorf("spectral transform: %w", err)
	}

	return a.Classify(spectrum), nil
}

// Classify derives the report from a centred spectrum.
func (a *Analyzer) Classify(s *Spectrum) *Result {
	cfg := a.config
	ratio := HighFrequencyRatio(s, cfg.HighFrequencyRadius)
	anomaly := SpectralAnomaly(s, cfg.RadialBands, cfg.ExpectedDecay)

	confidence := math.Abs(ratio-cfg.AICutoff) * cfg.ConfidenceScale
	confidence = math.Max(0, math.Min(1, confidence))

	return &Result{
		HighFrequencyRatio: ratio,
		SpectralAnomaly:    anomaly,
		IsAIGenerated:      ratio < cfg.AICutoff,
		Confidence:         confidence,
		Details:            a.describe(ratio, anomaly),
	}
}

// TierFor maps a high-frequency ratio to its narrative tier.
func (a *Analyzer) TierFor(ratio float64) Tier {
	switch {
	case ratio < a.config.HighProbabilityCutoff:
		return TierHighAI
	case ratio < a.config.AICutoff:
		return TierMediumAI
	case ratio < a.config.LikelyRealCutoff:
		return TierLowAI
	default:
		return TierLikelyReal
	}
}

func (a *Analyzer) describe(ratio, anomaly float64) string {
	var b strings.Builder
	b.WriteString(tierDetails[a.TierFor(ratio)])

	if anomaly > a.config.AnomalyThreshold {
		fmt.Fprintf(&b, " Spectral anomaly detected (%.2f): unnatural frequency distribution.", anomaly)
	}

	return b.String()
}
