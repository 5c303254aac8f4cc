// Package ela implements Error Level Analysis.
//
// The image is re-encoded as JPEG at a fixed quality and decoded again. A
// once-compressed photo shows low, spatially uniform re-compression error;
// regions that were pasted in or retouched were compressed at a different
// quality and stand out. The per-pixel error is rendered as a heatmap,
// scanned on a fixed grid for suspicious cells and summarised into a score.
package ela

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/humanmark/forensics/internal/imaging"
)

// Result is the error level report for one image.
type Result struct {
	// Heatmap is the PNG-encoded visualisation, meant for display only.
	Heatmap         []byte           `json:"-"`
	SuspiciousZones []SuspiciousZone `json:"suspiciousZones"`
	OverallScore    int              `json:"overallScore"`
	Details         string           `json:"details"`

	HighDiffRatio     float64 `json:"highDiffRatio"`
	MaxDifference     float64 `json:"maxDifference"`
	AverageDifference float64 `json:"averageDifference"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

// HeatmapDataURL renders the heatmap as a data URL.
func (r *Result) HeatmapDataURL() string {
	if len(r.Heatmap) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(r.Heatmap)
}

// MarshalJSON emits the heatmap as a data URL next to the other fields.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		HeatmapDataURL string `json:"heatmapDataUrl"`
		plain
	}{
		HeatmapDataURL: r.HeatmapDataURL(),
		plain:          plain(r),
	})
}

// Analyzer runs error level analysis through a Codec.
type Analyzer struct {
	config Config
	codec  imaging.Codec
}

// NewAnalyzer creates an analyzer that recompresses with codec.
func NewAnalyzer(cfg Config, codec imaging.Codec) *Analyzer {
	return &Analyzer{
		config: cfg,
		codec:  codec,
	}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze recompresses buf, diffs it against the original and builds the
// report. Encode and decode failures are returned wrapped; the caller decides
// how to surface them.
func (a *Analyzer) Analyze(ctx context.Context, buf *imaging.PixelBuffer) (*Result, error) {
	encoded, err := a.codec.Encode(ctx, buf, imaging.FormatJPEG, a.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("recompress: %w", err)
	}

	recompressed, err := a.codec.Decode(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("decode recompressed: %w", err)
	}

	field, err := Difference(buf, recompressed.Buffer)
	if err != nil {
		return nil, err
	}

	heatmap, err := a.codec.Encode(ctx, RenderHeatmap(field, a.config.Amplification), imaging.FormatPNG, 1)
	if err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}

	zones := DetectZones(field, a.config)
	avg := field.Mean()
	ratio := field.HighDiffRatio(a.config.OutlierFactor)
	score := a.Score(ratio)

	return &Result{
		Heatmap:           heatmap,
		SuspiciousZones:   zones,
		OverallScore:      score,
		Details:           describe(score, ratio, len(zones), field.Max, avg),
		HighDiffRatio:     ratio,
		MaxDifference:     field.Max,
		AverageDifference: avg,
		Width:             field.Width,
		Height:            field.Height,
	}, nil
}

// Score maps the share of high-difference pixels to the overall score.
// The upper bound is exclusive and the lower one inclusive, so ties resolve
// towards "less likely manipulated".
func (a *Analyzer) Score(highDiffRatio float64) int {
	switch {
	case highDiffRatio > a.config.HighRatio:
		return ScoreHigh
	case highDiffRatio > a.config.MediumRatio:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

func describe(score int, ratio float64, zones int, maxDiff, avg float64) string {
	pct := ratio * 100

	var summary string
	switch score {
	case ScoreHigh:
		summary = fmt.Sprintf("HIGH manipulation probability: %.1f%% of pixels with elevated differences. Zones with inconsistent compression detected.", pct)
	case ScoreMedium:
		summary = fmt.Sprintf("MEDIUM manipulation probability: %.1f%% of pixels with moderate differences. Possible localized editing.", pct)
	default:
		summary = fmt.Sprintf("LOW manipulation probability: %.1f%% of pixels with differences. Uniform compression, consistent with an unedited image.", pct)
	}

	return fmt.Sprintf("%s Found %d suspicious zones. Max diff: %.2f, Avg: %.2f.", summary, zones, maxDiff, avg)
}
