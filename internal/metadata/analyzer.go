// Package metadata checks embedded image metadata for signs of editing,
// generation or stripping.
//
// Metadata is trivially forged or removed, so every finding here is a hint
// to be weighed with the pixel-level checks, never proof on its own.
package metadata

import (
	"fmt"
	"strings"
	"time"
)

// Finding messages appended to Report.SuspiciousEdits.
const (
	msgEditingSoftware = "Editing software detected: %s"
	msgDateMismatch    = "Modification date differs from original capture date"
	msgStripped        = "Minimal or absent EXIF metadata: possible intentional stripping"
	msgAIGeneration    = "Possible AI generation: %s"
	msgEditHistory     = "Edit history detected in XMP metadata"
)

// Report summarises the metadata of one image.
type Report struct {
	Camera          string   `json:"camera,omitempty"`
	Software        string   `json:"software,omitempty"`
	DateTime        string   `json:"dateTime,omitempty"`
	GPS             string   `json:"gps,omitempty"`
	Modified        bool     `json:"modified"`
	SuspiciousEdits []string `json:"suspiciousEdits,omitempty"`
}

// Analyzer applies the consistency rules to extracted fields.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze builds the report. Rules are independent and append in a fixed
// order; Modified is set iff at least one fired.
func (a *Analyzer) Analyze(f *Fields) *Report {
	if f == nil {
		f = &Fields{}
	}

	report := &Report{
		Camera:   camera(f),
		Software: f.Software,
	}

	switch {
	case !f.DateTimeOriginal.IsZero():
		report.DateTime = f.DateTimeOriginal.Format(time.RFC3339)
	case !f.DateTime.IsZero():
		report.DateTime = f.DateTime.Format(time.RFC3339)
	}

	if f.HasGPS {
		report.GPS = fmt.Sprintf("%.6f, %.6f", f.Latitude, f.Longitude)
	}

	var edits []string
	software := strings.ToLower(f.Software)

	if software != "" && containsAny(software, a.config.EditingSoftware) {
		edits = append(edits, fmt.Sprintf(msgEditingSoftware, f.Software))
	}

	if !f.DateTimeOriginal.IsZero() && !f.DateTime.IsZero() {
		skew := f.DateTime.Sub(f.DateTimeOriginal)
		if skew < 0 {
			skew = -skew
		}
		if skew > a.config.MaxDateSkew {
			edits = append(edits, msgDateMismatch)
		}
	}

	if f.Make == "" && f.Model == "" && f.DateTimeOriginal.IsZero() {
		edits = append(edits, msgStripped)
	}

	if software != "" && containsAny(software, a.config.AIIndicators) {
		edits = append(edits, fmt.Sprintf(msgAIGeneration, f.Software))
	}

	if f.History {
		edits = append(edits, msgEditHistory)
	}

	report.Modified = len(edits) > 0
	report.SuspiciousEdits = edits
	return report
}

func camera(f *Fields) string {
	switch {
	case f.Make != "" && f.Model != "":
		return strings.TrimSpace(f.Make + " " + f.Model)
	case f.Model != "":
		return f.Model
	default:
		return ""
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
