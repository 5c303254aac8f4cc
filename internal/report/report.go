// Package report assembles the per-image forensic report.
//
// Each sub-analysis is best-effort: a failure to decode or re-encode the
// image makes that analysis unavailable instead of failing the report.
package report

import (
	"time"

	"github.com/humanmark/forensics/internal/ela"
	"github.com/humanmark/forensics/internal/imaging"
	"github.com/humanmark/forensics/internal/metadata"
	"github.com/humanmark/forensics/internal/spectral"
)

// Names of the sub-analyses, used as keys of Report.Skipped.
const (
	AnalysisFFT  = "fft"
	AnalysisELA  = "ela"
	AnalysisEXIF = "exif"
)

// Subject identifies the analysed input.
type Subject struct {
	AnalysisID  string
	ContentHash string
	Format      imaging.Format
	Width       int
	Height      int
}

// Report is the merged output of the three analyses.
type Report struct {
	AnalysisID  string         `json:"analysisId"`
	ContentHash string         `json:"contentHash"`
	Format      imaging.Format `json:"format"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`

	FFT  Result[*spectral.Result] `json:"fft"`
	ELA  Result[*ela.Result]      `json:"ela"`
	EXIF Result[*metadata.Report] `json:"exif"`

	// Skipped maps an unavailable analysis to the reason it did not run.
	Skipped map[string]string `json:"skipped,omitempty"`

	ProcessingTime   time.Duration `json:"-"`
	ProcessingTimeMs int64         `json:"processingTimeMs"`
}

// Assemble merges the analysis outcomes into a report.
func Assemble(
	subject Subject,
	fft Result[*spectral.Result],
	el Result[*ela.Result],
	exif Result[*metadata.Report],
	elapsed time.Duration,
) *Report {
	r := &Report{
		AnalysisID:       subject.AnalysisID,
		ContentHash:      subject.ContentHash,
		Format:           subject.Format,
		Width:            subject.Width,
		Height:           subject.Height,
		FFT:              fft,
		ELA:              el,
		EXIF:             exif,
		ProcessingTime:   elapsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}

	skip := func(name string, available bool, err error) {
		if available {
			return
		}
		if r.Skipped == nil {
			r.Skipped = make(map[string]string)
		}
		reason := "not run"
		if err != nil {
			reason = err.Error()
		}
		r.Skipped[name] = reason
	}
	skip(AnalysisFFT, fft.Available(), fft.Err())
	skip(AnalysisELA, el.Available(), el.Err())
	skip(AnalysisEXIF, exif.Available(), exif.Err())

	return r
}

// Complete reports whether every analysis produced a result.
func (r *Report) Complete() bool {
	return len(r.Skipped) == 0
}
