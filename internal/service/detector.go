// Package service runs the forensic analyses for one image or a batch.
//
// Analysis flow:
//  1. Reject inputs over the size limit
//  2. Decode the image once
//  3. Run spectral, error level and metadata analysis concurrently
//  4. Merge the outcomes into a report.Report
//
// A sub-analysis that cannot run (undecodable input, failed recompression,
// corrupt metadata, timeout, panic) is reported as unavailable; it never
// fails the call.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/humanmark/forensics/internal/ela"
	"github.com/humanmark/forensics/internal/imaging"
	"github.com/humanmark/forensics/internal/metadata"
	"github.com/humanmark/forensics/internal/report"
	"github.com/humanmark/forensics/internal/spectral"
	"github.com/humanmark/forensics/pkg/logger"
)

// ErrInputTooLarge is returned when the input exceeds Config.MaxUploadSize.
var ErrInputTooLarge = errors.New("input exceeds maximum size")

// ItemError reports a batch input that could not be analysed.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Detector is the interface for image forensics.
type Detector interface {
	Analyze(ctx context.Context, data []byte) (*report.Report, error)
	AnalyzeBatch(ctx context.Context, inputs [][]byte) ([]*report.Report, error)
}

// Config holds configuration for the service.
type Config struct {
	// Workers bounds concurrent spectral transforms and batch items.
	Workers int

	// Timeout bounds one analysis. Zero means no limit beyond the caller's.
	Timeout time.Duration

	// MaxUploadSize bounds the input in bytes. Zero means unlimited.
	MaxUploadSize int64

	// MaxPixels bounds decoded images when the default codec is used.
	MaxPixels int

	Spectral spectral.Config
	ELA      ela.Config
	Metadata metadata.Config
}

// DefaultConfig returns a configuration with calibrated thresholds.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		Timeout:       30 * time.Second,
		MaxUploadSize: 50 * 1024 * 1024,
		MaxPixels:     40_000_000,
		Spectral:      spectral.DefaultConfig(),
		ELA:           ela.DefaultConfig(),
		Metadata:      metadata.DefaultConfig(),
	}
}

// Option customises a Forensics service.
type Option func(*Forensics)

// WithCodec replaces the image codec.
func WithCodec(c imaging.Codec) Option {
	return func(f *Forensics) { f.codec = c }
}

// WithTransformer replaces the spectral transform engine.
func WithTransformer(t spectral.Transformer) Option {
	return func(f *Forensics) { f.transformer = t }
}

// WithMetadataReader replaces the metadata reader.
func WithMetadataReader(r metadata.Reader) Option {
	return func(f *Forensics) { f.reader = r }
}

// Forensics is the main implementation of Detector.
type Forensics struct {
	config Config
	logger *logger.Logger

	codec       imaging.Codec
	transformer spectral.Transformer
	reader      metadata.Reader

	spectral *spectral.Analyzer
	ela      *ela.Analyzer
	metadata *metadata.Analyzer

	// pool bounds concurrent spectral transforms across all calls.
	pool *semaphore.Weighted
}

// New creates a Forensics service.
func New(cfg Config, log *logger.Logger, opts ...Option) *Forensics {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = logger.NopLogger()
	}

	f := &Forensics{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.codec == nil {
		f.codec = imaging.NewStdCodec(cfg.MaxPixels)
	}
	if f.transformer == nil {
		f.transformer = spectral.FFT{}
	}
	if f.reader == nil {
		f.reader = metadata.NewEXIFReader()
	}

	f.spectral = spectral.NewAnalyzer(cfg.Spectral, f.transformer)
	f.ela = ela.NewAnalyzer(cfg.ELA, f.codec)
	f.metadata = metadata.NewAnalyzer(cfg.Metadata)
	f.pool = semaphore.NewWeighted(int64(cfg.Workers))

	return f
}

// Analyze runs every analysis on one encoded image. It returns an error only
// when data exceeds the size limit or ctx is done.
func (f *Forensics) Analyze(ctx context.Context, data []byte) (*report.Report, error) {
	start := time.Now()

	if f.config.MaxUploadSize > 0 && int64(len(data)) > f.config.MaxUploadSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(data), f.config.MaxUploadSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := generateAnalysisID()
	parent := logger.WithAnalysisID(ctx, id)
	log := f.logger.WithContext(parent)

	actx, cancel := parent, context.CancelFunc(func() {})
	if f.config.Timeout > 0 {
		actx, cancel = context.WithTimeout(parent, f.config.Timeout)
	}
	defer cancel()

	subject := report.Subject{
		AnalysisID:  id,
		ContentHash: hashContent(data),
		Format:      imaging.DetectFormat(data),
	}

	log.Debug("starting analysis",
		"format", subject.Format,
		"data_length", len(data),
	)

	var (
		fftResult  report.Result[*spectral.Result]
		elaResult  report.Result[*ela.Result]
		exifResult report.Result[*metadata.Report]
	)

	var g errgroup.Group

	g.Go(func() error {
		exifResult = guard("exif", func() (*metadata.Report, error) {
			return f.analyzeMetadata(actx, data)
		})
		return nil
	})

	decoded, err := f.decode(actx, data)
	if err != nil {
		fftResult = report.Unavailable[*spectral.Result](err)
		elaResult = report.Unavailable[*ela.Result](err)
	} else {
		buf := decoded.Buffer
		subject.Width, subject.Height = buf.Width, buf.Height
		if decoded.Format != imaging.FormatUnknown {
			subject.Format = decoded.Format
		}

		g.Go(func() error {
			fftResult = guard("fft", func() (*spectral.Result, error) {
				if err := f.pool.Acquire(actx, 1); err != nil {
					return nil, err
				}
				defer f.pool.Release(1)
				return f.spectral.Analyze(actx, buf)
			})
			return nil
		})

		g.Go(func() error {
			elaResult = guard("ela", func() (*ela.Result, error) {
				return f.ela.Analyze(actx, buf)
			})
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := report.Assemble(subject, fftResult, elaResult, exifResult, time.Since(start))

	for name, reason := range r.Skipped {
		log.Warn("analysis unavailable", "analysis", name, "error", reason)
	}
	log.Debug("analysis complete",
		"format", r.Format,
		"width", r.Width,
		"height", r.Height,
		"complete", r.Complete(),
		"duration_ms", r.ProcessingTimeMs,
	)

	return r, nil
}

// AnalyzeBatch analyses several images concurrently, at most Workers at a
// time, and returns the reports in input order. Inputs rejected by the size
// guard get a nil report and an *ItemError, joined into the returned error.
func (f *Forensics) AnalyzeBatch(ctx context.Context, inputs [][]byte) ([]*report.Report, error) {
	reports := make([]*report.Report, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Workers)

	for i, data := range inputs {
		g.Go(func() error {
			r, err := f.Analyze(gctx, data)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				errs[i] = &ItemError{Index: i, Err: err}
				return nil
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, errors.Join(errs...)
}

func (f *Forensics) decode(ctx context.Context, data []byte) (decoded *imaging.Decoded, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoder panicked: %v", imaging.ErrDecode, r)
		}
	}()
	return f.codec.Decode(ctx, data)
}

// analyzeMetadata reads metadata from the raw bytes; an image without any
// metadata block is analysed as empty so the stripping rule can fire.
func (f *Forensics) analyzeMetadata(ctx context.Context, data []byte) (*metadata.Report, error) {
	fields, err := f.reader.Read(ctx, data)
	if errors.Is(err, metadata.ErrNoMetadata) {
		fields, err = &metadata.Fields{}, nil
	}
	if err != nil {
		return nil, err
	}
	return f.metadata.Analyze(fields), nil
}

// guard runs one analysis, turning an error or a panic into an unavailable
// result.
func guard[T any](name string, fn func() (T, error)) (res report.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = report.Unavailable[T](fmt.Errorf("%s analysis panicked: %v", name, r))
		}
	}()

	v, err := fn()
	if err != nil {
		return report.Unavailable[T](err)
	}
	return report.Completed(v)
}

// hashContent creates a SHA256 hash of the content.
func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// generateAnalysisID creates a random 16-character hex string.
func generateAnalysisID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
