package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/humanmark/forensics/internal/config"
	"github.com/humanmark/forensics/internal/metadata"
	"github.com/humanmark/forensics/internal/report"
	"github.com/humanmark/forensics/internal/service"
	"github.com/humanmark/forensics/internal/spectral"
	"github.com/humanmark/forensics/pkg/logger"
)

var errSomeFailed = errors.New("some files could not be analysed")

type analyzeOptions struct {
	heatmapDir string
	pretty     bool
}

// fileReport is one line of output.
type fileReport struct {
	File    string         `json:"file"`
	Report  *report.Report `json:"report,omitempty"`
	Heatmap string         `json:"heatmap,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyse images and print a JSON report for each",
		Long: `Runs the frequency-domain check, error level analysis and the EXIF
consistency check on every file. A check that cannot run on a file is
reported as null with the reason under "skipped".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.NewWithWriter(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

			svc, closeFn, err := buildService(cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			return runAnalyze(cmd.Context(), svc, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.heatmapDir, "heatmap-dir", "", "Directory to write ELA heatmaps to (<name>.ela.png)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

// buildService wires the service from configuration. The returned function
// releases external resources.
func buildService(cfg *config.Config, log *logger.Logger) (*service.Forensics, func(), error) {
	transformer, err := spectral.NewTransformer(cfg.Transform)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	readers := metadata.Chain{metadata.NewEXIFReader()}

	if cfg.ExiftoolEnabled {
		et, err := metadata.NewExiftoolReader(cfg.ExiftoolPath)
		if err != nil {
			log.Warn("exiftool unavailable, continuing without it", "error", err)
		} else {
			readers = append(readers, et)
			closeFn = func() {
				if err := et.Close(); err != nil {
					log.Warn("failed to stop exiftool", "error", err)
				}
			}
		}
	}

	svc := service.New(service.Config{
		Workers:       cfg.Workers,
		Timeout:       cfg.Timeout,
		MaxUploadSize: cfg.MaxUploadSize,
		MaxPixels:     cfg.MaxPixels,
		Spectral:      cfg.Spectral,
		ELA:           cfg.ELA,
		Metadata:      cfg.Metadata,
	}, log,
		service.WithTransformer(transformer),
		service.WithMetadataReader(readers),
	)

	return svc, closeFn, nil
}

func runAnalyze(ctx context.Context, svc service.Detector, files []string, opts analyzeOptions, out io.Writer) error {
	results := make([]fileReport, len(files))
	var inputs [][]byte
	var index []int

	for i, path := range files {
		results[i].File = path
		data, err := os.ReadFile(path)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		inputs = append(inputs, data)
		index = append(index, i)
	}

	reports, err := svc.AnalyzeBatch(ctx, inputs)
	if reports == nil && err != nil {
		return err
	}

	rejected := itemErrors(err)
	for j, r := range reports {
		i := index[j]
		if r == nil {
			results[i].Error = "not analysed"
			if e, ok := rejected[j]; ok {
				results[i].Error = e.Error()
			}
			continue
		}
		results[i].Report = r

		if opts.heatmapDir != "" {
			path, err := writeHeatmap(opts.heatmapDir, files[i], r)
			if err != nil {
				results[i].Error = err.Error()
			}
			results[i].Heatmap = path
		}
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}

	failed := false
	for _, res := range results {
		if res.Error != "" {
			failed = true
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if failed {
		return errSomeFailed
	}
	return nil
}

// itemErrors indexes the per-input errors of a batch.
func itemErrors(err error) map[int]error {
	out := make(map[int]error)
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return out
	}
	for _, e := range joined.Unwrap() {
		var item *service.ItemError
		if errors.As(e, &item) {
			out[item.Index] = item.Err
		}
	}
	return out
}

func writeHeatmap(dir, source string, r *report.Report) (string, error) {
	res, ok := r.ELA.Get()
	if !ok || len(res.Heatmap) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create heatmap dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	path := filepath.Join(dir, base+".ela.png")
	if err := os.WriteFile(path, res.Heatmap, 0o644); err != nil {
		return "", fmt.Errorf("write heatmap: %w", err)
	}
	return path, nil
}
