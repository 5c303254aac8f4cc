package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanmark/forensics/internal/ela"
	"github.com/humanmark/forensics/internal/metadata"
	"github.com/humanmark/forensics/internal/spectral"
)

var envKeys = []string{
	"FORENSICS_ENV", "LOG_LEVEL", "LOG_FORMAT", "FORENSICS_WORKERS",
	"FORENSICS_TIMEOUT", "FORENSICS_MAX_UPLOAD_SIZE", "FORENSICS_MAX_PIXELS",
	"FORENSICS_TRANSFORM", "EXIFTOOL_ENABLED", "EXIFTOOL_PATH", "FORENSICS_CONFIG",
}

// clearEnv blanks every variable Load reads; empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads defaults when no env vars set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, runtime.NumCPU(), cfg.Workers)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSize)
		assert.Equal(t, 40_000_000, cfg.MaxPixels)
		assert.Equal(t, "fft", cfg.Transform)
		assert.False(t, cfg.ExiftoolEnabled)
		assert.Equal(t, spectral.DefaultConfig(), cfg.Spectral)
		assert.Equal(t, ela.DefaultConfig(), cfg.ELA)
		assert.Equal(t, metadata.DefaultConfig(), cfg.Metadata)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("only development defaults to text logs", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_ENV", "staging")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.IsDevelopment())
		assert.Equal(t, "json", cfg.LogFormat)

		t.Setenv("LOG_FORMAT", "text")
		cfg, err = Load()
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat, "explicit format wins")
	})

	t.Run("loads values from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_ENV", "production")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("FORENSICS_WORKERS", "3")
		t.Setenv("FORENSICS_TIMEOUT", "2m")
		t.Setenv("FORENSICS_MAX_UPLOAD_SIZE", "10485760")
		t.Setenv("FORENSICS_MAX_PIXELS", "1000000")
		t.Setenv("FORENSICS_TRANSFORM", "DFT")
		t.Setenv("EXIFTOOL_ENABLED", "yes")
		t.Setenv("EXIFTOOL_PATH", "/usr/local/bin/exiftool")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "json", cfg.LogFormat, "production defaults to json logs")
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 3, cfg.Workers)
		assert.Equal(t, 2*time.Minute, cfg.Timeout)
		assert.Equal(t, int64(10485760), cfg.MaxUploadSize)
		assert.Equal(t, 1000000, cfg.MaxPixels)
		assert.Equal(t, "dft", cfg.Transform)
		assert.True(t, cfg.ExiftoolEnabled)
		assert.Equal(t, "/usr/local/bin/exiftool", cfg.ExiftoolPath)
	})

	t.Run("handles invalid values gracefully", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_WORKERS", "many")
		t.Setenv("FORENSICS_TIMEOUT", "soon")
		t.Setenv("FORENSICS_MAX_UPLOAD_SIZE", "invalid")
		t.Setenv("EXIFTOOL_ENABLED", "maybe")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, runtime.NumCPU(), cfg.Workers)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadSize)
		assert.False(t, cfg.ExiftoolEnabled)
	})
}

func TestLoadThresholdsFile(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "thresholds.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("overlays present keys only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_CONFIG", write(t, `
spectral:
  ai_cutoff: 0.18
ela:
  quality: 0.9
  max_zones: 5
metadata:
  ai_indicators: [midjourney, firefly]
  max_date_skew: 2m
`))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 0.18, cfg.Spectral.AICutoff)
		assert.Equal(t, spectral.DefaultConfig().WorkingSize, cfg.Spectral.WorkingSize)
		assert.Equal(t, 0.9, cfg.ELA.Quality)
		assert.Equal(t, 5, cfg.ELA.MaxZones)
		assert.Equal(t, ela.DefaultConfig().GridSize, cfg.ELA.GridSize)
		assert.Equal(t, []string{"midjourney", "firefly"}, cfg.Metadata.AIIndicators)
		assert.Equal(t, metadata.DefaultConfig().EditingSoftware, cfg.Metadata.EditingSoftware)
		assert.Equal(t, 2*time.Minute, cfg.Metadata.MaxDateSkew)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := Load()
		assert.ErrorContains(t, err, "read thresholds file")
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FORENSICS_CONFIG", write(t, "ela: [not, a, map]\n"))

		_, err := Load()
		assert.ErrorContains(t, err, "parse thresholds file")
	})
}

func validConfig() *Config {
	return &Config{
		Environment:   "development",
		LogLevel:      "info",
		LogFormat:     "text",
		Workers:       2,
		Timeout:       time.Second,
		MaxUploadSize: 1024 * 1024,
		MaxPixels:     1000,
		Transform:     "fft",
		Spectral:      spectral.DefaultConfig(),
		ELA:           ela.DefaultConfig(),
		Metadata:      metadata.DefaultConfig(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "FORENSICS_WORKERS"},
		{"no timeout", func(c *Config) { c.Timeout = 0 }, "FORENSICS_TIMEOUT"},
		{"upload too small", func(c *Config) { c.MaxUploadSize = 10 }, "too small"},
		{"upload too large", func(c *Config) { c.MaxUploadSize = 2 * 1024 * 1024 * 1024 }, "too large"},
		{"no pixels", func(c *Config) { c.MaxPixels = 0 }, "FORENSICS_MAX_PIXELS"},
		{"bad transform", func(c *Config) { c.Transform = "wavelet" }, "FORENSICS_TRANSFORM"},
		{"bad spectral", func(c *Config) { c.Spectral.WorkingSize = 2 }, "working_size"},
		{"bad ela", func(c *Config) { c.ELA.Quality = 2 }, "quality"},
		{"bad metadata", func(c *Config) { c.Metadata.MaxDateSkew = -1 }, "max_date_skew"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Workers = 0
		cfg.MaxPixels = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FORENSICS_WORKERS")
		assert.Contains(t, err.Error(), "FORENSICS_MAX_PIXELS")
	})
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{Environment: "production"}
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())

	cfg.Environment = "development"
	assert.True(t, cfg.IsDevelopment())
}
