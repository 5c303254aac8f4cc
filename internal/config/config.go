// Package config handles application configuration.
//
// Process settings come from environment variables. The heuristic thresholds
// of the three analyses default to their calibrated values and can be
// overridden from a YAML file named by FORENSICS_CONFIG.
//
// All configuration is validated at startup to fail fast if misconfigured.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/humanmark/forensics/internal/ela"
	"github.com/humanmark/forensics/internal/metadata"
	"github.com/humanmark/forensics/internal/spectral"
)

// Config holds all application configuration.
// Fields are documented with their environment variable names and defaults.
type Config struct {
	// Environment is the deployment environment: development, staging, production
	// Env var: FORENSICS_ENV (default: development)
	Environment string

	// LogLevel is one of debug, info, warn, error
	// Env var: LOG_LEVEL (default: info)
	LogLevel string

	// LogFormat is text or json
	// Env var: LOG_FORMAT (default: text in development, json otherwise)
	LogFormat string

	// Workers bounds how many spectral transforms run at once
	// Env var: FORENSICS_WORKERS (default: number of CPUs)
	Workers int

	// Timeout bounds a single analysis
	// Env var: FORENSICS_TIMEOUT (default: 30s)
	Timeout time.Duration

	// MaxUploadSize is the largest accepted input in bytes
	// Env var: FORENSICS_MAX_UPLOAD_SIZE (default: 52428800 = 50MB)
	MaxUploadSize int64

	// MaxPixels is the largest accepted decoded image, width * height
	// Env var: FORENSICS_MAX_PIXELS (default: 40000000)
	MaxPixels int

	// Transform selects the spectral engine: fft or dft
	// Env var: FORENSICS_TRANSFORM (default: fft)
	Transform string

	// ExiftoolEnabled adds exiftool as a fallback metadata reader
	// Env var: EXIFTOOL_ENABLED (default: false)
	ExiftoolEnabled bool

	// ExiftoolPath is the exiftool binary; empty means look it up on PATH
	// Env var: EXIFTOOL_PATH (optional)
	ExiftoolPath string

	// ThresholdsFile is the YAML file overriding analysis thresholds
	// Env var: FORENSICS_CONFIG (optional)
	ThresholdsFile string

	Spectral spectral.Config
	ELA      ela.Config
	Metadata metadata.Config
}

// thresholds is the layout of the YAML file.
type thresholds struct {
	Spectral spectral.Config `yaml:"spectral"`
	ELA      ela.Config      `yaml:"ela"`
	Metadata metadata.Config `yaml:"metadata"`
}

// Load reads configuration from environment variables and, if set, the
// thresholds file. Malformed environment values fall back to defaults; use
// Validate() to check the result. An unreadable or malformed thresholds file
// is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:     getEnvOrDefault("FORENSICS_ENV", "development"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       os.Getenv("LOG_FORMAT"),
		Workers:         getEnvAsInt("FORENSICS_WORKERS", runtime.NumCPU()),
		Timeout:         getEnvAsDuration("FORENSICS_TIMEOUT", 30*time.Second),
		MaxUploadSize:   getEnvAsInt64("FORENSICS_MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB
		MaxPixels:       getEnvAsInt("FORENSICS_MAX_PIXELS", 40_000_000),
		Transform:       strings.ToLower(getEnvOrDefault("FORENSICS_TRANSFORM", "fft")),
		ExiftoolEnabled: getEnvAsBool("EXIFTOOL_ENABLED", false),
		ExiftoolPath:    os.Getenv("EXIFTOOL_PATH"),
		ThresholdsFile:  os.Getenv("FORENSICS_CONFIG"),
		Spectral:        spectral.DefaultConfig(),
		ELA:             ela.DefaultConfig(),
		Metadata:        metadata.DefaultConfig(),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDevelopment() {
			cfg.LogFormat = "text"
		}
	}

	if cfg.ThresholdsFile != "" {
		if err := cfg.loadThresholds(cfg.ThresholdsFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadThresholds overlays the YAML file onto the current thresholds. Keys
// missing from the file keep their current value.
func (c *Config) loadThresholds(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read thresholds file: %w", err)
	}

	t := thresholds{Spectral: c.Spectral, ELA: c.ELA, Metadata: c.Metadata}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parse thresholds file %s: %w", path, err)
	}

	c.Spectral, c.ELA, c.Metadata = t.Spectral, t.ELA, t.Metadata
	return nil
}

// Validate checks that all configuration is present and valid.
// Returns an error describing everything that is wrong.
func (c *Config) Validate() error {
	var errors []string

	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.Environment] {
		errors = append(errors, fmt.Sprintf("invalid environment: %s (must be development, staging, or production)", c.Environment))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be text or json)", c.LogFormat))
	}

	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("FORENSICS_WORKERS must be at least 1: %d", c.Workers))
	}

	if c.Timeout <= 0 {
		errors = append(errors, fmt.Sprintf("FORENSICS_TIMEOUT must be positive: %s", c.Timeout))
	}

	if c.MaxUploadSize < 1024 { // Less than 1KB
		errors = append(errors, fmt.Sprintf("FORENSICS_MAX_UPLOAD_SIZE too small: %d (minimum 1024)", c.MaxUploadSize))
	}
	if c.MaxUploadSize > 1024*1024*1024 { // More than 1GB
		errors = append(errors, fmt.Sprintf("FORENSICS_MAX_UPLOAD_SIZE too large: %d (maximum 1GB)", c.MaxUploadSize))
	}

	if c.MaxPixels < 1 {
		errors = append(errors, fmt.Sprintf("FORENSICS_MAX_PIXELS must be positive: %d", c.MaxPixels))
	}

	if _, err := spectral.NewTransformer(c.Transform); err != nil {
		errors = append(errors, fmt.Sprintf("invalid FORENSICS_TRANSFORM: %s (must be fft or dft)", c.Transform))
	}

	for _, err := range []error{c.Spectral.Validate(), c.ELA.Validate(), c.Metadata.Validate()} {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer or a default if not set/invalid.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsInt64 returns the environment variable as an int64 or a default if not set/invalid.
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration parses a Go duration ("30s", "2m") or a default if not set/invalid.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsBool returns the environment variable as a boolean or a default if not set.
// Accepts: true, false, 1, 0, yes, no (case-insensitive)
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}
