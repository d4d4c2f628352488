package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// WriteMode controls how the output sinks treat existing content.
type WriteMode string

// Available write modes.
const (
	// WriteModeAppend keeps prior rows and replaces rows with the same identifier.
	WriteModeAppend WriteMode = "append"

	// WriteModeOverwrite replaces the sinks with exactly the batch.
	WriteModeOverwrite WriteMode = "overwrite"
)

// IsValid returns true if the write mode is recognised.
func (m WriteMode) IsValid() bool {
	return m == WriteModeAppend || m == WriteModeOverwrite
}

// Default settings values.
const (
	DefaultDataDir           = "data"
	DefaultMaxWorkers        = 4
	DefaultLogLevel          = "warn"
	DefaultUserAgent         = "FedPolicyLedger/0.1.0 (Research/Archival)"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultRequestsPerSecond = 2.0
)

// Settings is the validated runtime configuration.
type Settings struct {
	DataDir      string
	RawDir       string
	ProcessedDir string
	MetadataDir  string

	SaveRaw    bool
	Overwrite  bool
	Parallel   bool
	MaxWorkers int
	WriteMode  WriteMode

	LogLevel string
	LogJSON  bool

	CacheDir          string
	UserAgent         string
	HTTPTimeout       time.Duration
	RequestsPerSecond float64

	// MetricsFile is a Prometheus textfile written after each batch. Empty disables it.
	MetricsFile string
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		DataDir:           DefaultDataDir,
		SaveRaw:           true,
		MaxWorkers:        DefaultMaxWorkers,
		WriteMode:         WriteModeAppend,
		LogLevel:          DefaultLogLevel,
		UserAgent:         DefaultUserAgent,
		HTTPTimeout:       DefaultHTTPTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// WithDerivedPaths fills empty sink directories from DataDir.
func (s Settings) WithDerivedPaths() Settings {
	if s.RawDir == "" {
		s.RawDir = filepath.Join(s.DataDir, "raw")
	}
	if s.ProcessedDir == "" {
		s.ProcessedDir = filepath.Join(s.DataDir, "processed")
	}
	if s.MetadataDir == "" {
		s.MetadataDir = filepath.Join(s.DataDir, "metadata")
	}
	return s
}

// WithDataDir moves the data directory. Sink directories that were
// derived from the old data directory follow it; explicit ones are kept.
func (s Settings) WithDataDir(dir string) Settings {
	old := s.WithDerivedPaths()
	if s.RawDir == filepath.Join(old.DataDir, "raw") {
		s.RawDir = ""
	}
	if s.ProcessedDir == filepath.Join(old.DataDir, "processed") {
		s.ProcessedDir = ""
	}
	if s.MetadataDir == filepath.Join(old.DataDir, "metadata") {
		s.MetadataDir = ""
	}
	s.DataDir = dir
	return s.WithDerivedPaths()
}

// Workers returns the effective pool size.
func (s Settings) Workers() int {
	if !s.Parallel {
		return 1
	}
	return s.MaxWorkers
}

// Validate checks the settings once at startup.
func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.DataDir) == "" {
		problems = append(problems, "data_dir must not be empty")
	}
	if s.Parallel && s.MaxWorkers < 1 {
		problems = append(problems, fmt.Sprintf("max_workers must be at least 1 when parallel, got %d", s.MaxWorkers))
	}
	if !s.WriteMode.IsValid() {
		problems = append(problems, fmt.Sprintf("write_mode must be append or overwrite, got %q", s.WriteMode))
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", s.LogLevel))
	}
	if s.HTTPTimeout < 0 {
		problems = append(problems, "http_timeout must not be negative")
	}
	if s.RequestsPerSecond < 0 {
		problems = append(problems, "requests_per_second must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}
