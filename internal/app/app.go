// Package app wires the driven adapters into the core services.
package app

import (
	"fmt"
	"net/http"

	"github.com/policyledger/fedledger/internal/adapters/driven/config/file"
	"github.com/policyledger/fedledger/internal/adapters/driven/discovery"
	"github.com/policyledger/fedledger/internal/adapters/driven/fetch"
	"github.com/policyledger/fedledger/internal/adapters/driven/metrics"
	"github.com/policyledger/fedledger/internal/adapters/driven/output"
	"github.com/policyledger/fedledger/internal/adapters/driven/storage/rawfs"
	"github.com/policyledger/fedledger/internal/adapters/driven/storage/sqlite"
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/services"
	"github.com/policyledger/fedledger/internal/extractors"
	"github.com/policyledger/fedledger/internal/logger"
	"github.com/policyledger/fedledger/internal/schema"
)

// DotEnvFile is read from the working directory.
const DotEnvFile = ".env"

// NewSettingsService opens the config file (the default path when empty)
// and reads the .env file.
func NewSettingsService(configPath string) (*services.SettingsService, error) {
	if configPath == "" {
		p, err := file.DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}
	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	dotenv, err := services.ReadDotEnv(DotEnvFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	return services.NewSettingsService(store, dotenv, nil), nil
}

// App holds the services built from one set of settings.
type App struct {
	Settings domain.Settings
	Sync     *services.SyncOrchestrator
	Archive  *services.ArchiveService
	Metrics  *metrics.Metrics

	runs *sqlite.LazyStore
}

// New builds every adapter from validated settings.
func New(settings domain.Settings, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}

	// Nothing here touches disk; stores create their files on first write.
	raw, err := rawfs.NewStore(settings.RawDir)
	if err != nil {
		return nil, err
	}
	runs := sqlite.NewLazyStore(settings.DataDir)

	remote, err := fetch.NewHTTPFetcher(fetch.HTTPConfig{
		UserAgent:         settings.UserAgent,
		Timeout:           settings.HTTPTimeout,
		RequestsPerSecond: settings.RequestsPerSecond,
		CacheDir:          settings.CacheDir,
	}, log)
	if err != nil {
		return nil, err
	}

	registry := extractors.NewDefaultRegistry()
	out := output.NewStore(settings.ProcessedDir, settings.MetadataDir)
	m := metrics.New(settings.MetricsFile)

	orch := services.NewSyncOrchestrator(services.SyncDeps{
		Discoverer: discovery.New(),
		Fetcher:    fetch.NewRouter(fetch.NewFileFetcher(), remote),
		RawStore:   raw,
		Extractors: registry,
		Validator:  schema.NewValidator(),
		Output:     out,
		Runs:       runs,
		Metrics:    m,
	}, log)

	return &App{
		Settings: settings,
		Sync:     orch,
		Archive:  services.NewArchiveService(out, raw, runs, registry.Types()),
		Metrics:  m,
		runs:     runs,
	}, nil
}

// MetricsHandler serves the batch metrics in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}

// Close releases the run history database.
func (a *App) Close() error {
	if a.runs == nil {
		return nil
	}
	err := a.runs.Close()
	a.runs = nil
	if err != nil {
		return fmt.Errorf("closing run history: %w", err)
	}
	return nil
}
