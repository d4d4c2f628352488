package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	mu     sync.Mutex
	result *domain.BatchResult
	err    error
	reqs   []driving.SyncRequest
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, req driving.SyncRequest) (*domain.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.result, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, docType domain.DocumentType) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{DocType: docType}, nil
}

func (m *mockSyncOrchestrator) lastRequest() driving.SyncRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reqs[len(m.reqs)-1]
}

// mockArchiveService implements driving.ArchiveService for testing.
type mockArchiveService struct {
	docs  []domain.DocumentSummary
	info  *domain.DocumentInfo
	stats *domain.ArchiveStats
	err   error
}

func (m *mockArchiveService) List(_ context.Context, _ domain.DocumentType) ([]domain.DocumentSummary, error) {
	return m.docs, m.err
}

func (m *mockArchiveService) Info(_ context.Context, _ domain.Identifier) (*domain.DocumentInfo, error) {
	return m.info, m.err
}

func (m *mockArchiveService) Stats(_ context.Context) (*domain.ArchiveStats, error) {
	return m.stats, m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	resolved domain.Settings
	err      error
	set      map[string]string
}

func (m *mockSettingsService) Resolve() (domain.Settings, error) {
	return m.resolved, m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string { return []string{"data_dir"} }

func (m *mockSettingsService) Path() string { return "/home/analyst/.fedledger/config.toml" }

// setupWiring swaps the wiring and every package-level service, restoring
// them and all flag values afterwards.
func setupWiring(w Wiring) func() {
	oldWiring := wiring
	oldSettingsService := settingsService
	oldSync := syncOrchestrator
	oldArchive := archiveService
	oldSettings := settings
	oldMetrics := metricsHandler

	wiring = w
	return func() {
		wiring = oldWiring
		settingsService = oldSettingsService
		syncOrchestrator = oldSync
		archiveService = oldArchive
		settings = oldSettings
		metricsHandler = oldMetrics
		closeServices = nil
		resetFlags(rootCmd)
	}
}

// resetFlags returns every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
