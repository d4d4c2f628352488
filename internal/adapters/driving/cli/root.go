// Package cli implements the fedledger command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/policyledger/fedledger/internal/adapters/driving/cli/styles"
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
	"github.com/policyledger/fedledger/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitSetup covers a bad source directory, an unregistered type and invalid configuration.
	ExitSetup = 2
	// ExitWrite means validated records could not be persisted.
	ExitWrite = 3
)

// Services are built once settings are resolved.
type Services struct {
	Sync    driving.SyncOrchestrator
	Archive driving.ArchiveService
	Metrics http.Handler
	Close   func() error
}

// Wiring connects the commands to the application. Nil fields leave the
// package-level services as they are.
type Wiring struct {
	Settings func(configPath string) (driving.SettingsService, error)
	Services func(settings domain.Settings, log *logger.Logger) (*Services, error)
}

// Services used by the commands.
var (
	wiring           Wiring
	settingsService  driving.SettingsService
	syncOrchestrator driving.SyncOrchestrator
	archiveService   driving.ArchiveService
	metricsHandler   http.Handler
	closeServices    func() error

	settings = domain.DefaultSettings().WithDerivedPaths()
	appLog   = logger.NewNop()
)

// Global flags.
var (
	flagDataDir string
	flagConfig  string
	flagVerbose bool
	flagLogJSON bool
)

// needsAnnotation declares how much setup a command requires.
const needsAnnotation = "fedledger/needs"

const (
	needsNothing     = "nothing"
	needsConfigStore = "config-store"
	needsSettings    = "settings"
)

var rootCmd = &cobra.Command{
	Use:   "fedledger",
	Short: "Archive and structure Federal Reserve policy communications",
	Long: `fedledger ingests FOMC statements, minutes, speeches, press conferences,
testimony and reports. Each document is preserved byte for byte, extracted
into structured fields, validated against its schema and written to
per-type Parquet and JSON sinks.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDataDir, "data-dir", "", "data directory (overrides data_dir)")
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.fedledger/config.toml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")
	pf.BoolVar(&flagLogJSON, "log-json", false, "log as JSON")
}

// setup resolves settings once and builds the services the command needs.
func setup(cmd *cobra.Command, _ []string) error {
	needs := cmd.Annotations[needsAnnotation]
	if needs == needsNothing {
		return nil
	}

	if wiring.Settings != nil {
		svc, err := wiring.Settings(flagConfig)
		if err != nil {
			return err
		}
		settingsService = svc
	}
	if needs == needsConfigStore {
		return nil
	}

	if settingsService != nil {
		resolved, err := settingsService.Resolve()
		if err != nil {
			return err
		}
		settings = resolved
	}
	settings = applyFlags(cmd, settings)
	if err := settings.Validate(); err != nil {
		return err
	}
	if needs == needsSettings {
		return nil
	}

	log, err := logger.New(logger.Config{
		Level:  settings.LogLevel,
		JSON:   settings.LogJSON,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	appLog = log

	if wiring.Services == nil {
		return nil
	}
	svcs, err := wiring.Services(settings, log)
	if err != nil {
		return err
	}
	syncOrchestrator = svcs.Sync
	archiveService = svcs.Archive
	metricsHandler = svcs.Metrics
	closeServices = svcs.Close
	return nil
}

// applyFlags layers the global flags over the resolved settings.
func applyFlags(cmd *cobra.Command, s domain.Settings) domain.Settings {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		s = s.WithDataDir(flagDataDir)
	}
	if flagVerbose {
		s.LogLevel = "debug"
	}
	if flags.Changed("log-json") {
		s.LogJSON = flagLogJSON
	}
	return s
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute(w Wiring) int {
	wiring = w
	err := rootCmd.Execute()
	if err != nil {
		_ = teardown(rootCmd, nil)
		st := styles.For(isTerminal(rootCmd.ErrOrStderr()))
		fmt.Fprintln(rootCmd.ErrOrStderr(), st.Error.Render("Error: "+err.Error()))
	}
	return ExitCode(err)
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnregisteredType),
		errors.Is(err, domain.ErrInvalidSettings):
		return ExitSetup
	case errors.Is(err, domain.ErrWrite), errors.Is(err, domain.ErrSchemaMismatch):
		return ExitWrite
	default:
		return ExitFailure
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
