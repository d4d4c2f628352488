// Command fedledger archives and structures Federal Reserve policy communications.
package main

import (
	"os"

	"github.com/policyledger/fedledger/internal/adapters/driving/cli"
	"github.com/policyledger/fedledger/internal/app"
	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
	"github.com/policyledger/fedledger/internal/logger"
)

func main() {
	os.Exit(cli.Execute(cli.Wiring{
		Settings: func(configPath string) (driving.SettingsService, error) {
			return app.NewSettingsService(configPath)
		},
		Services: func(settings domain.Settings, log *logger.Logger) (*cli.Services, error) {
			a, err := app.New(settings, log)
			if err != nil {
				return nil, err
			}
			return &cli.Services{
				Sync:    a.Sync,
				Archive: a.Archive,
				Metrics: a.MetricsHandler(),
				Close:   a.Close,
			}, nil
		},
	}))
}
