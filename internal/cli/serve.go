package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	httpapi "github.com/scriptdeck/scriptdeck/internal/api/http"
	"github.com/scriptdeck/scriptdeck/internal/app"
	"github.com/scriptdeck/scriptdeck/internal/config"
	"github.com/scriptdeck/scriptdeck/internal/log"
	"github.com/scriptdeck/scriptdeck/internal/ports"
	"github.com/scriptdeck/scriptdeck/internal/settings"
	"github.com/scriptdeck/scriptdeck/internal/supervisor"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			logger := log.New(opts.verbose)

			settingsPath := cfg.SettingsPath
			if settingsPath == "" {
				settingsPath, err = settings.DefaultPath()
				if err != nil {
					return err
				}
			}

			hub := httpapi.NewHub()
			defer hub.Close()

			application := app.New(app.Options{
				Config:    cfg,
				Store:     settings.NewStore(settingsPath),
				Inspector: newInspector(cfg),
				Bridge:    supervisor.Fanout{hub, logBridge{logger}},
				Logger:    logger,
			})

			server, err := httpapi.NewServer(httpapi.Config{
				Addr:       cfg.Listen,
				Controller: application,
				Events:     hub,
			})
			if err != nil {
				return err
			}

			logger.Info("daemon listening", "addr", server.Addr())
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured listen address")

	return cmd
}

func newInspector(cfg config.Config) ports.Inspector {
	if cfg.PortInspector == "psutil" {
		return ports.NewPsutilInspector()
	}
	return ports.NewLsofInspector()
}

// logBridge mirrors exit notifications into the daemon log. Output lines are
// deliberately not logged; dev servers are far too chatty for that.
type logBridge struct {
	logger *slog.Logger
}

func (b logBridge) OnOutput(supervisor.OutputEvent) {}

func (b logBridge) OnExit(event supervisor.ExitEvent) {
	b.logger.Debug("script exit event", "script", event.Script, "tab", event.TabID, "code", event.Code)
}
