package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/config"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/daemon"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/logging"
	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/version"
)

func main() {
	var (
		cfgPath   string
		addr      string
		transport string
	)

	root := &cobra.Command{
		Use:     "errcoachd",
		Short:   "Error explanation coach daemon",
		Version: version.Full(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if transport != "" {
				cfg.Server.Transport = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort
			logger = logging.Component(logger, "daemon")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := daemon.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "Path to config file (default: configs/config.yaml)")
	root.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	root.Flags().StringVar(&transport, "transport", "", "Session transport (connect or ndjson), overrides server.transport")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
