package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oxygene76/ballistics-client/pkg/runner"
	"github.com/oxygene76/ballistics-client/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API",
	Long: `Start the HTTP API. A POST to /api/v1/runs starts a run and cancels the one
before it; /api/v1/stream follows progress over a websocket. Prometheus
metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := appConfig.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		interval, err := appConfig.Server.StreamEvery()
		if err != nil {
			return err
		}

		// Fail on a bad default before accepting requests.
		if _, err := appConfig.Simulation.LaunchConfig(); err != nil {
			return err
		}

		r := runner.New(runner.Options{
			BatchSteps: appConfig.Runner.BatchSteps,
			MaxSteps:   appConfig.Runner.MaxSteps,
		}, logger)
		defer r.Close()

		srv := server.New(appConfig.Simulation, r, interval, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ListenAndServe(ctx, addr); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
}
