package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitalvas/rewriter/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, server.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.Error("close store", "error", err)
				}
			}()

			if !cfg.Admin.Enabled() {
				logger.Warn("admin API disabled, no admin users configured")
			}

			return srv.Run(ctx)
		},
	}
}
