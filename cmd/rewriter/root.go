package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitalvas/rewriter/config"
	"github.com/vitalvas/rewriter/internal/logging"
	"github.com/vitalvas/rewriter/router"
	"github.com/vitalvas/rewriter/routestore"
	"github.com/vitalvas/rewriter/server"
)

type rootOptions struct {
	configPath string
	logLevel   string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rewriter",
		Short:         "Pattern based URL routing service",
		Long:          `rewriter maps request paths to content handlers through an ordered table of regular expression routes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	flags.StringVarP(&opts.output, "output", "o", outputAuto, "Output format: auto, table or json")

	cmd.AddCommand(
		newServeCmd(opts),
		newRoutesCmd(opts),
		newVerifyCmd(opts),
		newMatchCmd(opts),
		newTokenCmd(opts),
	)

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(os.Stderr, level, cfg.Log.Format), nil
}

// openStore opens the configured store without a publisher; changes made
// here reach a running server on its next publish.
func openStore(ctx context.Context, cfg *config.Config) (*routestore.Store, func() error, error) {
	backend, closeFn, err := server.NewBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	return routestore.New(backend), closeFn, nil
}

// buildRegistry publishes the stored routes into a local table.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*router.Registry, func() error, error) {
	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	reg, err := router.New(store,
		router.WithLogger(logger),
		router.WithBuiltins(router.BuiltinRoutes(cfg.LoadPrefix)),
	)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	if _, err := reg.Publish(ctx); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("publish: %w", err)
	}

	return reg, closeFn, nil
}
