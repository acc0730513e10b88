package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/internal/app"
)

const shutdownTimeout = 30 * time.Second

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "iris",
		Short:         "Catalog matching and duplicate detection for casting requests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), migrateCommand(), presetsCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the analyzed request consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, sync, err := bootstrap()
			if err != nil {
				return err
			}
			defer sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return a.Run(ctx, shutdownTimeout)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, sync, err := bootstrap()
			if err != nil {
				return err
			}
			defer sync()

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			return a.Migrate(cmd.Context())
		},
	}
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "Print the duplicate detection presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if len(args) == 1 {
				preset, err := config.Preset(args[0])
				if err != nil {
					return err
				}
				return enc.Encode(preset)
			}

			presets, err := config.Presets()
			if err != nil {
				return err
			}
			return enc.Encode(presets)
		},
	}
}

func bootstrap() (*config.Config, ectologger.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, sync, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, sync, nil
}

// newLogger builds the zap backed logger. Pretty logs switch to the console encoder.
func newLogger(cfg *config.Config) (ectologger.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]any{"app": cfg.AppName}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build logger")
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }, nil
}
