// Package main provides the entry point for the pokecache CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ersonp/pokecache/internal/infrastructure/config"
)

var (
	version = "0.1.0-dev"
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pokecache",
		Short:         "A read-through Pokemon cache in front of PokeAPI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err = newLogger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newRandomCmd(),
		newSearchCmd(),
		newDetailsCmd(),
		newDailyCmd(),
		newSuggestCmd(),
	)

	return rootCmd
}

// newLogger builds a logger for the configured profile. The development
// profile gets the human-readable console encoder.
func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	zcfg, err := loggerConfig(cfg, debug)
	if err != nil {
		return nil, err
	}
	return zcfg.Build(loggerOptions(cfg)...)
}

func loggerConfig(cfg *config.Config, debug bool) (zap.Config, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Profile == config.ProfileDevelopment {
		zcfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Log.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("parsing log level: %w", err)
		}
		level = parsed
	}
	if debug {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg, nil
}

// loggerOptions keeps stack traces for errors only; a missed lookup logs
// at warn and is routine.
func loggerOptions(cfg *config.Config) []zap.Option {
	return []zap.Option{
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("profile", cfg.Profile)),
	}
}
