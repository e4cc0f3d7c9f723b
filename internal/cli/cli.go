// Package cli provides the command-line interface for synkron.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/synkron/internal/config"
	"github.com/klauern/synkron/internal/logging"
	"github.com/klauern/synkron/internal/module"
	"github.com/klauern/synkron/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

type configKey struct{}

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "synkron",
		Usage:   "Manage folder synchronization profiles, exception bundles and backup settings",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Path hint used to look for a portable settings store",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Settings store format: ini, yaml, toml, sqlite",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: table, json, yaml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			if err := configureColors(cmd, cfg); err != nil {
				return ctx, err
			}
			logger, err := configureLogging(cmd, cfg)
			if err != nil {
				return ctx, err
			}
			ctx = logging.NewContext(ctx, logger)
			return context.WithValue(ctx, configKey{}, cfg), nil
		},
		Commands: []*cli.Command{
			versionCommand(),
			configCommand(),
			settingsCommand(),
			syncCommand(),
			exceptionsCommand(),
			backupCommand(),
			storeCommand(),
		},
	}
	return app.Run(ctx, args)
}

// loadConfig loads the application config and applies global flags on top.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if v := cmd.String("store"); v != "" {
		cfg.Store.Path = v
	}
	if v := cmd.String("format"); v != "" {
		cfg.Store.Format = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Output.Format = v
	}
	return cfg, nil
}

// appConfig returns the config resolved by the root Before hook.
func appConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg, nil
	}
	return loadConfig(cmd)
}

// configureColors sets up color output based on CLI flags and config.
func configureColors(cmd *cli.Command, cfg *config.Config) error {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return nil
	}
	return ui.ConfigureColors(cfg.Output.Color, os.Stdout)
}

// configureLogging sets up the logging level based on CLI flags and config.
func configureLogging(cmd *cli.Command, cfg *config.Config) (*slog.Logger, error) {
	opts := logging.DefaultOptions()
	if cfg.Logging.Level != "" {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Logging.Level, err)
		}
		opts.Level = level
	}
	opts.JSON = cfg.Logging.JSON

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return logger, nil
}

// openModule binds a Module to the store selected by the config.
func openModule(ctx context.Context, cmd *cli.Command) (*module.Module, error) {
	cfg, err := appConfig(ctx, cmd)
	if err != nil {
		return nil, err
	}
	format, err := cfg.StoreFormat()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	logger := logging.WithContext(ctx).With(logging.Operation(cmd.FullName()))
	m, err := module.Open(cfg.StorePath(cwd),
		module.WithFormat(format),
		module.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return m, nil
}

// withModule opens the Module, runs fn and closes it. When save is set the
// Module is saved after fn succeeds.
func withModule(ctx context.Context, cmd *cli.Command, save bool, fn func(*module.Module) error) (err error) {
	m, err := openModule(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close settings store: %w", cerr)
		}
	}()

	if err := fn(m); err != nil {
		return err
	}
	if save {
		if err := m.Save(); err != nil {
			logging.WithContext(ctx).Debug("save failed", logging.Path(m.Location().Path), logging.Err(err))
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}
	return nil
}
