package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("MARKX_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	if err := shared.ApplyEnv(config); err != nil {
		logger.Fatal("invalid environment", "error", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	d, err := wire(config, logger)
	if err != nil {
		logger.Fatal("failed to initialize", "error", err)
	}
	defer d.Close()

	runner := NewRunner(RunnerOpts{
		Config:      config,
		ConfigPath:  configPath,
		Services:    d.services,
		Credentials: d.credentials,
		Accounts:    d.accounts,
		Analyses:    d.analyses,
		Engine:      d.engine,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "markx",
		Usage:    "Manage bookmarks and run AI website analysis from the terminal",
		Version:  version,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()

	if err != nil {
		code := report(logger, err)
		d.Close()
		os.Exit(code)
	}
}

// report logs err with a hint where one helps and returns the exit code.
func report(logger *log.Logger, err error) int {
	switch {
	case errors.Is(err, shared.ErrNotImplemented):
		logger.Warn("not implemented")
		return 0
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrNoCredential):
		logger.Error("not signed in", "hint", "run `markx auth login` or `markx auth github`")
		return 2
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return 130
	default:
		logger.Error(fmt.Sprintf("application error: %v", err))
		return 1
	}
}
