package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
	}

	if cmd.Bool("force") {
		if err := shared.SaveConfig(path, shared.DefaultConfig()); err != nil {
			return err
		}
	} else if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set api.base_url, then run 'markx setup database' and 'markx auth login'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		} else {
			r.logger.Info("config file not found, creating from template", "path", configPath)
			if err := shared.CreateConfigFile(configPath); err != nil {
				r.logger.Warn("failed to create config file", "error", err)
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, applied, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.writePlain("✓ Database ready: %s\n", config.Database.Path)
	if applied {
		r.writePlain("Schema version: %d\n", version)
	} else {
		r.writePlain("Schema version: none\n")
	}
	return nil
}
