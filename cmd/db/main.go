package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/nanikabot/nanika/cmd/db/commands"
	"github.com/nanikabot/nanika/internal/database"
	"github.com/nanikabot/nanika/internal/database/migrations"
	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	deps, err := setupDependencies()
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()

	cmds := commands.MigrationCommands(deps)
	cmds = append(cmds, commands.MaintenanceCommands(deps)...)

	app := &cli.Command{
		Name:     "db",
		Usage:    "Database management tool",
		Commands: cmds,
	}

	return app.Run(context.Background(), os.Args)
}

// setupDependencies connects to the database and builds the migrator.
func setupDependencies() (*commands.CLIDependencies, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(context.Background(), &cfg.Common.PostgreSQL, logger, database.Options{
		DefaultPrefixes: cfg.Bot.Prefixes.Defaults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrations.NewMigrator(db.DB()),
		Logger:   logger,
	}, nil
}
