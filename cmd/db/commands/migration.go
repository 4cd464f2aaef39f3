package commands

import (
	"context"
	"fmt"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MigrationCommands returns all migration-related commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Create the migration bookkeeping tables",
			Action: handleInit(deps),
		},
		{
			Name:   "migrate",
			Usage:  "Apply pending migrations as one group",
			Action: locked(deps, "migrated", deps.Migrator.Migrate),
		},
		{
			Name:   "rollback",
			Usage:  "Roll back the last migration group",
			Action: locked(deps, "rolled back", deps.Migrator.Rollback),
		},
		{
			Name:   "status",
			Usage:  "List applied and pending migrations",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Create a new migration file",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "sql",
					Usage: "Create up and down .sql files instead of a Go migration",
				},
			},
			Action: handleCreate(deps),
		},
	}
}

// handleInit handles the 'init' command.
func handleInit(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return err
		}

		deps.Logger.Info("Migration tables ready")

		return nil
	}
}

// locked runs a migrator step while holding the migration lock.
func locked(
	deps *CLIDependencies, verb string, step func(context.Context, ...migrate.MigrationOption) (*migrate.MigrationGroup, error),
) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return err
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := step(ctx)
		if err != nil {
			return err
		}

		if group.IsZero() {
			deps.Logger.Info("Nothing to do, database is up to date")
			return nil
		}

		deps.Logger.Info("Successfully "+verb,
			zap.String("group", group.String()),
			zap.Int("migrations", len(group.Migrations)))

		return nil
	}
}

// handleStatus handles the 'status' command.
func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}

		unapplied := ms.Unapplied()

		deps.Logger.Info("Migration status",
			zap.Int("total", len(ms)),
			zap.Int("pending", len(unapplied)),
			zap.String("last_group", ms.LastGroup().String()))

		for _, m := range unapplied {
			deps.Logger.Info("Pending migration", zap.String("name", m.Name), zap.String("comment", m.Comment))
		}

		return nil
	}
}

// handleCreate handles the 'create' command.
func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrNameRequired
		}

		name := c.Args().First()

		if c.Bool("sql") {
			files, err := deps.Migrator.CreateSQLMigrations(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to create sql migration: %w", err)
			}

			for _, mf := range files {
				deps.Logger.Info("Created SQL migration", zap.String("path", mf.Path))
			}

			return nil
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create go migration: %w", err)
		}

		deps.Logger.Info("Created Go migration",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path))

		return nil
	}
}
