package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MaintenanceCommands returns commands that clean up stored data.
func MaintenanceCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "prune",
			Usage: "Delete command invocations and their blame records older than a given age",
			Description: `Blame lookups only work for messages that still have an invocation on
record. Old invocations are safe to drop once nobody will bin or blame them.

Examples:
  db prune --older-than 720h     # Drop invocations older than 30 days
  db prune --older-than 2160h -y # Same for 90 days, without asking`,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "older-than",
					Usage:   "Minimum age of invocations to delete",
					Value:   30 * 24 * time.Hour,
					Aliases: []string{"o"},
				},
				&cli.BoolFlag{
					Name:    "yes",
					Usage:   "Skip the confirmation prompt",
					Aliases: []string{"y"},
				},
			},
			Action: handlePrune(deps),
		},
	}
}

// handlePrune handles the 'prune' command.
func handlePrune(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		age := c.Duration("older-than")
		if age <= 0 {
			return ErrInvalidAge
		}

		cutoff := time.Now().Add(-age)

		if !c.Bool("yes") {
			log.Printf("Are you sure you want to delete all invocations created before %s? (y/N)",
				cutoff.Format("2006-01-02 15:04:05 MST"))

			var response string

			_, _ = fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				deps.Logger.Info("Operation cancelled")
				return nil
			}
		}

		deleted, err := deps.DB.Model().Blame().PruneBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune invocations: %w", err)
		}

		deps.Logger.Info("Prune completed",
			zap.Time("cutoff", cutoff),
			zap.Int64("invocations", deleted))

		return nil
	}
}
