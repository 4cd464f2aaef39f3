package migrations

import (
	"context"
	"fmt"

	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.GuildPrefixes)(nil),
			(*types.Invocation)(nil),
			(*types.Blame)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		// Blame lookups join from the bot message to its invocation
		_, err := db.NewCreateIndex().
			Model((*types.Blame)(nil)).
			Index("idx_blame_invocation_id").
			Column("invocation_id").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create blame index: %w", err)
		}

		_, err = db.NewCreateIndex().
			Model((*types.Invocation)(nil)).
			Index("idx_invocations_message_id").
			Column("message_id").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create invocation index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Blame)(nil),
			(*types.Invocation)(nil),
			(*types.GuildPrefixes)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
