package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/database/dbretry"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BlameModel handles database operations for command invocations and the
// messages they caused.
type BlameModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBlame creates a BlameModel with database access.
func NewBlame(db *bun.DB, logger *zap.Logger) *BlameModel {
	return &BlameModel{
		db:     db,
		logger: logger.Named("db_blame"),
	}
}

// CreateInvocation stores an invocation and sets its ID.
func (r *BlameModel) CreateInvocation(ctx context.Context, invocation *types.Invocation) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(invocation).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create invocation: %w (messageID=%d)", err, invocation.MessageID)
		}

		return nil
	})
}

// CreateBlame links a sent message to its invocation. Recording the same
// message twice keeps the first link.
func (r *BlameModel) CreateBlame(ctx context.Context, blame *types.Blame) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(blame).
			On("CONFLICT (message_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create blame: %w (messageID=%d)", err, blame.MessageID)
		}

		return nil
	})
}

// GetInvocationByMessage finds the invocation that caused the bot to send a
// message. It returns nil without an error when the message has no blame.
func (r *BlameModel) GetInvocationByMessage(ctx context.Context, messageID snowflake.ID) (*types.Invocation, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Invocation, error) {
		invocation := new(types.Invocation)

		err := r.db.NewSelect().Model(invocation).
			Join("INNER JOIN blame AS bl ON bl.invocation_id = inv.id").
			Where("bl.message_id = ?", messageID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil //nolint:nilnil // no blame is not an error
			}
			return nil, fmt.Errorf("failed to get invocation: %w (messageID=%d)", err, messageID)
		}

		return invocation, nil
	})
}

// PruneBefore deletes invocations created before cutoff along with the blame
// rows pointing at them. It returns how many invocations were deleted.
func (r *BlameModel) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		old := tx.NewSelect().
			Model((*types.Invocation)(nil)).
			Column("id").
			Where("created_at < ?", cutoff)

		if _, err := tx.NewDelete().
			Model((*types.Blame)(nil)).
			Where("invocation_id IN (?)", old).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete blame: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*types.Invocation)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete invocations: %w", err)
		}

		deleted, err = res.RowsAffected()

		return err
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Pruned invocations",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted))

	return deleted, nil
}
