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

// ErrPrefixLimit is returned when a guild already has the maximum number of prefixes.
var ErrPrefixLimit = errors.New("prefix limit reached")

// PrefixModel handles database operations for guild prefixes.
type PrefixModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPrefix creates a PrefixModel with database access.
func NewPrefix(db *bun.DB, logger *zap.Logger) *PrefixModel {
	return &PrefixModel{
		db:     db,
		logger: logger.Named("db_prefix"),
	}
}

// GetPrefixes retrieves the custom prefixes of a guild. The boolean is false
// when the guild never customized its prefixes.
func (r *PrefixModel) GetPrefixes(ctx context.Context, guildID snowflake.ID) ([]string, bool, error) {
	type result struct {
		prefixes []string
		found    bool
	}

	res, err := dbretry.Operation(ctx, func(ctx context.Context) (result, error) {
		row := &types.GuildPrefixes{GuildID: guildID}

		err := r.db.NewSelect().Model(row).
			Column("prefixes").
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result{}, nil
			}
			return result{}, fmt.Errorf("failed to get guild prefixes: %w (guildID=%d)", err, guildID)
		}

		if row.Prefixes == nil {
			row.Prefixes = []string{}
		}

		return result{prefixes: row.Prefixes, found: true}, nil
	})

	return res.prefixes, res.found, err
}

// SavePrefixes replaces the custom prefixes of a guild.
func (r *PrefixModel) SavePrefixes(ctx context.Context, guildID snowflake.ID, prefixes []string) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.upsert(ctx, r.db, guildID, prefixes)
	})
}

// SavePrefixesWithLimit replaces the custom prefixes of a guild unless the
// stored list already holds limit or more entries.
func (r *PrefixModel) SavePrefixesWithLimit(
	ctx context.Context, guildID snowflake.ID, prefixes []string, limit int,
) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		var count sql.NullInt64

		err := tx.NewSelect().
			Model((*types.GuildPrefixes)(nil)).
			ColumnExpr("cardinality(prefixes)").
			Where("guild_id = ?", guildID).
			For("UPDATE").
			Scan(ctx, &count)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to count guild prefixes: %w (guildID=%d)", err, guildID)
		}

		if count.Valid && count.Int64 >= int64(limit) {
			return ErrPrefixLimit
		}

		return r.upsert(ctx, tx, guildID, prefixes)
	})
}

// DeletePrefixes removes the custom prefixes of a guild, returning what was
// stored. The boolean is false when nothing was stored.
func (r *PrefixModel) DeletePrefixes(ctx context.Context, guildID snowflake.ID) ([]string, bool, error) {
	type result struct {
		prefixes []string
		found    bool
	}

	res, err := dbretry.Operation(ctx, func(ctx context.Context) (result, error) {
		var rows []types.GuildPrefixes

		err := r.db.NewDelete().
			Model(&rows).
			Where("guild_id = ?", guildID).
			Returning("prefixes").
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return result{}, fmt.Errorf("failed to delete guild prefixes: %w (guildID=%d)", err, guildID)
		}

		if len(rows) == 0 {
			return result{}, nil
		}

		return result{prefixes: rows[0].Prefixes, found: true}, nil
	})

	return res.prefixes, res.found, err
}

func (r *PrefixModel) upsert(ctx context.Context, db bun.IDB, guildID snowflake.ID, prefixes []string) error {
	row := &types.GuildPrefixes{
		GuildID:   guildID,
		Prefixes:  prefixes,
		UpdatedAt: time.Now(),
	}

	_, err := db.NewInsert().Model(row).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("prefixes = EXCLUDED.prefixes").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save guild prefixes: %w (guildID=%d)", err, guildID)
	}

	r.logger.Debug("Saved guild prefixes",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Int("count", len(prefixes)))

	return nil
}
