package database

import (
	"github.com/nanikabot/nanika/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	prefix *models.PrefixModel
	blame  *models.BlameModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		prefix: models.NewPrefix(db, logger),
		blame:  models.NewBlame(db, logger),
	}
}

// Prefix returns the guild prefix model repository.
func (r *Repository) Prefix() *models.PrefixModel {
	return r.prefix
}

// Blame returns the invocation and blame model repository.
func (r *Repository) Blame() *models.BlameModel {
	return r.blame
}
