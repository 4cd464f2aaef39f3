package service

import (
	"context"
	"slices"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/memo"
	"go.uber.org/zap"
)

// MaxGuildPrefixes is how many custom prefixes a guild may have.
const MaxGuildPrefixes = 100

// PrefixStore persists guild prefixes.
type PrefixStore interface {
	GetPrefixes(ctx context.Context, guildID snowflake.ID) ([]string, bool, error)
	SavePrefixes(ctx context.Context, guildID snowflake.ID, prefixes []string) error
	SavePrefixesWithLimit(ctx context.Context, guildID snowflake.ID, prefixes []string, limit int) error
	DeletePrefixes(ctx context.Context, guildID snowflake.ID) ([]string, bool, error)
}

// PrefixService resolves guild prefixes through a cache that lives until a
// guild changes its prefixes.
type PrefixService struct {
	store    PrefixStore
	cache    *memo.Cache[[]string]
	defaults []string
	logger   *zap.Logger
}

// NewPrefix creates a PrefixService. Guilds without custom prefixes use defaults.
func NewPrefix(store PrefixStore, defaults []string, logger *zap.Logger) *PrefixService {
	return &PrefixService{
		store:    store,
		cache:    memo.New[[]string](memo.Unbounded()),
		defaults: slices.Clone(defaults),
		logger:   logger.Named("prefix_service"),
	}
}

// Defaults returns a copy of the default prefixes.
func (s *PrefixService) Defaults() []string {
	return slices.Clone(s.defaults)
}

// GuildPrefixes returns the prefixes of a guild. The returned slice is shared
// with the cache and must not be modified.
func (s *PrefixService) GuildPrefixes(ctx context.Context, guildID snowflake.ID) ([]string, error) {
	return s.cache.Get(ctx, memo.Key(guildID), func(ctx context.Context) ([]string, error) {
		prefixes, found, err := s.store.GetPrefixes(ctx, guildID)
		if err != nil {
			return nil, err
		}

		// An empty list is a valid choice, only a missing row means defaults
		if !found {
			return s.defaults, nil
		}

		return prefixes, nil
	})
}

// Append stores prefixes as the new list of a guild unless the guild is at
// MaxGuildPrefixes already, in which case models.ErrPrefixLimit is returned.
func (s *PrefixService) Append(ctx context.Context, guildID snowflake.ID, prefixes []string) error {
	err := s.store.SavePrefixesWithLimit(ctx, guildID, prefixes, MaxGuildPrefixes)
	if err != nil {
		return err
	}

	s.Forget(guildID)

	return nil
}

// Save replaces the prefixes of a guild.
func (s *PrefixService) Save(ctx context.Context, guildID snowflake.ID, prefixes []string) error {
	if err := s.store.SavePrefixes(ctx, guildID, prefixes); err != nil {
		return err
	}

	s.Forget(guildID)

	return nil
}

// Reset returns a guild to the default prefixes. It reports whether the guild
// was effectively using the defaults already.
func (s *PrefixService) Reset(ctx context.Context, guildID snowflake.ID) (bool, error) {
	previous, found, err := s.store.DeletePrefixes(ctx, guildID)
	if err != nil {
		return false, err
	}

	s.Forget(guildID)

	return !found || sameItems(previous, s.defaults), nil
}

// Forget drops the cached prefixes of a guild.
func (s *PrefixService) Forget(guildID snowflake.ID) {
	s.cache.Forget(memo.Key(guildID))
}

// sameItems reports whether a and b hold the same items with the same counts.
func sameItems(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}

	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}

	return true
}
