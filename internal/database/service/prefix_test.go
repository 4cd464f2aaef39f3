package service_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/database/models"
	"github.com/nanikabot/nanika/internal/database/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var defaults = []string{"ww", "!", "?"}

type fakePrefixStore struct {
	mu    sync.Mutex
	rows  map[snowflake.ID][]string
	reads int
	err   error
}

func newFakePrefixStore() *fakePrefixStore {
	return &fakePrefixStore{rows: make(map[snowflake.ID][]string)}
}

func (f *fakePrefixStore) GetPrefixes(_ context.Context, guildID snowflake.ID) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.err != nil {
		return nil, false, f.err
	}

	prefixes, ok := f.rows[guildID]

	return slices.Clone(prefixes), ok, nil
}

func (f *fakePrefixStore) SavePrefixes(_ context.Context, guildID snowflake.ID, prefixes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rows[guildID] = slices.Clone(prefixes)

	return nil
}

func (f *fakePrefixStore) SavePrefixesWithLimit(
	_ context.Context, guildID snowflake.ID, prefixes []string, limit int,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.rows[guildID]) >= limit {
		return models.ErrPrefixLimit
	}

	f.rows[guildID] = slices.Clone(prefixes)

	return nil
}

func (f *fakePrefixStore) DeletePrefixes(_ context.Context, guildID snowflake.ID) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefixes, ok := f.rows[guildID]
	delete(f.rows, guildID)

	return prefixes, ok, nil
}

func (f *fakePrefixStore) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reads
}

func TestGuildPrefixesDefaultsAndCache(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	svc := service.NewPrefix(store, defaults, zap.NewNop())
	ctx := context.Background()

	got, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	_, err = svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.readCount())
}

func TestGuildPrefixesEmptyListIsKept(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	store.rows[1] = []string{}
	svc := service.NewPrefix(store, defaults, zap.NewNop())

	got, err := svc.GuildPrefixes(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGuildPrefixesErrorNotCached(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	store.err = errors.New("connection refused")
	svc := service.NewPrefix(store, defaults, zap.NewNop())
	ctx := context.Background()

	_, err := svc.GuildPrefixes(ctx, 1)
	require.Error(t, err)

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	got, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
	assert.Equal(t, 2, store.readCount())
}

func TestAppendForgetsCache(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	svc := service.NewPrefix(store, defaults, zap.NewNop())
	ctx := context.Background()

	_, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Append(ctx, 1, []string{"ww", "!", "?", "hey"}))

	got, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ww", "!", "?", "hey"}, got)
}

func TestAppendAtLimit(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	full := make([]string, service.MaxGuildPrefixes)
	for i := range full {
		full[i] = string(rune('a' + i%26))
	}
	store.rows[1] = full
	svc := service.NewPrefix(store, defaults, zap.NewNop())

	err := svc.Append(context.Background(), 1, append(slices.Clone(full), "one more"))
	require.ErrorIs(t, err, models.ErrPrefixLimit)
	assert.Len(t, store.rows[1], service.MaxGuildPrefixes)
}

func TestSaveForgetsCache(t *testing.T) {
	t.Parallel()

	store := newFakePrefixStore()
	store.rows[1] = []string{"a", "b"}
	svc := service.NewPrefix(store, defaults, zap.NewNop())
	ctx := context.Background()

	_, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, 1, []string{"a"}))

	got, err := svc.GuildPrefixes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestReset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rows        []string
		hasRow      bool
		wantDefault bool
	}{
		{
			name:        "no row",
			wantDefault: true,
		},
		{
			name:        "same as defaults in another order",
			rows:        []string{"?", "ww", "!"},
			hasRow:      true,
			wantDefault: true,
		},
		{
			name:   "custom",
			rows:   []string{"ww", "!"},
			hasRow: true,
		},
		{
			name:   "duplicates differ",
			rows:   []string{"ww", "ww", "!"},
			hasRow: true,
		},
		{
			name:   "empty list",
			rows:   []string{},
			hasRow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakePrefixStore()
			if tt.hasRow {
				store.rows[1] = tt.rows
			}
			svc := service.NewPrefix(store, defaults, zap.NewNop())
			ctx := context.Background()

			_, err := svc.GuildPrefixes(ctx, 1)
			require.NoError(t, err)

			wasDefault, err := svc.Reset(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDefault, wasDefault)

			got, err := svc.GuildPrefixes(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, defaults, got)
		})
	}
}

func TestDefaultsReturnsCopy(t *testing.T) {
	t.Parallel()

	svc := service.NewPrefix(newFakePrefixStore(), defaults, zap.NewNop())
	got := svc.Defaults()
	got[0] = "changed"

	assert.Equal(t, "ww", svc.Defaults()[0])
}
