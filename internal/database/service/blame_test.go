package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/database/service"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBlameStore struct {
	mu          sync.Mutex
	nextID      int64
	invocations map[int64]*types.Invocation
	blames      map[snowflake.ID]*types.Blame
	lookups     int
}

func newFakeBlameStore() *fakeBlameStore {
	return &fakeBlameStore{
		invocations: make(map[int64]*types.Invocation),
		blames:      make(map[snowflake.ID]*types.Blame),
	}
}

func (f *fakeBlameStore) CreateInvocation(_ context.Context, invocation *types.Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	invocation.ID = f.nextID
	f.invocations[invocation.ID] = invocation

	return nil
}

func (f *fakeBlameStore) CreateBlame(_ context.Context, blame *types.Blame) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.blames[blame.MessageID]; !ok {
		f.blames[blame.MessageID] = blame
	}

	return nil
}

func (f *fakeBlameStore) GetInvocationByMessage(
	_ context.Context, messageID snowflake.ID,
) (*types.Invocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups++

	blame, ok := f.blames[messageID]
	if !ok {
		return nil, nil //nolint:nilnil // unknown message
	}

	return f.invocations[blame.InvocationID], nil
}

func TestBlameRoundTrip(t *testing.T) {
	t.Parallel()

	store := newFakeBlameStore()
	svc := service.NewBlame(store, zap.NewNop())
	ctx := context.Background()

	invocation := &types.Invocation{
		MessageID: 10,
		ChannelID: 20,
		GuildID:   30,
		AuthorID:  40,
		Command:   "8ball",
		Prefix:    "ww",
	}
	require.NoError(t, svc.RecordInvocation(ctx, invocation))
	require.NotZero(t, invocation.ID)

	require.NoError(t, svc.RecordMessage(ctx, invocation.ID, 11, 20, 30))

	got, err := svc.InvocationFor(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(40), got.AuthorID)
	assert.Equal(t, "8ball", got.Command)
}

func TestInvocationForCachesUnknown(t *testing.T) {
	t.Parallel()

	store := newFakeBlameStore()
	svc := service.NewBlame(store, zap.NewNop())
	ctx := context.Background()

	for range 3 {
		got, err := svc.InvocationFor(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	assert.Equal(t, 1, store.lookups)
}
