package service

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/nanikabot/nanika/internal/memo"
	"go.uber.org/zap"
)

// BlameStore persists invocations and the messages they caused.
type BlameStore interface {
	CreateInvocation(ctx context.Context, invocation *types.Invocation) error
	CreateBlame(ctx context.Context, blame *types.Blame) error
	GetInvocationByMessage(ctx context.Context, messageID snowflake.ID) (*types.Invocation, error)
}

// BlameService records who made the bot say what.
type BlameService struct {
	store  BlameStore
	cache  *memo.Cache[*types.Invocation]
	logger *zap.Logger
}

// NewBlame creates a BlameService keeping the most recent lookups.
func NewBlame(store BlameStore, logger *zap.Logger) *BlameService {
	return &BlameService{
		store:  store,
		cache:  memo.New[*types.Invocation](memo.WithCapacity(memo.DefaultCapacity)),
		logger: logger.Named("blame_service"),
	}
}

// RecordInvocation stores an invocation and sets its ID.
func (s *BlameService) RecordInvocation(ctx context.Context, invocation *types.Invocation) error {
	return s.store.CreateInvocation(ctx, invocation)
}

// RecordMessage links a message the bot sent to the invocation behind it.
func (s *BlameService) RecordMessage(
	ctx context.Context, invocationID int64, messageID, channelID, guildID snowflake.ID,
) error {
	return s.store.CreateBlame(ctx, &types.Blame{
		MessageID:    messageID,
		ChannelID:    channelID,
		GuildID:      guildID,
		InvocationID: invocationID,
	})
}

// InvocationFor returns the invocation that caused a bot message, or nil when
// it is unknown. Results are cached, including unknown ones.
func (s *BlameService) InvocationFor(ctx context.Context, messageID snowflake.ID) (*types.Invocation, error) {
	return s.cache.Get(ctx, memo.Key(messageID), func(ctx context.Context) (*types.Invocation, error) {
		return s.store.GetInvocationByMessage(ctx, messageID)
	})
}
