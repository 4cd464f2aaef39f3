package command

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/i10n"
	"go.uber.org/zap"
)

// Rest is the part of the REST API commands use.
type Rest interface {
	navi.MessageEditor
	CreateMessage(
		channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt,
	) (*discord.Message, error)
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID, opts ...rest.RequestOpt) error
	AddReaction(channelID snowflake.ID, messageID snowflake.ID, emoji string, opts ...rest.RequestOpt) error
	GetMessage(channelID snowflake.ID, messageID snowflake.ID, opts ...rest.RequestOpt) (*discord.Message, error)
	GetMessages(
		channelID snowflake.ID, around snowflake.ID, before snowflake.ID, after snowflake.ID, limit int,
		opts ...rest.RequestOpt,
	) ([]discord.Message, error)
	GetUser(userID snowflake.ID, opts ...rest.RequestOpt) (*discord.User, error)
	GetMember(guildID snowflake.ID, userID snowflake.ID, opts ...rest.RequestOpt) (*discord.Member, error)
}

// Permissions resolves permissions from the gateway cache.
type Permissions interface {
	// Member returns the guild permissions of a member.
	Member(guildID, userID snowflake.ID) (discord.Permissions, bool)
	// SelfInChannel returns the permissions of the bot in a guild channel.
	SelfInChannel(guildID, channelID snowflake.ID) (discord.Permissions, bool)
}

// ChannelTracker knows the newest message of each channel.
type ChannelTracker interface {
	LastMessage(channelID snowflake.ID) (snowflake.ID, bool)
}

// BlameRecorder stores which invocation a sent message belongs to.
type BlameRecorder interface {
	RecordMessage(ctx context.Context, invocationID int64, messageID, channelID, guildID snowflake.ID) error
}

// LocaleSource knows the preferred locale of guilds.
type LocaleSource interface {
	GuildLocale(guildID snowflake.ID) (string, bool)
}

// Env is what every command context shares.
type Env struct {
	Rest        Rest
	Permissions Permissions
	Channels    ChannelTracker
	Blame       BlameRecorder
	Navi        *navi.Manager
	Registry    *Registry
	Logger      *zap.Logger
	Translator  *i10n.Translator
	Locales     LocaleSource
	// NaviTimeout overrides how long paginated views accept input.
	NaviTimeout time.Duration

	// SelfID is the user ID of the bot.
	SelfID snowflake.ID
	// Token is redacted from code blocks.
	Token    string
	Owners   map[snowflake.ID]struct{}
	Defaults []string
}

// IsOwner reports whether id belongs to a bot owner.
func (e *Env) IsOwner(id snowflake.ID) bool {
	_, ok := e.Owners[id]
	return ok
}

// SelfMention is how the bot is mentioned in message content.
func (e *Env) SelfMention() string {
	return discord.UserMention(e.SelfID)
}
