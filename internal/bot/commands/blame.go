package commands

import (
	"context"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/i10n"
	"go.uber.org/zap"
)

const (
	// blameHistory is how many messages before the invocation are searched.
	blameHistory = 4
	// binMaxAge is the oldest message the bin reaction deletes.
	binMaxAge = 60 * time.Hour
)

// binEmojis delete a bot message when its invoker reacts with them.
var binEmojis = []string{"\U0001F5D1", "\U0001F6AE"}

// binPermissions are needed by the bot to delete a message.
const binPermissions = discord.PermissionViewChannel |
	discord.PermissionReadMessageHistory |
	discord.PermissionManageMessages

// Blame answers who made the bot send a message.
type Blame struct {
	invocations InvocationFinder
	now         func() time.Time
}

func (b *Blame) command() *command.Command {
	return &command.Command{
		Name: "blame",
		Description: "check who caused the bot to send a certain message.\n" +
			"put a message link/id or reply to a message to use it.",
		Category: CategoryBot,
		Params:   []command.Param{{Name: "message", Optional: true}},
		Run:      b.run,
	}
}

func (b *Blame) run(c *command.Context) error {
	msg, err := b.target(c)
	if err != nil {
		return err
	}

	env := c.Env()
	if msg.Author.ID != env.SelfID {
		_, err := c.Say(c.T("blame.not_mine"))
		return err
	}

	invocation, err := b.invocations.InvocationFor(c.Context(), msg.ID)
	if err != nil {
		return err
	}
	if invocation == nil {
		_, err := c.Say(c.T("blame.unsure"))
		return err
	}

	author := c.T("blame.you")
	if invocation.AuthorID != c.Author().ID {
		author = discord.UserMention(invocation.AuthorID)
	}

	var msgGuild snowflake.ID
	if msg.GuildID != nil {
		msgGuild = *msg.GuildID
	} else if guildID, ok := c.GuildID(); ok {
		msgGuild = guildID
	}

	var reply strings.Builder
	reply.WriteString(c.T("blame.said", i10n.Params{
		"author": author,
		"jump":   jumpURL(msgGuild, msg.ChannelID, msg.ID),
	}))
	if invocation.Command != "" {
		reply.WriteString(c.T("blame.command", i10n.Params{"command": invocation.Command}))
	}
	reply.WriteString(c.T("blame.original", i10n.Params{
		"jump": jumpURL(invocation.GuildID, invocation.ChannelID, invocation.MessageID),
	}))

	_, err = c.Plain(reply.String())

	return err
}

// target is the message given as argument, the message replied to, or the
// newest recent bot message.
func (b *Blame) target(c *command.Context) (*discord.Message, error) {
	rest := c.Env().Rest

	if arg := c.Args.String("message"); arg != "" {
		channelID, messageID, err := parseMessageRef(arg, c.ChannelID())
		if err != nil {
			return nil, &command.UserError{Message: c.T("blame.not_found")}
		}

		msg, err := rest.GetMessage(channelID, messageID)
		if err != nil {
			return nil, &command.UserError{Message: c.T("blame.not_found")}
		}

		return msg, nil
	}

	if ref := c.Message.MessageReference; ref != nil && ref.MessageID != nil {
		msg, err := rest.GetMessage(c.ChannelID(), *ref.MessageID)
		if err != nil {
			return nil, &command.UserError{Message: c.T("blame.not_found")}
		}

		return msg, nil
	}

	history, err := rest.GetMessages(c.ChannelID(), 0, c.Message.ID, 0, blameHistory)
	if err != nil {
		c.Logger().Debug("Failed to read channel history", zap.Error(err))
		return nil, &command.UserError{Message: c.T("blame.no_message")}
	}

	for i := range history {
		if history[i].Author.ID == c.Env().SelfID {
			return &history[i], nil
		}
	}

	return nil, &command.UserError{Message: c.T("blame.no_message")}
}

// Reaction is a reaction added to a message.
type Reaction struct {
	UserID    snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	GuildID   *snowflake.ID
	Emoji     string
}

// HandleReaction deletes a bot message when the user who caused it, or an
// owner, reacts with a bin. It reports whether the message was deleted.
func (b *Blame) HandleReaction(ctx context.Context, env *command.Env, r Reaction) (bool, error) {
	if !isBin(r.Emoji) || r.GuildID == nil {
		return false, nil
	}

	if b.now().Sub(r.MessageID.Time()) >= binMaxAge {
		return false, nil
	}

	invocation, err := b.invocations.InvocationFor(ctx, r.MessageID)
	if err != nil || invocation == nil {
		return false, err
	}

	if r.UserID != invocation.AuthorID && !env.IsOwner(r.UserID) {
		return false, nil
	}

	if env.Permissions == nil {
		return false, nil
	}

	perms, ok := env.Permissions.SelfInChannel(*r.GuildID, r.ChannelID)
	if !ok || (!perms.Has(discord.PermissionAdministrator) && !perms.Has(binPermissions)) {
		return false, nil
	}

	if err := env.Rest.DeleteMessage(r.ChannelID, r.MessageID); err != nil {
		env.Logger.Debug("Failed to delete binned message",
			zap.Uint64("message_id", uint64(r.MessageID)),
			zap.Error(err))
		return false, nil
	}

	return true, nil
}

func isBin(emoji string) bool {
	for _, bin := range binEmojis {
		if strings.HasPrefix(emoji, bin) {
			return true
		}
	}

	return false
}
