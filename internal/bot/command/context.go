//nolint:containedctx // request scoped wrapper around one command invocation
package command

import (
	"context"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/pkg/utils"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// blameTimeout bounds recording a sent message.
const blameTimeout = 10 * time.Second

// Context is one command invocation.
type Context struct {
	ctx context.Context
	env *Env

	Message     discord.Message
	Command     *Command
	Args        Args
	Prefix      string
	InvokedWith string
	// Debug is set when an owner used the debug prefix.
	Debug        bool
	InvocationID int64
}

// NewContext creates a Context for msg.
func NewContext(ctx context.Context, env *Env, msg discord.Message) *Context {
	return &Context{
		ctx:     ctx,
		env:     env,
		Message: msg,
	}
}

// Context returns the context.Context of the invocation.
func (c *Context) Context() context.Context {
	return c.ctx
}

// WithContext returns a copy of c using ctx.
func (c *Context) WithContext(ctx context.Context) *Context {
	clone := *c
	clone.ctx = ctx

	return &clone
}

// Env returns the shared environment.
func (c *Context) Env() *Env {
	return c.env
}

// Logger returns a logger tagged with the invocation.
func (c *Context) Logger() *zap.Logger {
	logger := c.env.Logger.With(
		zap.Uint64("message_id", uint64(c.Message.ID)),
		zap.Uint64("author_id", uint64(c.Message.Author.ID)))
	if c.Command != nil {
		logger = logger.With(zap.String("command", c.Command.QualifiedName()))
	}

	return logger
}

// Author is the user who invoked the command.
func (c *Context) Author() discord.User {
	return c.Message.Author
}

// ChannelID is the channel the command was invoked in.
func (c *Context) ChannelID() snowflake.ID {
	return c.Message.ChannelID
}

// GuildID returns the guild of the invocation, or false in direct messages.
func (c *Context) GuildID() (snowflake.ID, bool) {
	if c.Message.GuildID == nil {
		return 0, false
	}

	return *c.Message.GuildID, true
}

// Locale is the preferred locale of the guild, or "" for the native locale.
func (c *Context) Locale() string {
	guildID, ok := c.GuildID()
	if !ok || c.env.Locales == nil {
		return ""
	}

	locale, _ := c.env.Locales.GuildLocale(guildID)

	return locale
}

// T translates message id into the invocation locale.
func (c *Context) T(id string, params ...i10n.Params) string {
	if c.env.Translator == nil {
		return id
	}

	var p i10n.Params
	if len(params) > 0 {
		p = params[0]
	}

	return c.env.Translator.T(c.Locale(), id, p)
}

// DisplayPrefix is the prefix to show in examples. A mention prefix is shown
// as the first default prefix.
func (c *Context) DisplayPrefix() string {
	for _, mention := range mentionPrefixes(c.env.SelfID) {
		if c.Prefix == mention && len(c.env.Defaults) > 0 {
			return c.env.Defaults[0]
		}
	}

	return c.Prefix
}

// SendOption changes how Send behaves.
type SendOption func(*sendOptions)

type sendOptions struct {
	anonymous bool
	noReply   bool
}

// Anonymous skips recording the sent message for blame.
func Anonymous() SendOption {
	return func(o *sendOptions) {
		o.anonymous = true
	}
}

// NoReply never turns the message into a reply.
func NoReply() SendOption {
	return func(o *sendOptions) {
		o.noReply = true
	}
}

// Send posts a message to the invocation channel. When other messages were
// sent after the invoking one, the message replies to it without a ping.
// Unless anonymous, the message is recorded for blame in the background.
func (c *Context) Send(create discord.MessageCreate, opts ...SendOption) (*discord.Message, error) {
	var o sendOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.noReply && create.MessageReference == nil && c.shouldReply() {
		id := c.Message.ID
		create.MessageReference = &discord.MessageReference{
			MessageID:       &id,
			FailIfNotExists: false,
		}

		if create.AllowedMentions == nil {
			create.AllowedMentions = &discord.AllowedMentions{
				Parse: []discord.AllowedMentionType{discord.AllowedMentionTypeUsers},
			}
		}
		create.AllowedMentions.RepliedUser = false
	}

	sent, err := c.env.Rest.CreateMessage(c.Message.ChannelID, create)
	if err != nil {
		return nil, err
	}

	if !o.anonymous && c.env.Blame != nil {
		go c.recordBlame(sent)
	}

	return sent, nil
}

func (c *Context) shouldReply() bool {
	if c.env.Channels == nil {
		return false
	}

	last, ok := c.env.Channels.LastMessage(c.Message.ChannelID)

	return ok && last != c.Message.ID
}

func (c *Context) recordBlame(sent *discord.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), blameTimeout)
	defer cancel()

	var guildID snowflake.ID
	if sent.GuildID != nil {
		guildID = *sent.GuildID
	} else if id, ok := c.GuildID(); ok {
		guildID = id
	}

	var err error
	recovered := panics.Try(func() {
		err = c.env.Blame.RecordMessage(ctx, c.InvocationID, sent.ID, sent.ChannelID, guildID)
	})
	if recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		c.Logger().Error("Failed to record blame",
			zap.Uint64("sent_message_id", uint64(sent.ID)),
			zap.Error(err))
	}
}

// Say sends content. User mentions ping, role and everyone mentions do not.
func (c *Context) Say(content string, opts ...SendOption) (*discord.Message, error) {
	return c.Send(discord.MessageCreate{
		Content: content,
		AllowedMentions: &discord.AllowedMentions{
			Parse: []discord.AllowedMentionType{discord.AllowedMentionTypeUsers},
		},
	}, opts...)
}

// Plain sends content without mentions or link embeds.
func (c *Context) Plain(content string, opts ...SendOption) (*discord.Message, error) {
	return c.Send(discord.MessageCreate{
		Content:         content,
		AllowedMentions: &discord.AllowedMentions{},
		Flags:           discord.MessageFlagSuppressEmbeds,
	}, opts...)
}

// SendCodeblock sends code in a code block. The bot token is redacted. Code
// too long for a message is sent as a file named filename instead, which
// defaults to code.<language>.
func (c *Context) SendCodeblock(block utils.Codeblock, filename string) (*discord.Message, error) {
	code := block.Code
	if c.env.Token != "" {
		code = strings.ReplaceAll(code, c.env.Token, "[omg]")
	}

	markdown := "```" + block.Language + "\n" + strings.ReplaceAll(code, "```", "``\u200b`") + "```"
	if len([]rune(markdown)) <= utils.MessageLimit {
		return c.Plain(markdown)
	}

	if filename == "" {
		ext := block.Language
		if ext == "" {
			ext = "txt"
		}
		filename = "code." + ext
	}

	return c.Send(discord.MessageCreate{
		Files:           []*discord.File{discord.NewFile(filename, "", strings.NewReader(code))},
		AllowedMentions: &discord.AllowedMentions{},
	})
}

// React adds emoji to the invoking message.
func (c *Context) React(emoji string) error {
	return c.env.Rest.AddReaction(c.Message.ChannelID, c.Message.ID, emoji)
}

// NaviOptions are the options views shown by this invocation are built with.
func (c *Context) NaviOptions() []navi.Option {
	opts := []navi.Option{navi.WithOwner(c.Message.Author.ID)}
	if c.env.NaviTimeout > 0 {
		opts = append(opts, navi.WithTimeout(c.env.NaviTimeout))
	}

	return opts
}

// Paginate shows v, restricted to the author.
func (c *Context) Paginate(v navi.View) (*discord.Message, error) {
	v.SetOwner(c.Message.Author.ID)

	return c.env.Navi.Show(v, func(create discord.MessageCreate) (*discord.Message, error) {
		return c.Send(create)
	})
}
