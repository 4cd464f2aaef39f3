// Package commandtest provides in-memory fakes for testing commands.
package commandtest

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/locales"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown messages and users.
var ErrNotFound = errors.New("not found")

const (
	// SelfID is the user ID of the fake bot.
	SelfID snowflake.ID = 1000
	// OwnerID is a bot owner.
	OwnerID snowflake.ID = 1
	// Token is the fake bot token.
	Token = "fake.bot.token"
)

// Sent is a message created through Rest.
type Sent struct {
	ChannelID snowflake.ID
	Create    discord.MessageCreate
	Message   discord.Message
}

// Reaction is a reaction added through Rest.
type Reaction struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Emoji     string
}

// Rest records REST calls.
type Rest struct {
	mu       sync.Mutex
	nextID   snowflake.ID
	sent     []Sent
	updated  []discord.MessageUpdate
	deleted  []snowflake.ID
	reacted  []Reaction
	messages map[snowflake.ID]discord.Message
	history  []discord.Message
	users    map[snowflake.ID]discord.User
	members  map[snowflake.ID]discord.Member

	// CreateErr is returned by CreateMessage when set.
	CreateErr error
}

// NewRest creates an empty Rest.
func NewRest() *Rest {
	return &Rest{
		nextID:   900000,
		messages: make(map[snowflake.ID]discord.Message),
		users:    make(map[snowflake.ID]discord.User),
		members:  make(map[snowflake.ID]discord.Member),
	}
}

// AddMessage makes msg available to GetMessage.
func (r *Rest) AddMessage(msg discord.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[msg.ID] = msg
}

// SetHistory sets what GetMessages returns, newest first.
func (r *Rest) SetHistory(msgs ...discord.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = msgs
}

// AddUser makes user available to GetUser.
func (r *Rest) AddUser(user discord.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
}

// AddMember makes member available to GetMember.
func (r *Rest) AddMember(member discord.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[member.User.ID] = member
	r.users[member.User.ID] = member.User
}

// Sent returns the created messages in order.
func (r *Rest) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Sent(nil), r.sent...)
}

// Contents returns the content of every created message.
func (r *Rest) Contents() []string {
	sent := r.Sent()
	contents := make([]string, 0, len(sent))
	for _, s := range sent {
		contents = append(contents, s.Create.Content)
	}

	return contents
}

// Deleted returns the IDs of deleted messages.
func (r *Rest) Deleted() []snowflake.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]snowflake.ID(nil), r.deleted...)
}

// Updated returns message edits in order.
func (r *Rest) Updated() []discord.MessageUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]discord.MessageUpdate(nil), r.updated...)
}

func (r *Rest) CreateMessage(
	channelID snowflake.ID, messageCreate discord.MessageCreate, _ ...rest.RequestOpt,
) (*discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return nil, r.CreateErr
	}

	r.nextID++
	msg := discord.Message{
		ID:        r.nextID,
		ChannelID: channelID,
		Content:   messageCreate.Content,
		Embeds:    messageCreate.Embeds,
		Author:    discord.User{ID: SelfID, Bot: true},
	}
	r.sent = append(r.sent, Sent{ChannelID: channelID, Create: messageCreate, Message: msg})
	r.messages[msg.ID] = msg

	return &msg, nil
}

func (r *Rest) UpdateMessage(
	channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, _ ...rest.RequestOpt,
) (*discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updated = append(r.updated, messageUpdate)

	return &discord.Message{ID: messageID, ChannelID: channelID}, nil
}

func (r *Rest) DeleteMessage(_ snowflake.ID, messageID snowflake.ID, _ ...rest.RequestOpt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleted = append(r.deleted, messageID)

	return nil
}

// Reactions returns the added reactions in order.
func (r *Rest) Reactions() []Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Reaction(nil), r.reacted...)
}

func (r *Rest) AddReaction(channelID snowflake.ID, messageID snowflake.ID, emoji string, _ ...rest.RequestOpt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reacted = append(r.reacted, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})

	return nil
}

func (r *Rest) GetMessage(_ snowflake.ID, messageID snowflake.ID, _ ...rest.RequestOpt) (*discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok {
		return nil, ErrNotFound
	}

	return &msg, nil
}

func (r *Rest) GetMessages(
	_ snowflake.ID, _ snowflake.ID, _ snowflake.ID, _ snowflake.ID, limit int, _ ...rest.RequestOpt,
) ([]discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > 0 && len(r.history) > limit {
		return append([]discord.Message(nil), r.history[:limit]...), nil
	}

	return append([]discord.Message(nil), r.history...), nil
}

func (r *Rest) GetUser(userID snowflake.ID, _ ...rest.RequestOpt) (*discord.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return &user, nil
}

func (r *Rest) GetMember(_ snowflake.ID, userID snowflake.ID, _ ...rest.RequestOpt) (*discord.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return &member, nil
}

// Permissions is a fixed permission table.
type Permissions struct {
	mu      sync.Mutex
	members map[snowflake.ID]discord.Permissions
	self    map[snowflake.ID]discord.Permissions
}

// NewPermissions creates an empty Permissions.
func NewPermissions() *Permissions {
	return &Permissions{
		members: make(map[snowflake.ID]discord.Permissions),
		self:    make(map[snowflake.ID]discord.Permissions),
	}
}

// SetMember sets the guild permissions of a user in every guild.
func (p *Permissions) SetMember(userID snowflake.ID, perms discord.Permissions) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.members[userID] = perms
}

// SetSelf sets the permissions of the bot in a channel.
func (p *Permissions) SetSelf(channelID snowflake.ID, perms discord.Permissions) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.self[channelID] = perms
}

func (p *Permissions) Member(_ snowflake.ID, userID snowflake.ID) (discord.Permissions, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	perms, ok := p.members[userID]

	return perms, ok
}

func (p *Permissions) SelfInChannel(_ snowflake.ID, channelID snowflake.ID) (discord.Permissions, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	perms, ok := p.self[channelID]

	return perms, ok
}

// Channels is a fixed last message table.
type Channels struct {
	mu   sync.Mutex
	last map[snowflake.ID]snowflake.ID
}

// NewChannels creates an empty Channels.
func NewChannels() *Channels {
	return &Channels{last: make(map[snowflake.ID]snowflake.ID)}
}

// Set records the newest message of a channel.
func (c *Channels) Set(channelID, messageID snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last[channelID] = messageID
}

func (c *Channels) LastMessage(channelID snowflake.ID) (snowflake.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.last[channelID]

	return id, ok
}

// Locales is a fixed guild locale table.
type Locales struct {
	mu      sync.Mutex
	locales map[snowflake.ID]string
}

// Set sets the preferred locale of a guild.
func (l *Locales) Set(guildID snowflake.ID, locale string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locales == nil {
		l.locales = make(map[snowflake.ID]string)
	}
	l.locales[guildID] = locale
}

func (l *Locales) GuildLocale(guildID snowflake.ID) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	locale, ok := l.locales[guildID]

	return locale, ok
}

// Blame is a recorded sent message.
type Blame struct {
	InvocationID int64
	MessageID    snowflake.ID
	ChannelID    snowflake.ID
	GuildID      snowflake.ID
}

// BlameRecorder sends every recorded message on Records.
type BlameRecorder struct {
	Records chan Blame
}

// NewBlameRecorder creates a BlameRecorder with room for n records.
func NewBlameRecorder(n int) *BlameRecorder {
	return &BlameRecorder{Records: make(chan Blame, n)}
}

func (b *BlameRecorder) RecordMessage(
	_ context.Context, invocationID int64, messageID, channelID, guildID snowflake.ID,
) error {
	b.Records <- Blame{
		InvocationID: invocationID,
		MessageID:    messageID,
		ChannelID:    channelID,
		GuildID:      guildID,
	}

	return nil
}

// Invocations assigns IDs to invocations and keeps them.
type Invocations struct {
	mu     sync.Mutex
	nextID int64
	stored []types.Invocation
}

func (i *Invocations) RecordInvocation(_ context.Context, invocation *types.Invocation) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.nextID++
	invocation.ID = i.nextID
	i.stored = append(i.stored, *invocation)

	return nil
}

// Stored returns the recorded invocations.
func (i *Invocations) Stored() []types.Invocation {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]types.Invocation(nil), i.stored...)
}

// Env bundles an Env with its fakes.
type Env struct {
	*command.Env

	FakeRest        *Rest
	FakePermissions *Permissions
	FakeChannels    *Channels
	FakeBlame       *BlameRecorder
	FakeLocales     *Locales
}

// NewEnv creates an Env backed by fakes, with OwnerID as the owner and
// ww, ! and ? as default prefixes.
func NewEnv() *Env {
	r := NewRest()
	perms := NewPermissions()
	channels := NewChannels()
	guildLocales := &Locales{}
	blame := NewBlameRecorder(64)

	translator, err := i10n.Load(locales.FS, locales.Native, zap.NewNop())
	if err != nil {
		panic(err)
	}

	return &Env{
		Env: &command.Env{
			Rest:        r,
			Permissions: perms,
			Channels:    channels,
			Blame:       blame,
			Navi:        navi.NewManager(r, zap.NewNop()),
			Registry:    command.NewRegistry(),
			Logger:      zap.NewNop(),
			Translator:  translator,
			Locales:     guildLocales,
			SelfID:      SelfID,
			Token:       Token,
			Owners:      map[snowflake.ID]struct{}{OwnerID: {}},
			Defaults:    []string{"ww", "!", "?"},
		},
		FakeRest:        r,
		FakePermissions: perms,
		FakeChannels:    channels,
		FakeBlame:       blame,
		FakeLocales:     guildLocales,
	}
}

// Message builds a guild message from author in channel 10 of guild 20.
func Message(id, authorID snowflake.ID, content string) discord.Message {
	guildID := snowflake.ID(20)

	return discord.Message{
		ID:        id,
		ChannelID: 10,
		GuildID:   &guildID,
		Author:    discord.User{ID: authorID, Username: "user" + authorID.String()},
		Content:   content,
	}
}

// DirectMessage builds a message outside of guilds.
func DirectMessage(id, authorID snowflake.ID, content string) discord.Message {
	msg := Message(id, authorID, content)
	msg.GuildID = nil

	return msg
}
