package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/commands"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/database/service"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/internal/setup/config"
	"go.uber.org/zap"
)

// Deps are the services the bot is built on.
type Deps struct {
	Prefixes   *service.PrefixService
	Blame      *service.BlameService
	Dictionary commands.Dictionary
	Docs       commands.DocsSource
	Translator *i10n.Translator
	// Limiter enforces command cooldowns. Nil disables them.
	Limiter command.Limiter
}

// Bot connects the command dispatcher to the Discord gateway.
type Bot struct {
	client     bot.Client
	env        *command.Env
	dispatcher *command.Dispatcher
	commands   *commands.Set
	channels   *channelTracker
	logger     *zap.Logger

	// ctx outlives single events and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bot with every command registered. The gateway is not
// opened until Start.
func New(cfg *config.BotConfig, deps Deps, logger *zap.Logger) (*Bot, error) {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		channels: newChannelTracker(),
		logger:   logger.Named("bot"),
		ctx:      ctx,
		cancel:   cancel,
	}

	client, err := disgo.New(cfg.Discord.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMessageReactions,
				gateway.IntentDirectMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(
				cache.FlagGuilds,
				cache.FlagChannels,
				cache.FlagMembers,
				cache.FlagRoles,
				cache.FlagMessages,
			),
		),
		bot.WithEventManagerConfigOpts(
			bot.WithAsyncEventsEnabled(),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:                   b.handleReady,
			OnMessageCreate:           b.handleMessageCreate,
			OnMessageUpdate:           b.handleMessageUpdate,
			OnGuildMessageReactionAdd: b.handleReactionAdd,
			OnComponentInteraction:    b.handleComponentInteraction,
			OnModalSubmit:             b.handleModalSubmit,
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client

	state := &cacheState{caches: client.Caches()}

	owners := make(map[snowflake.ID]struct{}, len(cfg.Discord.OwnerIDs))
	for _, id := range cfg.Discord.OwnerIDs {
		owners[snowflake.ID(id)] = struct{}{}
	}

	b.env = &command.Env{
		Rest:        client.Rest(),
		Permissions: state,
		Channels:    b.channels,
		Blame:       deps.Blame,
		Navi:        navi.NewManager(client.Rest(), logger),
		Registry:    command.NewRegistry(),
		Logger:      logger,
		Translator:  deps.Translator,
		Locales:     state,
		NaviTimeout: time.Duration(cfg.Pagination.Timeout) * time.Second,
		SelfID:      client.ID(),
		Token:       cfg.Discord.Token,
		Owners:      owners,
		Defaults:    cfg.Prefixes.Defaults,
	}

	set, err := commands.Register(b.env.Registry, commands.Deps{
		Prefixes:    deps.Prefixes,
		Invocations: deps.Blame,
		Dictionary:  deps.Dictionary,
		Docs:        deps.Docs,
		Libraries:   libraries(cfg.Docs.Libraries),
		UrbanCooldown: cooldown.Rule{
			Uses:   cfg.UrbanDictionary.CooldownUses,
			Window: time.Duration(cfg.UrbanDictionary.CooldownWindow) * time.Millisecond,
		},
	})
	if err != nil {
		cancel()
		return nil, err
	}

	b.commands = set
	b.dispatcher = command.NewDispatcher(b.env, deps.Prefixes, deps.Blame, deps.Limiter, command.DispatcherConfig{
		DebugPrefix:   cfg.Prefixes.Debug,
		Timeout:       cfg.Timeout(),
		MaxConcurrent: cfg.MaxConcurrentCommands,
	})

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	go b.channels.Start()

	b.logger.Info("Starting bot", zap.Int("commands", len(b.env.Registry.Commands())))

	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	return nil
}

// Close stops running commands and closes the gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")

	b.cancel()
	b.channels.Stop()
	b.client.Close(ctx)
}

func (b *Bot) handleReady(event *events.Ready) {
	b.logger.Info("Connected to gateway",
		zap.String("user", event.User.Username),
		zap.Uint64("user_id", uint64(event.User.ID)),
		zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) handleMessageCreate(event *events.MessageCreate) {
	defer b.recoverPanic("message create")

	b.channels.Seen(event.ChannelID, event.MessageID)
	b.process(event.Message)
}

// handleMessageUpdate runs edited messages again. Updates that keep the
// content, such as embeds resolving, are ignored.
func (b *Bot) handleMessageUpdate(event *events.MessageUpdate) {
	defer b.recoverPanic("message update")

	if event.OldMessage.ID != 0 && event.OldMessage.Content == event.Message.Content {
		return
	}

	b.process(event.Message)
}

func (b *Bot) process(msg discord.Message) {
	if err := b.dispatcher.Process(b.ctx, msg); err != nil {
		b.logger.Error("Failed to process message",
			zap.Uint64("message_id", uint64(msg.ID)),
			zap.Uint64("channel_id", uint64(msg.ChannelID)),
			zap.Error(err))
	}
}

func (b *Bot) handleReactionAdd(event *events.GuildMessageReactionAdd) {
	defer b.recoverPanic("reaction add")

	if event.UserID == b.env.SelfID || event.Emoji.Name == nil {
		return
	}

	guildID := event.GuildID

	deleted, err := b.commands.Blame.HandleReaction(b.ctx, b.env, commands.Reaction{
		UserID:    event.UserID,
		ChannelID: event.ChannelID,
		MessageID: event.MessageID,
		GuildID:   &guildID,
		Emoji:     *event.Emoji.Name,
	})
	if err != nil {
		b.logger.Warn("Failed to handle reaction",
			zap.Uint64("message_id", uint64(event.MessageID)),
			zap.Error(err))
		return
	}

	if deleted {
		b.logger.Debug("Deleted binned message",
			zap.Uint64("message_id", uint64(event.MessageID)),
			zap.Uint64("user_id", uint64(event.UserID)))
	}
}

func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	defer b.recoverPanic("component interaction")

	start := time.Now()

	handled, err := b.env.Navi.HandleComponent(event)
	if err != nil {
		b.logger.Error("Failed to handle component interaction",
			zap.String("custom_id", event.Data.CustomID()),
			zap.Error(err))
		return
	}

	if !handled {
		b.logger.Debug("Ignored unknown component", zap.String("custom_id", event.Data.CustomID()))
		return
	}

	b.logger.Debug("Component interaction handled",
		zap.String("custom_id", event.Data.CustomID()),
		zap.Duration("duration", time.Since(start)))
}

func (b *Bot) handleModalSubmit(event *events.ModalSubmitInteractionCreate) {
	defer b.recoverPanic("modal submit")

	handled, err := b.env.Navi.HandleModal(event)
	if err != nil {
		b.logger.Error("Failed to handle modal submit",
			zap.String("custom_id", event.Data.CustomID),
			zap.Error(err))
		return
	}

	if !handled {
		b.logger.Debug("Ignored unknown modal", zap.String("custom_id", event.Data.CustomID))
	}
}

// recoverPanic keeps a panicking event handler from taking the bot down.
func (b *Bot) recoverPanic(handler string) {
	if r := recover(); r != nil {
		b.logger.Error("Panic in event handler",
			zap.String("handler", handler),
			zap.Any("panic", r),
			zap.Stack("stack"))
	}
}

// libraries converts configured docs to rtfm libraries.
func libraries(configured []config.DocsLibrary) []commands.Library {
	libs := make([]commands.Library, 0, len(configured))
	for _, lib := range configured {
		if lib.Module == "" || lib.URL == "" {
			continue
		}
		libs = append(libs, commands.Library{Module: lib.Module, URL: lib.URL})
	}

	return libs
}
