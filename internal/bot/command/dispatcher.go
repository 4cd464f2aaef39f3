package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/nanikabot/nanika/pkg/utils"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultTimeout bounds a single command run.
const DefaultTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/nanikabot/nanika/internal/bot/command")

// PrefixSource looks up custom guild prefixes.
type PrefixSource interface {
	GuildPrefixes(ctx context.Context, guildID snowflake.ID) ([]string, error)
}

// InvocationRecorder stores invocations.
type InvocationRecorder interface {
	RecordInvocation(ctx context.Context, invocation *types.Invocation) error
}

// Limiter counts command uses for cooldowns.
type Limiter interface {
	Allow(ctx context.Context, bucket string, userID snowflake.ID, rule cooldown.Rule) (cooldown.Result, error)
}

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	// DebugPrefix gives owners error traces of failed commands.
	DebugPrefix string
	Timeout     time.Duration
	// MaxConcurrent limits commands running at once. Zero means no limit.
	MaxConcurrent int64
}

// Dispatcher turns messages into command runs.
type Dispatcher struct {
	env         *Env
	prefixes    PrefixSource
	invocations InvocationRecorder
	limiter     Limiter
	sem         *semaphore.Weighted
	debugPrefix string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewDispatcher creates a Dispatcher. limiter may be nil to disable cooldowns.
func NewDispatcher(
	env *Env, prefixes PrefixSource, invocations InvocationRecorder, limiter Limiter, cfg DispatcherConfig,
) *Dispatcher {
	d := &Dispatcher{
		env:         env,
		prefixes:    prefixes,
		invocations: invocations,
		limiter:     limiter,
		debugPrefix: cfg.DebugPrefix,
		timeout:     cfg.Timeout,
		logger:      env.Logger.Named("dispatcher"),
	}

	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	if cfg.MaxConcurrent > 0 {
		d.sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	return d
}

// Prefixes returns the prefixes msg may use, mentions of the bot first.
func (d *Dispatcher) Prefixes(ctx context.Context, msg discord.Message) ([]string, error) {
	prefixes := mentionPrefixes(d.env.SelfID)

	switch {
	case d.env.IsOwner(msg.Author.ID):
		if len(d.env.Defaults) > 0 {
			prefixes = append(prefixes, d.env.Defaults[0])
		}
		if d.debugPrefix != "" {
			prefixes = append(prefixes, d.debugPrefix)
		}
	case msg.GuildID != nil:
		custom, err := d.prefixes.GuildPrefixes(ctx, *msg.GuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to get guild prefixes: %w", err)
		}
		prefixes = append(prefixes, custom...)
	default:
		prefixes = append(prefixes, d.env.Defaults...)
	}

	return prefixes, nil
}

// Process runs the command in msg, if any. User mistakes are answered in the
// channel. The returned error is what the command failed with.
func (d *Dispatcher) Process(ctx context.Context, msg discord.Message) error {
	if msg.Author.Bot || msg.Content == "" {
		return nil
	}

	prefixes, err := d.Prefixes(ctx, msg)
	if err != nil {
		d.logger.Error("Failed to resolve prefixes",
			zap.Uint64("message_id", uint64(msg.ID)),
			zap.Error(err))
		return err
	}

	prefix, ok := MatchPrefix(prefixes, msg.Content)
	if !ok {
		return nil
	}

	view := NewView(msg.Content[len(prefix):])
	view.SkipWS()

	name := view.Word()
	cmd := d.env.Registry.Get(name)
	if cmd == nil {
		return nil
	}

	cmd = descend(cmd, view)

	ctx, span := tracer.Start(ctx, "command "+cmd.QualifiedName(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("command.name", cmd.QualifiedName()),
			attribute.String("command.invoked_with", name),
			attribute.String("discord.channel_id", msg.ChannelID.String()),
			attribute.String("discord.author_id", msg.Author.ID.String()),
		))
	defer span.End()

	c := NewContext(ctx, d.env, msg)
	c.Command = cmd
	c.Prefix = prefix
	c.InvokedWith = name
	c.Debug = d.env.IsOwner(msg.Author.ID) && d.debugPrefix != "" && strings.EqualFold(prefix, d.debugPrefix)

	start := time.Now()
	err = d.invoke(c, view)
	d.logger.Debug("Command handled",
		zap.String("command", c.Command.QualifiedName()),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("failed", err != nil))

	if err != nil {
		span.RecordError(err)
		if _, ok := Reply(err); !ok {
			span.SetStatus(codes.Error, err.Error())
		}

		d.handleError(c, err)
	}

	return err
}

// descend follows subcommand names in view. Words that name no subcommand
// are left in view as arguments.
func descend(cmd *Command, view *View) *Command {
	for len(cmd.subcommands) > 0 {
		saved := view.Clone()

		view.SkipWS()
		sub := cmd.Subcommand(view.Word())
		if sub == nil {
			*view = *saved
			break
		}
		cmd = sub
	}

	return cmd
}

func (d *Dispatcher) invoke(c *Context, view *View) error {
	d.recordInvocation(c)

	if d.sem != nil {
		if err := d.sem.Acquire(c.ctx, 1); err != nil {
			return err
		}
		defer d.sem.Release(1)
	}

	if err := d.check(c); err != nil {
		return err
	}

	if err := d.checkCooldown(c); err != nil {
		return err
	}

	args, err := ParseArgs(c.Command, view)
	if err != nil {
		return err
	}
	c.Args = args

	if c.Command.Run == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.ctx, d.timeout)
	defer cancel()
	c = c.WithContext(ctx)

	recovered := panics.Try(func() {
		err = c.Command.Run(c)
	})
	if recovered != nil {
		return recovered.AsError()
	}

	return err
}

// recordInvocation stores the invocation. A failure is logged and the
// command still runs, its messages are then recorded without an invocation.
func (d *Dispatcher) recordInvocation(c *Context) {
	if d.invocations == nil {
		return
	}

	invocation := &types.Invocation{
		MessageID: c.Message.ID,
		ChannelID: c.Message.ChannelID,
		AuthorID:  c.Message.Author.ID,
		Command:   c.Command.QualifiedName(),
		Prefix:    c.Prefix,
	}
	if guildID, ok := c.GuildID(); ok {
		invocation.GuildID = guildID
	}

	if err := d.invocations.RecordInvocation(c.ctx, invocation); err != nil {
		c.Logger().Error("Failed to record invocation", zap.Error(err))
		return
	}

	c.InvocationID = invocation.ID
}

func (d *Dispatcher) check(c *Context) error {
	guildID, inGuild := c.GuildID()
	owner := d.env.IsOwner(c.Message.Author.ID)

	for _, cmd := range c.Command.chain() {
		if cmd.OwnerOnly && !owner {
			return ErrNotOwner
		}

		if (cmd.GuildOnly || cmd.Permissions != 0) && !inGuild {
			return ErrGuildOnly
		}

		if cmd.Permissions == 0 || owner {
			continue
		}

		var perms discord.Permissions
		if d.env.Permissions != nil {
			perms, _ = d.env.Permissions.Member(guildID, c.Message.Author.ID)
		}

		if perms.Has(discord.PermissionAdministrator) {
			continue
		}

		if missing := cmd.Permissions &^ perms; missing != 0 {
			return &MissingPermissionsError{Missing: missing}
		}
	}

	return nil
}

// checkCooldown counts a use against every cooldown in the command chain.
// Redis failures let the command run.
func (d *Dispatcher) checkCooldown(c *Context) error {
	if d.limiter == nil {
		return nil
	}

	for _, cmd := range c.Command.chain() {
		if cmd.Cooldown == nil {
			continue
		}

		res, err := d.limiter.Allow(c.ctx, cmd.QualifiedName(), c.Message.Author.ID, *cmd.Cooldown)
		if err != nil {
			c.Logger().Warn("Failed to check cooldown", zap.Error(err))
			continue
		}

		if !res.Allowed {
			return &CooldownError{RetryAfter: res.RetryAfter}
		}
	}

	return nil
}

func (d *Dispatcher) handleError(c *Context, err error) {
	if reply, ok := Reply(err); ok {
		if reply == "" {
			return
		}
		if _, sendErr := c.Say(reply); sendErr != nil {
			c.Logger().Warn("Failed to send error reply", zap.Error(sendErr))
		}
		return
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	c.Logger().Error("Command failed", zap.Error(err))

	if c.Debug {
		block := utils.Codeblock{Code: fmt.Sprintf("%+v", err), Language: "txt", Fenced: true}
		if _, sendErr := c.SendCodeblock(block, ""); sendErr != nil {
			c.Logger().Warn("Failed to send error trace", zap.Error(sendErr))
		}
	}
}
