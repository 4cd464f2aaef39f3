// Package commands holds the prefix commands of the bot.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/nanikabot/nanika/internal/bucketlock"
	"github.com/nanikabot/nanika/internal/database/types"
	"github.com/nanikabot/nanika/internal/fetcher"
)

// Categories group commands in help.
const (
	CategoryBot      = "bot"
	CategoryFun      = "fun"
	CategoryInternet = "internet"
	CategoryUtility  = "utility"
)

// PrefixStore reads and writes custom guild prefixes.
type PrefixStore interface {
	GuildPrefixes(ctx context.Context, guildID snowflake.ID) ([]string, error)
	Append(ctx context.Context, guildID snowflake.ID, prefixes []string) error
	Save(ctx context.Context, guildID snowflake.ID, prefixes []string) error
	Reset(ctx context.Context, guildID snowflake.ID) (bool, error)
}

// InvocationFinder finds the invocation a bot message was sent for.
type InvocationFinder interface {
	InvocationFor(ctx context.Context, messageID snowflake.ID) (*types.Invocation, error)
}

// Dictionary looks up Urban Dictionary definitions.
type Dictionary interface {
	Define(ctx context.Context, term string) ([]fetcher.Definition, error)
	Random(ctx context.Context) ([]fetcher.Definition, error)
	Autocomplete(ctx context.Context, term string) ([]string, error)
}

// Deps are the services commands use.
type Deps struct {
	Prefixes    PrefixStore
	Invocations InvocationFinder
	Dictionary  Dictionary
	Docs        DocsSource
	// Libraries rtfm searches. DefaultLibraries are used when empty.
	Libraries []Library
	// PrefixLock serializes prefix edits per guild. One is created when nil.
	PrefixLock *bucketlock.Lock[snowflake.ID]
	// UrbanCooldown limits urban per user. The zero rule disables it.
	UrbanCooldown cooldown.Rule
	// Now defaults to time.Now.
	Now func() time.Time
}

// Set is the registered commands plus the event handlers that go with them.
type Set struct {
	Blame *Blame
}

// Register adds every command to registry.
func Register(registry *command.Registry, deps Deps) (*Set, error) {
	if deps.PrefixLock == nil {
		deps.PrefixLock = bucketlock.New[snowflake.ID]()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	blame := &Blame{invocations: deps.Invocations, now: deps.Now}

	docs, err := rtfmCommand(deps.Docs, deps.Libraries)
	if err != nil {
		return nil, fmt.Errorf("failed to build rtfm: %w", err)
	}

	cmds := []*command.Command{
		helpCommand(),
		prefixesCommand(deps.Prefixes, deps.PrefixLock),
		blame.command(),
		eightBallCommand(),
		choiceCommand(),
		fateCommand(),
		urbanCommand(deps.Dictionary, deps.UrbanCooldown),
		docs,
		httpCatCommand(),
		unixCommand(),
		msgRawCommand(),
		userRawCommand(),
		avatarCommand(),
	}

	if err := registry.Add(cmds...); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return &Set{Blame: blame}, nil
}

func cooldownOf(rule cooldown.Rule) *cooldown.Rule {
	if rule.Uses <= 0 || rule.Window <= 0 {
		return nil
	}

	return &rule
}
