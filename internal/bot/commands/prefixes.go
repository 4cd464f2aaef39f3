package commands

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bucketlock"
	"github.com/nanikabot/nanika/internal/database/models"
	"github.com/nanikabot/nanika/internal/database/service"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/pkg/utils"
)

// MaxPrefixLength is the longest custom prefix in characters.
const MaxPrefixLength = 200

type prefixes struct {
	store PrefixStore
	lock  *bucketlock.Lock[snowflake.ID]
}

func prefixesCommand(store PrefixStore, lock *bucketlock.Lock[snowflake.ID]) *command.Command {
	p := &prefixes{store: store, lock: lock}

	group := &command.Command{
		Name:        "prefixes",
		Aliases:     []string{"prefix"},
		Description: "show the bot prefixes",
		Category:    CategoryBot,
		Strict:      true,
		Run:         p.list,
	}

	// subcommands are fixed, so Add only fails on a programming error
	if err := group.Add(
		&command.Command{
			Name: "add",
			Description: "add a custom prefix\n" +
				"to include spaces in prefix, wrap it in \"\n" +
				"for example: wwprefixes add \"prefix \"\n\n" +
				"limited to " + strconv.Itoa(service.MaxGuildPrefixes) + " prefixes.",
			Params:      []command.Param{{Name: "prefix"}},
			Strict:      true,
			Permissions: discord.PermissionManageGuild,
			Run:         p.add,
		},
		&command.Command{
			Name: "delete",
			Description: "delete a custom prefix\n" +
				"prefix with space in it have to be quoted to be deleted properly",
			Params:      []command.Param{{Name: "prefix"}},
			Strict:      true,
			Permissions: discord.PermissionManageGuild,
			Run:         p.delete,
		},
		&command.Command{
			Name:        "default",
			Description: "reset back to default prefixes",
			Strict:      true,
			Permissions: discord.PermissionManageGuild,
			Run:         p.reset,
		},
	); err != nil {
		panic(err)
	}

	return group
}

// list shows the prefixes of the guild, the bot mention first.
func (p *prefixes) list(c *command.Context) error {
	current := c.Env().Defaults
	if guildID, ok := c.GuildID(); ok {
		var err error
		if current, err = p.store.GuildPrefixes(c.Context(), guildID); err != nil {
			return err
		}
	}

	var pg utils.Paginator
	for i, prefix := range append([]string{c.Env().SelfMention()}, current...) {
		pg.AddLine(strconv.Itoa(i+1)+". "+utils.EscapeMarkdown(prefix), false)
	}

	return paginateText(c, pg.Pages())
}

// validatePrefix lowercases a new prefix and rejects ones that cannot work.
func validatePrefix(c *command.Context, prefix string) (string, error) {
	prefix = strings.ToLower(prefix)

	selfID := c.Env().SelfID.String()

	switch {
	case strings.HasPrefix(prefix, "/"):
		return "", &command.UserError{Message: c.T("prefixes.slash")}
	case strings.HasPrefix(prefix, "<@"+selfID+">"), strings.HasPrefix(prefix, "<@!"+selfID+">"):
		return "", &command.UserError{Message: c.T("prefixes.mention")}
	case len([]rune(prefix)) > MaxPrefixLength:
		return "", &command.UserError{Message: c.T("prefixes.too_long", i10n.Params{"max": MaxPrefixLength})}
	}

	return prefix, nil
}

func (p *prefixes) add(c *command.Context) error {
	prefix, err := validatePrefix(c, c.Args.String("prefix"))
	if err != nil {
		return err
	}

	guildID, _ := c.GuildID()

	return p.lock.Do(c.Context(), guildID, func() error {
		current, err := p.store.GuildPrefixes(c.Context(), guildID)
		if err != nil {
			return err
		}

		if slices.Contains(current, prefix) {
			_, err := c.Say(c.T("prefixes.already"))
			return err
		}

		updated := append(slices.Clone(current), prefix)

		err = p.store.Append(c.Context(), guildID, updated)
		if errors.Is(err, models.ErrPrefixLimit) {
			_, err := c.Say(c.T("prefixes.limit", i10n.Params{"limit": service.MaxGuildPrefixes}))
			return err
		}
		if err != nil {
			return err
		}

		_, err = c.Say(c.T("prefixes.added", i10n.Params{"count": len(updated)}))

		return err
	})
}

func (p *prefixes) delete(c *command.Context) error {
	prefix := strings.ToLower(c.Args.String("prefix"))
	guildID, _ := c.GuildID()

	return p.lock.Do(c.Context(), guildID, func() error {
		current, err := p.store.GuildPrefixes(c.Context(), guildID)
		if err != nil {
			return err
		}

		index := slices.Index(current, prefix)
		if index < 0 {
			_, err := c.Say(c.T("prefixes.missing"))
			return err
		}

		if err := p.store.Save(c.Context(), guildID, slices.Delete(slices.Clone(current), index, index+1)); err != nil {
			return err
		}

		_, err = c.Say(c.T("prefixes.deleted"))

		return err
	})
}

func (p *prefixes) reset(c *command.Context) error {
	guildID, _ := c.GuildID()

	return p.lock.Do(c.Context(), guildID, func() error {
		wasDefault, err := p.store.Reset(c.Context(), guildID)
		if err != nil {
			return err
		}

		id := "prefixes.reset"
		if wasDefault {
			id = "prefixes.was_default"
		}

		_, err = c.Say(c.T(id))

		return err
	})
}
