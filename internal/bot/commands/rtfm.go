package commands

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/fetcher"
	"github.com/nanikabot/nanika/internal/memo"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// MaxDocMatches is how many results rtfm lists.
const MaxDocMatches = 8

// joystick is the reaction for a dropped inventory.
const joystick = "\U0001F579" + vs16

// DefaultLibraries are searched when none are configured. The first one is
// searched by rtfm itself.
var DefaultLibraries = []Library{
	{Module: "discord", URL: "https://discordpy.readthedocs.io/en/latest/"},
	{Module: "asyncpg", URL: "https://magicstack.github.io/asyncpg/current/"},
	{Module: "wavelink", URL: "https://wavelink.dev/en/latest/"},
}

// Library is documentation with a Sphinx inventory.
type Library struct {
	Module string
	URL    string
}

// DocsSource downloads documentation inventories.
type DocsSource interface {
	Inventory(ctx context.Context, baseURL string) (*fetcher.Inventory, error)
}

type rtfm struct {
	docs        DocsSource
	inventories *memo.Cache[*fetcher.Inventory]
}

func rtfmCommand(docs DocsSource, libraries []Library) (*command.Command, error) {
	if len(libraries) == 0 {
		libraries = DefaultLibraries
	}

	r := &rtfm{
		docs:        docs,
		inventories: memo.New[*fetcher.Inventory](memo.Unbounded()),
	}

	primary := libraries[0]
	group := &command.Command{
		Name:        "rtfm",
		Description: "search " + primary.Module + " documentation",
		Category:    CategoryInternet,
		Params:      []command.Param{{Name: "search", Rest: true}},
		Run: func(c *command.Context) error {
			return r.search(c, primary, c.Args.String("search"))
		},
	}

	for _, lib := range libraries[1:] {
		if err := group.Add(&command.Command{
			Name:        lib.Module,
			Description: "search " + lib.Module + " documentation",
			Params:      []command.Param{{Name: "search", Rest: true}},
			Run: func(c *command.Context) error {
				return r.search(c, lib, c.Args.String("search"))
			},
		}); err != nil {
			return nil, err
		}
	}

	if err := group.Add(&command.Command{
		Name:        "invalidate",
		Description: "take away a library from the internal cache so the bot will request it again",
		Params:      []command.Param{{Name: "library", Rest: true}},
		OwnerOnly:   true,
		Run: func(c *command.Context) error {
			if !r.inventories.Forget(memo.Key(c.Args.String("library"))) {
				_, err := c.Say(c.T("rtfm.not_cached"))
				return err
			}
			return c.React(joystick)
		},
	}); err != nil {
		return nil, err
	}

	return group, nil
}

// inventory loads the inventory of lib once and shares it between callers.
// Failed loads are not kept.
func (r *rtfm) inventory(ctx context.Context, lib Library) (*fetcher.Inventory, error) {
	return r.inventories.Get(ctx, memo.Key(lib.Module), func(ctx context.Context) (*fetcher.Inventory, error) {
		return r.docs.Inventory(ctx, lib.URL)
	})
}

func (r *rtfm) search(c *command.Context, lib Library, query string) error {
	inv, err := r.inventory(c.Context(), lib)
	if errors.Is(err, fetcher.ErrUnavailable) || errors.Is(err, fetcher.ErrInventoryFormat) {
		c.Logger().Warn("Documentation inventory is unavailable",
			zap.String("module", lib.Module),
			zap.Error(err))
		_, err := c.Say(c.T("rtfm.unavailable"))
		return err
	}
	if err != nil {
		return err
	}

	matches := MatchInventory(inv, lib.Module, query, MaxDocMatches)
	if len(matches) == 0 {
		_, err := c.Say(c.T("rtfm.nothing"))
		return err
	}

	lines := make([]string, len(matches))
	for i, item := range matches {
		lines[i] = "[`" + item.Display + "`](" + item.URL + ")"
	}

	_, err = c.Send(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: strings.Join(lines, "\n"),
			Color:       Pastel(rand.Float64()),
		}},
	})

	return err
}

// inventoryNames matches against display names with the module prefix
// stripped.
type inventoryNames struct {
	items  []fetcher.InventoryItem
	prefix string
}

func (n inventoryNames) String(i int) string {
	return strings.ReplaceAll(n.items[i].Display, n.prefix, "")
}

func (n inventoryNames) Len() int {
	return len(n.items)
}

// MatchInventory ranks the items of inv against query, best first, and keeps
// at most limit.
func MatchInventory(inv *fetcher.Inventory, module, query string, limit int) []fetcher.InventoryItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	found := fuzzy.FindFrom(query, inventoryNames{items: inv.Items, prefix: module + "."})
	if len(found) > limit {
		found = found[:limit]
	}

	matches := make([]fetcher.InventoryItem, len(found))
	for i, m := range found {
		matches[i] = inv.Items[m.Index]
	}

	return matches
}

// Pastel is a soft colour with hue h in [0, 1).
func Pastel(h float64) int {
	const s, v = 0.28, 0.97

	i := math.Floor(h * 6)
	f := h*6 - i
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return int(r*255)<<16 | int(g*255)<<8 | int(b*255)
}
