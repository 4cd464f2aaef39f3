package commands_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nanikabot/nanika/internal/bot/command/commandtest"
	"github.com/nanikabot/nanika/internal/bot/commands"
	"github.com/nanikabot/nanika/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	discordDocs = commands.DefaultLibraries[0].URL
	asyncpgDocs = commands.DefaultLibraries[1].URL
)

func discordInventory() *fetcher.Inventory {
	names := []string{"discord.Client", "discord.Client.run", "discord.Embed", "discord.Embed.title"}

	inv := &fetcher.Inventory{Project: "discord.py"}
	for _, name := range names {
		inv.Items = append(inv.Items, fetcher.InventoryItem{
			Name:    name,
			Domain:  "py",
			Role:    "class",
			URL:     discordDocs + "api.html#" + name,
			Display: name,
		})
	}

	return inv
}

func TestRtfmSearch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.docs.inventories[discordDocs] = discordInventory()

	got := h.run(t, 7, "wwrtfm run")
	require.Len(t, got, 1)

	sent := h.env.FakeRest.Sent()[0].Create
	require.Len(t, sent.Embeds, 1)
	assert.Equal(t, "[`discord.Client.run`]("+discordDocs+"api.html#discord.Client.run)", sent.Embeds[0].Description)
	assert.NotZero(t, sent.Embeds[0].Color)

	h.run(t, 7, "wwrtfm Embed")
	assert.Equal(t, 1, h.docs.loadsOf(discordDocs), "inventory is downloaded once")
}

func TestRtfmSubcommandSearchesItsLibrary(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.docs.inventories[asyncpgDocs] = &fetcher.Inventory{Items: []fetcher.InventoryItem{
		{Name: "asyncpg.connect", URL: asyncpgDocs + "api/index.html#asyncpg.connect", Display: "asyncpg.connect"},
	}}

	h.run(t, 7, "wwrtfm asyncpg connect")

	sent := h.env.FakeRest.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Create.Embeds, 1)
	assert.Contains(t, sent[0].Create.Embeds[0].Description, "asyncpg.connect")
	assert.Equal(t, 1, h.docs.loadsOf(asyncpgDocs))
	assert.Zero(t, h.docs.loadsOf(discordDocs))
}

func TestRtfmNothingFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.docs.inventories[discordDocs] = discordInventory()

	assert.Equal(t, []string{"couldnt find anything"}, h.run(t, 7, "wwrtfm zzz"))
}

func TestRtfmUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.docs.err = &fetcher.StatusError{StatusCode: 503}

	assert.Equal(t, []string{"couldnt get the docs right now"}, h.run(t, 7, "wwrtfm run"))
	h.run(t, 7, "wwrtfm run")
	assert.Equal(t, 2, h.docs.loadsOf(discordDocs), "failed downloads are retried")
}

func TestRtfmInvalidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.docs.inventories[discordDocs] = discordInventory()

	assert.Equal(t, []string{"no library with that name cached"},
		h.run(t, commandtest.OwnerID, "wwrtfm invalidate discord"))

	h.run(t, 7, "wwrtfm run")

	// only owners may drop inventories
	assert.Empty(t, h.run(t, 7, "wwrtfm invalidate discord"))
	assert.Empty(t, h.env.FakeRest.Reactions())

	assert.Empty(t, h.run(t, commandtest.OwnerID, "wwrtfm invalidate discord"))
	reactions := h.env.FakeRest.Reactions()
	require.Len(t, reactions, 1)
	assert.True(t, strings.HasPrefix(reactions[0].Emoji, "\U0001F579"))

	h.run(t, 7, "wwrtfm run")
	assert.Equal(t, 2, h.docs.loadsOf(discordDocs))
}

func TestMatchInventory(t *testing.T) {
	t.Parallel()

	inv := discordInventory()

	t.Run("module prefix is ignored", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, commands.MatchInventory(inv, "discord", "discord", commands.MaxDocMatches))
	})

	t.Run("non matching items are dropped", func(t *testing.T) {
		t.Parallel()
		matches := commands.MatchInventory(inv, "discord", "Embed", commands.MaxDocMatches)
		require.Len(t, matches, 2)
		for _, m := range matches {
			assert.Contains(t, m.Display, "Embed")
		}
	})

	t.Run("blank query", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, commands.MatchInventory(inv, "discord", "  ", commands.MaxDocMatches))
	})

	t.Run("limited", func(t *testing.T) {
		t.Parallel()

		many := &fetcher.Inventory{}
		for i := range 20 {
			name := fmt.Sprintf("discord.Thing%d", i)
			many.Items = append(many.Items, fetcher.InventoryItem{Name: name, Display: name})
		}

		assert.Len(t, commands.MatchInventory(many, "discord", "Thing", commands.MaxDocMatches), commands.MaxDocMatches)
	})
}

func TestPastel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 247<<16|178<<8|178, commands.Pastel(0))

	for i := range 12 {
		c := commands.Pastel(float64(i) / 12)
		for _, channel := range []int{c >> 16 & 0xFF, c >> 8 & 0xFF, c & 0xFF} {
			assert.GreaterOrEqual(t, channel, 178)
			assert.LessOrEqual(t, channel, 247)
		}
	}
}
