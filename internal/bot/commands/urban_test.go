package commands_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nanikabot/nanika/internal/bot/commands"
	"github.com/nanikabot/nanika/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitions() []fetcher.Definition {
	return []fetcher.Definition{
		{
			DefID:      11,
			Word:       "nanika",
			Definition: "a [bot] that says [very cool] things",
			Example:    "ask [nanika?]",
			Author:     "some one",
			Permalink:  "http://nanika.urbanup.com/11",
			WrittenOn:  time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
			ThumbsUp:   12,
			ThumbsDown: 3,
		},
		{DefID: 12, Word: "nanika", Definition: "something", ThumbsUp: 1},
	}
}

func TestUrbanShowsDefinitions(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.dictionary.defs["nanika"] = definitions()

	got := h.run(t, 7, "wwurban nanika")
	require.Len(t, got, 1)

	sent := h.env.FakeRest.Sent()[0].Create
	require.Len(t, sent.Embeds, 1)

	embed := sent.Embeds[0]
	assert.Equal(t, "nanika", embed.Title)
	assert.Equal(t, "http://nanika.urbanup.com/11", embed.URL)
	assert.Equal(t,
		"a [bot](http://bot.urbanup.com) that says [very cool](http://very-cool.urbanup.com) things",
		embed.Description)
	assert.Equal(t, "https://urbandictionary.com/author.php?author=some%20one", embed.Author.URL)
	assert.Equal(t, "written", embed.Footer.Text)
	require.NotNil(t, embed.Timestamp)
	assert.True(t, embed.Timestamp.Equal(time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)))

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Example", embed.Fields[0].Name)
	assert.Equal(t, "ask [nanika?](https://urbandictionary.com/define.php?term=nanika%3F)", embed.Fields[0].Value)
	assert.Equal(t, "Votes", embed.Fields[1].Name)
	assert.Equal(t, "12 \U0001F44D\ufe0f 3 \U0001F44E\ufe0f", embed.Fields[1].Value)

	assert.NotEmpty(t, sent.Components)
}

func TestDefinitionEmbed(t *testing.T) {
	t.Parallel()

	d := fetcher.Definition{DefID: 5, Word: "w", Definition: "plain"}

	embed := commands.DefinitionEmbed(d, "written", "Example", "Votes")
	assert.Nil(t, embed.Timestamp)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "0 \U0001F44D\ufe0f 0 \U0001F44E\ufe0f", embed.Fields[0].Value)
	assert.Contains(t, commands.UrbanColours, embed.Color)
	assert.Equal(t, embed.Color, commands.DefinitionEmbed(d, "", "", "").Color)

	d.Definition = string(make([]rune, 5000))
	assert.LessOrEqual(t, len([]rune(commands.DefinitionEmbed(d, "", "", "").Description)), 4096)
}

func TestUrbanRandom(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.dictionary.random = definitions()[1:]
	h.dictionary.suggestions = []string{"never shown"}

	h.run(t, 7, "wwurban random")
	sent := h.env.FakeRest.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Create.Embeds, 1)
	assert.Equal(t, "something", sent[0].Create.Embeds[0].Description)

	h.dictionary.random = nil
	assert.Equal(t, []string{"nothing found"}, h.run(t, 7, "wwurban random"))
}

func TestUrbanNothingFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	assert.Equal(t, []string{"nothing found"}, h.run(t, 7, "wwurban nope"))

	h.dictionary.suggestions = []string{"nop", "nopes"}
	assert.Equal(t,
		[]string{"nothing found\nurban dictionary suggestions:\nnop\nnopes"},
		h.run(t, 7, "wwurban nope"))

	long := make([]string, 500)
	for i := range long {
		long[i] = fmt.Sprintf("suggestion %d", i)
	}
	h.dictionary.suggestions = long

	got := h.run(t, 7, "wwurban nope")
	require.Len(t, got, 1)
	assert.LessOrEqual(t, len([]rune(got[0])), 2000)
	assert.Contains(t, got[0], "\nsuggestion 0\n")
}

func TestUrbanDowntime(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.dictionary.err = fmt.Errorf("lookup: %w", &fetcher.StatusError{StatusCode: 503})

	assert.Equal(t, []string{"downtime"}, h.run(t, 7, "wwurban nanika"))

	h.env.FakeLocales.Set(20, "ja")
	assert.Equal(t, []string{"ダウンタイム"}, h.run(t, 7, "wwurban nanika"))

	h.dictionary.err = errors.New("boom")
	assert.NotContains(t, h.run(t, 7, "wwurban nanika"), "ダウンタイム")
}

func TestUrbanMissingWord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	assert.Equal(t, []string{"argument `word` missing"}, h.run(t, 7, "wwurban"))
}
