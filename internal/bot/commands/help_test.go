package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpListsCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got := h.run(t, 7, "wwhelp")
	require.Len(t, got, 1)

	page := got[0]
	assert.Regexp(t, "^```\nbot for nanika\n\n", page)
	assert.Contains(t, page, "bot:\n  blame    check who caused the bot to send a certain message.")
	assert.Contains(t, page, "\nfun:\n")
	assert.Contains(t, page, "\ninternet:\n")
	assert.Contains(t, page, "\nutility:\n")
	assert.Contains(t, page, "type wwhelp command for more info on a command```")
}

func TestHelpUsesDefaultPrefixForMentions(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got := h.run(t, 7, "<@1000> help")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "type wwhelp command")
}

func TestHelpForCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	got := h.run(t, 7, "!help PREFIX")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "!prefixes\n\nshow the bot prefixes\n")
	assert.Contains(t, got[0], "aliases: prefix")
	assert.Contains(t, got[0], "subcommands:\n  add     add a custom prefix\n  delete  delete a custom prefix\n  default reset back")

	got = h.run(t, 7, "!help prefixes add")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "!prefixes add <prefix>\n\n")
	assert.Contains(t, got[0], "limited to 100 prefixes.")

	got = h.run(t, 7, "!help urban")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "!urban <word>")
}

func TestHelpNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	assert.Equal(t, []string{"dont know a command like that"}, h.run(t, 7, "wwhelp nope"))
	assert.Equal(t, []string{"dont know a subcommand like that"}, h.run(t, 7, "wwhelp prefixes nope"))
	assert.Equal(t, []string{"dont know a subcommand like that"}, h.run(t, 7, "wwhelp help me"))

	h.env.FakeLocales.Set(20, "ja")
	assert.NotEqual(t, []string{"dont know a command like that"}, h.run(t, 7, "wwhelp nope"))
}
