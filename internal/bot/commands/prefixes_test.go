package commands_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/nanikabot/nanika/internal/bot/command/commandtest"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
)

const admin = 5

func newPrefixHarness(t *testing.T) *harness {
	t.Helper()

	h := newHarness(t)
	h.env.FakePermissions.SetMember(admin, discord.PermissionManageGuild)

	return h
}

func TestPrefixesList(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)
	assert.Equal(t, []string{"1. <@1000>\n2. ww\n3. !\n4. ?"}, h.run(t, 7, "wwprefixes"))

	h.prefixes.guilds[20] = []string{"**"}
	assert.Equal(t, []string{`1. <@1000>` + "\n" + `2. \*\*`}, h.run(t, 7, "**prefix"))

	assert.Equal(t, []string{"too many arguments (1 too many)"}, h.run(t, 7, "**prefixes what"))

	dm := h.runMessage(t, commandtest.DirectMessage(99, 7, "?prefixes"))
	assert.Equal(t, []string{"1. <@1000>\n2. ww\n3. !\n4. ?"}, dm)
}

func TestPrefixesAdd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		author  int
		content string
		want    string
		stored  []string
	}{
		{
			name:    "added lowercased",
			author:  admin,
			content: "wwprefixes add HEY",
			want:    "listening for 4 custom prefixes now",
			stored:  []string{"ww", "!", "?", "hey"},
		},
		{
			name:    "quoted with space",
			author:  admin,
			content: `wwprefixes add "hey "`,
			want:    "listening for 4 custom prefixes now",
			stored:  []string{"ww", "!", "?", "hey "},
		},
		{name: "already", author: admin, content: "wwprefixes add !", want: "already"},
		{name: "slash", author: admin, content: "wwprefixes add /x", want: "/ is kept for slash commands only"},
		{name: "mention", author: admin, content: "wwprefixes add <@!1000>x", want: "prefix cant start with mention"},
		{
			name:    "too long",
			author:  admin,
			content: "wwprefixes add " + strings.Repeat("a", 201),
			want:    "please ≤200 chars",
		},
		{name: "no permission", author: 7, content: "wwprefixes add x", want: "you need the manage server permission"},
		{name: "missing argument", author: admin, content: "wwprefixes add", want: "argument `prefix` missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newPrefixHarness(t)
			assert.Equal(t, []string{tt.want}, h.run(t, snowflakeID(tt.author), tt.content))
			assert.Equal(t, tt.stored, h.prefixes.get(20))
		})
	}
}

func TestPrefixesAddLimit(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)
	h.prefixes.limit = 2
	h.prefixes.guilds[20] = []string{"a", "b"}

	assert.Equal(t, []string{"limited to 100 prefixes"}, h.run(t, admin, "aprefixes add c"))
	assert.Equal(t, []string{"a", "b"}, h.prefixes.get(20))
}

func TestPrefixesAddIsSerialized(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)

	var wg conc.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			msg := commandtest.Message(snowflakeID(1000+i), admin, fmt.Sprintf("wwprefixes add p%d", i))
			_ = h.dispatcher.Process(t.Context(), msg)
		})
	}
	wg.Wait()

	stored := h.prefixes.get(20)
	assert.Len(t, stored, 23)
	for i := range 20 {
		assert.Contains(t, stored, fmt.Sprintf("p%d", i))
	}
}

func TestPrefixesDelete(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)
	assert.Equal(t, []string{"its gone"}, h.run(t, admin, "wwprefixes delete WW"))
	assert.Equal(t, []string{"!", "?"}, h.prefixes.get(20))

	assert.Equal(t, []string{"dont have that as a prefix"}, h.run(t, admin, "!prefixes delete ww"))
	assert.Equal(t, []string{"you need the manage server permission"}, h.run(t, 7, "!prefixes delete ?"))
}

func TestPrefixesDefault(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)
	assert.Equal(t, []string{"?-?"}, h.run(t, admin, "wwprefixes default"))

	h.prefixes.guilds[20] = []string{"x"}
	assert.Equal(t, []string{"default me"}, h.run(t, admin, "xprefixes default"))
	assert.Nil(t, h.prefixes.get(20))

	dm := h.runMessage(t, commandtest.DirectMessage(99, admin, "wwprefixes default"))
	assert.Equal(t, []string{"only can use this command in a server"}, dm)
}

func TestPrefixesTranslated(t *testing.T) {
	t.Parallel()

	h := newPrefixHarness(t)
	h.env.FakeLocales.Set(20, "ja")

	assert.Equal(t, []string{"消えた"}, h.run(t, admin, "wwprefixes delete ww"))
	assert.Equal(t, []string{"dont have that as a prefix"}, h.run(t, admin, "!prefixes delete ww"))
}
