package commands

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/disgoorg/disgo/discord"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/fetcher"
	"github.com/nanikabot/nanika/pkg/utils"
	"go.uber.org/zap"
)

const (
	definitionLimit = 4096
	exampleLimit    = 1024
	vs16            = "\ufe0f"
)

// UrbanColours are the Urban Dictionary mug colours plus its banner colour.
var UrbanColours = []int{
	0xFFF200, // yellow
	0x53F7FF, // aquamarine
	0x2EFF3D, // harlequin
	0xF82418, // scarlet
	0x5AAD52, // grass
	0xFC66FB, // pink flamingo
	0x6D4343, // ferra
	0x542C5D, // eggplant
	0x000000, // black
	0x1B2936, // banner
}

// bracketed matches [word] cross references in definitions.
var bracketed = regexp.MustCompile(`\[(.+?)\]`)

type urban struct {
	dictionary Dictionary
}

func urbanCommand(dictionary Dictionary, rule cooldown.Rule) *command.Command {
	u := &urban{dictionary: dictionary}

	group := &command.Command{
		Name:        "urban",
		Description: "search urban dictionary",
		Category:    CategoryInternet,
		Params:      []command.Param{{Name: "word", Rest: true}},
		Cooldown:    cooldownOf(rule),
		Run: func(c *command.Context) error {
			word := c.Args.String("word")
			return u.show(c, word, func() ([]fetcher.Definition, error) {
				return u.dictionary.Define(c.Context(), word)
			})
		},
	}

	if err := group.Add(&command.Command{
		Name:        "random",
		Description: "search up random definitions",
		Run: func(c *command.Context) error {
			return u.show(c, "", func() ([]fetcher.Definition, error) {
				return u.dictionary.Random(c.Context())
			})
		},
	}); err != nil {
		panic(err)
	}

	return group
}

// show pages through definitions, or suggests words when there are none.
func (u *urban) show(c *command.Context, word string, lookup func() ([]fetcher.Definition, error)) error {
	defs, err := lookup()
	if errors.Is(err, fetcher.ErrUnavailable) {
		c.Logger().Warn("Urban Dictionary is unavailable", zap.Error(err))
		_, err := c.Say(c.T("urban.downtime"))
		return err
	}
	if err != nil {
		return err
	}

	if len(defs) == 0 {
		_, err := c.Say(u.nothingFound(c, word))
		return err
	}

	written, example, votes := c.T("urban.written"), c.T("urban.example"), c.T("urban.votes")
	format := func(_ *navi.ListSource[fetcher.Definition], items []fetcher.Definition) (navi.Page, error) {
		return navi.Embed(DefinitionEmbed(items[0], written, example, votes)), nil
	}

	view := navi.New(navi.NewListSource(defs, 1), format, c.NaviOptions()...)

	_, err = c.Paginate(view)

	return err
}

// nothingFound is the reply for a word without definitions, listing as many
// suggestions as fit in a message.
func (u *urban) nothingFound(c *command.Context, word string) string {
	msg := c.T("urban.nothing")
	if word == "" {
		return msg
	}

	suggestions, err := u.dictionary.Autocomplete(c.Context(), word)
	if err != nil {
		c.Logger().Debug("Failed to get suggestions", zap.Error(err))
		return msg
	}
	if len(suggestions) == 0 {
		return msg
	}

	msg += "\n" + c.T("urban.suggestions")
	remaining := utils.MessageLimit - len([]rune(msg))

	for _, suggestion := range suggestions {
		remaining -= len([]rune(suggestion)) + 1
		if remaining < 0 {
			break
		}
		msg += "\n" + suggestion
	}

	return msg
}

// DefinitionEmbed renders a definition with its cross references linked.
func DefinitionEmbed(d fetcher.Definition, written, example, votes string) discord.Embed {
	inline := false

	embed := discord.Embed{
		Title:       d.Word,
		Description: linkReferences(d.Definition, definitionLimit),
		URL:         d.Permalink,
		Color:       UrbanColours[seeded(uint64(d.DefID)).IntN(len(UrbanColours))],
		Footer:      &discord.EmbedFooter{Text: written},
		Author: &discord.EmbedAuthor{
			Name: d.Author,
			URL:  "https://urbandictionary.com/author.php?author=" + url.PathEscape(d.Author),
		},
	}

	if !d.WrittenOn.IsZero() {
		writtenOn := d.WrittenOn
		embed.Timestamp = &writtenOn
	}

	if d.Example != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name:   example,
			Value:  linkReferences(d.Example, exampleLimit),
			Inline: &inline,
		})
	}

	embed.Fields = append(embed.Fields, discord.EmbedField{
		Name:   votes,
		Value:  fmt.Sprintf("%d \U0001F44D%s %d \U0001F44E%s", d.ThumbsUp, vs16, d.ThumbsDown, vs16),
		Inline: &inline,
	})

	return embed
}

// linkReferences turns [word] into a link to its definition and shortens
// the text to limit.
func linkReferences(text string, limit int) string {
	linked := bracketed.ReplaceAllStringFunc(text, func(m string) string {
		word := m[1 : len(m)-1]
		return "[" + word + "](" + referenceURL(word) + ")"
	})

	return utils.Shorten(linked, limit, utils.DefaultSuffix)
}

func referenceURL(word string) string {
	compact := strings.ReplaceAll(word, " ", "")
	if compact != "" && strings.IndexFunc(compact, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) < 0 {
		return "http://" + strings.ReplaceAll(word, " ", "-") + ".urbanup.com"
	}

	return "https://urbandictionary.com/define.php?term=" + url.PathEscape(word)
}
