package commands

import (
	"slices"
	"strings"

	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/navi"
	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/pkg/utils"
)

// helpWidth is the widest a help line gets.
const helpWidth = 80

const (
	helpIndent = "  "
	helpSuffix = "..."
)

func helpCommand() *command.Command {
	return &command.Command{
		Name:        "help",
		Description: "shows help for the bot",
		Category:    CategoryBot,
		Params:      []command.Param{{Name: "command", Rest: true, Optional: true}},
		Run:         runHelp,
	}
}

func runHelp(c *command.Context) error {
	query := c.Args.String("command")
	if query == "" {
		return paginateText(c, botHelp(c))
	}

	words := strings.Fields(strings.ToLower(query))

	cmd := c.Env().Registry.Get(words[0])
	if cmd == nil || cmd.Hidden {
		_, err := c.Say(c.T("help.not_found"))
		return err
	}

	for _, word := range words[1:] {
		sub := cmd.Subcommand(word)
		if sub == nil || sub.Hidden {
			_, err := c.Say(c.T("help.sub_not_found"))
			return err
		}
		cmd = sub
	}

	return paginateText(c, commandHelp(c, cmd))
}

func botHelp(c *command.Context) []string {
	byCategory := make(map[string][]*command.Command)
	for _, cmd := range c.Env().Registry.Commands() {
		if !cmd.Hidden {
			byCategory[cmd.Category] = append(byCategory[cmd.Category], cmd)
		}
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	slices.Sort(categories)

	p := utils.NewCodeblockPaginator()
	p.AddLine(c.T("help.header"), true)

	for _, category := range categories {
		name := category
		if name == "" {
			name = "no category"
		}
		p.AddLine(name+":", false)
		addCommandList(p, byCategory[category])
	}

	p.AddLine("", false)
	p.AddLine(c.T("help.footer", i10n.Params{"prefix": c.DisplayPrefix()}), false)

	return p.Pages()
}

func commandHelp(c *command.Context, cmd *command.Command) []string {
	p := utils.NewCodeblockPaginator()

	usage := c.DisplayPrefix() + cmd.QualifiedName()
	if signature := cmd.Signature(); signature != "" {
		usage += " " + signature
	}
	p.AddLine(usage, true)

	if cmd.Description != "" {
		for _, line := range strings.Split(cmd.Description, "\n") {
			p.AddLine(line, false)
		}
		p.AddLine("", false)
	}

	if len(cmd.Aliases) > 0 {
		p.AddLine(c.T("help.aliases", i10n.Params{"aliases": strings.Join(cmd.Aliases, ", ")}), true)
	}

	var subs []*command.Command
	for _, sub := range cmd.Subcommands() {
		if !sub.Hidden {
			subs = append(subs, sub)
		}
	}

	if len(subs) > 0 {
		p.AddLine(c.T("help.subcommands"), false)
		addCommandList(p, subs)
	}

	return p.Pages()
}

// addCommandList adds one indented line per command, summaries aligned.
func addCommandList(p *utils.Paginator, cmds []*command.Command) {
	width := 0
	for _, cmd := range cmds {
		width = max(width, len([]rune(cmd.Name)))
	}

	for _, cmd := range cmds {
		padding := strings.Repeat(" ", width-len([]rune(cmd.Name)))
		line := helpIndent + cmd.Name + padding + " " + cmd.Summary()
		p.AddLine(utils.Shorten(strings.TrimRight(line, " "), helpWidth, helpSuffix), false)
	}
}

// paginateText shows pages of text restricted to the author.
func paginateText(c *command.Context, pages []string) error {
	texts := make([]navi.Text, 0, len(pages))
	for _, page := range pages {
		texts = append(texts, navi.Text(page))
	}

	_, err := c.Paginate(navi.Blank(texts, c.NaviOptions()...))

	return err
}
