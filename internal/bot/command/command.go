// Package command implements prefix commands: parsing, checks, dispatch and
// the context handlers reply through.
package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/nanikabot/nanika/internal/bot/cooldown"
)

// ErrDuplicateCommand is returned when a name or alias is registered twice.
var ErrDuplicateCommand = errors.New("command name already registered")

// Handler runs a command.
type Handler func(c *Context) error

// Param describes one argument of a command.
type Param struct {
	Name     string
	Optional bool
	// Rest takes everything left in the input as one value.
	Rest bool
	// Variadic takes every remaining word.
	Variadic bool
	// Accept, when set, rejects words that do not fit an optional param.
	// A rejected word is left for the next param.
	Accept func(word string) bool
}

func (p Param) signature() string {
	name := p.Name
	if p.Variadic {
		name += "..."
	}

	if p.Optional {
		return "[" + name + "]"
	}

	return "<" + name + ">"
}

// Args holds parsed argument values by param name.
type Args struct {
	values map[string][]string
}

// String returns the value of name, or "" when it was not given.
func (a Args) String(name string) string {
	if v := a.values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Strings returns every value of a variadic param.
func (a Args) Strings(name string) []string {
	return a.values[name]
}

// Has reports whether name was given.
func (a Args) Has(name string) bool {
	return len(a.values[name]) > 0
}

// Command is a prefix command or a group of subcommands.
type Command struct {
	Name    string
	Aliases []string
	// Description is shown by help. Its first line is the summary.
	Description string
	Category    string
	Params      []Param
	// Strict rejects input left over after the params.
	Strict    bool
	GuildOnly bool
	// OwnerOnly refuses everyone but the bot owners without a reply.
	OwnerOnly bool
	// Permissions are required of the author in the guild. Owners bypass them.
	Permissions discord.Permissions
	Hidden      bool
	Cooldown    *cooldown.Rule
	Run         Handler

	parent      *Command
	subcommands []*Command
	lookup      map[string]*Command
}

// QualifiedName is the name including parent groups, as typed.
func (c *Command) QualifiedName() string {
	if c.parent == nil {
		return c.Name
	}

	return c.parent.QualifiedName() + " " + c.Name
}

// Parent returns the group of a subcommand.
func (c *Command) Parent() *Command {
	return c.parent
}

// Summary is the first line of the description.
func (c *Command) Summary() string {
	summary, _, _ := strings.Cut(c.Description, "\n")
	return summary
}

// Signature lists the params the way help shows them.
func (c *Command) Signature() string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, p.signature())
	}

	return strings.Join(parts, " ")
}

// Add registers subcommands under c.
func (c *Command) Add(subcommands ...*Command) error {
	if c.lookup == nil {
		c.lookup = make(map[string]*Command)
	}

	if err := addTo(c.lookup, subcommands); err != nil {
		return err
	}

	for _, sub := range subcommands {
		sub.parent = c
	}
	c.subcommands = append(c.subcommands, subcommands...)

	return nil
}

// Subcommand finds a subcommand by name or alias, ignoring case.
func (c *Command) Subcommand(name string) *Command {
	return c.lookup[strings.ToLower(name)]
}

// Subcommands returns the subcommands in registration order.
func (c *Command) Subcommands() []*Command {
	return slices.Clone(c.subcommands)
}

// chain returns c and its parents, outermost group first.
func (c *Command) chain() []*Command {
	var chain []*Command
	for cmd := c; cmd != nil; cmd = cmd.parent {
		chain = append(chain, cmd)
	}
	slices.Reverse(chain)

	return chain
}

func addTo(lookup map[string]*Command, cmds []*Command) error {
	seen := make(map[string]struct{})
	for _, cmd := range cmds {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			key := strings.ToLower(name)
			_, taken := lookup[key]
			_, repeated := seen[key]
			if taken || repeated {
				return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
			}
			seen[key] = struct{}{}
		}
	}

	for _, cmd := range cmds {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			lookup[strings.ToLower(name)] = cmd
		}
	}

	return nil
}

// Registry holds the top level commands.
type Registry struct {
	lookup   map[string]*Command
	commands []*Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{lookup: make(map[string]*Command)}
}

// Add registers commands. Names and aliases are matched ignoring case.
func (r *Registry) Add(cmds ...*Command) error {
	if err := addTo(r.lookup, cmds); err != nil {
		return err
	}

	r.commands = append(r.commands, cmds...)

	return nil
}

// Get finds a top level command by name or alias.
func (r *Registry) Get(name string) *Command {
	return r.lookup[strings.ToLower(name)]
}

// Find resolves a qualified name such as "prefixes add".
func (r *Registry) Find(qualified string) *Command {
	words := strings.Fields(qualified)
	if len(words) == 0 {
		return nil
	}

	cmd := r.Get(words[0])
	for _, word := range words[1:] {
		if cmd == nil {
			return nil
		}
		cmd = cmd.Subcommand(word)
	}

	return cmd
}

// Commands returns the top level commands sorted by name.
func (r *Registry) Commands() []*Command {
	cmds := slices.Clone(r.commands)
	slices.SortFunc(cmds, func(a, b *Command) int {
		return strings.Compare(a.Name, b.Name)
	})

	return cmds
}
