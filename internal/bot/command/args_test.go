package command_test

import (
	"testing"

	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()

	isSpec := func(word string) bool {
		return word == "*" || word == "." || word == "-"
	}

	tests := []struct {
		name  string
		cmd   *command.Command
		input string
		check func(t *testing.T, args command.Args)
		err   error
		errAs any
	}{
		{
			name:  "single required",
			cmd:   &command.Command{Params: []command.Param{{Name: "prefix"}}},
			input: `"hey "`,
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.Equal(t, "hey ", args.String("prefix"))
			},
		},
		{
			name:  "missing required",
			cmd:   &command.Command{Params: []command.Param{{Name: "prefix"}}},
			input: "  ",
			errAs: new(*command.MissingArgumentError),
		},
		{
			name:  "rest keeps spacing and quotes",
			cmd:   &command.Command{Params: []command.Param{{Name: "question", Rest: true}}},
			input: `  will it  "rain"?  `,
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.Equal(t, `will it  "rain"?`, args.String("question"))
			},
		},
		{
			name:  "variadic",
			cmd:   &command.Command{Params: []command.Param{{Name: "choices", Variadic: true}}},
			input: `a "b c" d`,
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.Equal(t, []string{"a", "b c", "d"}, args.Strings("choices"))
			},
		},
		{
			name:  "variadic required",
			cmd:   &command.Command{Params: []command.Param{{Name: "choices", Variadic: true}}},
			input: "",
			errAs: new(*command.MissingArgumentError),
		},
		{
			name: "optional accept skips a word",
			cmd: &command.Command{Params: []command.Param{
				{Name: "spec", Optional: true, Accept: isSpec},
				{Name: "user", Optional: true, Rest: true},
			}},
			input: "someone",
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.False(t, args.Has("spec"))
				assert.Equal(t, "someone", args.String("user"))
			},
		},
		{
			name: "optional accept takes a word",
			cmd: &command.Command{Params: []command.Param{
				{Name: "spec", Optional: true, Accept: isSpec},
				{Name: "user", Optional: true, Rest: true},
			}},
			input: "* someone",
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.Equal(t, "*", args.String("spec"))
				assert.Equal(t, "someone", args.String("user"))
			},
		},
		{
			name:  "extra input ignored when not strict",
			cmd:   &command.Command{Params: []command.Param{{Name: "a"}}},
			input: "x y z",
			check: func(t *testing.T, args command.Args) {
				t.Helper()
				assert.Equal(t, "x", args.String("a"))
			},
		},
		{
			name:  "unclosed quote",
			cmd:   &command.Command{Params: []command.Param{{Name: "a"}}},
			input: `"x`,
			err:   command.ErrExpectedClosingQuote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args, err := command.ParseArgs(tt.cmd, command.NewView(tt.input))
			switch {
			case tt.err != nil:
				require.ErrorIs(t, err, tt.err)
			case tt.errAs != nil:
				require.ErrorAs(t, err, tt.errAs)
			default:
				require.NoError(t, err)
				tt.check(t, args)
			}
		})
	}
}

func TestParseArgsTooMany(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		count int
	}{
		{input: "a b", count: 1},
		{input: "a b c d", count: 3},
		{input: "a 1 2 3 4 5 6 7 8 9 10 11 12 13", count: 11},
		{input: `a "unclosed`, count: 0},
	}

	cmd := &command.Command{Params: []command.Param{{Name: "a"}}, Strict: true}
	for _, tt := range tests {
		_, err := command.ParseArgs(cmd, command.NewView(tt.input))

		var tooMany *command.TooManyArgumentsError
		require.ErrorAs(t, err, &tooMany, tt.input)
		assert.Equal(t, tt.count, tooMany.Count, tt.input)
	}
}
