package utils_test

import (
	"strings"
	"testing"

	"github.com/nanikabot/nanika/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestShorten(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{
			name:  "fits",
			input: "hello world",
			width: 20,
			want:  "hello world",
		},
		{
			name:  "exact width",
			input: "hello",
			width: 5,
			want:  "hello",
		},
		{
			name:  "cut on a space",
			input: "hell world and more",
			width: 10,
			want:  "hell [...]",
		},
		{
			name:  "cut inside a word",
			input: "hello world and more",
			width: 10,
			want:  "hello[...]",
		},
		{
			name:  "counts characters not bytes",
			input: "ああああああああああああ",
			width: 10,
			want:  "あああああ[...]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.Shorten(tt.input, tt.width, utils.DefaultSuffix)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), tt.width)
		})
	}
}

func TestShortenMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 1000)
	got := utils.ShortenMessage(long)

	assert.Len(t, []rune(got), utils.MessageLimit)
	assert.True(t, strings.HasSuffix(got, utils.DefaultSuffix))
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain",
			input: "just text",
			want:  "just text",
		},
		{
			name:  "bold",
			input: "**hi**",
			want:  `\*\*hi\*\*`,
		},
		{
			name:  "code and spoilers",
			input: "`x` ||y||",
			want:  "\\`x\\` \\|\\|y\\|\\|",
		},
		{
			name:  "backslash",
			input: `a\b`,
			want:  `a\\b`,
		},
		{
			name:  "quote",
			input: "> quoted",
			want:  `\> quoted`,
		},
		{
			name:  "heading on second line",
			input: "text\n# title",
			want:  "text\n\\# title",
		},
		{
			name:  "indented bullet",
			input: "  - item",
			want:  `  \- item`,
		},
		{
			name:  "dash inside a line",
			input: "a - b",
			want:  "a - b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.EscapeMarkdown(tt.input))
		})
	}
}

func TestEscape(t *testing.T) {
	t.Parallel()

	got := utils.Escape("**bold** text here", 12)
	assert.Equal(t, `\*\*bol[...]`, got)
}

func TestNaturalJoin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		words  []string
		oxford bool
		want   string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:  "one",
			words: []string{"a"},
			want:  "a",
		},
		{
			name:  "two",
			words: []string{"a", "b"},
			want:  "a & b",
		},
		{
			name:  "three",
			words: []string{"a", "b", "c"},
			want:  "a, b & c",
		},
		{
			name:   "oxford comma",
			words:  []string{"a", "b", "c"},
			oxford: true,
			want:   "a, b, & c",
		},
		{
			name:   "oxford comma ignored for two",
			words:  []string{"a", "b"},
			oxford: true,
			want:   "a & b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.NaturalJoin(tt.words, ", ", "&", tt.oxford))
		})
	}
}

func TestOrdinal(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		0:   "0th",
		1:   "1st",
		2:   "2nd",
		3:   "3rd",
		4:   "4th",
		11:  "11th",
		12:  "12th",
		13:  "13th",
		21:  "21st",
		22:  "22nd",
		101: "101st",
		111: "111th",
		-1:  "-1st",
	}

	for n, want := range cases {
		assert.Equal(t, want, utils.Ordinal(n), "n=%d", n)
	}
}

func TestParseCodeblock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  utils.Codeblock
	}{
		{
			name:  "not a block",
			input: "print(1)",
			want:  utils.Codeblock{Code: "print(1)"},
		},
		{
			name:  "inline block",
			input: "```print(1)```",
			want:  utils.Codeblock{Code: "print(1)", Fenced: true},
		},
		{
			name:  "with language",
			input: "```py\nprint(1)```",
			want:  utils.Codeblock{Code: "print(1)", Language: "py", Fenced: true},
		},
		{
			name:  "first line has spaces",
			input: "```x = 1\ny = 2```",
			want:  utils.Codeblock{Code: "x = 1\ny = 2", Fenced: true},
		},
		{
			name:  "nothing after language",
			input: "```py\n  ```",
			want:  utils.Codeblock{Code: "py\n  ", Fenced: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.ParseCodeblock(tt.input)
			assert.Equal(t, tt.want, got)

			if tt.want.Fenced {
				assert.Equal(t, tt.input, got.String())
			}
		})
	}
}
