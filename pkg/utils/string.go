package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// MessageLimit is the maximum length of message content.
const MessageLimit = 2000

// DefaultSuffix marks text cut by Shorten.
const DefaultSuffix = " [...]"

var (
	// markdownChars are escaped wherever they appear.
	markdownChars = strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"~", `\~`,
		"|", `\|`,
		"`", "\\`",
	)

	// lineMarkers match quotes, headings and list bullets at the start of a line.
	lineMarkers = regexp.MustCompile(`(?m)^(>>>\s|>\s|#{1,3}|[ \t]*-)`)
)

// Shorten cuts s to at most width characters, ending with suffix. When the
// cut falls inside a word the suffix loses its leading whitespace and the
// text keeps that many more characters instead.
func Shorten(s string, width int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	end := max(width-len([]rune(suffix)), 0)
	if end < len(runes) && !unicode.IsSpace(runes[end]) {
		clean := strings.TrimLeftFunc(suffix, unicode.IsSpace)
		end += len([]rune(suffix)) - len([]rune(clean))
		suffix = clean
	}

	return string(runes[:end]) + suffix
}

// ShortenMessage shortens s to fit in message content.
func ShortenMessage(s string) string {
	return Shorten(s, MessageLimit, DefaultSuffix)
}

// EscapeMarkdown escapes characters Discord would render as formatting.
func EscapeMarkdown(s string) string {
	s = markdownChars.Replace(s)
	return lineMarkers.ReplaceAllStringFunc(s, func(m string) string {
		trimmed := strings.TrimLeftFunc(m, unicode.IsSpace)
		return m[:len(m)-len(trimmed)] + `\` + trimmed
	})
}

// Escape escapes markdown in s and then shortens it to width.
func Escape(s string, width int) string {
	return Shorten(EscapeMarkdown(s), width, DefaultSuffix)
}

// NaturalJoin joins words as a sentence would list them, for example
// "a, b & c". With oxford set the last delimiter is kept before conjunction.
func NaturalJoin(words []string, delimiter, conjunction string, oxford bool) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " " + conjunction + " " + words[1]
	}

	last := " " + conjunction
	if oxford {
		last = strings.TrimRightFunc(delimiter, unicode.IsSpace) + last
	}

	return strings.Join(words[:len(words)-1], delimiter) + last + " " + words[len(words)-1]
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th and so on.
func Ordinal(n int) string {
	suffix := "th"

	abs := n
	if abs < 0 {
		abs = -abs
	}

	if abs/10%10 != 1 {
		switch abs % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}

	return strconv.Itoa(n) + suffix
}

// Codeblock is text that may have been wrapped in triple backticks.
type Codeblock struct {
	Code string
	// Language is empty for a block without one.
	Language string
	// Fenced reports whether the text was a code block at all.
	Fenced bool
}

// ParseCodeblock unwraps a triple backtick block. The first line is taken as
// the language when it has no whitespace and code follows it.
func ParseCodeblock(s string) Codeblock {
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return Codeblock{Code: s}
	}

	block := Codeblock{Code: s[3 : len(s)-3], Fenced: true}

	before, after, found := strings.Cut(block.Code, "\n")
	if found && strings.TrimSpace(after) != "" && !strings.ContainsFunc(before, unicode.IsSpace) {
		block.Code, block.Language = after, before
	}

	return block
}

// String renders the block back into message markdown.
func (c Codeblock) String() string {
	switch {
	case !c.Fenced:
		return c.Code
	case c.Language == "":
		return "```" + c.Code + "```"
	default:
		return "```" + c.Language + "\n" + c.Code + "```"
	}
}
