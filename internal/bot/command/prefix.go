package command

import (
	"unicode"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
)

// PrefixWindow is how many characters of a message are searched for a prefix.
const PrefixWindow = 100

// mentionPrefixes are the prefixes that mention the bot.
func mentionPrefixes(selfID snowflake.ID) []string {
	id := selfID.String()
	return []string{"<@" + id + "> ", "<@!" + id + "> "}
}

// MatchPrefix finds the longest prefix content starts with, ignoring case.
// It returns the prefix as written in content.
func MatchPrefix(prefixes []string, content string) (string, bool) {
	window := content
	if utf8.RuneCountInString(window) > PrefixWindow {
		n := 0
		for i := range window {
			if n == PrefixWindow {
				window = window[:i]
				break
			}
			n++
		}
	}

	best := -1
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}

		if n, ok := hasPrefixFold(window, prefix); ok && n > best {
			best = n
		}
	}

	if best < 0 {
		return "", false
	}

	return content[:best], true
}

// hasPrefixFold reports whether s starts with prefix under simple case
// folding, and how many bytes of s the prefix covers.
func hasPrefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, want := range prefix {
		if n >= len(s) {
			return 0, false
		}

		got, size := utf8.DecodeRuneInString(s[n:])
		if !equalFold(got, want) {
			return 0, false
		}
		n += size
	}

	return n, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}

	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}

	return false
}
