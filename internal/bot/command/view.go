package command

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrUnexpectedQuote is returned when a quote appears inside an unquoted word.
	ErrUnexpectedQuote = errors.New("unexpected quote")
	// ErrInvalidQuoteEnd is returned when a closing quote is not followed by whitespace.
	ErrInvalidQuoteEnd = errors.New("invalid end of quoted string")
	// ErrExpectedClosingQuote is returned when a quoted word is never closed.
	ErrExpectedClosingQuote = errors.New("expected closing quote")
)

// quotes maps opening quotes to their closing quote.
var quotes = map[rune]rune{
	'"': '"',
	'‘': '’',
	'‚': '‛',
	'“': '”',
	'„': '‟',
	'⹂': '⹂',
	'「': '」',
	'『': '』',
	'〝': '〞',
	'﹁': '﹂',
	'﹃': '﹄',
	'＂': '＂',
	'｢': '｣',
	'«': '»',
	'‹': '›',
	'《': '》',
	'〈': '〉',
}

var allQuotes = func() map[rune]struct{} {
	all := make(map[rune]struct{}, len(quotes)*2)
	for open, closing := range quotes {
		all[open] = struct{}{}
		all[closing] = struct{}{}
	}
	return all
}()

func isQuote(r rune) bool {
	_, ok := allQuotes[r]
	return ok
}

// View reads words from command input.
type View struct {
	buf   []rune
	index int
	prev  int
}

// NewView creates a View over s.
func NewView(s string) *View {
	return &View{buf: []rune(s)}
}

// Clone returns an independent copy of v at the same position.
func (v *View) Clone() *View {
	c := *v
	return &c
}

// EOF reports whether all input was consumed.
func (v *View) EOF() bool {
	return v.index >= len(v.buf)
}

// SkipWS skips whitespace and reports whether any was skipped.
func (v *View) SkipWS() bool {
	start := v.index
	for v.index < len(v.buf) && unicode.IsSpace(v.buf[v.index]) {
		v.index++
	}

	return v.index != start
}

// Undo moves back to where the last read started.
func (v *View) Undo() {
	v.index = v.prev
}

// Word reads until the next whitespace without quote handling.
func (v *View) Word() string {
	v.prev = v.index

	start := v.index
	for v.index < len(v.buf) && !unicode.IsSpace(v.buf[v.index]) {
		v.index++
	}

	return string(v.buf[start:v.index])
}

// Rest consumes everything left, trimmed of surrounding whitespace.
func (v *View) Rest() string {
	v.prev = v.index
	rest := string(v.buf[v.index:])
	v.index = len(v.buf)

	return strings.TrimSpace(rest)
}

// QuotedWord reads one word. A word starting with a quote runs until its
// closing quote and may contain whitespace. Backslash escapes a quote.
func (v *View) QuotedWord() (string, error) {
	v.prev = v.index
	if v.EOF() {
		return "", nil
	}

	opening := v.buf[v.index]
	closing, quoted := quotes[opening]
	if quoted {
		v.index++
	}

	var b strings.Builder
	for {
		if v.EOF() {
			if quoted {
				return "", ErrExpectedClosingQuote
			}
			return b.String(), nil
		}

		r := v.buf[v.index]
		v.index++

		switch {
		case r == '\\':
			if v.EOF() {
				if quoted {
					return "", ErrExpectedClosingQuote
				}
				return b.String(), nil
			}

			next := v.buf[v.index]
			if (quoted && (next == opening || next == closing)) || (!quoted && isQuote(next)) {
				b.WriteRune(next)
				v.index++
			} else {
				b.WriteRune(r)
			}
		case !quoted && isQuote(r):
			return "", ErrUnexpectedQuote
		case quoted && r == closing:
			if !v.EOF() && !unicode.IsSpace(v.buf[v.index]) {
				return "", ErrInvalidQuoteEnd
			}
			return b.String(), nil
		case !quoted && unicode.IsSpace(r):
			v.index--
			return b.String(), nil
		default:
			b.WriteRune(r)
		}
	}
}
