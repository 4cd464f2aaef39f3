package utils

import "strings"

// Paginator splits lines into pages that fit in a message. Every page is
// wrapped in Prefix and Suffix, which default to none.
type Paginator struct {
	Prefix  string
	Suffix  string
	MaxSize int

	pages   []string
	current []string
	size    int
}

// NewCodeblockPaginator creates a Paginator wrapping pages in code blocks.
func NewCodeblockPaginator() *Paginator {
	return &Paginator{Prefix: "```", Suffix: "```"}
}

func (p *Paginator) maxSize() int {
	if p.MaxSize <= 0 {
		return MessageLimit
	}

	return p.MaxSize
}

// room is what a page has for lines.
func (p *Paginator) room() int {
	room := p.maxSize() - len([]rune(p.Suffix))
	if p.Prefix != "" {
		room -= len([]rune(p.Prefix)) + 1
	}

	return room
}

// AddLine adds a line, starting a new page when it would not fit. Lines too
// long for any page are shortened. With empty set a blank line follows.
func (p *Paginator) AddLine(line string, empty bool) {
	line = Shorten(line, p.room()-1, DefaultSuffix)
	length := len([]rune(line)) + 1

	if p.size+length > p.room() {
		p.ClosePage()
	}

	p.current = append(p.current, line)
	p.size += length

	if empty {
		p.current = append(p.current, "")
		p.size++
	}
}

// ClosePage ends the current page early.
func (p *Paginator) ClosePage() {
	if len(p.current) == 0 {
		return
	}

	var b strings.Builder
	if p.Prefix != "" {
		b.WriteString(p.Prefix)
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(p.current, "\n"))
	b.WriteString(p.Suffix)

	p.pages = append(p.pages, b.String())
	p.current = nil
	p.size = 0
}

// Pages closes the current page and returns every page.
func (p *Paginator) Pages() []string {
	p.ClosePage()
	return append([]string(nil), p.pages...)
}
