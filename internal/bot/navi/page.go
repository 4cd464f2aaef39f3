package navi

import (
	"github.com/disgoorg/disgo/discord"
)

// Page is the rendered form of a page. It is one of Text, Embed or Fields.
type Page interface {
	page()
}

// Text renders as plain message content.
type Text string

// Embed renders as a single embed with no content.
type Embed discord.Embed

// Fields sets content and embeds together.
type Fields struct {
	Content string
	Embeds  []discord.Embed
}

func (Text) page()   {}
func (Embed) page()  {}
func (Fields) page() {}

// message is a page plus the controls shown under it.
type message struct {
	content    string
	embeds     []discord.Embed
	components []discord.ContainerComponent
}

func newMessage(p Page, components []discord.ContainerComponent) (message, error) {
	msg := message{
		embeds:     []discord.Embed{},
		components: components,
	}

	switch p := p.(type) {
	case Text:
		msg.content = string(p)
	case Embed:
		msg.embeds = append(msg.embeds, discord.Embed(p))
	case Fields:
		msg.content = p.Content
		msg.embeds = append(msg.embeds, p.Embeds...)
	default:
		return message{}, ErrUnknownPage
	}

	return msg, nil
}

func (m message) create() discord.MessageCreate {
	return discord.MessageCreate{
		Content:         m.content,
		Embeds:          m.embeds,
		Components:      m.components,
		AllowedMentions: &discord.AllowedMentions{},
	}
}

// update replaces every part of the message, so content left over from a
// previous page of another kind is cleared.
func (m message) update() discord.MessageUpdate {
	return discord.MessageUpdate{
		Content:    &m.content,
		Embeds:     &m.embeds,
		Components: &m.components,
	}
}
