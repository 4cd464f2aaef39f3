// Package navi implements paginated messages driven by button controls.
package navi

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// DefaultTimeout is how long a view accepts input after it is created.
const DefaultTimeout = 4 * time.Minute

const vs15 = "\ufe0e"

// Actions carried in component custom IDs.
const (
	ActionFirst    = "first"
	ActionPrevious = "previous"
	ActionPage     = "page"
	ActionNext     = "next"
	ActionLast     = "last"
	ActionJump     = "jump"
	ActionSeek     = "seek"
	ActionClose    = "close"
)

// pageInputID is the text input of the jump-to-page modal.
const pageInputID = "page"

var (
	ErrClosed        = errors.New("pages are closed")
	ErrNotOwner      = errors.New("pages belong to someone else")
	ErrUnknownAction = errors.New("unknown navigation action")
	ErrUnknownPage   = errors.New("unknown page kind")
)

// Interaction is the response surface of a user action on a view.
type Interaction interface {
	// ActorID is the user who triggered the action.
	ActorID() snowflake.ID
	// Update edits the message hosting the view as the response.
	Update(update discord.MessageUpdate) error
	// Defer acknowledges without changing the message.
	Defer() error
	// Delete removes the message hosting the view. It is called after Defer.
	Delete() error
	// OpenModal responds with a modal.
	OpenModal(modal discord.ModalCreate) error
}

// Formatter renders the items of the current page.
type Formatter[T any] func(src *ListSource[T], items []T) (Page, error)

// Controls describes the navigation buttons for the current page.
type Controls struct {
	FirstDisabled    bool
	PreviousDisabled bool
	NextDisabled     bool
	LastDisabled     bool
	PageLabel        string
	LastLabel        string
}

// Option configures a Navi.
type Option func(*settings)

type settings struct {
	owner   snowflake.ID
	timeout time.Duration
}

// WithOwner restricts the controls to one user.
func WithOwner(id snowflake.ID) Option {
	return func(s *settings) {
		s.owner = id
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Navi is a paginated view over a ListSource. It is either active at some
// page index or closed. All transitions are serialized.
type Navi[T any] struct {
	source   *ListSource[T]
	format   Formatter[T]
	timer    *time.Timer
	onExpire func()
	id       string
	owner    snowflake.ID
	closed   bool
	mu       sync.Mutex
}

// New creates a view. A source with a single page starts closed and never
// shows controls. Otherwise the view expires after its timeout no matter how
// much it is used.
func New[T any](source *ListSource[T], format Formatter[T], opts ...Option) *Navi[T] {
	s := settings{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&s)
	}

	n := &Navi[T]{
		source: source,
		format: format,
		id:     uuid.NewString(),
		owner:  s.owner,
	}

	if source.MaxPages() == 1 {
		n.closed = true
		return n
	}

	n.timer = time.AfterFunc(s.timeout, n.expire)

	return n
}

// Blank creates a view whose pages are the items themselves.
func Blank[P Page](pages []P, opts ...Option) *Navi[P] {
	return New(NewListSource(pages, 1), func(_ *ListSource[P], items []P) (Page, error) {
		if len(items) == 0 {
			return Text(""), nil
		}
		return items[0], nil
	}, opts...)
}

// ID identifies the view in component custom IDs.
func (n *Navi[T]) ID() string {
	return n.id
}

// Index returns the zero-based current page.
func (n *Navi[T]) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.source.Index()
}

// Closed reports whether the view stopped accepting input.
func (n *Navi[T]) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.closed
}

// Controls returns the button state for the current page.
func (n *Navi[T]) Controls() Controls {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.controls()
}

// SetOwner restricts the controls to one user. Zero removes the restriction.
func (n *Navi[T]) SetOwner(id snowflake.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.owner = id
}

// Handle applies action for the user behind in and responds to it. value is
// the raw page number for ActionSeek.
func (n *Navi[T]) Handle(in Interaction, action, value string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}

	if n.owner != 0 && in.ActorID() != n.owner {
		return ErrNotOwner
	}

	var items []T
	prev := n.source.Index()

	switch action {
	case ActionFirst:
		items = n.source.JumpFirst()
	case ActionPrevious:
		items = n.source.Previous()
	case ActionNext:
		items = n.source.Next()
	case ActionLast:
		items = n.source.JumpLast()
	case ActionSeek:
		page, ok := parsePage(value)
		if !ok {
			return in.Defer()
		}
		items = n.source.Seek(page - 1)
	case ActionJump:
		return in.OpenModal(n.jumpModal())
	case ActionClose:
		n.stop()

		if err := in.Defer(); err != nil {
			return err
		}
		return in.Delete()
	default:
		return ErrUnknownAction
	}

	// The index only moves once the new page is on screen
	msg, err := n.render(items)
	if err == nil {
		err = in.Update(msg.update())
	}
	if err != nil {
		n.source.Seek(prev)
		return err
	}

	return nil
}

// initial renders the current page for the first send.
func (n *Navi[T]) initial() (message, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.render(n.source.Peek())
}

// bind sets the callback run when the view times out.
func (n *Navi[T]) bind(onExpire func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onExpire = onExpire
}

func (n *Navi[T]) render(items []T) (message, error) {
	p, err := n.format(n.source, items)
	if err != nil {
		return message{}, err
	}

	return newMessage(p, n.components())
}

func (n *Navi[T]) expire() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	n.closed = true
	hook := n.onExpire
	n.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (n *Navi[T]) stop() {
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
	}
}

func (n *Navi[T]) controls() Controls {
	index, last := n.source.Index(), n.source.MaxPages()-1

	return Controls{
		FirstDisabled:    index == 0,
		PreviousDisabled: index == 0,
		NextDisabled:     index == last,
		LastDisabled:     index == last,
		PageLabel:        strconv.Itoa(index + 1),
		LastLabel:        "⏩" + vs15 + " " + strconv.Itoa(last+1),
	}
}

func (n *Navi[T]) components() []discord.ContainerComponent {
	if n.closed {
		return []discord.ContainerComponent{}
	}

	return n.buttons(n.controls(), false)
}

// buttons lays out the controls. disableAll greys out every button.
func (n *Navi[T]) buttons(c Controls, disableAll bool) []discord.ContainerComponent {
	return []discord.ContainerComponent{
		discord.NewActionRow(
			discord.NewSecondaryButton("1 ⏪"+vs15, CustomID(n.id, ActionFirst)).
				WithDisabled(disableAll || c.FirstDisabled),
			discord.NewSuccessButton("◀"+vs15, CustomID(n.id, ActionPrevious)).
				WithDisabled(disableAll || c.PreviousDisabled),
			discord.NewPrimaryButton(c.PageLabel, CustomID(n.id, ActionPage)).
				WithDisabled(true),
			discord.NewSuccessButton("▶"+vs15, CustomID(n.id, ActionNext)).
				WithDisabled(disableAll || c.NextDisabled),
			discord.NewSecondaryButton(c.LastLabel, CustomID(n.id, ActionLast)).
				WithDisabled(disableAll || c.LastDisabled),
		),
		discord.NewActionRow(
			discord.NewPrimaryButton("↪"+vs15+" jump to page", CustomID(n.id, ActionJump)).
				WithDisabled(disableAll),
			discord.NewDangerButton("⏏"+vs15+" close pages", CustomID(n.id, ActionClose)).
				WithDisabled(disableAll),
		),
	}
}

// expired renders the controls of a timed out view, all disabled.
func (n *Navi[T]) expired() []discord.ContainerComponent {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.buttons(n.controls(), true)
}

func (n *Navi[T]) jumpModal() discord.ModalCreate {
	return discord.NewModalCreateBuilder().
		SetCustomID(CustomID(n.id, ActionSeek)).
		SetTitle("jump to page").
		AddActionRow(
			discord.NewShortTextInput(pageInputID, "page number").
				WithPlaceholder("1 to " + strconv.Itoa(n.source.MaxPages())).
				WithRequired(true),
		).
		Build()
}

// parsePage reads a 1-based page number. Anything but digits is rejected,
// numbers too large to represent clamp to the last page.
func parsePage(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	page, err := strconv.Atoi(value)
	if err != nil {
		return math.MaxInt, true
	}

	return page, true
}
