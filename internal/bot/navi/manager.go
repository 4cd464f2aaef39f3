package navi

import (
	"errors"
	"strings"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// customIDPrefix marks components and modals owned by this package.
const customIDPrefix = "navi"

// ErrModalResponse is returned when a modal is requested from a modal submit.
var ErrModalResponse = errors.New("cannot open a modal from a modal submit")

// View is a live paginated view of any item type.
type View interface {
	ID() string
	Closed() bool
	SetOwner(id snowflake.ID)
	Handle(in Interaction, action, value string) error

	initial() (message, error)
	bind(onExpire func())
	expired() []discord.ContainerComponent
}

// MessageEditor edits messages through the REST API.
type MessageEditor interface {
	UpdateMessage(
		channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt,
	) (*discord.Message, error)
}

// SendFunc posts the first page and returns the created message.
type SendFunc func(create discord.MessageCreate) (*discord.Message, error)

// Manager tracks live views and routes component interactions to them.
type Manager struct {
	views  map[string]View
	rest   MessageEditor
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewManager creates a Manager that uses rest to clean up expired views.
func NewManager(rest MessageEditor, logger *zap.Logger) *Manager {
	return &Manager{
		views:  make(map[string]View),
		rest:   rest,
		logger: logger.Named("navi"),
	}
}

// CustomID builds the custom ID of a control.
func CustomID(viewID, action string) string {
	return customIDPrefix + ":" + viewID + ":" + action
}

// ParseCustomID splits a custom ID built by CustomID.
func ParseCustomID(customID string) (viewID, action string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != customIDPrefix {
		return "", "", false
	}

	return parts[1], parts[2], true
}

// Show sends the first page of v through send. Views with more than one page
// stay registered until they are closed or expire.
func (m *Manager) Show(v View, send SendFunc) (*discord.Message, error) {
	msg, err := v.initial()
	if err != nil {
		return nil, err
	}

	sent, err := send(msg.create())
	if err != nil {
		return nil, err
	}

	if v.Closed() {
		return sent, nil
	}

	channelID, messageID := sent.ChannelID, sent.ID
	v.bind(func() {
		m.remove(v.ID())
		m.cleanup(v, channelID, messageID)
	})

	m.mu.Lock()
	m.views[v.ID()] = v
	m.mu.Unlock()

	// Expired between render and registration
	if v.Closed() {
		m.remove(v.ID())
	}

	return sent, nil
}

// Len returns the number of live views.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.views)
}

// Dispatch routes an action to its view. It reports false when the custom ID
// does not belong to a navi view.
func (m *Manager) Dispatch(in Interaction, customID, value string) (bool, error) {
	viewID, action, ok := ParseCustomID(customID)
	if !ok {
		return false, nil
	}

	m.mu.RLock()
	v, exists := m.views[viewID]
	m.mu.RUnlock()

	if !exists {
		// Stale controls from a restart or an expired view
		return true, in.Update(discord.NewMessageUpdateBuilder().ClearContainerComponents().Build())
	}

	err := v.Handle(in, action, value)

	switch {
	case err == nil:
		if v.Closed() {
			m.remove(viewID)
		}
		return true, nil
	case errors.Is(err, ErrNotOwner):
		m.logger.Debug("Ignored navigation from non-owner",
			zap.String("view", viewID),
			zap.Uint64("user_id", uint64(in.ActorID())))
		return true, in.Defer()
	case errors.Is(err, ErrClosed):
		m.remove(viewID)
		return true, in.Defer()
	default:
		return true, err
	}
}

// HandleComponent routes a button press. It reports false for components of
// other features.
func (m *Manager) HandleComponent(event *events.ComponentInteractionCreate) (bool, error) {
	return m.Dispatch(&componentInteraction{event: event}, event.Data.CustomID(), "")
}

// HandleModal routes a jump-to-page submission.
func (m *Manager) HandleModal(event *events.ModalSubmitInteractionCreate) (bool, error) {
	return m.Dispatch(&modalInteraction{event: event}, event.Data.CustomID, event.Data.Text(pageInputID))
}

func (m *Manager) remove(viewID string) {
	m.mu.Lock()
	delete(m.views, viewID)
	m.mu.Unlock()
}

// cleanup greys out the controls of an expired view. Failures only get logged
// since the message may be gone already.
func (m *Manager) cleanup(v View, channelID, messageID snowflake.ID) {
	components := v.expired()

	_, err := m.rest.UpdateMessage(channelID, messageID, discord.MessageUpdate{
		Components: &components,
	})
	if err != nil {
		m.logger.Debug("Failed to disable expired pages",
			zap.String("view", v.ID()),
			zap.Error(err))
	}
}

// componentInteraction adapts a button press.
type componentInteraction struct {
	event *events.ComponentInteractionCreate
}

func (c *componentInteraction) ActorID() snowflake.ID {
	return c.event.User().ID
}

func (c *componentInteraction) Update(update discord.MessageUpdate) error {
	return c.event.UpdateMessage(update)
}

func (c *componentInteraction) Defer() error {
	return c.event.DeferUpdateMessage()
}

func (c *componentInteraction) Delete() error {
	return c.event.Client().Rest().DeleteInteractionResponse(c.event.ApplicationID(), c.event.Token())
}

func (c *componentInteraction) OpenModal(modal discord.ModalCreate) error {
	return c.event.Modal(modal)
}

// modalInteraction adapts a modal submit sent from a view's message.
type modalInteraction struct {
	event *events.ModalSubmitInteractionCreate
}

func (c *modalInteraction) ActorID() snowflake.ID {
	return c.event.User().ID
}

func (c *modalInteraction) Update(update discord.MessageUpdate) error {
	return c.event.UpdateMessage(update)
}

func (c *modalInteraction) Defer() error {
	return c.event.DeferUpdateMessage()
}

func (c *modalInteraction) Delete() error {
	return c.event.Client().Rest().DeleteInteractionResponse(c.event.ApplicationID(), c.event.Token())
}

func (c *modalInteraction) OpenModal(discord.ModalCreate) error {
	return ErrModalResponse
}
