package bot

import (
	"context"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/nanikabot/nanika/internal/bot/command"
	"github.com/nanikabot/nanika/internal/bot/command/commandtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type defaultPrefixes struct{}

func (defaultPrefixes) GuildPrefixes(context.Context, snowflake.ID) ([]string, error) {
	return []string{"ww"}, nil
}

func newTestBot(t *testing.T) (*Bot, *commandtest.Env) {
	t.Helper()

	env := commandtest.NewEnv()
	require.NoError(t, env.Registry.Add(&command.Command{
		Name: "ping",
		Run: func(c *command.Context) error {
			_, err := c.Say("pong")
			return err
		},
	}))

	b := &Bot{
		env:        env.Env,
		dispatcher: command.NewDispatcher(env.Env, defaultPrefixes{}, &commandtest.Invocations{}, nil, command.DispatcherConfig{}),
		channels:   newChannelTracker(),
		logger:     zap.NewNop(),
		ctx:        context.Background(),
		cancel:     func() {},
	}

	return b, env
}

func messageEvent(msg discord.Message) *events.GenericMessage {
	return &events.GenericMessage{
		MessageID: msg.ID,
		Message:   msg,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
}

func TestMessageCreate(t *testing.T) {
	t.Parallel()

	b, env := newTestBot(t)

	b.handleMessageCreate(&events.MessageCreate{GenericMessage: messageEvent(commandtest.Message(5, 7, "wwping"))})
	assert.Equal(t, []string{"pong"}, env.FakeRest.Contents())

	last, ok := b.channels.LastMessage(10)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(5), last)

	b.handleMessageCreate(&events.MessageCreate{GenericMessage: messageEvent(commandtest.Message(6, 7, "hello"))})
	assert.Len(t, env.FakeRest.Contents(), 1)

	last, _ = b.channels.LastMessage(10)
	assert.Equal(t, snowflake.ID(6), last)
}

func TestMessageUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		old  discord.Message
		want int
	}{
		{name: "content changed", old: commandtest.Message(5, 7, "wwpnig"), want: 1},
		{name: "same content", old: commandtest.Message(5, 7, "wwping"), want: 0},
		{name: "not cached", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, env := newTestBot(t)
			b.handleMessageUpdate(&events.MessageUpdate{
				GenericMessage: messageEvent(commandtest.Message(5, 7, "wwping")),
				OldMessage:     tt.old,
			})

			assert.Len(t, env.FakeRest.Contents(), tt.want)
		})
	}
}

func TestChannelTrackerKeepsNewest(t *testing.T) {
	t.Parallel()

	tracker := newChannelTracker()
	_, ok := tracker.LastMessage(1)
	assert.False(t, ok)

	tracker.Seen(1, 50)
	tracker.Seen(1, 40)
	tracker.Seen(2, 10)

	last, ok := tracker.LastMessage(1)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(50), last)

	last, _ = tracker.LastMessage(2)
	assert.Equal(t, snowflake.ID(10), last)
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	b := &Bot{logger: zap.New(core)}

	assert.NotPanics(t, func() {
		defer b.recoverPanic("test")
		panic("boom")
	})

	entries := logs.FilterMessage("Panic in event handler").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0].ContextMap()["handler"])
	assert.Equal(t, "boom", entries[0].ContextMap()["panic"])
}
