package telemetry

import (
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// SentryCore implements zapcore.Core interface to forward errors to Sentry.
type SentryCore struct {
	zapcore.LevelEnabler
	hub    *sentry.Hub
	fields []zapcore.Field
}

// NewSentryCore creates a new Core that forwards entries at or above enab to
// the current Sentry hub.
func NewSentryCore(enab zapcore.LevelEnabler) *SentryCore {
	return NewSentryCoreWithHub(enab, sentry.CurrentHub())
}

// NewSentryCoreWithHub creates a Core that reports to hub.
func NewSentryCoreWithHub(enab zapcore.LevelEnabler, hub *sentry.Hub) *SentryCore {
	return &SentryCore{LevelEnabler: enab, hub: hub}
}

// With adds structured context to the Core.
func (c *SentryCore) With(fields []zapcore.Field) zapcore.Core {
	return &SentryCore{
		LevelEnabler: c.LevelEnabler,
		hub:          c.hub,
		fields:       append(c.fields[:len(c.fields):len(c.fields)], fields...),
	}
}

// Check determines whether the supplied Entry should be logged.
func (c *SentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// Write captures the entry as a Sentry event. Error fields become part of the
// exception value and every other field is attached as an extra.
func (c *SentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if c.hub == nil || c.hub.Client() == nil {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()

	var errorValues []string

	for _, field := range append(c.fields[:len(c.fields):len(c.fields)], fields...) {
		if field.Type == zapcore.ErrorType {
			if err, ok := field.Interface.(error); ok {
				errorValues = append(errorValues, err.Error())
				continue
			}
		}

		field.AddTo(enc)
	}

	exceptionValue := ent.Message
	if len(errorValues) > 0 {
		exceptionValue = fmt.Sprintf("%s: %s", ent.Message, strings.Join(errorValues, "; "))
	}

	event := sentry.NewEvent()
	event.Level = sentryLevel(ent.Level)
	event.Message = ent.Message
	event.Logger = ent.LoggerName
	event.Exception = []sentry.Exception{{
		Value:      exceptionValue,
		Type:       funcName(ent.Caller.Function),
		Module:     packagePath(ent.Caller.Function),
		Stacktrace: sentry.NewStacktrace(),
	}}

	for k, v := range enc.Fields {
		event.Extra[k] = v
	}

	c.hub.CaptureEvent(event)

	return nil
}

// Sync implements zapcore.Core.
func (c *SentryCore) Sync() error {
	return nil
}

func sentryLevel(level zapcore.Level) sentry.Level {
	switch level {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}

// funcName returns the function name of a fully qualified caller.
func funcName(function string) string {
	if i := strings.LastIndexByte(function, '.'); i > -1 {
		return function[i+1:]
	}

	return function
}

// packagePath returns the package path of a fully qualified caller.
func packagePath(function string) string {
	if i := strings.LastIndexByte(function, '/'); i > -1 {
		if j := strings.IndexByte(function[i:], '.'); j > -1 {
			return function[:i+j]
		}
	}

	if i := strings.IndexByte(function, '.'); i > -1 {
		return function[:i]
	}

	return function
}
