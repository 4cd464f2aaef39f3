package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

const instanceIDKey = attribute.Key("service.instance.id")

// SpanCore implements zapcore.Core by recording each entry as a span.
type SpanCore struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewSpanCore creates a core recording entries at or above enab as spans of
// the global tracer provider.
func NewSpanCore(enab zapcore.LevelEnabler) *SpanCore {
	return NewSpanCoreWithTracer(enab, otel.Tracer("github.com/nanikabot/nanika/logs"))
}

// NewSpanCoreWithTracer creates a core recording spans with tracer.
func NewSpanCoreWithTracer(enab zapcore.LevelEnabler, tracer trace.Tracer) *SpanCore {
	return &SpanCore{
		LevelEnabler: enab,
		tracer:       tracer,
	}
}

func (c *SpanCore) With(fields []zapcore.Field) zapcore.Core {
	return &SpanCore{
		LevelEnabler: c.LevelEnabler,
		tracer:       c.tracer,
		fields:       append(c.fields[:len(c.fields):len(c.fields)], fields...),
	}
}

func (c *SpanCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *SpanCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	_, span := c.tracer.Start(context.Background(), "log."+errorCategory(ent),
		trace.WithTimestamp(ent.Time))
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("log.message", ent.Message),
		attribute.String("log.level", ent.Level.String()),
		attribute.String("log.logger", ent.LoggerName),
		attribute.String("code.caller", ent.Caller.TrimmedPath()),
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range append(c.fields[:len(c.fields):len(c.fields)], fields...) {
		field.AddTo(enc)
	}

	for key, value := range enc.Fields {
		attrs = append(attrs, attribute.String(key, fmt.Sprint(value)))
	}

	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, ent.Message)

	return nil
}

func (c *SpanCore) Sync() error {
	return nil
}

// errorCategory names the span after the first segment of the logger name.
func errorCategory(ent zapcore.Entry) string {
	if ent.LoggerName == "" {
		return "application"
	}

	category, _, _ := strings.Cut(ent.LoggerName, ".")

	return category
}
