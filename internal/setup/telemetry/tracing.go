package telemetry

import (
	"context"
	"fmt"

	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Version is reported as the service version of exported spans.
var Version = "dev"

// EnableTracing exports OpenTelemetry spans to Uptrace. Database queries and
// command runs are traced, and error logs become spans of their own. It does
// nothing without a DSN and must be called before GetLoggers.
func (lm *Manager) EnableTracing(cfg *config.Uptrace) {
	if cfg == nil || cfg.DSN == "" {
		return
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.DSN),
		uptrace.WithServiceName("nanika-"+lm.componentName),
		uptrace.WithServiceVersion(Version),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
		uptrace.WithResourceAttributes(
			instanceIDKey.String(lm.instanceID),
		),
	)

	lm.tracingEnabled = true
}

// shutdownTracing flushes buffered spans.
func (lm *Manager) shutdownTracing(ctx context.Context) error {
	if !lm.tracingEnabled {
		return nil
	}

	if err := uptrace.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracing: %w", err)
	}

	return nil
}
