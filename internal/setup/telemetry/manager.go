package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/nanikabot/nanika/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceBot ServiceType = iota
	ServiceDB
)

// String returns the component name used for log files and error reports.
func (s ServiceType) String() string {
	switch s {
	case ServiceBot:
		return "bot"
	case ServiceDB:
		return "db"
	default:
		return "unknown"
	}
}

// latestDir always points at the newest session directory.
const latestDir = "latest"

// sessionLayout names session directories by their start time.
const sessionLayout = "2006-01-02_15-04-05"

// Manager handles the creation and management of log files and directories.
// It maintains both timestamped session logs and a "latest" link for easy access.
type Manager struct {
	instanceID        string // Unique identifier for this program instance
	componentName     string // Component identifier for this instance
	currentSessionDir string // Path to the current session's log directory
	logDir            string // Base directory for all logs
	level             string // Logging level (debug, info, warn, error)
	maxLogsToKeep     int    // Maximum number of log sessions to retain
	maxLogLines       int    // Maximum number of lines to keep in each log file
	sentryEnabled     bool   // Whether error entries are forwarded to Sentry
	tracingEnabled    bool   // Whether spans are exported to Uptrace
}

// NewManager creates a new Manager instance. Sentry is initialized when a DSN
// is configured.
func NewManager(serviceType ServiceType, logDir string, debugCfg *config.Debug, sentryCfg *config.Sentry) (*Manager, error) {
	manager := &Manager{
		instanceID:    uuid.New().String(),
		componentName: serviceType.String(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: max(debugCfg.MaxLogsToKeep, 1),
		maxLogLines:   max(debugCfg.MaxLogLines, 1),
	}

	if manager.level == "" {
		manager.level = "info"
	}

	if sentryCfg != nil && sentryCfg.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         sentryCfg.DSN,
			Environment: sentryCfg.Environment,
			SampleRate:  sentryCfg.SampleRate,
			ServerName:  manager.componentName + "-" + manager.instanceID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}

		manager.sentryEnabled = true
	}

	return manager, nil
}

// Stop flushes pending error reports and spans.
// This should be called on application shutdown.
func (lm *Manager) Stop() {
	if lm.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = lm.shutdownTracing(ctx)
}

// GetLoggers initializes the main and database loggers.
// Returns separate loggers for main application and database logging.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, lm.componentName+".log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "database.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	fields := []zap.Field{
		zap.String("component", lm.componentName),
		zap.String("instance_id", lm.instanceID),
	}

	return mainLogger.With(fields...), dbLogger.With(fields...), nil
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.currentSessionDir
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// setupLogDirectories creates and manages the log directory structure.
// It ensures the base directory exists, rotates old logs, and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	// Ensure base log directory exists
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	// Clean up old log sessions, leaving room for the new one
	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	// Create new session directory with timestamp
	sessionDir, err := lm.createSessionDir()
	if err != nil {
		return err
	}

	lm.currentSessionDir = sessionDir

	// Point latest at the new session; platforms without symlinks go without it
	latest := filepath.Join(lm.logDir, latestDir)
	if err := os.Remove(latest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace latest log link: %w", err)
	}

	_ = os.Symlink(filepath.Base(sessionDir), latest)

	return nil
}

// createSessionDir creates a directory named after the current time. Two
// sessions started within the same second get a numbered suffix.
func (lm *Manager) createSessionDir() (string, error) {
	base := filepath.Join(lm.logDir, time.Now().Format(sessionLayout))

	dir := base
	for i := 1; ; i++ {
		err := os.Mkdir(dir, os.ModePerm)
		if err == nil {
			return dir, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create session directory: %w", err)
		}

		dir = fmt.Sprintf("%s_%d", base, i)
	}
}

// initLogger creates a new zap logger writing to path, plus Sentry and
// tracing when enabled.
func (lm *Manager) initLogger(path string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	// Create log rotator
	logRotator := logger.NewLogRotator(file, lm.maxLogLines, path)

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(logRotator),
			zapLevel,
		),
	}

	if lm.sentryEnabled {
		cores = append(cores, NewSentryCore(zapcore.ErrorLevel))
	}

	if lm.tracingEnabled {
		cores = append(cores, NewSpanCore(zapcore.ErrorLevel))
	}

	// Create logger with all cores and development options
	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Development(),
	), nil
}

// rotateLogSessions maintains the log directory by removing old sessions.
// Keeps the most recent maxLogsToKeep-1 sessions so the new one fits.
func (lm *Manager) rotateLogSessions() error {
	entries, err := os.ReadDir(lm.logDir)
	if err != nil {
		return err
	}

	type session struct {
		path    string
		modTime time.Time
	}

	sessions := make([]session, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == latestDir {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		sessions = append(sessions, session{
			path:    filepath.Join(lm.logDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	keep := lm.maxLogsToKeep - 1
	if len(sessions) <= keep {
		return nil // No rotation needed
	}

	// Sort sessions by modification time (oldest first)
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].modTime.Before(sessions[j].modTime)
	})

	// Remove oldest sessions to maintain maxLogsToKeep
	for _, s := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(s.path); err != nil {
			return err
		}
	}

	return nil
}
