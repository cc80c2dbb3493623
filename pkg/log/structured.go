package log

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrInvalidLevel is returned by logger constructors when the requested
// level is not one of debug, info, warn, error.
var ErrInvalidLevel = errors.New("invalid log level")

// nameField carries the logger name in every emitted record.
const nameField = "name"

// timestampFormat is ISO 8601 with millisecond precision, matching the
// records the Python services emit so downstream consumers parse both alike.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Ensure StructuredLogger implements the Logger interface
var _ Logger = (*StructuredLogger)(nil)

// StructuredLogger emits one JSON record per call on a named registry
// channel. Each record carries timestamp, level, message and the logger
// name, plus whatever extra fields the call site supplies.
type StructuredLogger struct {
	name    string
	channel *logrus.Logger
}

// NewStructuredLogger creates a logger on the registry channel called name,
// emitting records at or above level (one of debug, info, warn, error).
// Constructing a second logger with the same name reuses the channel and
// resets its threshold, so the most recent construction wins.
func NewStructuredLogger(reg *Registry, name string, level string) (*StructuredLogger, error) {
	if reg == nil {
		return nil, fmt.Errorf("logger registry cannot be nil")
	}
	if name == "" {
		return nil, fmt.Errorf("logger name cannot be empty")
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	ch := reg.channel(name)
	ch.SetFormatter(newRecordFormatter())
	ch.SetLevel(lvl)

	return &StructuredLogger{name: name, channel: ch}, nil
}

// --- Interface Method Implementations ---

func (l *StructuredLogger) Debug(message string, extra Fields) {
	l.emit(logrus.DebugLevel, message, extra)
}

func (l *StructuredLogger) Info(message string, extra Fields) {
	l.emit(logrus.InfoLevel, message, extra)
}

func (l *StructuredLogger) Warn(message string, extra Fields) {
	l.emit(logrus.WarnLevel, message, extra)
}

func (l *StructuredLogger) Error(message string, extra Fields) {
	l.emit(logrus.ErrorLevel, message, extra)
}

// emit builds the record field set and hands it to the channel. Records
// below the channel threshold are dropped before any allocation.
func (l *StructuredLogger) emit(level logrus.Level, message string, extra Fields) {
	if !l.channel.IsLevelEnabled(level) {
		return
	}

	data := make(logrus.Fields, len(extra)+1)
	for k, v := range extra {
		data[k] = v
	}
	// The name is merged after the extras so callers cannot spoof it.
	data[nameField] = l.name

	l.channel.WithFields(data).Log(level, message)
}

// newRecordFormatter returns the JSON formatter shared by every channel.
// The time and message keys follow the Python record layout; colliding
// extra fields are moved under a "fields." prefix by logrus.
func newRecordFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	}
}

// parseLevel maps the four accepted level names onto logrus levels. Anything
// else, including aliases like "warning" or "critical", is rejected rather
// than silently mapped.
func parseLevel(level string) (logrus.Level, error) {
	switch level {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("level %q: %w", level, ErrInvalidLevel)
	}
}
