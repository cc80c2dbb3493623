package log

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// Channel names for the host framework's own output. Fiber's request log
// middleware and the underlying fasthttp server log through these, so they
// can be silenced independently of application loggers.
const (
	FrameworkChannel = "fiber"
	ServerChannel    = "fasthttp"
)

// Ensure FiberLogger implements the Logger interface
var _ Logger = (*FiberLogger)(nil)

// FiberLogger is a StructuredLogger bound to a Fiber application. Binding
// routes the framework's per-request lines and the server's error output
// through the registry as JSON records, or silences them entirely when
// suppressAppLogs is set.
type FiberLogger struct {
	*StructuredLogger

	app *fiber.App
}

// NewFiberLogger creates an application logger on the registry channel
// called name and takes over the app's own logging. Construct it before
// registering routes so the request log middleware wraps them.
//
// With suppressAppLogs false, each handled request emits an info record on
// the "fiber" channel and server faults emit error records on "fasthttp".
// With suppressAppLogs true, both channels are silenced; records emitted
// through the returned logger are unaffected either way.
func NewFiberLogger(reg *Registry, app *fiber.App, name string, level string, suppressAppLogs bool) (*FiberLogger, error) {
	if app == nil {
		return nil, fmt.Errorf("fiber app cannot be nil")
	}

	structured, err := NewStructuredLogger(reg, name, level)
	if err != nil {
		return nil, err
	}

	framework := reg.channel(FrameworkChannel)
	server := reg.channel(ServerChannel)

	app.Use(logger.New(logger.Config{
		Output:        &requestLogWriter{channel: framework},
		DisableColors: true,
	}))
	app.Server().Logger = &serverLogger{channel: server}

	if suppressAppLogs {
		framework.SetLevel(logrus.PanicLevel)
		server.SetLevel(logrus.PanicLevel)
	}

	return &FiberLogger{StructuredLogger: structured, app: app}, nil
}

// requestLogWriter feeds Fiber's request log middleware into a registry
// channel, one info record per request line.
type requestLogWriter struct {
	channel *logrus.Logger
}

func (w *requestLogWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	w.channel.WithField(nameField, FrameworkChannel).Info(line)
	return len(p), nil
}

// Ensure serverLogger implements the fasthttp.Logger interface
var _ fasthttp.Logger = (*serverLogger)(nil)

// serverLogger adapts fasthttp's printf-style logger onto a registry
// channel. fasthttp only logs faults, so everything lands at error level.
type serverLogger struct {
	channel *logrus.Logger
}

func (s *serverLogger) Printf(format string, args ...interface{}) {
	s.channel.WithField(nameField, ServerChannel).Errorf(format, args...)
}
