package log

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry owns the named logging channels of a process. Loggers constructed
// against the same registry and name share one channel, so reconfiguring a
// name (level, suppression) affects every holder of it.
//
// A registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	out      io.Writer
	channels map[string]*logrus.Logger
}

// NewRegistry creates a registry whose channels write to stdout.
func NewRegistry() *Registry {
	return NewRegistryWithOutput(os.Stdout)
}

// NewRegistryWithOutput creates a registry whose channels write to out.
// Useful for capturing records in tests or redirecting them to a file.
func NewRegistryWithOutput(out io.Writer) *Registry {
	return &Registry{
		out:      out,
		channels: make(map[string]*logrus.Logger),
	}
}

// channel returns the logging channel registered under name, creating it on
// first use. New channels start at info level with the JSON record format;
// logger constructors reconfigure them afterwards.
func (r *Registry) channel(name string) *logrus.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.channels[name]; ok {
		return ch
	}

	ch := logrus.New()
	ch.SetOutput(r.out)
	ch.SetFormatter(newRecordFormatter())
	ch.SetLevel(logrus.InfoLevel)
	r.channels[name] = ch
	return ch
}
