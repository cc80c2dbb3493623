package log

// Fields holds the caller-supplied key/value pairs attached to a single
// log record. Keys that collide with the standard record fields are kept
// under a "fields." prefix rather than dropped.
type Fields map[string]interface{}

// Logger defines a standard interface for leveled, structured logging.
// This allows decoupling from specific logging libraries.
type Logger interface {
	Debug(message string, extra Fields)
	Info(message string, extra Fields)
	Warn(message string, extra Fields)
	Error(message string, extra Fields)
}
