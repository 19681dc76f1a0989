package dirstat

import "log/slog"

// logger wraps an optional slog.Logger so callers may leave it nil.
type logger struct {
	*slog.Logger
}

// debug logs at debug level if a logger is set.
func (l logger) debug(msg string, args ...any) {
	if l.Logger != nil {
		l.Debug(msg, args...)
	}
}
