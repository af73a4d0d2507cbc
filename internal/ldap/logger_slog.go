package ldap

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// LevelTrace sits below slog.LevelDebug for per-entry traversal detail.
const LevelTrace = slog.Level(-8)

// SlogLogger writes to a log/slog logger, for use outside Terraform.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger, or slog.Default() when logger is nil.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, fields map[string]any) { l.log(slog.LevelDebug, msg, fields) }
func (l *SlogLogger) Info(msg string, fields map[string]any)  { l.log(slog.LevelInfo, msg, fields) }
func (l *SlogLogger) Warn(msg string, fields map[string]any)  { l.log(slog.LevelWarn, msg, fields) }
func (l *SlogLogger) Error(msg string, fields map[string]any) { l.log(slog.LevelError, msg, fields) }
func (l *SlogLogger) Trace(msg string, fields map[string]any) { l.log(LevelTrace, msg, fields) }

// log emits fields as attributes in key order.
func (l *SlogLogger) log(level slog.Level, msg string, fields map[string]any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	sanitized := SanitizeFields(fields)
	attrs := make([]slog.Attr, 0, len(sanitized))
	for _, key := range slices.Sorted(maps.Keys(sanitized)) {
		attrs = append(attrs, slog.Any(key, sanitized[key]))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}
