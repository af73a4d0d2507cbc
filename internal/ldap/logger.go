package ldap

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Logger interface for LDAP operations.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Trace(msg string, fields map[string]any)
}

// TFLogger wraps tflog for use in LDAP package.
type TFLogger struct {
	ctx       context.Context
	subsystem string
}

// NewTFLogger creates a logger writing to a tflog subsystem. The subsystem
// must have been created on ctx with tflog.NewSubsystem.
func NewTFLogger(ctx context.Context, subsystem string) *TFLogger {
	return &TFLogger{
		ctx:       ctx,
		subsystem: subsystem,
	}
}

func (l *TFLogger) Debug(msg string, fields map[string]any) {
	tflog.SubsystemDebug(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Info(msg string, fields map[string]any) {
	tflog.SubsystemInfo(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Warn(msg string, fields map[string]any) {
	tflog.SubsystemWarn(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Error(msg string, fields map[string]any) {
	tflog.SubsystemError(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

func (l *TFLogger) Trace(msg string, fields map[string]any) {
	tflog.SubsystemTrace(l.ctx, l.subsystem, msg, SanitizeFields(fields))
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]any) {}
func (NopLogger) Info(string, map[string]any)  {}
func (NopLogger) Warn(string, map[string]any)  {}
func (NopLogger) Error(string, map[string]any) {}
func (NopLogger) Trace(string, map[string]any) {}

func loggerOrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}

// logOperation logs an operation with timing.
func logOperation(logger Logger, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	entry := make(map[string]any, len(fields)+1)
	maps.Copy(entry, fields)
	entry["operation"] = operation

	logger.Debug("Starting operation", entry)

	err := fn()

	entry["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		entry["error"] = err.Error()
		logger.Error("Operation failed", entry)
	} else {
		logger.Debug("Operation completed successfully", entry)
	}

	return err
}

// logLDAPError logs LDAP-specific error information.
func logLDAPError(logger Logger, operation string, err error, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	maps.Copy(entry, fields)
	entry["operation"] = operation
	entry["error"] = err.Error()

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		entry["ldap_result_code"] = ldapErr.ResultCode
		if ldapErr.MatchedDN != "" {
			entry["ldap_matched_dn"] = ldapErr.MatchedDN
		}
		if ldapErr.Err != nil {
			entry["ldap_diagnostic_message"] = ldapErr.Err.Error()
		}
	}

	logger.Error("LDAP operation failed", entry)
}

// SanitizeFields removes sensitive information from log fields.
func SanitizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	sensitiveKeys := map[string]bool{
		"password":    true,
		"passwd":      true,
		"secret":      true,
		"token":       true,
		"key":         true,
		"credential":  true,
		"credentials": true,
		"script":      true,
	}

	sanitized := make(map[string]any, len(fields))
	for k, v := range fields {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
			continue
		}
		if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = v
	}

	return sanitized
}

func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password=",
		"passwd=",
		"secret=",
		"convertto-securestring",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// LogResourceOperation provides standardized entry/exit logging for Terraform resource operations.
func LogResourceOperation(ctx context.Context, resource, operation string, fields map[string]any) func(error) {
	return logProviderOperation(ctx, "resource", resource, operation, fields)
}

// LogDataSourceOperation provides standardized entry/exit logging for Terraform data source operations.
func LogDataSourceOperation(ctx context.Context, dataSource, operation string, fields map[string]any) func(error) {
	return logProviderOperation(ctx, "data_source", dataSource, operation, fields)
}

func logProviderOperation(ctx context.Context, kind, name, operation string, fields map[string]any) func(error) {
	start := time.Now()

	entryFields := make(map[string]any, len(fields)+2)
	maps.Copy(entryFields, fields)
	entryFields[kind] = name
	entryFields["operation"] = operation

	tflog.SubsystemDebug(ctx, "provider", "Starting "+strings.ReplaceAll(kind, "_", " ")+" operation", entryFields)

	return func(err error) {
		exitFields := maps.Clone(entryFields)
		exitFields["duration_ms"] = time.Since(start).Milliseconds()
		exitFields["has_error"] = err != nil

		if err != nil {
			exitFields["error"] = err.Error()
			tflog.SubsystemError(ctx, "provider", "Operation failed", exitFields)
		} else {
			tflog.SubsystemDebug(ctx, "provider", "Operation completed", exitFields)
		}
	}
}
