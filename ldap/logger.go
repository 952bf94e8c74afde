package ldap

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/go-hclog"
)

// Logger is the structured logging surface used throughout the package.
type Logger interface {
	Trace(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// hcLogger adapts an hclog.Logger to the package Logger interface.
type hcLogger struct {
	hl hclog.Logger
}

// NewLogger wraps an hclog.Logger for use by this package. A nil argument
// yields a logger that discards everything.
func NewLogger(hl hclog.Logger) Logger {
	if hl == nil {
		hl = hclog.NewNullLogger()
	}
	return &hcLogger{hl: hl}
}

// NewDefaultLogger returns a named hclog-backed logger at the default level.
func NewDefaultLogger(name string) Logger {
	return &hcLogger{hl: hclog.New(&hclog.LoggerOptions{Name: name})}
}

func (l *hcLogger) Trace(msg string, fields map[string]any) {
	l.hl.Trace(msg, flattenFields(fields)...)
}

func (l *hcLogger) Debug(msg string, fields map[string]any) {
	l.hl.Debug(msg, flattenFields(fields)...)
}

func (l *hcLogger) Info(msg string, fields map[string]any) {
	l.hl.Info(msg, flattenFields(fields)...)
}

func (l *hcLogger) Warn(msg string, fields map[string]any) {
	l.hl.Warn(msg, flattenFields(fields)...)
}

func (l *hcLogger) Error(msg string, fields map[string]any) {
	l.hl.Error(msg, flattenFields(fields)...)
}

// flattenFields converts a field map into hclog's alternating key/value form,
// sanitized and in deterministic key order.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}

	fields = SanitizeFields(fields)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

// SanitizeFields redacts values under credential-bearing keys so bind secrets
// never reach log output.
func SanitizeFields(fields map[string]any) map[string]any {
	sensitive := map[string]bool{
		"password":    true,
		"passwd":      true,
		"secret":      true,
		"token":       true,
		"credential":  true,
		"credentials": true,
	}

	sanitized := make(map[string]any, len(fields))
	for k, v := range fields {
		if sensitive[strings.ToLower(k)] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}

	return sanitized
}

// errorFields builds the common field set for logging a failed operation,
// including protocol detail when available.
func errorFields(op string, err error) map[string]any {
	fields := map[string]any{
		"operation": op,
		"error":     err.Error(),
	}

	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		fields["result_code"] = ldapErr.ResultCode
		if ldapErr.MatchedDN != "" {
			fields["matched_dn"] = ldapErr.MatchedDN
		}
	}

	return fields
}
