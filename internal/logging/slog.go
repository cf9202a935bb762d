package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Common log attribute keys.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyInput     = "input"
	KeyTimezone  = "timezone"
	KeyStrategy  = "strategy"
	KeyCalendar  = "calendar_id"
)

// Status values. Duplicated in instrumentation, which imports this package.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithAccount returns a logger with the account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Service(svc string) slog.Attr { return slog.String(KeyService, svc) }

func Account(account string) slog.Attr { return slog.String(KeyAccount, account) }

func Tool(tool string) slog.Attr { return slog.String(KeyTool, tool) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

func Timezone(name string) slog.Attr { return slog.String(KeyTimezone, name) }

func Strategy(name string) slog.Attr { return slog.String(KeyStrategy, name) }

func Calendar(id string) slog.Attr { return slog.String(KeyCalendar, id) }

// Input returns an attribute holding user supplied text, truncated to keep
// log lines bounded.
func Input(text string) slog.Attr {
	const max = 120
	if len(text) > max {
		text = text[:max] + "..."
	}
	return slog.String(KeyInput, text)
}

// Err returns an attribute for err. A nil error yields an empty group, which
// slog omits, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable hash of an email address for correlation
// without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns an attribute with the anonymized email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// ExtractDomain returns the domain part of an email address, or "".
func ExtractDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// Domain returns an attribute with the lower-cardinality email domain.
func Domain(email string) slog.Attr {
	return slog.String("user_domain", ExtractDomain(email))
}
