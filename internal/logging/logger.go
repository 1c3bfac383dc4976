// Package logging builds the structured logger shared by every dashabr
// component, with URL query credentials (token, signature, auth, apikey)
// and token/password/signature fields redacted before they reach the sink.
// The rest of a URL, and host names, are logged as they are.
package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/m-mizutani/masq"

	"github.com/peymanj-dashabr/dashabr/internal/config"
)

// urlCredentialPattern matches query-string credentials that sometimes
// ride along on manifest/segment URLs (?token=..., ?signature=...).
var urlCredentialPattern = regexp.MustCompile(`(?i)(token|signature|auth|apikey|api_key)=([^&\s"']+)`)

// New builds a slog.Logger for the given LoggingConfig, writing to stdout.
func New(cfg config.LoggingConfig) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds a slog.Logger writing to w, useful for tests.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	redactor := masq.New(
		masq.WithFieldName("token"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("password"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("signature"),
		masq.WithFieldName("Signature"),
	)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a = redactor(groups, a)
			if a.Value.Kind() == slog.KindString {
				if redacted := redactCredentials(a.Value.String()); redacted != a.Value.String() {
					a = slog.String(a.Key, redacted)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func redactCredentials(s string) string {
	return urlCredentialPattern.ReplaceAllString(s, "$1=[REDACTED]")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
