package logging

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// credentialParam matches API keys passed as query parameters, which
// net/http echoes back in *url.Error messages.
var credentialParam = regexp.MustCompile(`([?&](?:key|api_key|access_token)=)[^&\s"]+`)

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo is for front ends whose stdout carries results, such as
// the CLI table or the MCP stdio stream.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: redactCredentials,
	})
	return slog.New(handler).With("service", service)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redactCredentials(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); credentialParam.MatchString(s) {
			return slog.String(a.Key, Redact(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, Redact(err.Error()))
		}
	}
	return a
}

// Redact masks credential query parameters in s.
func Redact(s string) string {
	return credentialParam.ReplaceAllString(s, "${1}REDACTED")
}
