package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// NewHandler returns a JSON slog handler writing to w. Record keys follow the
// conventions downstream log pipelines expect (timestamp, severity, message),
// and every record carries the service name plus the environment when one is
// set.
func NewHandler(w io.Writer, service, env string) slog.Handler {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: renameAttr,
	})
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return handler.WithAttrs(attrs)
}

func renameAttr(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}

// Setup installs the JSON handler on the process default logger and bridges
// the standard library logger through it. Log lines go to stderr so command
// stdout stays free for report output. The configured logger is returned for
// direct use.
func Setup(service, env string) *slog.Logger {
	handler := NewHandler(os.Stderr, service, env)
	base := slog.New(handler)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler, slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
