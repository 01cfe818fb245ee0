package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New constructs a JSON slog.Logger preconfigured at info level
func New(service, env, version string) *slog.Logger {
	return NewWithLevel(service, env, version, slog.LevelInfo)
}

// NewWithLevel constructs a JSON slog.Logger at the provided level
func NewWithLevel(service, env, version string, lvl slog.Level) *slog.Logger {
	return NewWithFormat(FormatJSON, service, env, version, lvl)
}

// NewWithFormat constructs a slog.Logger using the named handler format. The
// text format writes colorized lines to stderr, anything else is JSON on
// stdout
func NewWithFormat(
	format, service, env, version string, lvl slog.Level,
) *slog.Logger {
	var handler slog.Handler
	if format == FormatText {
		handler = newTextHandler(os.Stderr, lvl)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: lvl,
		})
	}

	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
		slog.String("version", version))
}

func newTextHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.RFC3339Nano,
	})
}
