package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emberline/mqttpool/internal/infrastructure/config"
)

// serviceName tags every log line emitted by this process.
const serviceName = "mqttpool"

// Logger is the process-wide structured logger, a thin wrapper over
// slog with the service defaults applied.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from config: level filtering, json or text
// format, stdout/stderr/discard destination, and the service/version
// default fields.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := handlerFor(cfg, writerFor(cfg.Output)).
		WithAttrs([]slog.Attr{
			slog.String("service", serviceName),
			slog.String("version", version),
		})

	return &Logger{Logger: slog.New(handler)}
}

// With returns a child Logger carrying additional default attributes,
// e.g. log.With("component", "pool").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the logger used before configuration is loaded: json to
// stdout at info level. Early-startup use only.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

func writerFor(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}

func handlerFor(cfg config.LoggingConfig, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel maps a config string to a slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
