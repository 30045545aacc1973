package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger: JSON for log shippers, text
// at debug level in dev. Records carry trace ids when a span is active
// on the context.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return slog.New(NewTraceHandler(handler))
}
