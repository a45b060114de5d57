package logger

import (
	"io"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

// Logs go to stderr; stdout is reserved for the report printed to the user.
var LogLevel = new(slog.LevelVar)

var Handler = newHandler(os.Stderr)
var Logger = slog.New(Handler)

func newHandler(w io.Writer) slog.Handler {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: LogLevel})
	return slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))(jsonHandler)
}

func InitSlog() {
	slog.SetDefault(Logger)
	LogLevel.Set(slog.LevelInfo)
}

// Point the package logger at another writer. Used by tests to capture output.
func SetOutput(w io.Writer) {
	Handler = newHandler(w)
	Logger = slog.New(Handler)
	slog.SetDefault(Logger)
}
