package observability

import (
	"log/slog"
	"os"
)

// LoggerOptions controls SetupLogger's output.
type LoggerOptions struct {
	ServiceName string
	Env         string
	Debug       bool
}

// SetupLogger configures a JSON slog logger tagged with service/env fields,
// matching the ambient logging style across this codebase.
func SetupLogger(opts LoggerOptions) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{}
	if opts.Debug {
		handlerOpts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, handlerOpts)
	return slog.New(h).With(
		slog.String("service", opts.ServiceName),
		slog.String("env", opts.Env),
	)
}
