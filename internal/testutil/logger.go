package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that swallows everything, keeping relay and
// storage log lines out of test output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
