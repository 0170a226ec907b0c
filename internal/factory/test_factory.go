package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mlg-games/duelrelay/internal/dependencies/mocks"
	"github.com/mlg-games/duelrelay/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIdent *mocks.MockIdent
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIdent := mocks.NewMockIdent()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockIdent, logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIdent: mockIdent,
	}
}
