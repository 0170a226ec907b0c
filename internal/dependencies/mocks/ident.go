package mocks

import (
	"fmt"

	"github.com/mlg-games/duelrelay/internal/dependencies/ident"
)

// MockIdent is a mock implementation of ident.Generator for testing
type MockIdent struct {
	// Queued is a queue of IDs to return before falling back to
	// sequential generated ones
	Queued []string

	next int
}

// Ensure MockIdent implements Generator
var _ ident.Generator = (*MockIdent)(nil)

// NewMockIdent creates a new MockIdent
func NewMockIdent() *MockIdent {
	return &MockIdent{}
}

// NewConnectionID returns the next queued ID, or a deterministic
// sequential ID once the queue is drained
func (m *MockIdent) NewConnectionID() string {
	m.next++
	if m.next <= len(m.Queued) {
		return m.Queued[m.next-1]
	}
	return fmt.Sprintf("conn-%d", m.next)
}

// Queue adds IDs to the result queue
func (m *MockIdent) Queue(ids ...string) {
	m.Queued = append(m.Queued, ids...)
}

// Reset clears queued IDs and the sequence counter
func (m *MockIdent) Reset() {
	m.Queued = nil
	m.next = 0
}
