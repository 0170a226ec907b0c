package ident

import "github.com/google/uuid"

// Generator provides connection ID generation that can be mocked for testing
type Generator interface {
	// NewConnectionID returns a new unique connection identifier
	NewConnectionID() string
}

// UUIDGenerator implements Generator using random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewConnectionID returns a random UUID string
func (g *UUIDGenerator) NewConnectionID() string {
	return uuid.NewString()
}
