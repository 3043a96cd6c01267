package services

import "github.com/google/uuid"

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID based id generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
