package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a 26-character lowercase identifier built from UUIDv4 bytes.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return encode(value), nil
}

// New is NewID for callers that cannot recover from an exhausted entropy
// source. It panics on failure, like uuid.New.
func New() string {
	return encode(uuid.New())
}

// NewSessionID returns an identifier for a combat session.
func NewSessionID() (string, error) {
	value, err := NewID()
	if err != nil {
		return "", err
	}
	return "session_" + value, nil
}

func encode(value uuid.UUID) string {
	return strings.ToLower(encoding.EncodeToString(value[:]))
}
