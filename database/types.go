package database

import (
	"errors"
	"strings"
)

// ErrStorage - Registry read/write failure
var ErrStorage = errors.New("registry storage error")

// Log - Durable append-only record of anchor message IDs
type Log interface {
	// Append writes one identifier. Records are never rewritten or removed.
	Append(id string) error
	// Load returns every identifier written so far, in write order.
	Load() ([]string, error)
	Close() error
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "\r\n")
}
