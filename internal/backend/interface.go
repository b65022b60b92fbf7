package backend

import (
	"context"

	"mayfinance/internal/services"
	"mayfinance/internal/session"
)

// CleanupFunc releases what the backend opened.
type CleanupFunc func() error

// Result is everything the HTTP layer needs from the configured backend.
type Result struct {
	// Stores opens the ledger of a new session.
	Stores session.StoreFactory
	// Deps are the optional integrations shared by every session.
	Deps services.Deps
	// Ping reports whether the ledger storage is usable.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
	Info    Info
}

// Info describes what was wired, for the settings page and startup logs.
type Info struct {
	Backend       BackendType
	OCREngine     string // empty when recognition is off
	EventsEnabled bool
	SheetsEnabled bool
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
