// Package storage defines the session persistence port. Stores are
// best-effort collaborators: the session manager treats any store failure as
// "no persistence available" and keeps its in-memory state authoritative.
package storage

import (
	"context"
	"errors"

	"github.com/shopgrove/concierge/internal/domain"
)

// ErrNotFound is returned when a session id has no stored state.
var ErrNotFound = errors.New("session not found")

// SessionStore persists sessions keyed by session id. Implementations need
// per-key atomicity only; the engine guarantees at most one in-flight turn
// per session.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}
