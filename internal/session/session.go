// Package session stores signed-in operator sessions for the web console.
// A session id is an opaque random token carried in a cookie; the record
// behind it names the operator and expires after a fixed TTL.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/masterconsole/internal/config"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("not signed in")

// Session is one signed-in operator.
type Session struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether s is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	// Create starts a session for the operator and returns it.
	Create(ctx context.Context, uid, email string) (Session, error)

	// Get returns the live session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)

	// Delete ends the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

func newSession(uid, email string, now time.Time, ttl time.Duration) Session {
	return Session{
		ID:        uuid.NewString(),
		UID:       uid,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Open returns the store selected by cfg.Store.
func Open(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		return NewRedis(ctx, cfg.RedisURL, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
