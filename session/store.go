package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown and expired sessions alike.
var ErrNotFound = errors.New("session not found")

// Data is what the server remembers about a logged-in admin.
type Data struct {
	AdminID   int64     `json:"admin_id"`
	UserName  string    `json:"user_name"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (d Data) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Store persists sessions by opaque id.
type Store interface {
	// Create stores data under a fresh id and returns the id.
	Create(ctx context.Context, data Data) (string, error)
	Get(ctx context.Context, id string) (*Data, error)
	Delete(ctx context.Context, id string) error
	// Sweep drops expired sessions and returns how many went away.
	Sweep(ctx context.Context) (int, error)
}

func newID() string {
	return uuid.NewString()
}
