package repositories

import (
	"context"

	"users-server/entities"
)

// Repository is the contract shared by every entity. Each method is its own
// unit of work; nothing is atomic across two calls.
type Repository[T any, C any, U any] interface {
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, skip, limit int) ([]T, error)
	Create(ctx context.Context, data C) (*T, error)
	Update(ctx context.Context, id int64, data U) (*T, error)
	// Delete returns the removed id, or 0 when no row matched.
	Delete(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// UserRepository is polymorphic: it sees every row, admins included.
type UserRepository interface {
	Repository[entities.User, entities.UserCreate, entities.UserUpdate]
}

type AdminRepository interface {
	Repository[entities.Admin, entities.AdminCreate, entities.AdminUpdate]
	HasAny(ctx context.Context) (bool, error)
	GetByUsername(ctx context.Context, userName string) (*entities.Admin, error)
	// Authenticate answers not-found for an unknown username and for a wrong
	// password alike.
	Authenticate(ctx context.Context, userName, password string) (*entities.Admin, error)
	SetActive(ctx context.Context, id int64, active bool) (*entities.Admin, error)
}
