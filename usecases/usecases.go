package usecases

import (
	"context"

	"users-server/entities"
	"users-server/repositories"
	"users-server/ws"
)

// Publisher receives entity change events. *ws.Hub is the production one.
type Publisher interface {
	Broadcast(ev ws.Event) int
}

type nopPublisher struct{}

func (nopPublisher) Broadcast(ws.Event) int { return 0 }

type actorKey struct{}

// WithActor records which admin is acting on ctx so events can name them.
func WithActor(ctx context.Context, adminID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, adminID)
}

func actor(ctx context.Context) int64 {
	id, _ := ctx.Value(actorKey{}).(int64)
	return id
}

// Page is a slice of rows plus the total row count.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

type UserUseCase struct {
	repo   repositories.UserRepository
	events Publisher
}

func NewUserUseCase(repo repositories.UserRepository, events Publisher) *UserUseCase {
	if events == nil {
		events = nopPublisher{}
	}
	return &UserUseCase{repo: repo, events: events}
}

func (uc *UserUseCase) publish(ctx context.Context, kind string, id int64, data any) {
	uc.events.Broadcast(ws.Event{Type: "user." + kind, Entity: entities.TypeUser, ID: id, By: actor(ctx), Data: data})
}

// CreateUser registers a plain user.
func (uc *UserUseCase) CreateUser(ctx context.Context, data entities.UserCreate) (*entities.User, error) {
	user, err := uc.repo.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, "created", user.ID, user.Response())
	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, id int64) (*entities.User, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *UserUseCase) ListUsers(ctx context.Context, skip, limit int) ([]entities.User, error) {
	return uc.repo.List(ctx, skip, limit)
}

// PageUsers is ListUsers plus the total, each its own unit of work.
func (uc *UserUseCase) PageUsers(ctx context.Context, skip, limit int) (*Page[entities.User], error) {
	items, err := uc.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Page[entities.User]{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

func (uc *UserUseCase) UpdateUser(ctx context.Context, id int64, data entities.UserUpdate) (*entities.User, error) {
	user, err := uc.repo.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, "updated", user.ID, user.Response())
	return user, nil
}

// DeleteUser returns the deleted id, or 0 when nothing matched.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id int64) (int64, error) {
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if deleted != 0 {
		uc.publish(ctx, "deleted", deleted, nil)
	}
	return deleted, nil
}
