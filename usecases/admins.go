package usecases

import (
	"context"

	"users-server/entities"
	"users-server/repositories"
	"users-server/ws"
)

type AdminUseCase struct {
	repo   repositories.AdminRepository
	events Publisher
}

func NewAdminUseCase(repo repositories.AdminRepository, events Publisher) *AdminUseCase {
	if events == nil {
		events = nopPublisher{}
	}
	return &AdminUseCase{repo: repo, events: events}
}

func (uc *AdminUseCase) publish(ctx context.Context, kind string, id int64, data any) {
	uc.events.Broadcast(ws.Event{Type: "admin." + kind, Entity: entities.TypeAdmin, ID: id, By: actor(ctx), Data: data})
}

func (uc *AdminUseCase) CreateAdmin(ctx context.Context, data entities.AdminCreate) (*entities.Admin, error) {
	admin, err := uc.repo.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, "created", admin.ID, admin.Response())
	return admin, nil
}

func (uc *AdminUseCase) GetAdmin(ctx context.Context, id int64) (*entities.Admin, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *AdminUseCase) PageAdmins(ctx context.Context, skip, limit int) (*Page[entities.Admin], error) {
	items, err := uc.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Page[entities.Admin]{Items: items, Total: total, Skip: skip, Limit: limit}, nil
}

func (uc *AdminUseCase) UpdateAdmin(ctx context.Context, id int64, data entities.AdminUpdate) (*entities.Admin, error) {
	admin, err := uc.repo.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, "updated", admin.ID, admin.Response())
	return admin, nil
}

// SetActive toggles login access. Open sessions of a deactivated admin are
// dropped the next time they are checked.
func (uc *AdminUseCase) SetActive(ctx context.Context, id int64, active bool) (*entities.Admin, error) {
	admin, err := uc.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	kind := "deactivated"
	if active {
		kind = "activated"
	}
	uc.publish(ctx, kind, admin.ID, admin.Response())
	return admin, nil
}

func (uc *AdminUseCase) DeleteAdmin(ctx context.Context, id int64) (int64, error) {
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if deleted != 0 {
		uc.publish(ctx, "deleted", deleted, nil)
	}
	return deleted, nil
}

func (uc *AdminUseCase) HasAny(ctx context.Context) (bool, error) {
	return uc.repo.HasAny(ctx)
}
