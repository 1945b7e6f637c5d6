package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"users-server/apperrors"
	"users-server/entities"
	"users-server/usecases"
)

// ActionKind says how the console presents a row action.
type ActionKind string

const (
	// ActionLink navigates; it has nothing to run server side.
	ActionLink ActionKind = "link"
	// ActionSubmit runs a handler against the row.
	ActionSubmit ActionKind = "submit"
)

// ActionFunc runs a submit action against one row.
type ActionFunc func(ctx context.Context, id int64) (any, error)

// Decoder binds a request body into dst.
type Decoder func(dst any) error

// RowAction is one entry of a view's action table.
type RowAction struct {
	Name    string     `json:"name"`
	Label   string     `json:"label"`
	Kind    ActionKind `json:"kind"`
	Confirm string     `json:"confirm,omitempty"`
	URL     string     `json:"url,omitempty"`

	path string
	run  ActionFunc
}

// View describes one entity in the console together with its action table.
type View struct {
	Identity string      `json:"identity"`
	Label    string      `json:"label"`
	Columns  []string    `json:"columns"`
	Actions  []RowAction `json:"actions"`

	list   func(ctx context.Context, skip, limit int) (any, error)
	get    func(ctx context.Context, id int64) (any, error)
	create func(ctx context.Context, decode Decoder) (any, error)
	update func(ctx context.Context, id int64, decode Decoder) (any, error)
	remove func(ctx context.Context, id int64) (int64, error)
}

// Registry holds the console's views. It is built once and never changes.
type Registry struct {
	prefix string
	views  map[string]*View
}

// NewRegistry declares the user and admin views. prefix is the console mount
// point used to build action URLs.
func NewRegistry(prefix string, users *usecases.UserUseCase, admins *usecases.AdminUseCase) *Registry {
	r := &Registry{
		prefix: strings.TrimRight(prefix, "/"),
		views:  make(map[string]*View),
	}
	r.add(userView(users))
	r.add(adminView(admins))
	return r
}

func (r *Registry) add(v *View) {
	r.views[v.Identity] = v
}

func (r *Registry) Lookup(identity string) (*View, error) {
	v, ok := r.views[identity]
	if !ok {
		return nil, apperrors.NewNotFoundError("view", identity)
	}
	return v, nil
}

// Views lists every view sorted by identity.
func (r *Registry) Views() []View {
	out := make([]View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// RowActions resolves a view's action table for one row.
func (r *Registry) RowActions(v *View, id int64) []RowAction {
	out := make([]RowAction, len(v.Actions))
	for i, a := range v.Actions {
		a.URL = r.prefix + fmt.Sprintf(a.path, v.Identity, id)
		out[i] = a
	}
	return out
}

// Run executes the named submit action on a row.
func (r *Registry) Run(ctx context.Context, v *View, name string, id int64) (any, error) {
	for _, a := range v.Actions {
		if a.Name != name {
			continue
		}
		if a.run == nil {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("action %q is a link", name))
		}
		return a.run(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("action", name)
}

func (v *View) List(ctx context.Context, skip, limit int) (any, error) {
	return v.list(ctx, skip, limit)
}

func (v *View) Get(ctx context.Context, id int64) (any, error) {
	return v.get(ctx, id)
}

func (v *View) Create(ctx context.Context, decode Decoder) (any, error) {
	return v.create(ctx, decode)
}

func (v *View) Update(ctx context.Context, id int64, decode Decoder) (any, error) {
	return v.update(ctx, id, decode)
}

func (v *View) Delete(ctx context.Context, id int64) (int64, error) {
	return v.remove(ctx, id)
}

// baseActions is the row table every view starts from.
func baseActions(remove func(ctx context.Context, id int64) (int64, error), label string) []RowAction {
	return []RowAction{
		{Name: "view", Label: "View", Kind: ActionLink, path: "/%s/%d"},
		{Name: "edit", Label: "Edit", Kind: ActionLink, path: "/%s/%d/edit"},
		{
			Name:    "delete",
			Label:   "Delete",
			Kind:    ActionSubmit,
			Confirm: "Are you sure you want to delete this " + label + "?",
			path:    "/api/views/%s/%d/actions/delete",
			run: func(ctx context.Context, id int64) (any, error) {
				deleted, err := remove(ctx, id)
				if err != nil {
					return nil, err
				}
				if deleted == 0 {
					return nil, apperrors.NewNotFoundError(label, id)
				}
				return map[string]int64{"deleted": deleted}, nil
			},
		},
	}
}

func userView(uc *usecases.UserUseCase) *View {
	v := &View{
		Identity: entities.TypeUser,
		Label:    "Users",
		Columns:  []string{"id", "user_name", "chat_id", "credits", "type", "created_at"},
		list: func(ctx context.Context, skip, limit int) (any, error) {
			return uc.PageUsers(ctx, skip, limit)
		},
		get: func(ctx context.Context, id int64) (any, error) {
			return uc.GetUser(ctx, id)
		},
		create: func(ctx context.Context, decode Decoder) (any, error) {
			var in entities.UserCreate
			if err := decode(&in); err != nil {
				return nil, err
			}
			return uc.CreateUser(ctx, in)
		},
		update: func(ctx context.Context, id int64, decode Decoder) (any, error) {
			var in entities.UserUpdate
			if err := decode(&in); err != nil {
				return nil, err
			}
			return uc.UpdateUser(ctx, id, in)
		},
		remove: uc.DeleteUser,
	}
	v.Actions = baseActions(v.remove, "user")
	return v
}

func adminView(uc *usecases.AdminUseCase) *View {
	v := &View{
		Identity: entities.TypeAdmin,
		Label:    "Admins",
		Columns:  []string{"id", "user_name", "chat_id", "credits", "is_active", "created_at"},
		list: func(ctx context.Context, skip, limit int) (any, error) {
			page, err := uc.PageAdmins(ctx, skip, limit)
			if err != nil {
				return nil, err
			}
			items := make([]entities.AdminResponse, len(page.Items))
			for i, a := range page.Items {
				items[i] = a.Response()
			}
			return usecases.Page[entities.AdminResponse]{Items: items, Total: page.Total, Skip: page.Skip, Limit: page.Limit}, nil
		},
		get: func(ctx context.Context, id int64) (any, error) {
			a, err := uc.GetAdmin(ctx, id)
			if err != nil {
				return nil, err
			}
			return a.Response(), nil
		},
		create: func(ctx context.Context, decode Decoder) (any, error) {
			var in entities.AdminCreate
			if err := decode(&in); err != nil {
				return nil, err
			}
			a, err := uc.CreateAdmin(ctx, in)
			if err != nil {
				return nil, err
			}
			return a.Response(), nil
		},
		update: func(ctx context.Context, id int64, decode Decoder) (any, error) {
			var in entities.AdminUpdate
			if err := decode(&in); err != nil {
				return nil, err
			}
			a, err := uc.UpdateAdmin(ctx, id, in)
			if err != nil {
				return nil, err
			}
			return a.Response(), nil
		},
		remove: uc.DeleteAdmin,
	}
	toggle := func(active bool) ActionFunc {
		return func(ctx context.Context, id int64) (any, error) {
			a, err := uc.SetActive(ctx, id, active)
			if err != nil {
				return nil, err
			}
			return a.Response(), nil
		}
	}
	v.Actions = append(baseActions(v.remove, "admin"),
		RowAction{Name: "activate", Label: "Activate", Kind: ActionSubmit, path: "/api/views/%s/%d/actions/activate", run: toggle(true)},
		RowAction{
			Name:    "deactivate",
			Label:   "Deactivate",
			Kind:    ActionSubmit,
			Confirm: "Deactivated admins are signed out on their next request.",
			path:    "/api/views/%s/%d/actions/deactivate",
			run:     toggle(false),
		},
	)
	return v
}
