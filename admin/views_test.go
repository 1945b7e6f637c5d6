package admin

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"users-server/apperrors"
	"users-server/db"
	"users-server/entities"
	"users-server/logger"
	"users-server/repositories"
	"users-server/usecases"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("admin-test", false, io.Discard)
	os.Exit(m.Run())
}

func newRegistry(t *testing.T) (*Registry, *usecases.AdminUseCase) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	users := usecases.NewUserUseCase(repositories.NewUserGormRepository(database), nil)
	admins := usecases.NewAdminUseCase(repositories.NewAdminGormRepository(database, bcrypt.MinCost), nil)
	return NewRegistry("/admin/", users, admins), admins
}

func jsonDecoder(body string) Decoder {
	return func(dst any) error { return json.Unmarshal([]byte(body), dst) }
}

func TestRegistry_Views(t *testing.T) {
	r, _ := newRegistry(t)

	views := r.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "admin", views[0].Identity)
	assert.Equal(t, "user", views[1].Identity)

	_, err := r.Lookup("orders")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistry_RowActions(t *testing.T) {
	r, _ := newRegistry(t)
	v, err := r.Lookup("user")
	require.NoError(t, err)

	actions := r.RowActions(v, 7)
	require.Len(t, actions, 3)
	assert.Equal(t, "view", actions[0].Name)
	assert.Equal(t, "/admin/user/7", actions[0].URL)
	assert.Equal(t, "/admin/user/7/edit", actions[1].URL)
	assert.Equal(t, ActionSubmit, actions[2].Kind)
	assert.Equal(t, "/admin/api/views/user/7/actions/delete", actions[2].URL)
	assert.NotEmpty(t, actions[2].Confirm)

	// The static table itself is not mutated.
	assert.Empty(t, v.Actions[0].URL)
}

func TestRegistry_UserViewCRUD(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	v, err := r.Lookup("user")
	require.NoError(t, err)

	created, err := v.Create(ctx, jsonDecoder(`{"user_name":"alice","chat_id":100}`))
	require.NoError(t, err)
	user := created.(*entities.User)

	_, err = v.Update(ctx, user.ID, jsonDecoder(`{"credits":9}`))
	require.NoError(t, err)

	got, err := v.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.(*entities.User).Credits)

	page, err := v.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.(*usecases.Page[entities.User]).Total)

	out, err := r.Run(ctx, v, "delete", user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"deleted": user.ID}, out)

	_, err = r.Run(ctx, v, "delete", user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistry_RunRejectsLinksAndUnknown(t *testing.T) {
	r, _ := newRegistry(t)
	v, err := r.Lookup("user")
	require.NoError(t, err)

	_, err = r.Run(context.Background(), v, "edit", 1)
	assert.ErrorIs(t, err, apperrors.New(apperrors.ErrCodeBadRequest, ""))

	_, err = r.Run(context.Background(), v, "explode", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistry_AdminToggle(t *testing.T) {
	r, admins := newRegistry(t)
	ctx := context.Background()

	root, err := admins.CreateAdmin(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "password123"})
	require.NoError(t, err)

	v, err := r.Lookup("admin")
	require.NoError(t, err)

	out, err := r.Run(ctx, v, "deactivate", root.ID)
	require.NoError(t, err)
	assert.False(t, out.(entities.AdminResponse).IsActive)

	out, err = r.Run(ctx, v, "activate", root.ID)
	require.NoError(t, err)
	assert.True(t, out.(entities.AdminResponse).IsActive)

	got, err := v.Get(ctx, root.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hashed_password")
	assert.NotContains(t, string(raw), root.HashedPassword)
}
