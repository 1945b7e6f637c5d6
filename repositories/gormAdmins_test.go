package repositories

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"users-server/apperrors"
	"users-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminRepository_Create(t *testing.T) {
	users, admins := newRepos(t)
	ctx := context.Background()

	has, err := admins.HasAny(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	root, err := admins.Create(ctx, entities.AdminCreate{UserName: "  root  ", ChatID: 7, Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "root", root.UserName)
	assert.Equal(t, entities.TypeAdmin, root.Type)
	assert.True(t, root.IsActive)
	assert.NotEqual(t, "password123", root.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.HashedPassword), []byte("password123")))

	has, err = admins.HasAny(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	// The base row is visible through the polymorphic user repository.
	asUser, err := users.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TypeAdmin, asUser.Type)

	loaded, err := admins.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.HashedPassword, loaded.HashedPassword)
	assert.Equal(t, int64(7), loaded.ChatID)
	assert.True(t, loaded.IsActive)
}

func TestAdminRepository_CreateValidation(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()

	_, err := admins.Create(ctx, entities.AdminCreate{UserName: "ab", ChatID: 1, Password: "password123"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	appErr, _ := apperrors.As(err)
	assert.Contains(t, appErr.Fields, "user_name")

	_, err = admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "short"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	appErr, _ = apperrors.As(err)
	assert.Contains(t, appErr.Fields, "password")
}

func TestAdminRepository_PasswordTooLongForBcrypt(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()
	long := strings.Repeat("a", 80)

	_, err := admins.Create(ctx, entities.AdminCreate{UserName: "bob", ChatID: 200, Password: long})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))
	appErr, _ := apperrors.As(err)
	assert.Contains(t, appErr.Fields, "password")

	has, err := admins.HasAny(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	bob, err := admins.Create(ctx, entities.AdminCreate{UserName: "bob", ChatID: 200, Password: strings.Repeat("a", 72)})
	require.NoError(t, err)

	_, err = admins.Update(ctx, bob.ID, entities.AdminUpdate{Password: &long})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	appErr, _ = apperrors.As(err)
	assert.Contains(t, appErr.Fields, "password")
}

func TestAdminRepository_GetIgnoresPlainUsers(t *testing.T) {
	users, admins := newRepos(t)
	ctx := context.Background()

	alice, err := users.Create(ctx, entities.UserCreate{UserName: "alice", ChatID: ptr(int64(1))})
	require.NoError(t, err)

	_, err = admins.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = admins.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	id, err := admins.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	_, err = users.Get(ctx, alice.ID)
	assert.NoError(t, err)
}

func TestAdminRepository_Authenticate(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()

	root, err := admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "password123"})
	require.NoError(t, err)

	got, err := admins.Authenticate(ctx, "root", "password123")
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.ID)

	_, err = admins.Authenticate(ctx, "root", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = admins.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdminRepository_Update(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()

	root, err := admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "password123"})
	require.NoError(t, err)
	_, err = admins.Create(ctx, entities.AdminCreate{UserName: "other", ChatID: 2, Password: "password123"})
	require.NoError(t, err)

	updated, err := admins.Update(ctx, root.ID, entities.AdminUpdate{
		UserName: ptr("superuser"),
		Credits:  ptr(int64(10)),
		Password: ptr("new-password-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "superuser", updated.UserName)
	assert.Equal(t, int64(10), updated.Credits)
	assert.NotEqual(t, root.HashedPassword, updated.HashedPassword)

	_, err = admins.Authenticate(ctx, "superuser", "new-password-1")
	assert.NoError(t, err)
	_, err = admins.Authenticate(ctx, "superuser", "password123")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = admins.Update(ctx, root.ID, entities.AdminUpdate{UserName: ptr("other")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = admins.Update(ctx, 99, entities.AdminUpdate{Credits: ptr(int64(1))})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = admins.Update(ctx, 99, entities.AdminUpdate{IsActive: ptr(false)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdminRepository_SetActive(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()

	root, err := admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "password123"})
	require.NoError(t, err)

	off, err := admins.SetActive(ctx, root.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	loaded, err := admins.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	on, err := admins.SetActive(ctx, root.ID, true)
	require.NoError(t, err)
	assert.True(t, on.IsActive)
}

func TestAdminRepository_ListAndCount(t *testing.T) {
	users, admins := newRepos(t)
	ctx := context.Background()

	_, err := users.Create(ctx, entities.UserCreate{UserName: "alice", ChatID: ptr(int64(1))})
	require.NoError(t, err)
	_, err = admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 2, Password: "password123"})
	require.NoError(t, err)
	_, err = admins.Create(ctx, entities.AdminCreate{UserName: "ops-admin", ChatID: 3, Password: "password123"})
	require.NoError(t, err)

	list, err := admins.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "root", list[0].UserName)
	assert.Equal(t, "ops-admin", list[1].UserName)

	n, err := admins.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	total, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestAdminRepository_Delete(t *testing.T) {
	users, admins := newRepos(t)
	ctx := context.Background()

	root, err := admins.Create(ctx, entities.AdminCreate{UserName: "root", ChatID: 1, Password: "password123"})
	require.NoError(t, err)

	id, err := admins.Delete(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, id)

	_, err = users.Get(ctx, root.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	id, err = admins.Delete(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

func TestSeedAdmins(t *testing.T) {
	_, admins := newRepos(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "admins.yaml")
	seed := []byte(`admins:
  - user_name: root
    chat_id: 1
    password: password123
  - user_name: backup
    chat_id: 2
    password: password456
`)
	require.NoError(t, os.WriteFile(path, seed, 0o600))

	n, err := SeedAdmins(ctx, admins, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = SeedAdmins(ctx, admins, path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = admins.Authenticate(ctx, "backup", "password456")
	assert.NoError(t, err)
}

func TestSeedAdmins_MissingFile(t *testing.T) {
	_, admins := newRepos(t)

	_, err := SeedAdmins(context.Background(), admins, filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
