package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"users-server/db"
	"users-server/entities"
	"users-server/repositories"
	"users-server/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// unreliableStore is a MemoryStore whose reads fail while down is set.
type unreliableStore struct {
	*session.MemoryStore
	down bool
}

func (s *unreliableStore) Get(ctx context.Context, id string) (*session.Data, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.MemoryStore.Get(ctx, id)
}

func newMiddlewareEngine(t *testing.T) (*gin.Engine, *Provider, *unreliableStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	admins := repositories.NewAdminGormRepository(database, bcrypt.MinCost)
	_, err = admins.Create(context.Background(), entities.AdminCreate{UserName: "root", ChatID: 1, Password: "supersecret"})
	require.NoError(t, err)

	store := &unreliableStore{MemoryStore: session.NewMemoryStore()}
	provider := NewProvider(admins, store, NewCookieCodec(testSecret), Options{
		MaxAge:         time.Hour,
		RememberMaxAge: 2 * time.Hour,
	})

	r := gin.New()
	r.Use(provider.Middleware(CookieOptions{Path: "/"}))
	r.GET("/whoami", func(c *gin.Context) {
		if a, ok := FromContext(c).Admin(); ok {
			c.String(http.StatusOK, a.UserName)
			return
		}
		c.Status(http.StatusUnauthorized)
	})
	return r, provider, store
}

func whoami(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_KeepsCookieWhenStoreUnavailable(t *testing.T) {
	r, provider, store := newMiddlewareEngine(t)
	grant, err := provider.Login(context.Background(), Credentials{UserName: "root", Password: "supersecret"})
	require.NoError(t, err)

	store.down = true
	rec := whoami(r, grant.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
	assert.Equal(t, 1, store.Len())

	store.down = false
	rec = whoami(r, grant.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())
}

func TestMiddleware_ClearsDeadCookies(t *testing.T) {
	r, provider, store := newMiddlewareEngine(t)

	rec := whoami(r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Values("Set-Cookie"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), CookieName+"=;")

	grant, err := provider.Login(context.Background(), Credentials{UserName: "root", Password: "supersecret"})
	require.NoError(t, err)
	require.NoError(t, provider.Logout(context.Background(), grant.Token))
	assert.Equal(t, 0, store.Len())

	rec = whoami(r, grant.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Values("Set-Cookie"))
}
