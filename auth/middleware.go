package auth

import (
	"net/http"

	"users-server/apperrors"
	"users-server/entities"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "users_admin_session"
	sessionKey = "admin_session"
)

// Session is the per-request view of the admin session. It is built fresh for
// every request and carries at most one resolved admin.
type Session struct {
	token string
	admin *entities.Admin
}

func (s *Session) Admin() (*entities.Admin, bool) {
	return s.admin, s.admin != nil
}

func (s *Session) Authenticated() bool {
	return s.admin != nil
}

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Path   string
	Secure bool
}

// Middleware resolves the session cookie into a Session. A cookie whose
// session is gone is cleared on the response.
func (p *Provider) Middleware(opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := &Session{}
		if token, err := c.Cookie(CookieName); err == nil && token != "" {
			s.token = token
			admin, stale := p.resolve(c.Request.Context(), token)
			s.admin = admin
			if stale {
				ClearCookie(c, opts)
			}
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// FromContext returns the request's Session; an empty one when Middleware did
// not run.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return &Session{}
}

// RequireAdmin aborts unauthenticated requests with an unauthorized error for
// the error middleware to render.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !FromContext(c).Authenticated() {
			_ = c.Error(apperrors.NewUnauthorizedError("admin login required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetCookie writes the login grant as an http-only cookie.
func SetCookie(c *gin.Context, g *Grant, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, g.Token, int(g.MaxAge.Seconds()), opts.Path, "", opts.Secure, true)
}

func ClearCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, opts.Path, "", opts.Secure, true)
}

// Token returns the raw cookie value seen on this request.
func (s *Session) Token() string {
	return s.token
}

// LogoutRequest drops the server-side session and clears the cookie.
func (p *Provider) LogoutRequest(c *gin.Context, opts CookieOptions) error {
	s := FromContext(c)
	var err error
	if s.token != "" {
		err = p.Logout(c.Request.Context(), s.token)
	}
	s.admin = nil
	s.token = ""
	ClearCookie(c, opts)
	return err
}
