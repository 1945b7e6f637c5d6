package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"users-server/apperrors"
	"users-server/entities"
	"users-server/logger"
	"users-server/metrics"
	"users-server/repositories"
	"users-server/session"
	"users-server/validation"
)

// Credentials is the login form.
type Credentials struct {
	UserName   string `json:"username" form:"username" binding:"required,min=3"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// Grant is the outcome of a successful login: the signed cookie value and how
// long the cookie should live.
type Grant struct {
	Token  string
	MaxAge time.Duration
	Admin  *entities.Admin
}

type Options struct {
	MaxAge         time.Duration
	RememberMaxAge time.Duration
}

// Provider authenticates admins and binds server-side sessions to them.
type Provider struct {
	admins repositories.AdminRepository
	store  session.Store
	codec  *CookieCodec
	opts   Options
	now    func() time.Time
}

func NewProvider(admins repositories.AdminRepository, store session.Store, codec *CookieCodec, opts Options) *Provider {
	return &Provider{
		admins: admins,
		store:  store,
		codec:  codec,
		opts:   opts,
		now:    time.Now,
	}
}

// Login checks the form, then the credentials. A malformed username is a
// field validation error; every credential problem, an inactive admin
// included, is the same authentication failure.
func (p *Provider) Login(ctx context.Context, creds Credentials) (*Grant, error) {
	creds.UserName = strings.TrimSpace(creds.UserName)
	if err := validation.Struct(creds); err != nil {
		metrics.AdminLogins.WithLabelValues("invalid").Inc()
		return nil, err
	}

	admin, err := p.admins.Authenticate(ctx, creds.UserName, creds.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.AdminLogins.WithLabelValues("rejected").Inc()
			return nil, apperrors.NewAuthenticationError()
		}
		metrics.AdminLogins.WithLabelValues("error").Inc()
		return nil, err
	}
	if !admin.IsActive {
		metrics.AdminLogins.WithLabelValues("inactive").Inc()
		return nil, apperrors.NewAuthenticationError()
	}

	maxAge := p.opts.MaxAge
	if creds.RememberMe {
		maxAge = p.opts.RememberMaxAge
	}
	now := p.now()
	data := session.Data{
		AdminID:   admin.ID,
		UserName:  admin.UserName,
		Remember:  creds.RememberMe,
		CreatedAt: now,
		ExpiresAt: now.Add(maxAge),
	}
	sid, err := p.store.Create(ctx, data)
	if err != nil {
		metrics.AdminLogins.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create session")
	}
	token, err := p.codec.Encode(sid, data.ExpiresAt)
	if err != nil {
		_ = p.store.Delete(ctx, sid)
		metrics.AdminLogins.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to sign session")
	}

	metrics.AdminLogins.WithLabelValues("success").Inc()
	logger.Info().Int64("admin_id", admin.ID).Bool("remember_me", creds.RememberMe).Msg("Admin logged in")
	return &Grant{Token: token, MaxAge: maxAge, Admin: admin}, nil
}

// Resolve maps a cookie token to the admin it was issued for. A session whose
// admin is gone or deactivated is dropped; the caller just sees no admin.
func (p *Provider) Resolve(ctx context.Context, token string) (*entities.Admin, bool) {
	admin, _ := p.resolve(ctx, token)
	return admin, admin != nil
}

// resolve is Resolve that also reports whether the token is dead for good:
// forged, expired, unknown, or revoked here. Store and database failures leave
// stale false so the cookie survives an outage.
func (p *Provider) resolve(ctx context.Context, token string) (admin *entities.Admin, stale bool) {
	if token == "" {
		return nil, true
	}
	sid, err := p.codec.Decode(token)
	if err != nil {
		return nil, true
	}
	data, err := p.store.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, true
		}
		logger.Error().Err(err).Msg("Failed to load session")
		return nil, false
	}

	admin, err = p.admins.Get(ctx, data.AdminID)
	switch {
	case err == nil && admin.IsActive:
		return admin, false
	case err == nil, errors.Is(err, apperrors.ErrNotFound):
		p.revoke(ctx, sid, data.AdminID)
		return nil, true
	default:
		logger.Error().Err(err).Int64("admin_id", data.AdminID).Msg("Failed to resolve session admin")
		return nil, false
	}
}

func (p *Provider) revoke(ctx context.Context, sid string, adminID int64) {
	if err := p.store.Delete(ctx, sid); err != nil {
		logger.Warn().Err(err).Msg("Failed to drop revoked session")
	}
	metrics.SessionsRevoked.Inc()
	logger.Info().Int64("admin_id", adminID).Msg("Admin session revoked")
}

// Logout drops the session behind token. Unknown or forged tokens are not an
// error.
func (p *Provider) Logout(ctx context.Context, token string) error {
	sid, err := p.codec.Decode(token)
	if err != nil {
		return nil
	}
	return p.store.Delete(ctx, sid)
}
