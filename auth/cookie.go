package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type cookieClaims struct {
	jwt.RegisteredClaims
}

// CookieCodec signs the session id carried in the admin cookie so a client
// cannot forge or tamper with it.
type CookieCodec struct {
	secret []byte
	now    func() time.Time
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), now: time.Now}
}

func (c *CookieCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	now := c.now().UTC()
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode returns the session id from a token signed by Encode.
func (c *CookieCodec) Decode(token string) (string, error) {
	var claims cookieClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
