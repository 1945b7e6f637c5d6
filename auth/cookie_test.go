package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := NewCookieCodec(testSecret)

	token, err := codec.Encode("session-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	sid, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", sid)
}

func TestCookieCodec_Rejects(t *testing.T) {
	codec := NewCookieCodec(testSecret)
	valid, err := codec.Encode("session-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	expired, err := codec.Encode("session-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	foreign, err := NewCookieCodec("another-secret-0123456789").Encode("session-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "abc.def.ghi",
		"tampered":     valid + "x",
		"expired":      expired,
		"other secret": foreign,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
