package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"users-server/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, s.Init())
	_, err := s.EnsureContainer("users", "file", false)
	require.NoError(t, err)
	_, err = s.EnsureContainer("users", "image", true)
	require.NoError(t, err)
	return s
}

func TestLocalStorage_StoreAndOpen(t *testing.T) {
	s := newStorage(t)

	loc, err := s.Store(context.Background(), "users_file", "notes.txt", strings.NewReader("hello storage"))
	require.NoError(t, err)
	assert.Equal(t, "users_file", loc.Container)
	assert.True(t, strings.HasSuffix(loc.Name, ".txt"))

	rc, err := s.Open(loc)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello storage", string(body))

	parsed, err := ParseLocator(loc.String())
	require.NoError(t, err)
	assert.Equal(t, loc, parsed)
}

func TestLocalStorage_LargeFileKeepsAllBytes(t *testing.T) {
	s := newStorage(t)
	payload := bytes.Repeat([]byte("abcdefgh"), 2048)

	loc, err := s.Store(context.Background(), "users_file", "big.bin", bytes.NewReader(payload))
	require.NoError(t, err)

	stored, err := os.ReadFile(s.Path(loc))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestLocalStorage_ImageContainer(t *testing.T) {
	s := newStorage(t)

	loc, err := s.Store(context.Background(), "users_image", "", bytes.NewReader(pngPixel))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(loc.Name, ".png"))

	_, err = s.Store(context.Background(), "users_image", "fake.png", strings.NewReader("plain text"))
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLocalStorage_StoreRejects(t *testing.T) {
	s := newStorage(t)

	_, err := s.Store(context.Background(), "missing", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.Store(context.Background(), "users_file", "a.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLocalStorage_DeleteIsBestEffort(t *testing.T) {
	s := newStorage(t)

	loc, err := s.Store(context.Background(), "users_file", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	assert.True(t, s.Delete(loc))
	assert.False(t, s.Delete(loc))

	_, err = s.Open(loc)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStorage_Info(t *testing.T) {
	s := newStorage(t)

	_, err := s.Store(context.Background(), "users_file", "a.txt", strings.NewReader("12345"))
	require.NoError(t, err)
	_, err = s.Store(context.Background(), "users_file", "b.txt", strings.NewReader("123"))
	require.NoError(t, err)

	info := s.Info()
	require.Len(t, info.Containers, 2)
	assert.Equal(t, "users_file", info.Containers[0].Name)
	assert.Equal(t, 2, info.Containers[0].FileCount)
	assert.Equal(t, int64(8), info.Containers[0].SizeBytes)
	assert.Equal(t, 0, info.Containers[1].FileCount)
	assert.Equal(t, int64(8), info.TotalSize)
}

func TestLocalStorage_URL(t *testing.T) {
	s := newStorage(t)
	loc := Locator{Container: "users_file", Name: "x.txt"}

	assert.Equal(t, "http://localhost:8000/uploads/users_file/x.txt", s.URL(loc, "http://localhost:8000/", "/uploads"))
}

func TestParseLocator_RejectsTraversal(t *testing.T) {
	for _, raw := range []string{"", "users_file", "../etc/passwd", "users_file/..", "users_file/a/b", `users_file/a\b`} {
		_, err := ParseLocator(raw)
		assert.Error(t, err, raw)
	}
}
