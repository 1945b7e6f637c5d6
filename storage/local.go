package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"users-server/apperrors"
	"users-server/logger"
	"users-server/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

var ErrUnknownContainer = errors.New("unknown storage container")

// Locator addresses one stored file.
type Locator struct {
	Container string `json:"container"`
	Name      string `json:"name"`
}

func (l Locator) String() string {
	return l.Container + "/" + l.Name
}

// ParseLocator is the inverse of Locator.String. Anything that could escape
// the container directory is rejected.
func ParseLocator(s string) (Locator, error) {
	container, name, ok := strings.Cut(s, "/")
	if !ok || !validSegment(container) || !validSegment(name) {
		return Locator{}, fmt.Errorf("invalid locator %q", s)
	}
	return Locator{Container: container, Name: name}, nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

type container struct {
	name   string
	images bool
}

// ContainerInfo describes one container on disk.
type ContainerInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	FileCount int    `json:"file_count"`
}

type Info struct {
	Root       string          `json:"storage_root"`
	Containers []ContainerInfo `json:"registered_storages"`
	TotalSize  int64           `json:"total_size"`
}

// LocalStorage stores uploads under Root, one directory per container.
type LocalStorage struct {
	root string

	mu         sync.RWMutex
	containers map[string]container
}

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{
		root:       root,
		containers: make(map[string]container),
	}
}

// Init creates the root directory and every container registered so far.
func (s *LocalStorage) Init() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	s.mu.RLock()
	names := make([]string, 0, len(s.containers))
	for name := range s.containers {
		names = append(names, name)
	}
	s.mu.RUnlock()

	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(s.root, name), 0o755); err != nil {
			return fmt.Errorf("create container %s: %w", name, err)
		}
	}
	logger.Info().Str("root", s.root).Int("containers", len(names)).Msg("Storage initialized")
	return nil
}

// EnsureContainer registers the container "<table>_<subdir>" and creates its
// directory. Image containers only accept files sniffed as images.
func (s *LocalStorage) EnsureContainer(table, subdir string, images bool) (string, error) {
	name := table + "_" + subdir
	if !validSegment(name) {
		return "", fmt.Errorf("invalid container name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[name]; ok {
		return name, nil
	}
	if err := os.MkdirAll(filepath.Join(s.root, name), 0o755); err != nil {
		return "", fmt.Errorf("create container %s: %w", name, err)
	}
	s.containers[name] = container{name: name, images: images}
	logger.Info().Str("container", name).Bool("images", images).Msg("Storage container registered")
	return name, nil
}

func (s *LocalStorage) lookup(name string) (container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[name]
	return c, ok
}

// Store writes r into the container under a generated name that keeps the
// original extension.
func (s *LocalStorage) Store(ctx context.Context, containerName, filename string, r io.Reader) (Locator, error) {
	c, ok := s.lookup(containerName)
	if !ok {
		return Locator{}, apperrors.NewNotFoundError("storage container", containerName)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Locator{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return Locator{}, apperrors.NewValidationError("file", "empty file")
	}

	mtype := mimetype.Detect(head)
	if c.images && !strings.HasPrefix(mtype.String(), "image/") {
		return Locator{}, apperrors.NewValidationError("file", "not an image: "+mtype.String())
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !validSegment(ext) {
		ext = mtype.Extension()
	}
	loc := Locator{Container: c.name, Name: uuid.NewString() + ext}

	if err := ctx.Err(); err != nil {
		return Locator{}, err
	}

	dir := filepath.Join(s.root, c.name)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Locator{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		_ = tmp.Close()
		return Locator{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Locator{}, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(loc)); err != nil {
		return Locator{}, fmt.Errorf("commit upload: %w", err)
	}

	metrics.StoredFiles.WithLabelValues(c.name).Inc()
	logger.Info().Str("locator", loc.String()).Str("mime", mtype.String()).Msg("File stored")
	return loc, nil
}

func (s *LocalStorage) Path(loc Locator) string {
	return filepath.Join(s.root, loc.Container, loc.Name)
}

func (s *LocalStorage) Open(loc Locator) (io.ReadCloser, error) {
	if _, ok := s.lookup(loc.Container); !ok {
		return nil, ErrUnknownContainer
	}
	f, err := os.Open(s.Path(loc))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("file", loc.String())
		}
		return nil, err
	}
	return f, nil
}

// URL is the public address of loc under the storage mount.
func (s *LocalStorage) URL(loc Locator, baseURL, mount string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.Trim(mount, "/") + "/" + loc.String()
}

// Delete removes the file. Failures are logged and reported as false.
func (s *LocalStorage) Delete(loc Locator) bool {
	path := s.Path(loc)
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error().Err(err).Str("path", path).Msg("Failed to delete file")
		}
		return false
	}
	logger.Info().Str("path", path).Msg("File deleted")
	return true
}

// Info walks every registered container. A container that cannot be read is
// logged and reported empty.
func (s *LocalStorage) Info() Info {
	s.mu.RLock()
	names := make([]string, 0, len(s.containers))
	for name := range s.containers {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	info := Info{Root: s.root, Containers: make([]ContainerInfo, 0, len(names))}
	for _, name := range names {
		ci := ContainerInfo{Name: name, Path: filepath.Join(s.root, name)}
		err := filepath.WalkDir(ci.Path, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			ci.SizeBytes += fi.Size()
			ci.FileCount++
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Str("container", name).Msg("Failed to read storage container")
		}
		info.Containers = append(info.Containers, ci)
		info.TotalSize += ci.SizeBytes
	}
	return info
}
