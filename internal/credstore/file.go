package credstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps each credential in its own 0600 file under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Store(_ context.Context, token string) error {
	return s.write(keyToken, token)
}

func (s *FileStore) Get(_ context.Context) (string, error) {
	return s.read(keyToken)
}

func (s *FileStore) StoreUsername(_ context.Context, username string) error {
	return s.write(keyUsername, username)
}

func (s *FileStore) GetUsername(_ context.Context) (string, error) {
	return s.read(keyUsername)
}

func (s *FileStore) Clear(_ context.Context) error {
	for _, key := range []string{keyToken, keyUsername} {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clearing %s: %w", key, err)
		}
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, key)
}

func (s *FileStore) write(key, value string) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) read(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}
