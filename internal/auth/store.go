// Package auth keeps the admin API token between invocations.
package auth

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/fileutil"
)

// tokenFileMode keeps the token readable by the owner only.
const tokenFileMode = 0o600

// Store is a token kept in a single file.
type Store struct {
	path string
}

// NewStore returns a Store backed by path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored token.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.NewValidationError("token cannot be empty").WithField("token")
	}
	if err := fileutil.WriteAtomic(s.path, []byte(token+"\n"), tokenFileMode); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load returns the stored token, or errors.ErrNotLoggedIn when there is none.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errors.ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.ErrNotLoggedIn
	}
	return token, nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
