package catalog

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/fileutil"
	"github.com/dhanwis/tutoradmin/internal/logging"
)

// Store keeps the catalog in a YAML file.
type Store struct {
	path   string
	logger *logging.Logger
}

// NewStore returns a Store backed by path. A missing file reads as Seed().
func NewStore(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the catalog.
func (s *Store) Load() (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Seed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}
	return &c, nil
}

// Update applies fn to the stored catalog and writes the result back. The
// file is locked for the whole read-modify-write; if fn fails nothing is
// written.
func (s *Store) Update(fn func(*Catalog) error) (*Catalog, error) {
	lock := fileutil.NewLock(s.path)
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock catalog: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	c, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write catalog: %w", err)
	}

	s.logger.Debug("catalog saved",
		"path", s.path,
		"categories", len(c.Categories),
		"courses", len(c.Courses))
	return c, nil
}
