// Package directory loads the student and tutor collections and answers the
// lookups the commands and the picker need.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/sourcegraph/conc/pool"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/logging"
	"github.com/dhanwis/tutoradmin/internal/model"
)

// Source is the read side of the admin API.
type Source interface {
	ListStudents(ctx context.Context) ([]model.Entity, error)
	ListApprovedTutors(ctx context.Context) ([]model.Entity, error)
	ListTutors(ctx context.Context) ([]model.Entity, error)
}

// Snapshot is one consistent fetch of all three collections.
type Snapshot struct {
	Students       []model.Entity
	ApprovedTutors []model.Entity
	AllTutors      []model.Entity
	LoadedAt       time.Time
}

// Candidates returns the records that may be linked as the given kind.
// Only approved tutors can be assigned.
func (s Snapshot) Candidates(kind model.Kind) []model.Entity {
	if kind == model.KindTutor {
		return s.ApprovedTutors
	}
	return s.Students
}

// Anchor finds the record whose assignments are edited.
func (s Snapshot) Anchor(kind model.Kind, id model.ID) (model.Entity, error) {
	if e, ok := Find(s.Candidates(kind), id); ok {
		return e, nil
	}
	if kind == model.KindTutor {
		if e, ok := Find(s.AllTutors, id); ok {
			return e, nil
		}
	}
	return model.Entity{}, errors.NewNotFoundError(string(kind), fmt.Sprint(id))
}

// Loader fetches snapshots and keeps the latest one.
type Loader struct {
	src    Source
	logger *logging.Logger

	mu      sync.RWMutex
	current Snapshot
}

// NewLoader creates a Loader reading from src.
func NewLoader(src Source, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Loader{src: src, logger: logger}
}

// Load fetches the three collections concurrently. Any failure cancels the
// other fetches and fails the whole load; a partial snapshot is never kept.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	start := time.Now()

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		s, err := l.src.ListStudents(ctx)
		if err != nil {
			return fmt.Errorf("load students: %w", err)
		}
		snap.Students = s
		return nil
	})
	p.Go(func(ctx context.Context) error {
		t, err := l.src.ListApprovedTutors(ctx)
		if err != nil {
			return fmt.Errorf("load approved tutors: %w", err)
		}
		snap.ApprovedTutors = t
		return nil
	})
	p.Go(func(ctx context.Context) error {
		t, err := l.src.ListTutors(ctx)
		if err != nil {
			return fmt.Errorf("load tutors: %w", err)
		}
		snap.AllTutors = t
		return nil
	})
	if err := p.Wait(); err != nil {
		l.logger.Warn("directory load failed", "error", err.Error())
		return Snapshot{}, err
	}

	snap.LoadedAt = time.Now()
	l.mu.Lock()
	l.current = snap
	l.mu.Unlock()

	l.logger.Debug("directory loaded",
		"students", len(snap.Students),
		"approved_tutors", len(snap.ApprovedTutors),
		"tutors", len(snap.AllTutors),
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// Refresh reloads the snapshot. It has the shape of assign.Refresher.
func (l *Loader) Refresh(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Current returns the most recent successful snapshot.
func (l *Loader) Current() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Filter returns the records whose full name, email or qualification matches query,
// ignoring case. A query containing *, ? or [ is a glob matched against the
// whole field; anything else is a substring match. An empty query keeps all.
func Filter(entities []model.Entity, query string) []model.Entity {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entities
	}

	match := func(field string) bool {
		return strings.Contains(field, query)
	}
	if strings.ContainsAny(query, "*?[") {
		if g, err := glob.Compile(query); err == nil {
			match = g.Match
		}
	}

	out := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if match(strings.ToLower(e.FullName)) ||
			match(strings.ToLower(e.Email)) ||
			match(strings.ToLower(e.Qualification)) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the record with the given id.
func Find(entities []model.Entity, id model.ID) (model.Entity, bool) {
	for _, e := range entities {
		if e.ID == id {
			return e, true
		}
	}
	return model.Entity{}, false
}
