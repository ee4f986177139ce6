// Package memory provides an in-process implementation of storage.Storage.
// Nothing survives a restart; it backs tests and the "memory" driver.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu       sync.RWMutex
	students map[string]types.Student
}

func New() *Store {
	return &Store{students: make(map[string]types.Student)}
}

func (s *Store) Save(_ context.Context, student types.Student) (types.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	stored := clone(student)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[stored.ID] = stored
	return clone(stored), nil
}

func (s *Store) FindByID(_ context.Context, id string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if student, ok := s.students[id]; ok {
		return clone(student), nil
	}
	return types.Student{}, storage.ErrNotFound
}

func (s *Store) FindAll(_ context.Context) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]types.Student, 0, len(s.students))
	for _, student := range s.students {
		students = append(students, clone(student))
	}
	return students, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.students, id)
	return nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.students)
	return nil
}

func (s *Store) ExistsByGender(_ context.Context, gender string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students {
		if student.Gender == gender {
			return true, nil
		}
	}
	return false, nil
}

// clone detaches the slice and pointer fields so callers can't mutate
// stored state.
func clone(s types.Student) types.Student {
	if s.CreatedAt != nil {
		createdAt := *s.CreatedAt
		s.CreatedAt = &createdAt
	}
	if s.UpdateHistory != nil {
		s.UpdateHistory = slices.Clone(s.UpdateHistory)
	}
	return s
}

var _ storage.Storage = (*Store)(nil)
