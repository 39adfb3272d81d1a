package job

import (
	"context"
	"sync"
)

// Store persists job records. Implementations hold dumb storage only: the
// Registry serializes every read-modify-write, so stores do not need their own
// transactional guarantees beyond atomic single-record operations.
//
// Get returns (nil, nil) when the id is unknown.
type Store interface {
	Get(ctx context.Context, id string) (*Job, error)
	Put(ctx context.Context, j *Job) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore keeps job records in a process-local map. It is the default
// backend for single-instance deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
	}
}

// Get returns a copy of the stored record, or (nil, nil) if absent.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return j.Clone(), nil
}

// Put stores a copy of the record, inserting or replacing.
func (s *MemoryStore) Put(ctx context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[j.ID] = j.Clone()
	return nil
}

// Delete removes a record, reporting whether it existed.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	return ok, nil
}

// List returns copies of all records in unspecified order.
func (s *MemoryStore) List(ctx context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out, nil
}
