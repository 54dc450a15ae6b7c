// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"slices"
	"sync"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// MemoryStore keeps jobs in a map for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]types.Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]types.Job)}
}

func (s *MemoryStore) Create(_ context.Context, job types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return ErrExists
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return types.Job{}, ErrNotFound
	}
	return clone(job), nil
}

func (s *MemoryStore) Update(_ context.Context, job types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.Job, error) {
	s.mu.RLock()
	out := make([]types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, clone(job))
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// clone copies the result so stored jobs never alias caller memory.
func clone(job types.Job) types.Job {
	if job.Result != nil {
		r := *job.Result
		r.Topics = slices.Clone(r.Topics)
		r.Files = slices.Clone(r.Files)
		job.Result = &r
	}
	return job
}

func sortNewestFirst(jobs []types.Job) {
	slices.SortStableFunc(jobs, func(a, b types.Job) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
