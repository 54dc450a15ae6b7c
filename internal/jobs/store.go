// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs tracks harvest jobs: an explicitly owned Store records each
// job's lifecycle and a Runner executes submissions under a concurrency
// bound.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// Store errors.
var (
	ErrNotFound     = errors.New("job not found")
	ErrExists       = errors.New("job already exists")
	ErrNotCompleted = errors.New("job not completed yet")
)

// Store persists jobs by ID. Implementations are safe for concurrent use and
// return copies, so callers may modify what they get back.
type Store interface {
	Create(ctx context.Context, job types.Job) error
	Get(ctx context.Context, id string) (types.Job, error)
	Update(ctx context.Context, job types.Job) error
	Delete(ctx context.Context, id string) error

	// List returns every job, newest first.
	List(ctx context.Context) ([]types.Job, error)

	Close() error
}

// NewStore opens the backend named in cfg.
func NewStore(cfg types.JobStoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, errors.New("sqlite job store requires a path")
		}
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown job store backend %q", cfg.Backend)
	}
}
