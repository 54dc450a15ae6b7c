// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/oa-harvest/internal/expand"
	"github.com/pdiddy/oa-harvest/internal/harvest"
	"github.com/pdiddy/oa-harvest/internal/logging"
	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/internal/progress"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// DefaultMaxConcurrent bounds running jobs when RunnerConfig leaves it zero.
const DefaultMaxConcurrent = 3

// startMessage is the first line of every job log.
const startMessage = "Starting PDF scraping job..."

// Expander turns a description into sub-topics. *expand.Expander implements it.
type Expander interface {
	Expand(ctx context.Context, description string, w io.Writer) []types.Topic
}

// Harvester runs the topics of one job. *harvest.Harvester implements it.
type Harvester interface {
	Run(ctx context.Context, req harvest.Request, w io.Writer) (types.JobResult, error)
}

// Submission is a validated job request.
type Submission struct {
	Description string
	Email       string
	Requested   int
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Store     Store
	Expander  Expander
	Harvester Harvester

	MaxConcurrent int
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// Runner executes submitted jobs in the background. At most MaxConcurrent
// jobs run at once; the rest wait in the running state.
type Runner struct {
	store     Store
	expander  Expander
	harvester Harvester
	metrics   *metrics.Metrics
	log       zerolog.Logger
	sem       chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	live map[string]*liveJob
}

type liveJob struct {
	log    *progress.Log
	cancel context.CancelFunc
}

// NewRunner returns a Runner ready to accept submissions.
func NewRunner(cfg RunnerConfig) *Runner {
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = DefaultMaxConcurrent
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:     cfg.Store,
		expander:  cfg.Expander,
		harvester: cfg.Harvester,
		metrics:   cfg.Metrics,
		log:       cfg.Logger.With().Str("component", "job-runner").Logger(),
		sem:       make(chan struct{}, n),
		ctx:       ctx,
		cancel:    cancel,
		live:      make(map[string]*liveJob),
	}
}

// Submit records a new running job and starts it in the background.
func (r *Runner) Submit(ctx context.Context, sub Submission) (types.Job, error) {
	if err := r.ctx.Err(); err != nil {
		return types.Job{}, errors.New("job runner is shut down")
	}

	now := time.Now().UTC()
	job := types.Job{
		ID:          uuid.NewString(),
		Status:      types.JobRunning,
		Description: sub.Description,
		Email:       sub.Email,
		Requested:   sub.Requested,
		Log:         startMessage + "\n",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.store.Create(ctx, job); err != nil {
		return types.Job{}, fmt.Errorf("recording job: %w", err)
	}

	plog := progress.New()
	fmt.Fprintln(plog, startMessage)
	jobCtx, cancel := context.WithCancel(r.ctx)

	r.mu.Lock()
	r.live[job.ID] = &liveJob{log: plog, cancel: cancel}
	r.mu.Unlock()

	r.metrics.RecordJobStarted()
	r.wg.Add(1)
	go r.execute(jobCtx, job, plog)

	return job, nil
}

func (r *Runner) execute(ctx context.Context, job types.Job, plog *progress.Log) {
	defer r.wg.Done()
	log := logging.WithJob(r.log, job.ID)
	start := time.Now()

	var (
		res    types.JobResult
		runErr error
	)

	select {
	case r.sem <- struct{}{}:
		res, runErr = r.harvestJob(ctx, job, plog)
		<-r.sem
	case <-ctx.Done():
		runErr = ctx.Err()
	}

	plog.Close()

	job.Log = plog.String()
	job.UpdatedAt = time.Now().UTC()
	if res.OutputDir != "" {
		job.Result = &res
	}
	if runErr != nil {
		job.Status = types.JobError
		job.Error = runErr.Error()
		log.Error().Err(runErr).Msg("job failed")
	} else {
		job.Status = types.JobCompleted
		log.Info().
			Int("pdf_count", res.PDFCount).
			Int("requested", res.Requested).
			Int("topics", len(res.Topics)).
			Dur("elapsed", time.Since(start)).
			Msg("job completed")
	}
	r.metrics.RecordJobFinished(string(job.Status), time.Since(start).Seconds())

	// Persist before dropping the live entry so readers never see a gap.
	err := r.store.Update(context.Background(), job)

	r.mu.Lock()
	if lj, ok := r.live[job.ID]; ok {
		lj.cancel()
		delete(r.live, job.ID)
	}
	r.mu.Unlock()

	if errors.Is(err, ErrNotFound) {
		// Deleted while running.
		if res.OutputDir != "" {
			os.RemoveAll(res.OutputDir)
		}
		log.Info().Msg("job deleted before completion; output discarded")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("recording job result")
	}
}

// harvestJob runs expansion then the topic fan-out, converting panics into
// errors so a single job can never take down the service.
func (r *Runner) harvestJob(ctx context.Context, job types.Job, w io.Writer) (res types.JobResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()

	topics := r.expander.Expand(ctx, job.Description, w)
	if len(topics) == 0 {
		topics = []types.Topic{{Name: expand.MainTopic, Keywords: strings.TrimSpace(job.Description)}}
	}
	return r.harvester.Run(ctx, harvest.Request{
		JobID:     job.ID,
		Topics:    topics,
		Email:     job.Email,
		Requested: job.Requested,
	}, w)
}

// Get returns the job, with the live log text while it is still running.
func (r *Runner) Get(ctx context.Context, id string) (types.Job, error) {
	// The live entry outlives the final store update, so looking it up
	// first never yields a stale running record.
	plog := r.Follow(id)
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if plog != nil && job.Status == types.JobRunning {
		job.Log = plog.String()
	}
	return job, nil
}

// List returns every job, newest first.
func (r *Runner) List(ctx context.Context) ([]types.Job, error) {
	return r.store.List(ctx)
}

// Follow returns the live progress log of a running job, or nil once the
// job has finished (its full log is then in the stored record).
func (r *Runner) Follow(id string) *progress.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lj, ok := r.live[id]; ok {
		return lj.log
	}
	return nil
}

// OutputDir returns the merged output directory of a completed job.
func (r *Runner) OutputDir(ctx context.Context, id string) (string, error) {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != types.JobCompleted || job.Result == nil {
		return "", ErrNotCompleted
	}
	return job.Result.OutputDir, nil
}

// Delete cancels a running job, removes its record, and removes its output
// directory.
func (r *Runner) Delete(ctx context.Context, id string) error {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if lj, ok := r.live[id]; ok {
		lj.cancel()
	}
	r.mu.Unlock()

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	if job.Result != nil && job.Result.OutputDir != "" {
		if err := os.RemoveAll(job.Result.OutputDir); err != nil {
			return fmt.Errorf("removing output of job %s: %w", id, err)
		}
	}
	r.log.Info().Str("job_id", id).Msg("job deleted")
	return nil
}

// Recover marks jobs left running by a previous process as failed. Only
// persistent stores can hold such jobs.
func (r *Runner) Recover(ctx context.Context) (int, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range all {
		if job.Status != types.JobRunning || r.Follow(job.ID) != nil {
			continue
		}
		job.Status = types.JobError
		job.Error = "interrupted by service restart"
		job.UpdatedAt = time.Now().UTC()
		if err := r.store.Update(ctx, job); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		r.log.Warn().Int("jobs", n).Msg("marked interrupted jobs as failed")
	}
	return n, nil
}

// Shutdown cancels every running job and waits for them to record their
// final state, or for ctx to end.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
