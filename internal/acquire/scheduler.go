// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire turns a keyword query into a bounded set of validated
// open-access PDFs: it pages through the metadata index, resolves each work
// through Unpaywall, and streams candidates to disk under a small worker
// pool.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/internal/search"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// Configuration errors. Acquire returns these before any work begins.
var (
	ErrInvalidEmail  = errors.New("a valid contact email is required (Unpaywall rejects anonymous requests)")
	ErrInvalidTarget = errors.New("target count must be at least 1")
)

const (
	// MaxWorkers caps concurrent item pipelines regardless of target.
	MaxWorkers = 5

	// AttemptFactor bounds submissions to target*AttemptFactor.
	AttemptFactor = 3

	DefaultPageSize    = 20
	DefaultPause       = 2 * time.Second
	DefaultSubmitDelay = 100 * time.Millisecond
	DefaultItemTimeout = 120 * time.Second
)

// watchdogGrace is how long past ItemTimeout the scheduler waits for an item
// that ignores its context before counting it as timed out.
var watchdogGrace = 5 * time.Second

// Request describes one acquisition run.
type Request struct {
	Topic     string
	Query     string
	Email     string
	Target    int
	OutputDir string

	StartDate string
	EndDate   string

	// FilterPublishers applies Publishers both to the search filter and to
	// each returned work.
	FilterPublishers bool
	Publishers       []string
}

func (r Request) validate() error {
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	if r.Target < 1 {
		return ErrInvalidTarget
	}
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is empty")
	}
	if r.OutputDir == "" {
		return errors.New("output directory is required")
	}
	return nil
}

func (r Request) publishers() []string {
	if len(r.Publishers) == 0 {
		return types.DefaultPublishers
	}
	return r.Publishers
}

// Scheduler drives one topic: pagination, dedup, the worker pool and the
// success tally. A Scheduler holds no per-run state and may be reused.
type Scheduler struct {
	Search search.Searcher
	Items  ItemProcessor

	PageSize    int
	Pause       time.Duration
	SubmitDelay time.Duration
	ItemTimeout time.Duration

	Metrics *metrics.Metrics
}

// NewScheduler builds a Scheduler from harvest settings, applying defaults
// for unset durations and page size.
func NewScheduler(s search.Searcher, items ItemProcessor, cfg types.HarvestConfig, m *metrics.Metrics) *Scheduler {
	sc := &Scheduler{
		Search:      s,
		Items:       items,
		PageSize:    cfg.PageSize,
		Pause:       cfg.Pause,
		SubmitDelay: cfg.SubmitDelay,
		ItemTimeout: cfg.ItemTimeout,
		Metrics:     m,
	}
	if sc.PageSize <= 0 {
		sc.PageSize = DefaultPageSize
	}
	if sc.ItemTimeout <= 0 {
		sc.ItemTimeout = DefaultItemTimeout
	}
	return sc
}

type itemResult struct {
	work    types.WorkRecord
	outcome types.Outcome
	trace   []byte
}

// run is the mutable state of one Acquire call. Only the scheduler
// goroutine touches it.
type run struct {
	req      Request
	out      io.Writer
	metrics  *metrics.Metrics
	results  chan itemResult
	sem      chan struct{}
	seen     map[string]struct{}
	inflight int

	downloaded int
	attempts   int
	files      []string
}

// Acquire runs the scheduler for one request and reports what it achieved.
// It returns an error only for invalid requests, an unusable output
// directory, or a cancelled ctx; a shortfall is reported in the result, not
// as an error.
func (s *Scheduler) Acquire(ctx context.Context, req Request, w io.Writer) (types.TopicResult, error) {
	if err := req.validate(); err != nil {
		return types.TopicResult{}, err
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return types.TopicResult{}, fmt.Errorf("creating output directory %s: %w", req.OutputDir, err)
	}

	var logBuf bytes.Buffer
	out := io.MultiWriter(w, &logBuf)

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxAttempts := req.Target * AttemptFactor
	maxOffset := maxAttempts * pageSize

	r := &run{
		req:     req,
		out:     out,
		metrics: s.Metrics,
		results: make(chan itemResult, maxAttempts),
		sem:     make(chan struct{}, min(req.Target, MaxWorkers)),
		seen:    make(map[string]struct{}),
	}

	q := search.Query{
		Text:   req.Query,
		From:   req.StartDate,
		Until:  req.EndDate,
		Rows:   pageSize,
		Mailto: req.Email,
	}

	fmt.Fprintf(out, "Searching Crossref for query: %s\n", req.Query)
	if req.FilterPublishers {
		q.Publishers = req.publishers()
		fmt.Fprintf(out, "Filtering by preferred publishers: %s\n", strings.Join(q.Publishers, ", "))
	} else {
		fmt.Fprintln(out, "Including all publishers")
	}

	var runErr error
	offset := 0
pages:
	for r.downloaded < req.Target && r.attempts < maxAttempts && offset < maxOffset {
		q.Offset = offset
		start := time.Now()
		works, err := s.Search.Search(ctx, q)
		s.Metrics.RecordSearch(len(works), err, time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			fmt.Fprintf(out, "Crossref query failed: %v\n", err)
			break
		}
		if len(works) == 0 {
			fmt.Fprintln(out, "No more results from Crossref.")
			break
		}

		for _, work := range works {
			r.drain()
			if r.downloaded >= req.Target || r.attempts >= maxAttempts {
				break
			}

			key := strings.ToLower(strings.TrimSpace(work.DOI))
			if key == "" {
				continue
			}
			if _, dup := r.seen[key]; dup {
				continue
			}

			if !r.waitSlot(ctx) {
				runErr = ctx.Err()
				break pages
			}
			if r.downloaded >= req.Target {
				<-r.sem
				break
			}

			r.seen[key] = struct{}{}
			r.attempts++
			r.inflight++
			go s.process(ctx, r, work)

			if !sleepCtx(ctx, s.SubmitDelay) {
				runErr = ctx.Err()
				break pages
			}
		}
		offset += pageSize

		r.awaitAll()

		more := r.attempts < maxAttempts && offset < maxOffset
		if r.downloaded < req.Target && more && s.Pause > 0 {
			fmt.Fprintf(out, "Pausing for %s between batches...\n", s.Pause)
			if !sleepCtx(ctx, s.Pause) {
				runErr = ctx.Err()
				break
			}
		}
	}
	r.awaitAll()

	fmt.Fprintf(out, "Finished. Downloaded %d PDF(s) to %s\n", r.downloaded, req.OutputDir)
	if r.downloaded < req.Target {
		fmt.Fprintf(out, "Warning: Only able to download %d out of %d requested PDFs.\n", r.downloaded, req.Target)
		fmt.Fprintln(out, "This may be due to limited availability of Open Access PDFs for your search terms.")
	}

	files := r.files
	if files == nil {
		files = []string{}
	}
	return types.TopicResult{
		Topic:      req.Topic,
		Query:      req.Query,
		OutputDir:  req.OutputDir,
		Log:        logBuf.String(),
		Downloaded: r.downloaded,
		Requested:  req.Target,
		Attempts:   r.attempts,
		Files:      files,
	}, runErr
}

// process runs one item under its own timeout and delivers exactly one
// result. If the item overruns the watchdog, a timeout result is delivered
// instead and any file it later produces is removed. The worker slot is
// held until the item itself returns, timed out or not.
func (s *Scheduler) process(ctx context.Context, r *run, work types.WorkRecord) {
	timeout := s.ItemTimeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	item := Item{
		Work:             work,
		Email:            r.req.Email,
		OutputDir:        r.req.OutputDir,
		FilterPublishers: r.req.FilterPublishers,
		Publishers:       r.req.publishers(),
	}

	var trace bytes.Buffer
	done := make(chan types.Outcome, 1)
	go func() {
		defer func() { <-r.sem }()
		defer func() {
			if p := recover(); p != nil {
				done <- types.Failed(types.ReasonInternal, "Error processing DOI %s: %v", work.DOI, p)
			}
		}()
		done <- s.Items.Process(itemCtx, item, &trace)
	}()

	watchdog := time.NewTimer(timeout + watchdogGrace)
	defer watchdog.Stop()

	select {
	case o := <-done:
		if o.Reason() == "" && !o.OK() {
			o = types.Failed(types.ReasonInternal, "item %s returned an empty outcome", work.DOI)
		}
		r.results <- itemResult{work: work, outcome: o, trace: trace.Bytes()}
	case <-watchdog.C:
		r.results <- itemResult{
			work:    work,
			outcome: types.Failed(types.ReasonTimeout, "Timeout processing DOI: %s", work.DOI),
		}
		go func() {
			if late := <-done; late.OK() {
				os.Remove(late.Path())
			}
		}()
	}
}

// waitSlot blocks until a worker slot is free, tallying results that arrive
// meanwhile. It returns false if ctx is cancelled first.
func (r *run) waitSlot(ctx context.Context) bool {
	for {
		select {
		case r.sem <- struct{}{}:
			return true
		case res := <-r.results:
			r.tally(res)
		case <-ctx.Done():
			return false
		}
	}
}

// drain tallies every result already delivered without blocking.
func (r *run) drain() {
	for {
		select {
		case res := <-r.results:
			r.tally(res)
		default:
			return
		}
	}
}

// awaitAll blocks until every submitted item has reported.
func (r *run) awaitAll() {
	for r.inflight > 0 {
		r.tally(<-r.results)
	}
}

// tally flushes an item's trace and counts its outcome. Successes that land
// after the target is met are deleted so the count never exceeds the target
// and the directory matches the report.
func (r *run) tally(res itemResult) {
	r.inflight--
	r.out.Write(res.trace)
	fmt.Fprintf(r.out, "  --> %s\n", res.outcome.Message())

	o := res.outcome
	if !o.OK() {
		r.metrics.RecordItem(string(o.Reason()), 0)
		return
	}
	if r.downloaded >= r.req.Target {
		os.Remove(o.Path())
		fmt.Fprintf(r.out, "  --> Discarded %s (target already met)\n", filepath.Base(o.Path()))
		r.metrics.RecordItem("surplus", 0)
		return
	}

	var size int64
	if fi, err := os.Stat(o.Path()); err == nil {
		size = fi.Size()
	}
	r.metrics.RecordItem("", size)
	r.downloaded++
	r.files = append(r.files, filepath.Base(o.Path()))
	fmt.Fprintf(r.out, "  --> Downloaded %d/%d\n", r.downloaded, r.req.Target)
}

// sleepCtx pauses for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
