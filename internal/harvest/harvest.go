// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest fans a job out over its sub-topics. Topics run one after
// another, each in its own scratch directory, and their PDFs are merged
// into a single job directory with a manifest.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oa-harvest/internal/acquire"
	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// ManifestName is the file written into every job directory.
const ManifestName = "manifest.yaml"

// MinPerTopicTarget is the floor applied when splitting a request across topics.
const MinPerTopicTarget = 5

// Acquirer runs one topic. *acquire.Scheduler implements it.
type Acquirer interface {
	Acquire(ctx context.Context, req acquire.Request, w io.Writer) (types.TopicResult, error)
}

// Request is one fan-out run.
type Request struct {
	JobID     string
	Topics    []types.Topic
	Email     string
	Requested int

	// PerTopicTarget overrides the split computed by PerTopicTarget.
	PerTopicTarget int
}

// Harvester runs topics through an Acquirer and merges their output.
type Harvester struct {
	Acquirer Acquirer

	// Config supplies the date window and publisher filter for every topic.
	Config types.HarvestConfig

	// WorkDir is the parent of topic and job directories (os.TempDir when empty).
	WorkDir string

	Metrics *metrics.Metrics
}

// PerTopicTarget splits requested across numTopics, never below
// MinPerTopicTarget.
func PerTopicTarget(requested, numTopics int) int {
	if numTopics < 1 {
		numTopics = 1
	}
	return max(MinPerTopicTarget, requested/numTopics)
}

// Run processes every topic in order and merges their PDFs into a fresh job
// directory. A failing or panicking topic is recorded in its TopicResult and
// does not stop the others. Run returns an error only for an invalid
// request, an unusable work directory, or a cancelled ctx.
func (h *Harvester) Run(ctx context.Context, req Request, w io.Writer) (types.JobResult, error) {
	if !strings.Contains(req.Email, "@") {
		return types.JobResult{}, acquire.ErrInvalidEmail
	}
	if len(req.Topics) == 0 {
		return types.JobResult{}, errors.New("no topics to harvest")
	}
	if req.Requested < 1 {
		return types.JobResult{}, acquire.ErrInvalidTarget
	}
	perTopic := req.PerTopicTarget
	if perTopic < 1 {
		perTopic = PerTopicTarget(req.Requested, len(req.Topics))
	}
	if h.WorkDir != "" {
		if err := os.MkdirAll(h.WorkDir, 0o755); err != nil {
			return types.JobResult{}, fmt.Errorf("creating work directory: %w", err)
		}
	}

	result := types.JobResult{Requested: req.Requested}
	var log strings.Builder
	var runErr error

	for _, topic := range req.Topics {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		fmt.Fprintf(w, "\n--- %s ---\n", topic.Name)
		fmt.Fprintf(w, "Processing topic: %s\nKeywords: %s\n", topic.Name, topic.Keywords)

		tr := h.runTopic(ctx, topic, req.Email, perTopic, w)
		if tr.Error != "" {
			fmt.Fprintf(w, "Error processing topic %s: %s\n", topic.Name, tr.Error)
		} else {
			fmt.Fprintf(w, "Completed topic: %s - Found %d PDFs\n", topic.Name, tr.Downloaded)
		}
		h.Metrics.RecordTopic(tr.Error != "", tr.Shortfall())

		fmt.Fprintf(&log, "\n--- %s ---\n%s\n", topic.Name, tr.Log)
		result.Topics = append(result.Topics, tr)
	}

	jobDir, err := os.MkdirTemp(h.WorkDir, jobDirPrefix(req.JobID))
	if err != nil {
		h.discardTopicDirs(result.Topics)
		return result, fmt.Errorf("creating job directory: %w", err)
	}
	result.OutputDir = jobDir
	result.Files = h.merge(jobDir, result.Topics, w)
	result.PDFCount = len(result.Files)

	if result.Shortfall() {
		fmt.Fprintf(w, "\nWarning: Only able to deliver %d out of %d requested PDFs.\n", result.PDFCount, result.Requested)
		fmt.Fprintln(w, "This is due to limited availability of Open Access PDFs for your search terms.")
	} else {
		fmt.Fprintf(w, "\nSuccessfully delivered %d PDFs as requested.\n", result.PDFCount)
	}

	result.Log = log.String()
	result.CompletedAt = time.Now().UTC()
	if err := writeManifest(jobDir, req.JobID, result); err != nil {
		fmt.Fprintf(w, "warning: writing manifest: %v\n", err)
	}
	return result, runErr
}

// runTopic acquires one topic in a fresh directory, converting errors and
// panics into TopicResult.Error.
func (h *Harvester) runTopic(ctx context.Context, topic types.Topic, email string, target int, w io.Writer) (tr types.TopicResult) {
	tr = types.TopicResult{Topic: topic.Name, Query: topic.Keywords, Requested: target, Files: []string{}}

	dir, err := os.MkdirTemp(h.WorkDir, "topic-*")
	if err != nil {
		tr.Error = fmt.Sprintf("creating topic directory: %v", err)
		return tr
	}

	defer func() {
		if r := recover(); r != nil {
			os.RemoveAll(dir)
			tr = types.TopicResult{
				Topic:     topic.Name,
				Query:     topic.Keywords,
				Requested: target,
				Files:     []string{},
				Error:     fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	cfg := h.Config
	start, end := cfg.StartDate, cfg.EndDate
	if start == "" {
		start = types.DefaultStartDate
	}
	if end == "" {
		end = types.DefaultEndDate
	}

	res, err := h.Acquirer.Acquire(ctx, acquire.Request{
		Topic:            topic.Name,
		Query:            topic.Keywords,
		Email:            email,
		Target:           target,
		OutputDir:        dir,
		StartDate:        start,
		EndDate:          end,
		FilterPublishers: cfg.FilterPublishers,
		Publishers:       cfg.Publishers,
	}, w)
	if err != nil {
		res.Topic, res.Query, res.Requested = topic.Name, topic.Keywords, target
		res.Error = err.Error()
	}
	res.OutputDir = dir
	if res.Files == nil {
		res.Files = []string{}
	}
	return res
}

// merge moves every PDF from the topic directories into jobDir, renaming on
// collision, and removes the topic directories. It returns the merged names.
func (h *Harvester) merge(jobDir string, topics []types.TopicResult, w io.Writer) []string {
	merged := []string{}
	for i := range topics {
		dir := topics[i].OutputDir
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(w, "Error reading %s: %v\n", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			dest, err := acquire.ReservePath(filepath.Join(jobDir, e.Name()))
			if err != nil {
				fmt.Fprintf(w, "Error moving file %s: %v\n", e.Name(), err)
				continue
			}
			if err := os.Rename(filepath.Join(dir, e.Name()), dest); err != nil {
				os.Remove(dest)
				fmt.Fprintf(w, "Error moving file %s: %v\n", e.Name(), err)
				continue
			}
			merged = append(merged, filepath.Base(dest))
		}
		os.RemoveAll(dir)
		topics[i].OutputDir = ""
	}
	return merged
}

func (h *Harvester) discardTopicDirs(topics []types.TopicResult) {
	for _, t := range topics {
		if t.OutputDir != "" {
			os.RemoveAll(t.OutputDir)
		}
	}
}

func jobDirPrefix(jobID string) string {
	if jobID == "" {
		return "job-*"
	}
	return "job-" + acquire.SanitizeFilename(jobID, 64) + "-*"
}

// manifest is the YAML document written beside the merged PDFs.
type manifest struct {
	JobID           string `yaml:"job_id,omitempty"`
	types.JobResult `yaml:",inline"`
}

func writeManifest(dir, jobID string, res types.JobResult) error {
	res.OutputDir = ""
	data, err := yaml.Marshal(manifest{JobID: jobID, JobResult: res})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644)
}
