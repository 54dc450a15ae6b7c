// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/internal/harvest"
	"github.com/pdiddy/oa-harvest/internal/jobs"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

type oneTopicExpander struct{}

func (oneTopicExpander) Expand(_ context.Context, description string, _ io.Writer) []types.Topic {
	return []types.Topic{{Name: "main_topic", Keywords: description}}
}

// diskHarvester writes one PDF per topic into a job directory under dir.
type diskHarvester struct{ dir string }

func (h diskHarvester) Run(_ context.Context, req harvest.Request, w io.Writer) (types.JobResult, error) {
	out, err := os.MkdirTemp(h.dir, "job-*")
	if err != nil {
		return types.JobResult{}, err
	}
	for _, t := range req.Topics {
		fmt.Fprintf(w, "Processing topic: %s\nKeywords: %s\n", t.Name, t.Keywords)
		os.WriteFile(filepath.Join(out, "paper.pdf"), []byte("%PDF-1.7"), 0o644)
	}
	fmt.Fprintf(w, "Warning: Only able to deliver 1 out of %d requested PDFs.\n", req.Requested)
	return types.JobResult{OutputDir: out, PDFCount: 1, Requested: req.Requested, Files: []string{"paper.pdf"}}, nil
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	workDir := t.TempDir()
	runner := jobs.NewRunner(jobs.RunnerConfig{
		Store:     jobs.NewMemoryStore(),
		Expander:  oneTopicExpander{},
		Harvester: diskHarvester{dir: workDir},
		Logger:    zerolog.Nop(),
	})
	defer runner.Shutdown(context.Background())

	ts := httptest.NewServer(New(types.ServerConfig{}, runner, nil, zerolog.Nop()).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/jobs", "application/json",
		strings.NewReader(`{"description":"perovskite solar cells","email":"me@example.org","max":3}`))
	require.NoError(t, err)
	var sub submitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The stream ends with the completion marker once the job finishes.
	resp, err = http.Get(ts.URL + "/jobs/" + sub.JobID + "/stream")
	require.NoError(t, err)
	stream, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(stream), "data: Keywords: perovskite solar cells\n\n")
	assert.True(t, strings.HasSuffix(string(stream), "data: [JOB COMPLETED]\n\n"))

	var job types.Job
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/jobs/" + sub.JobID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		job = types.Job{}
		return json.NewDecoder(resp.Body).Decode(&job) == nil && job.Status == types.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, job.Requested)
	assert.Contains(t, job.Log, "Warning: Only able to deliver 1 out of 3 requested PDFs.")

	resp, err = http.Get(ts.URL + "/jobs/" + sub.JobID + "/archive")
	require.NoError(t, err)
	archive, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "paper.pdf", zr.File[0].Name)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/jobs/"+sub.JobID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoDirExists(t, job.Result.OutputDir)

	resp, err = http.Get(ts.URL + "/jobs/" + sub.JobID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
