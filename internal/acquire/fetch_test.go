// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/internal/httputil"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// fakePDF returns n bytes starting with the PDF signature.
func fakePDF(n int) []byte {
	b := bytes.Repeat([]byte("x"), n)
	copy(b, "%PDF-1.7\n")
	return b
}

func newFetcher(ts *httptest.Server) *Fetcher {
	return &Fetcher{Client: httputil.NewClient(ts.Client(), types.HTTPConfig{})}
}

func serveBytes(status int, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
}

// assertOnlyFiles checks dir holds exactly the named files (no temp leftovers).
func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, names, got)
}

func TestFetchSuccess(t *testing.T) {
	body := fakePDF(50 * 1024)
	ts := serveBytes(http.StatusOK, body)
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "paper.pdf")

	out := newFetcher(ts).Fetch(context.Background(), ts.URL, dest)
	require.True(t, out.OK(), out.String())
	assert.Equal(t, dest, out.Path())
	assert.Equal(t, "Saved: "+dest, out.Message())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assertOnlyFiles(t, dir, "paper.pdf")
}

func TestFetchValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   []byte
		reason types.FailureReason
	}{
		{"600-byte file", http.StatusOK, fakePDF(600), types.ReasonTooSmall},
		{"empty body", http.StatusOK, nil, types.ReasonTooSmall},
		{"exactly one byte short", http.StatusOK, fakePDF(MinPDFBytes - 1), types.ReasonTooSmall},
		{"HTML landing page", http.StatusOK, append([]byte("<!DOCTYPE html>"), make([]byte, 4096)...), types.ReasonNotPDF},
		{"not found", http.StatusNotFound, fakePDF(4096), types.ReasonHTTPStatus},
		{"forbidden", http.StatusForbidden, nil, types.ReasonHTTPStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serveBytes(tt.status, tt.body)
			defer ts.Close()

			dir := t.TempDir()
			dest := filepath.Join(dir, "paper.pdf")

			out := newFetcher(ts).Fetch(context.Background(), ts.URL, dest)
			assert.False(t, out.OK())
			assert.Equal(t, tt.reason, out.Reason())
			assert.NoFileExists(t, dest)
			assertOnlyFiles(t, dir)
		})
	}
}

func TestFetchAcceptsMinimumSize(t *testing.T) {
	ts := serveBytes(http.StatusOK, fakePDF(MinPDFBytes))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "min.pdf")
	out := newFetcher(ts).Fetch(context.Background(), ts.URL, dest)
	assert.True(t, out.OK(), out.String())
}

func TestFetchTransportFailure(t *testing.T) {
	ts := serveBytes(http.StatusOK, nil)
	url := ts.URL
	ts.Close()

	dir := t.TempDir()
	out := (&Fetcher{Client: httputil.NewClient(nil, types.HTTPConfig{Timeout: time.Second})}).
		Fetch(context.Background(), url, filepath.Join(dir, "p.pdf"))
	assert.Equal(t, types.ReasonTransport, out.Reason())
	assertOnlyFiles(t, dir)
}

func TestFetchTimeoutMidStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakePDF(chunkSize))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer ts.Close()

	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out := newFetcher(ts).Fetch(ctx, ts.URL, filepath.Join(dir, "p.pdf"))
	assert.Equal(t, types.ReasonTimeout, out.Reason())
	assertOnlyFiles(t, dir)
}

func TestFetchDoesNotOverwrite(t *testing.T) {
	ts := serveBytes(http.StatusOK, fakePDF(2048))
	defer ts.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "same.pdf")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0o644))

	out := newFetcher(ts).Fetch(context.Background(), ts.URL, dest)
	require.True(t, out.OK(), out.String())
	assert.Equal(t, filepath.Join(dir, "same (2).pdf"), out.Path())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestFetchChunkDelayDoesNotAffectResult(t *testing.T) {
	body := fakePDF(3 * chunkSize)
	ts := serveBytes(http.StatusOK, body)
	defer ts.Close()

	f := newFetcher(ts)
	f.ChunkDelay = 5 * time.Millisecond

	dest := filepath.Join(t.TempDir(), "slow.pdf")
	out := f.Fetch(context.Background(), ts.URL, dest)
	require.True(t, out.OK(), out.String())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}
