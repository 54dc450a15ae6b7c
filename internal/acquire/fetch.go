// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/oa-harvest/internal/httputil"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

const (
	// chunkSize is the streaming read size.
	chunkSize = 8 * 1024

	// MinPDFBytes is the smallest file accepted as a PDF.
	MinPDFBytes = 1024
)

var pdfMagic = []byte("%PDF")

// Fetcher streams candidate URLs to disk and validates the result.
type Fetcher struct {
	Client *httputil.Client

	// ChunkDelay pauses between chunks to throttle bandwidth. Zero disables it.
	ChunkDelay time.Duration
}

// Fetch downloads rawURL into a temporary file beside dest, checks it, and
// renames it into place. Checks run in order: transport and HTTP status,
// size of at least MinPDFBytes, then the %PDF signature. Every failure
// removes the temporary file. On success the returned outcome carries the
// final path, which differs from dest only when dest was already taken.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) types.Outcome {
	resp, err := f.Client.Get(ctx, rawURL, "application/pdf, */*")
	if err != nil {
		return transportFailure(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return types.Failed(types.ReasonHTTPStatus, "Failed to download PDF from: %s (HTTP %d)", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*.tmp")
	if err != nil {
		return types.Failed(types.ReasonWrite, "creating temp file for %s: %v", rawURL, err)
	}
	tmpPath := tmp.Name()

	n, header, copyErr := f.stream(ctx, tmp, resp.Body)
	closeErr := tmp.Close()

	fail := func(o types.Outcome) types.Outcome {
		os.Remove(tmpPath)
		return o
	}

	var werr writeError
	switch {
	case errors.As(copyErr, &werr):
		return fail(types.Failed(types.ReasonWrite, "writing %s: %v", tmpPath, werr.err))
	case copyErr != nil:
		return fail(transportFailure(ctx, rawURL, copyErr))
	case closeErr != nil:
		return fail(types.Failed(types.ReasonWrite, "closing temp file for %s: %v", rawURL, closeErr))
	case n < MinPDFBytes:
		return fail(types.Failed(types.ReasonTooSmall, "Downloaded file is too small (%d bytes) from: %s", n, rawURL))
	case !bytes.Equal(header, pdfMagic):
		return fail(types.Failed(types.ReasonNotPDF, "Downloaded file is not a valid PDF from: %s", rawURL))
	}

	final, err := ReservePath(dest)
	if err != nil {
		return fail(types.Failed(types.ReasonWrite, "%v", err))
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(final)
		return fail(types.Failed(types.ReasonWrite, "renaming temp file to %s: %v", final, err))
	}
	return types.Succeeded(final)
}

// stream copies body to dst in chunkSize reads, keeping the first four bytes
// for the signature check.
func (f *Fetcher) stream(ctx context.Context, dst io.Writer, body io.Reader) (int64, []byte, error) {
	buf := make([]byte, chunkSize)
	header := make([]byte, 0, len(pdfMagic))
	var total int64

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if need := len(pdfMagic) - len(header); need > 0 {
				header = append(header, buf[:min(need, n)]...)
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, header, writeError{werr}
			}
			total += int64(n)

			if f.ChunkDelay > 0 {
				t := time.NewTimer(f.ChunkDelay)
				select {
				case <-ctx.Done():
					t.Stop()
					return total, header, ctx.Err()
				case <-t.C:
				}
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, header, nil
		}
		if rerr != nil {
			return total, header, rerr
		}
	}
}

// writeError marks a local disk failure during streaming.
type writeError struct{ err error }

func (e writeError) Error() string { return e.err.Error() }

func transportFailure(ctx context.Context, rawURL string, err error) types.Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.Failed(types.ReasonTimeout, "Timed out downloading PDF from: %s", rawURL)
	}
	return types.Failed(types.ReasonTransport, "Failed to download PDF from: %s (%v)", rawURL, err)
}
