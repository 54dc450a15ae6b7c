// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// completedEvent is the final event of every stream.
const completedEvent = "[JOB COMPLETED]"

// keepAliveInterval is how often an empty event is sent while a job is
// quiet. Declared as a var so tests can shorten it.
var keepAliveInterval = time.Second

// streamJob emits the job log as server-sent events, one "data:" event per
// line, then a completion marker. Finished jobs replay their stored log.
func (s *Server) streamJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	// Look up the live log before the record, as Runner.Get does.
	plog := s.jobs.Follow(id)
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if plog == nil {
		for _, line := range splitLines(job.Log) {
			sendEvent(w, line)
		}
		sendEvent(w, completedEvent)
		flusher.Flush()
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	cursor := 0
	for {
		changed := plog.Changed()
		lines, closed := plog.Lines(cursor)
		for _, line := range lines {
			sendEvent(w, line)
		}
		cursor += len(lines)
		if closed {
			sendEvent(w, completedEvent)
			flusher.Flush()
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-changed:
		case <-ticker.C:
			sendEvent(w, "")
			flusher.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
