// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/oa-harvest/internal/jobs"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// DefaultRequested is the PDF count used when a submission omits max.
const DefaultRequested = 20

// maxBodyBytes caps submission bodies.
const maxBodyBytes = 1 << 20

// submitRequest is the POST /jobs body. Keywords is accepted as an alias
// for Description.
type submitRequest struct {
	Description string `json:"description" validate:"required_without=Keywords,max=4000"`
	Keywords    string `json:"keywords" validate:"max=4000"`
	Email       string `json:"email" validate:"required,email"`
	Max         int    `json:"max" validate:"gte=0,lte=1000"`
}

type submitResponse struct {
	JobID  string          `json:"job_id"`
	Status types.JobStatus `json:"status"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	req.Keywords = strings.TrimSpace(req.Keywords)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	desc := req.Description
	if desc == "" {
		desc = req.Keywords
	}
	requested := req.Max
	if requested == 0 {
		requested = DefaultRequested
	}

	job, err := s.jobs.Submit(r.Context(), jobs.Submission{
		Description: desc,
		Email:       req.Email,
		Requested:   requested,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("submitting job")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Info().Str("job_id", job.ID).Int("requested", requested).Msg("job submitted")

	w.Header().Set("Location", "/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: job.ID, Status: job.Status})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	all, err := s.jobs.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	for i := range all {
		all[i].Log = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": all, "total": len(all)})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if err := s.jobs.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps job errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, jobs.ErrNotCompleted):
		writeError(w, http.StatusBadRequest, "Job not completed yet")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		default:
			msgs = append(msgs, field+" failed "+fe.Tag()+" "+fe.Param())
		}
	}
	return strings.Join(msgs, "; ")
}
