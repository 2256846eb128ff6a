package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/domain"
	"studio/internal/generation"
	"studio/internal/infra"
	"studio/internal/providers/brainstorm"
)

// Submitter starts a generation.
type Submitter interface {
	Submit(ctx context.Context, req generation.SubmitRequest) (*generation.Submission, error)
}

// PollController stops polling loops.
type PollController interface {
	Cancel(id string) bool
	Active(id string) bool
}

// ArchiveReader reads archived results by storage key.
type ArchiveReader interface {
	Read(key string) ([]byte, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Store        *generation.Store
	Submitter    Submitter
	Polls        PollController
	Brainstormer brainstorm.Brainstormer
	Archive      ArchiveReader
	DB           Pinger
	Logger       *infra.Logger
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) log() *infra.Logger {
	return infra.OrDiscard(a.Logger)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// fail maps domain errors onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *domain.SubmissionRejectedError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateJob):
		a.error(w, http.StatusConflict, "duplicate_job", err.Error())
	case errors.Is(err, domain.ErrSecondaryUploadFailed):
		a.error(w, http.StatusBadGateway, "secondary_upload_failed", err.Error())
	case errors.Is(err, domain.ErrUploadFailed):
		a.error(w, http.StatusBadGateway, "upload_failed", err.Error())
	case errors.As(err, &rejected):
		a.error(w, http.StatusUnprocessableEntity, "submission_rejected", rejected.Reason)
	case errors.Is(err, domain.ErrNoJobID):
		a.error(w, http.StatusBadGateway, "no_job_id", err.Error())
	default:
		a.log().Error().Err(err).Str("path", r.URL.Path).Msg("http: request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
