package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/generation"
)

const maxSubmitBody = 32 << 20

type generationRequest struct {
	Kind               string `json:"kind"`
	Prompt             string `json:"prompt"`
	Asset              []byte `json:"asset"`
	AssetExtension     string `json:"asset_extension"`
	ImageID            string `json:"image_id"`
	ImageIsGenerated   bool   `json:"image_is_generated"`
	EndFrameImageID    string `json:"end_frame_image_id"`
	MotionStrength     int    `json:"motion_strength"`
	Resolution         string `json:"resolution"`
	Duration           int    `json:"duration"`
	MotionControl      string `json:"motion_control"`
	SourceGenerationID string `json:"source_generation_id"`
	ModelAssetID       string `json:"model_asset_id"`
	ModelID            string `json:"model_id"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	NumImages          int    `json:"num_images"`
}

type submissionResponse struct {
	Job     domain.GenerationJob `json:"job"`
	AssetID string               `json:"asset_id,omitempty"`
	Retries []string             `json:"retries,omitempty"`
}

type jobResponse struct {
	domain.GenerationJob
	Polling bool `json:"polling"`
}

func (a *App) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	var req generationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	kind, ok := domain.ParseKind(req.Kind)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported kind")
		return
	}
	sub, err := a.Submitter.Submit(r.Context(), generation.SubmitRequest{
		Kind:               kind,
		Prompt:             req.Prompt,
		Asset:              req.Asset,
		AssetExtension:     req.AssetExtension,
		ImageID:            req.ImageID,
		ImageIsGenerated:   req.ImageIsGenerated,
		EndFrameImageID:    req.EndFrameImageID,
		MotionStrength:     req.MotionStrength,
		Resolution:         req.Resolution,
		Duration:           req.Duration,
		MotionControl:      req.MotionControl,
		SourceGenerationID: req.SourceGenerationID,
		ModelAssetID:       req.ModelAssetID,
		ModelID:            req.ModelID,
		Width:              req.Width,
		Height:             req.Height,
		NumImages:          req.NumImages,
	})
	if sub == nil && err != nil {
		a.fail(w, r, err)
		return
	}
	if err != nil {
		// The job is recorded but polling could not start.
		a.log().Warn().Err(err).Str("job_id", sub.Job.ID).Msg("http: submission accepted without polling")
	}
	a.json(w, http.StatusAccepted, submissionResponse{Job: sub.Job, AssetID: sub.AssetID, Retries: sub.Retries})
}

func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	jobs := a.Store.List()
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		kind, ok := domain.ParseKind(raw)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported kind")
			return
		}
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.Kind == kind {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}
	a.json(w, http.StatusOK, map[string]any{"items": jobs})
}

func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Store.Get(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{GenerationJob: job, Polling: a.Polls != nil && a.Polls.Active(id)})
}

func (a *App) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.Store.Get(id); err != nil {
		a.fail(w, r, err)
		return
	}
	cancelled := a.Polls != nil && a.Polls.Cancel(id)
	job, err := a.Store.Get(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"job": job, "cancelled": cancelled})
}
