package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"studio/internal/domain"
	"studio/internal/generation"
	"studio/internal/http/handlers"
	"studio/internal/providers/brainstorm"
)

type fakeSubmitter struct {
	store *generation.Store
	last  generation.SubmitRequest
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req generation.SubmitRequest) (*generation.Submission, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	job, err := f.store.Append(domain.GenerationJob{ID: "gen-" + string(req.Kind), Kind: req.Kind, Prompt: req.Prompt})
	if err != nil {
		return nil, err
	}
	return &generation.Submission{Job: job, Retries: []string{"duration"}}, nil
}

type fakePolls struct {
	active map[string]bool
}

func (f *fakePolls) Cancel(id string) bool {
	was := f.active[id]
	delete(f.active, id)
	return was
}

func (f *fakePolls) Active(id string) bool { return f.active[id] }

func newTestServer(t *testing.T, submitErr error) (http.Handler, *generation.Store, *fakeSubmitter, *fakePolls) {
	t.Helper()
	store := generation.NewStore(generation.StoreOptions{})
	sub := &fakeSubmitter{store: store, err: submitErr}
	polls := &fakePolls{active: map[string]bool{}}
	app := &handlers.App{
		Store:        store,
		Submitter:    sub,
		Polls:        polls,
		Brainstormer: brainstorm.NewStaticBrainstormer(),
	}
	return NewRouter(app, RouterOptions{SubmitRatePerMin: 100}), store, sub, polls
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	h, _, _, _ := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/v1/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestCreateGeneration(t *testing.T) {
	h, _, sub, _ := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/generations", map[string]any{
		"kind":     "video-image-to-video",
		"prompt":   "a kite over dunes",
		"asset":    []byte("raw-image"),
		"duration": 5,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if sub.last.Kind != domain.KindVideoImageToVideo || string(sub.last.Asset) != "raw-image" || sub.last.Duration != 5 {
		t.Fatalf("submit request = %#v", sub.last)
	}
	var out struct {
		Job     domain.GenerationJob `json:"job"`
		Retries []string             `json:"retries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Job.ID != "gen-video-image-to-video" || len(out.Retries) != 1 {
		t.Fatalf("response = %#v", out)
	}
}

func TestCreateGenerationErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   map[string]any
		status int
		code   string
	}{
		{"unknown kind", nil, map[string]any{"kind": "opera"}, http.StatusBadRequest, "bad_request"},
		{"invalid", fmt.Errorf("orchestrator: %w: prompt is required", domain.ErrInvalidRequest), map[string]any{"kind": "image"}, http.StatusBadRequest, "bad_request"},
		{"upload", fmt.Errorf("orchestrator: %w: %w", domain.ErrUploadFailed, fmt.Errorf("403")), map[string]any{"kind": "image"}, http.StatusBadGateway, "upload_failed"},
		{"secondary", fmt.Errorf("orchestrator: %w: x", domain.ErrSecondaryUploadFailed), map[string]any{"kind": "image"}, http.StatusBadGateway, "secondary_upload_failed"},
		{"rejected", &domain.SubmissionRejectedError{Reason: "insufficient credits"}, map[string]any{"kind": "image"}, http.StatusUnprocessableEntity, "submission_rejected"},
		{"no id", fmt.Errorf("orchestrator: %w", domain.ErrNoJobID), map[string]any{"kind": "image"}, http.StatusBadGateway, "no_job_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _, _ := newTestServer(t, tc.err)
			rec := do(t, h, http.MethodPost, "/v1/generations", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if code := decodeError(t, rec); code != tc.code {
				t.Fatalf("code = %q, want %q", code, tc.code)
			}
		})
	}
}

func TestGetAndListGenerations(t *testing.T) {
	h, store, _, polls := newTestServer(t, nil)
	store.Append(domain.GenerationJob{ID: "a", Kind: domain.KindImage, Prompt: "one"})
	store.Append(domain.GenerationJob{ID: "b", Kind: domain.KindTexture, Prompt: "two"})
	polls.active["a"] = true

	rec := do(t, h, http.MethodGet, "/v1/generations/a", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var job struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Polling bool   `json:"polling"`
	}
	json.NewDecoder(rec.Body).Decode(&job)
	if job.ID != "a" || job.Status != "pending" || !job.Polling {
		t.Fatalf("job = %#v", job)
	}

	rec = do(t, h, http.MethodGet, "/v1/generations?kind=texture", nil)
	var list struct {
		Items []domain.GenerationJob `json:"items"`
	}
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Items) != 1 || list.Items[0].ID != "b" {
		t.Fatalf("items = %#v", list.Items)
	}

	rec = do(t, h, http.MethodGet, "/v1/generations/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", rec.Code)
	}
}

func TestCancelGeneration(t *testing.T) {
	h, store, _, polls := newTestServer(t, nil)
	store.Append(domain.GenerationJob{ID: "c", Kind: domain.KindImage})
	polls.active["c"] = true

	rec := do(t, h, http.MethodPost, "/v1/generations/c/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Job       domain.GenerationJob `json:"job"`
		Cancelled bool                 `json:"cancelled"`
	}
	json.NewDecoder(rec.Body).Decode(&out)
	if !out.Cancelled || out.Job.Status != domain.StatusPending {
		t.Fatalf("out = %#v", out)
	}
	if polls.Active("c") {
		t.Fatalf("poll still active")
	}
}

func TestIdeasEndpoints(t *testing.T) {
	h, _, _, _ := newTestServer(t, nil)
	rec := do(t, h, http.MethodPost, "/v1/ideas/brainstorm", map[string]any{"seed": "a lighthouse that walks", "genre": "fantasy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("brainstorm status = %d", rec.Code)
	}
	var idea brainstorm.Idea
	json.NewDecoder(rec.Body).Decode(&idea)
	if idea.Title == "" || idea.Genre != "Fantasy" {
		t.Fatalf("idea = %#v", idea)
	}

	rec = do(t, h, http.MethodPost, "/v1/ideas/extract", map[string]any{"text": "Title: Dust\nGenre: Western\n\n**Bold** start"})
	var out struct {
		Title string `json:"title"`
		Genre string `json:"genre"`
		Plain string `json:"plain"`
	}
	json.NewDecoder(rec.Body).Decode(&out)
	if out.Title != "Dust" || out.Genre != "Western" || out.Plain != "Title: Dust\nGenre: Western\n\nBold start" {
		t.Fatalf("out = %#v", out)
	}

	rec = do(t, h, http.MethodPost, "/v1/ideas/extract", map[string]any{"text": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty text: status = %d", rec.Code)
	}
}

type memArchive map[string][]byte

func (m memArchive) Read(key string) ([]byte, error) {
	data, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	return data, nil
}

func TestExportGenerations(t *testing.T) {
	store := generation.NewStore(generation.StoreOptions{})
	app := &handlers.App{Store: store, Archive: memArchive{"generated/image/done.png": []byte("png")}}
	h := NewRouter(app, RouterOptions{})

	if rec := do(t, h, http.MethodGet, "/v1/generations/export.zip", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("empty export: status = %d", rec.Code)
	}

	store.Append(domain.GenerationJob{ID: "done", Kind: domain.KindImage})
	completed := domain.StatusCompleted
	url := "https://cdn/done.png"
	if _, err := store.Update("done", domain.JobPatch{Status: &completed, ResultURL: &url}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	store.Append(domain.GenerationJob{ID: "pending", Kind: domain.KindImage})

	rec := do(t, h, http.MethodGet, "/v1/generations/export.zip", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "generated/image/done.png" {
		t.Fatalf("files = %v", zr.File)
	}
}
