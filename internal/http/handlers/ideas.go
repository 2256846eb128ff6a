package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"studio/internal/providers/brainstorm"
)

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Title string `json:"title"`
	Genre string `json:"genre"`
	Plain string `json:"plain"`
}

func (a *App) BrainstormIdea(w http.ResponseWriter, r *http.Request) {
	var req brainstorm.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	idea, err := a.Brainstormer.Brainstorm(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, idea)
}

func (a *App) ExtractIdea(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "text required")
		return
	}
	a.json(w, http.StatusOK, extractResponse{
		Title: brainstorm.ExtractTitle(req.Text),
		Genre: brainstorm.ExtractGenre(req.Text),
		Plain: brainstorm.CleanMarkdown(req.Text),
	})
}
