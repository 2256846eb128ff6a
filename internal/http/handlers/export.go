package handlers

import (
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/storage"
	"studio/pkg/zip"
)

// ExportGenerations streams archived results of completed jobs as a zip.
func (a *App) ExportGenerations(w http.ResponseWriter, r *http.Request) {
	if a.Archive == nil {
		a.error(w, http.StatusNotFound, "not_found", "archiving is not enabled")
		return
	}
	var kind domain.Kind
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		k, ok := domain.ParseKind(raw)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported kind")
			return
		}
		kind = k
	}

	var entries []zip.Entry
	for _, job := range a.Store.List() {
		if job.Status != domain.StatusCompleted || (kind != "" && job.Kind != kind) {
			continue
		}
		key := storage.ArchiveKey(job)
		data, err := a.Archive.Read(key)
		if err != nil {
			continue
		}
		entries = append(entries, zip.Entry{Name: key, Modified: job.UpdatedAt, Data: data})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no archived results")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="generations.zip"`)
	if err := zip.Write(w, entries); err != nil {
		a.log().Error().Err(err).Msg("http: export zip failed")
	}
}
