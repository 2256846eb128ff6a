package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = "unreachable"
			a.json(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	a.json(w, http.StatusOK, body)
}
