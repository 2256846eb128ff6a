package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/middleware"
)

// RouterOptions carries the middleware settings for NewRouter.
type RouterOptions struct {
	Logger             *infra.Logger
	CORSAllowedOrigins []string
	SubmitRatePerMin   int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*infra.OrDiscard(opts.Logger)),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.SubmitRatePerMin, time.Minute)).Post("/", app.CreateGeneration)
		r.Get("/", app.ListGenerations)
		r.Get("/export.zip", app.ExportGenerations)
		r.Get("/{id}", app.GetGeneration)
		r.Post("/{id}/cancel", app.CancelGeneration)
	})

	r.Route("/v1/ideas", func(r chi.Router) {
		r.Post("/brainstorm", app.BrainstormIdea)
		r.Post("/extract", app.ExtractIdea)
	})

	return r
}
