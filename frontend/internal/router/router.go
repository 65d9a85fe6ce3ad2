package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	fmw "github.com/degixdaw/filebrowser/frontend/internal/middleware"
	"github.com/degixdaw/filebrowser/frontend/internal/setup"
	mw "github.com/degixdaw/filebrowser/shared/middleware"
	"github.com/degixdaw/filebrowser/shared/middleware/metrics"
)

// SetupRouter wires the local UI. Everything except /health and /metrics sits
// behind CSRF protection; /login is additionally rate limited per email.
func SetupRouter(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	h := deps.Handler

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Public.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", fmw.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(mw.UICSP))

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(fmw.GenerateCSRFToken)
		r.Use(fmw.ValidateCSRFToken)

		r.Get("/", h.IndexGetHandler)
		r.With(mw.RateLimit(deps.LoginLimiter, mw.GetFieldFromForm("email"))).Post("/login", h.LoginPostHandler)
		r.Post("/logout", h.LogoutPostHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/files", h.ListFiles)
			r.Post("/files/{index}/select", h.SelectFile)
			r.Get("/preview", h.Preview)
		})
	})

	return r
}
