package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routes sets up the HTTP router for the portfolio server.
func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(app.loadSession)

	r.Get("/api/health", app.healthHandler)

	// --- Admin API ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/auth", app.loginHandler)
		r.Get("/auth", app.authStatusHandler)
		r.Delete("/auth", app.logoutHandler)

		r.Get("/content", app.getContentHandler)
		r.Get("/images", app.getImagesHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Post("/content", app.contentActionHandler)
			r.Delete("/images", app.deleteImageHandler)
			r.Post("/upload", app.uploadHandler)
		})
	})

	// --- Public pages and uploaded files ---
	r.Get("/case-study/{slug}", app.caseStudyPageHandler)

	prefix := app.cfg.Storage.PublicPrefix
	app.logger.Info("Serving uploaded images", "path", app.store.GetBasePath(), "url_prefix", prefix)
	r.Get(prefix+"/{slug}/images/{filename}", app.imageFileHandler)

	return r
}
