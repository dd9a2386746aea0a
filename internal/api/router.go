package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/theme"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *bookmarkservice.Service, themes *theme.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, themes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", h.ListBookmarks)
		r.Post("/", h.CreateBookmark)
		r.Get("/{id}", h.GetBookmark)
		r.Put("/{id}", h.UpdateBookmark)
		r.Delete("/{id}", h.DeleteBookmark)
		r.Post("/{id}/favorite", h.ToggleFavorite)
	})

	r.Get("/tags", h.ListTags)
	r.Get("/protocols", h.Protocols)

	r.Get("/theme", h.GetTheme)
	r.Put("/theme", h.SetTheme)
	r.Post("/theme/toggle", h.ToggleTheme)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
