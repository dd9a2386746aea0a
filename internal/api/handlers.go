package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/theme"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *bookmarkservice.Service
	themes *theme.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookmarkservice.Service, themes *theme.Service) *Handler {
	return &Handler{svc: svc, themes: themes}
}

// ListBookmarks handles GET /api/bookmarks.
//
//	@Summary		Query bookmarks
//	@Tags			bookmarks
//	@Produce		json
//	@Param			q			query		string	false	"Case-insensitive substring of title, url or tag"
//	@Param			sort		query		string	false	"Title order"	Enums(asc, desc)
//	@Param			favorites	query		bool	false	"Only favorites"
//	@Success		200			{object}	BookmarkListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks [get]
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query bookmarkservice.Query
	query.Search = q.Get("q")
	switch strings.ToLower(q.Get("sort")) {
	case "", "asc":
	case "desc":
		query.SortDescending = true
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("sort must be asc or desc"))
		return
	}
	if v := q.Get("favorites"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("favorites must be a boolean"))
			return
		}
		query.FavoritesOnly = fav
	}

	items, err := h.svc.GetBookmarks(r.Context(), query)
	if err != nil {
		writeError(w, "list bookmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, BookmarkListResponse{Bookmarks: items, Total: len(items)})
}

// GetBookmark handles GET /api/bookmarks/{id}.
//
//	@Summary		Get a single bookmark
//	@Tags			bookmarks
//	@Produce		json
//	@Param			id	path		string	true	"Bookmark id"
//	@Success		200	{object}	Bookmark
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{id} [get]
func (h *Handler) GetBookmark(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBookmark(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBookmark handles POST /api/bookmarks.
//
//	@Summary		Create a bookmark
//	@Tags			bookmarks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateBookmarkRequest	true	"Bookmark to create"
//	@Success		201		{object}	Bookmark
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks [post]
func (h *Handler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	b, err := h.svc.CreateBookmark(r.Context(), req)
	if err != nil {
		writeError(w, "create bookmark", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBookmark handles PUT /api/bookmarks/{id}.
//
//	@Summary		Replace a bookmark's fields, favorite state and tags
//	@Tags			bookmarks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Bookmark id"
//	@Param			body	body		UpdateBookmarkRequest	true	"New state"
//	@Success		200		{object}	Bookmark
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{id} [put]
func (h *Handler) UpdateBookmark(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	b, err := h.svc.UpdateBookmark(r.Context(), models.Bookmark{
		ID:           chi.URLParam(r, "id"),
		Title:        req.Title,
		URL:          req.URL,
		IsFavorite:   req.IsFavorite,
		IsReaderMode: req.IsReaderMode,
		Tags:         req.Tags,
	})
	if err != nil {
		writeError(w, "update bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBookmark handles DELETE /api/bookmarks/{id}.
//
//	@Summary		Delete a bookmark and its metadata
//	@Tags			bookmarks
//	@Param			id	path	string	true	"Bookmark id"
//	@Success		204	"Bookmark deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{id} [delete]
func (h *Handler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete bookmark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite handles POST /api/bookmarks/{id}/favorite.
//
//	@Summary		Flip favorite state
//	@Tags			bookmarks
//	@Produce		json
//	@Param			id	path		string	true	"Bookmark id"
//	@Success		200	{object}	FavoriteResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/{id}/favorite [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	on, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{IsFavorite: on})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List every tag in use
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.AllTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: all})
}

// Protocols handles GET /api/protocols.
//
//	@Summary		List accepted URL prefixes
//	@Tags			bookmarks
//	@Produce		json
//	@Success		200	{object}	ProtocolsResponse
//	@Security		BearerAuth
//	@Router			/protocols [get]
func (h *Handler) Protocols(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ProtocolsResponse{Protocols: h.svc.SupportedProtocols()})
}

// GetTheme handles GET /api/theme.
//
//	@Summary		Get the popup theme
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	ThemeBody
//	@Security		BearerAuth
//	@Router			/theme [get]
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.themes.Get(r.Context())
	if err != nil {
		writeError(w, "get theme", err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeBody{Theme: t})
}

// SetTheme handles PUT /api/theme.
//
//	@Summary		Set the popup theme
//	@Tags			theme
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ThemeBody	true	"light or dark"
//	@Success		200		{object}	ThemeBody
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/theme [put]
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	var req ThemeBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.themes.Set(r.Context(), req.Theme); err != nil {
		writeError(w, "set theme", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ToggleTheme handles POST /api/theme/toggle.
//
//	@Summary		Flip between light and dark
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	ThemeBody
//	@Security		BearerAuth
//	@Router			/theme/toggle [post]
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.themes.Toggle(r.Context())
	if err != nil {
		writeError(w, "toggle theme", err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeBody{Theme: t})
}
