package api

import "github.com/starford/shelf/internal/models"

// Bookmark is the bookmark response type (aliased from the domain layer).
type Bookmark = models.Bookmark

// CreateBookmarkRequest is the request body for creating a bookmark.
type CreateBookmarkRequest = models.NewBookmark

// UpdateBookmarkRequest is the request body for updating a bookmark.
// Favorite state and tags are replaced, not merged.
type UpdateBookmarkRequest struct {
	Title        string   `json:"title" example:"Go"`
	URL          string   `json:"url" example:"https://go.dev" validate:"required"`
	IsFavorite   bool     `json:"isFavorite"`
	IsReaderMode bool     `json:"isReaderMode"`
	Tags         []string `json:"tags" example:"lang,docs"`
}

// BookmarkListResponse wraps a bookmark query result.
type BookmarkListResponse struct {
	Bookmarks []Bookmark `json:"bookmarks" validate:"required"`
	Total     int        `json:"total" example:"42" validate:"required"`
}

// FavoriteResponse reports favorite state after a toggle.
type FavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// TagsResponse lists every tag in use.
type TagsResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// ProtocolsResponse lists the accepted URL prefixes.
type ProtocolsResponse struct {
	Protocols []string `json:"protocols" validate:"required"`
}

// ThemeBody is both the request and response body for the theme.
type ThemeBody struct {
	Theme models.Theme `json:"theme" example:"dark" validate:"required"`
}
