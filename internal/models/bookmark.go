// Package models defines the domain types for Shelf.
package models

// NoTitle is shown in listings for bookmarks the native store holds without a title.
const NoTitle = "[No Title]"

// Bookmark is a native bookmark joined with its locally stored metadata.
// An empty ID denotes a bookmark that has not been created yet.
type Bookmark struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	IsFavorite   bool     `json:"isFavorite"`
	IsReaderMode bool     `json:"isReaderMode"`
	Tags         []string `json:"tags"`
}

// NewBookmark is the input for creating a bookmark.
type NewBookmark struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	IsFavorite   bool     `json:"isFavorite"`
	IsReaderMode bool     `json:"isReaderMode"`
	Tags         []string `json:"tags,omitempty"`
}

// BookmarkTags is one entry of the persisted tag index.
type BookmarkTags struct {
	BookmarkID string   `json:"bookmarkId"`
	Tags       []string `json:"tags"`
}

// Theme is the persisted popup colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}
