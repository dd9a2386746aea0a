// Package provider defines the native bookmark store abstraction.
package provider

import (
	"context"
	"net/url"
	"strings"
)

// NodeType distinguishes entries of the native bookmark tree.
type NodeType string

const (
	TypeBookmark  NodeType = "bookmark"
	TypeFolder    NodeType = "folder"
	TypeSeparator NodeType = "separator"
)

// Node is one entry of the native bookmark tree.
type Node struct {
	ID       string
	ParentID string
	Type     NodeType
	Title    string
	URL      string // as stored, see DecodeURL
}

// IsBookmark reports whether n is a real bookmark (not a folder or separator).
func (n Node) IsBookmark() bool {
	return n.Type == TypeBookmark
}

// Provider is the interface for native bookmark operations.
type Provider interface {
	// Create adds a bookmark to the default folder and returns it with its new id.
	Create(ctx context.Context, title, rawURL string) (Node, error)
	// Update changes title and URL of the bookmark id.
	Update(ctx context.Context, id, title, rawURL string) (Node, error)
	// Remove deletes the bookmark id.
	Remove(ctx context.Context, id string) error
	// Get returns the node id, or an error matching apperr.ErrNotFound.
	Get(ctx context.Context, id string) (Node, error)
	// Search returns nodes whose title or URL contains query; an empty
	// query returns every node, folders included.
	Search(ctx context.Context, query string) ([]Node, error)
	// SupportedURLProtocols lists the URL prefixes the store accepts.
	SupportedURLProtocols() []string
}

// DefaultProtocols are the URL prefixes accepted by the native store.
var DefaultProtocols = []string{"https://", "http://", "ftp://", "file://"}

const readerPrefix = "about:reader"

// DecodeURL unwraps a stored reader-mode URL (about:reader?url=...).
func DecodeURL(stored string) (u string, readerMode bool) {
	if !strings.HasPrefix(stored, readerPrefix) {
		return stored, false
	}
	q, err := url.ParseQuery(strings.TrimPrefix(strings.TrimPrefix(stored, readerPrefix), "?"))
	if err != nil {
		return "", true
	}
	return q.Get("url"), true
}

// EncodeURL wraps u for storage, adding the reader-mode envelope when asked.
func EncodeURL(u string, readerMode bool) string {
	if !readerMode {
		return u
	}
	return readerPrefix + "?url=" + url.QueryEscape(u)
}
