// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Shelf bookmark tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/models"
)

const contractURI = "shelf://bookmark-format"

// Server wraps the MCP server with Shelf tools.
type Server struct {
	mcp *server.MCPServer
	svc *bookmarkservice.Service
}

// New creates a new MCP server with all Shelf tools registered.
func New(svc *bookmarkservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Shelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Search bookmarks by title, URL or tag. An empty query lists every bookmark."),
		mcp.WithString("query", mcp.Description("Case-insensitive search text")),
		mcp.WithBoolean("favorites_only", mcp.Description("Only return favorite bookmarks")),
		mcp.WithBoolean("descending", mcp.Description("Sort titles Z to A")),
	), s.searchBookmarks)

	s.mcp.AddTool(mcp.NewTool("get_bookmark",
		mcp.WithDescription("Read a single bookmark with its favorite flag and tags."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bookmark id")),
	), s.getBookmark)

	s.mcp.AddTool(mcp.NewTool("create_bookmark",
		mcp.WithDescription("Create a bookmark. Read the contract first via the "+
			"shelf://bookmark-format resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL (https, http, ftp or file)")),
		mcp.WithString("title", mcp.Description("Display title")),
		mcp.WithBoolean("favorite", mcp.Description("Mark as favorite")),
		mcp.WithBoolean("reader_mode", mcp.Description("Open in reader view")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags to attach")),
	), s.createBookmark)

	s.mcp.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Flip the favorite flag of a bookmark."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bookmark id")),
	), s.toggleFavorite)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every distinct tag, sorted."),
	), s.listTags)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Bookmark Contract",
			mcp.WithResourceDescription("Fields, validation rules and search semantics of Shelf bookmarks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.GetBookmarks(ctx, bookmarkservice.Query{
		Search:         req.GetString("query", ""),
		FavoritesOnly:  req.GetBool("favorites_only", false),
		SortDescending: req.GetBool("descending", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(list)
}

func (s *Server) getBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.GetBookmark(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(b)
}

func (s *Server) createBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.CreateBookmark(ctx, models.NewBookmark{
		Title:        req.GetString("title", ""),
		URL:          url,
		IsFavorite:   req.GetBool("favorite", false),
		IsReaderMode: req.GetBool("reader_mode", false),
		Tags:         req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(b)
}

func (s *Server) toggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	on, err := s.svc.ToggleFavorite(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if on {
		return mcp.NewToolResultText(fmt.Sprintf("favorite: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("unfavorited: %s", id)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := s.svc.AllTags(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(all)
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     BookmarkContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return mcp.NewToolResultError(ve.Message)
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
