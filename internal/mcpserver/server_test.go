package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Env) {
	t.Helper()
	env := testutil.TestService(t)
	return New(env.Service), env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_bookmarks":
		result, err = srv.searchBookmarks(ctx, req)
	case "get_bookmark":
		result, err = srv.getBookmark(ctx, req)
	case "create_bookmark":
		result, err = srv.createBookmark(ctx, req)
	case "toggle_favorite":
		result, err = srv.toggleFavorite(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndGetBookmark(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_bookmark", map[string]any{
		"title":    "Go",
		"url":      "https://go.dev",
		"favorite": true,
		"tags":     []any{"lang", " go "},
	})
	require.False(t, r.IsError, resultText(r))

	var created models.Bookmark
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsFavorite)
	assert.Equal(t, []string{"go", "lang"}, created.Tags)

	r = callTool(t, srv, "get_bookmark", map[string]any{"id": created.ID})
	require.False(t, r.IsError, resultText(r))
	var got models.Bookmark
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &got))
	assert.Equal(t, created, got)
}

func TestCreateBookmarkRejectsProtocol(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_bookmark", map[string]any{"url": "javascript:alert(1)"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "URL must start with")
}

func TestCreateBookmarkMissingURL(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_bookmark", map[string]any{"title": "x"})
	assert.True(t, r.IsError)
}

func TestGetBookmarkMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_bookmark", map[string]any{"id": "nope"})
	assert.True(t, r.IsError)
	assert.Equal(t, "not found", resultText(r))
}

func TestSearchBookmarks(t *testing.T) {
	srv, env := testServer(t)
	ctx := context.Background()
	_, err := env.Service.CreateBookmark(ctx, models.NewBookmark{Title: "Zeta", URL: "https://zeta.example"})
	require.NoError(t, err)
	_, err = env.Service.CreateBookmark(ctx, models.NewBookmark{Title: "Alpha", URL: "https://alpha.example", IsFavorite: true})
	require.NoError(t, err)

	titles := func(r *mcp.CallToolResult) []string {
		t.Helper()
		require.False(t, r.IsError, resultText(r))
		var list []models.Bookmark
		require.NoError(t, json.Unmarshal([]byte(resultText(r)), &list))
		out := []string{}
		for _, b := range list {
			out = append(out, b.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Alpha", "Zeta"}, titles(callTool(t, srv, "search_bookmarks", map[string]any{})))
	assert.Equal(t, []string{"Zeta", "Alpha"}, titles(callTool(t, srv, "search_bookmarks", map[string]any{"descending": true})))
	assert.Equal(t, []string{"Zeta"}, titles(callTool(t, srv, "search_bookmarks", map[string]any{"query": "ZETA"})))
	assert.Equal(t, []string{"Alpha"}, titles(callTool(t, srv, "search_bookmarks", map[string]any{"favorites_only": true})))
}

func TestToggleFavorite(t *testing.T) {
	srv, env := testServer(t)
	b, err := env.Service.CreateBookmark(context.Background(), models.NewBookmark{Title: "A", URL: "https://a.example"})
	require.NoError(t, err)

	r := callTool(t, srv, "toggle_favorite", map[string]any{"id": b.ID})
	assert.Equal(t, "favorite: "+b.ID, resultText(r))

	r = callTool(t, srv, "toggle_favorite", map[string]any{"id": b.ID})
	assert.Equal(t, "unfavorited: "+b.ID, resultText(r))
}

func TestListTags(t *testing.T) {
	srv, env := testServer(t)
	ctx := context.Background()
	_, err := env.Service.CreateBookmark(ctx, models.NewBookmark{Title: "A", URL: "https://a.example", Tags: []string{"b", "a"}})
	require.NoError(t, err)
	_, err = env.Service.CreateBookmark(ctx, models.NewBookmark{Title: "B", URL: "https://b.example", Tags: []string{"a", "c"}})
	require.NoError(t, err)

	r := callTool(t, srv, "list_tags", map[string]any{})
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &tags))
	assert.Equal(t, []string{"a", "b", "c"}, tags)
}

func TestContractResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, contractURI, tc.URI)
	assert.Contains(t, tc.Text, "about:reader?url=")
}
