package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/provider"
	"github.com/starford/shelf/internal/testutil"
	"github.com/starford/shelf/internal/theme"
)

// testEnv wires a router over temporary stores.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	env := testutil.TestService(t)
	return NewRouter(env.Service, theme.New(env.KV), authToken != "", authToken, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func create(t *testing.T, router http.Handler, nb models.NewBookmark) models.Bookmark {
	t.Helper()
	w := do(t, router, http.MethodPost, "/bookmarks", nb)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b models.Bookmark
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func list(t *testing.T, router http.Handler, query string) BookmarkListResponse {
	t.Helper()
	w := do(t, router, http.MethodGet, "/bookmarks"+query, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BookmarkListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateAndGetBookmark(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, models.NewBookmark{Title: "Go", URL: "https://go.dev", IsFavorite: true, Tags: []string{"lang"}})
	assert.NotEmpty(t, created.ID)

	w := do(t, router, http.MethodGet, "/bookmarks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Bookmark
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created, got)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, []string{"lang"}, got.Tags)
}

func TestCreate_UnsupportedProtocol(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/bookmarks", models.NewBookmark{Title: "x", URL: "chrome://settings"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "URL must start with https://, http://, ftp://, file://", resp.Error)
}

func TestCreate_InvalidJSON(t *testing.T) {
	router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/bookmarks", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookmarks_QueryParams(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, models.NewBookmark{Title: "Zeta", URL: "https://z.example"})
	create(t, router, models.NewBookmark{Title: "Alpha", URL: "https://a.example", IsFavorite: true})
	create(t, router, models.NewBookmark{Title: "Mid", URL: "https://m.example", Tags: []string{"zed"}})

	titles := func(resp BookmarkListResponse) []string {
		out := []string{}
		for _, b := range resp.Bookmarks {
			out = append(out, b.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, titles(list(t, router, "")))
	assert.Equal(t, []string{"Zeta", "Mid", "Alpha"}, titles(list(t, router, "?sort=desc")))
	assert.Equal(t, []string{"Alpha"}, titles(list(t, router, "?favorites=true")))
	assert.Equal(t, []string{"Mid", "Zeta"}, titles(list(t, router, "?q=Z")))
	assert.Equal(t, 0, list(t, router, "?q=nothing").Total)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/bookmarks?sort=sideways", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/bookmarks?favorites=maybe", nil).Code)
}

func TestListBookmarks_EmptyIsArray(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/bookmarks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"bookmarks":[],"total":0}`, w.Body.String())
}

func TestUpdateBookmark(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, models.NewBookmark{Title: "Old", URL: "https://old.example", IsFavorite: true, Tags: []string{"a"}})

	w := do(t, router, http.MethodPut, "/bookmarks/"+created.ID, UpdateBookmarkRequest{
		Title: "New",
		URL:   "https://new.example",
		Tags:  []string{"b"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Bookmark
	require.NoError(t, json.Unmarshal(do(t, router, http.MethodGet, "/bookmarks/"+created.ID, nil).Body.Bytes(), &got))
	assert.Equal(t, "New", got.Title)
	assert.False(t, got.IsFavorite)
	assert.Equal(t, []string{"b"}, got.Tags)
}

func TestUpdateBookmark_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPut, "/bookmarks/missing", UpdateBookmarkRequest{URL: "https://x.example"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteBookmark(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, models.NewBookmark{Title: "Bye", URL: "https://bye.example", IsFavorite: true})

	w := do(t, router, http.MethodDelete, "/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleFavorite(t *testing.T) {
	router := testEnv(t, "")
	created := create(t, router, models.NewBookmark{Title: "T", URL: "https://t.example"})

	var resp FavoriteResponse
	w := do(t, router, http.MethodPost, "/bookmarks/"+created.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsFavorite)

	w = do(t, router, http.MethodPost, "/bookmarks/"+created.ID+"/favorite", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsFavorite)
}

func TestTagsAndProtocols(t *testing.T) {
	router := testEnv(t, "")
	create(t, router, models.NewBookmark{Title: "1", URL: "https://1.example", Tags: []string{"b", "a"}})

	w := do(t, router, http.MethodGet, "/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":["a","b"]}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/protocols", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"protocols":["https://","http://","ftp://","file://"]}`, w.Body.String())
}

func TestTheme(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/theme", nil)
	assert.JSONEq(t, `{"theme":"light"}`, w.Body.String())

	w = do(t, router, http.MethodPost, "/theme/toggle", nil)
	assert.JSONEq(t, `{"theme":"dark"}`, w.Body.String())

	w = do(t, router, http.MethodPut, "/theme", ThemeBody{Theme: "light"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPut, "/theme", ThemeBody{Theme: "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequired(t *testing.T) {
	router := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/bookmarks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"moz-extension://*"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Origin", "moz-extension://abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "moz-extension://abc-123", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteToFolderIsNotFound(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/bookmarks/"+provider.UnfiledID, UpdateBookmarkRequest{
		Title: "Hijacked", URL: "https://x.example", Tags: []string{"t"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = do(t, router, http.MethodDelete, "/bookmarks/"+provider.UnfiledID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":[]}`, w.Body.String())
}
