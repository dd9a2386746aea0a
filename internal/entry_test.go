package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/sse"
)

func testConfig(t *testing.T, backend string) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(dir, "shelf.db")
	cfg.KV.Backend = backend
	cfg.KV.Path = filepath.Join(dir, "kv")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuild_Backends(t *testing.T) {
	for _, backend := range []string{KVBackendFile, KVBackendSQLite, KVBackendMemory} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			c, err := Build(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { c.Close() })

			if backend == KVBackendFile {
				assert.NotNil(t, c.FileKV)
			} else {
				assert.Nil(t, c.FileKV)
			}

			ctx := context.Background()
			b, err := c.Service.CreateBookmark(ctx, models.NewBookmark{
				Title: "Go", URL: "https://go.dev", IsFavorite: true, Tags: []string{"lang"},
			})
			require.NoError(t, err)

			got, err := c.Service.GetBookmark(ctx, b.ID)
			require.NoError(t, err)
			assert.True(t, got.IsFavorite)
			assert.Equal(t, []string{"lang"}, got.Tags)
		})
	}
}

func TestBuild_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t, KVBackendFile)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "missing", "dir", "shelf.db")
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestHTTPHandler(t *testing.T) {
	cfg := testConfig(t, KVBackendFile)
	c, err := Build(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	broker := sse.NewBroker(0)
	t.Cleanup(broker.Close)

	h := newHTTPHandler(cfg, c, broker)

	t.Run("health", func(t *testing.T) {
		for _, path := range []string{"/health/live", "/health/ready"} {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		}
	})

	t.Run("api mounted", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"bookmarks":[],"total":0}`, w.Body.String())
	})

	t.Run("extension preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/bookmarks", nil)
		req.Header.Set("Origin", "moz-extension://abc")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, "moz-extension://abc", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRun_RequiresConfig(t *testing.T) {
	err := Run(context.Background())
	assert.ErrorIs(t, err, ErrConfigRequired)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, KVBackendFile)
	cfg.App.HTTP.Port = 18931

	var logs strings.Builder
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, WithConfig(cfg), WithLogger(NewLogger(&logs, cfg.App.LogLevel)))
	}()

	cancel()
	require.NoError(t, <-done)
}
