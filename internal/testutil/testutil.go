// Package testutil provides shared test helpers for setting up bookmark
// databases and metadata stores.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/favorites"
	"github.com/starford/shelf/internal/kvstore"
	"github.com/starford/shelf/internal/provider"
	"github.com/starford/shelf/internal/tags"
)

// TestProvider creates a temporary SQLite bookmark store that is automatically cleaned up.
func TestProvider(t *testing.T) *provider.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "shelf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	p, err := provider.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// TestKV creates a temporary file-backed metadata store.
func TestKV(t *testing.T) *kvstore.File {
	t.Helper()
	kv, err := kvstore.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return kv
}

// Env bundles a service with the stores behind it.
type Env struct {
	Provider  *provider.SQLite
	KV        kvstore.Store
	Favorites *favorites.Index
	Tags      *tags.Index
	Service   *bookmarkservice.Service
}

// TestService wires a bookmark service over a temporary provider and store.
func TestService(t *testing.T, opts ...bookmarkservice.Option) *Env {
	t.Helper()
	p := TestProvider(t)
	kv := TestKV(t)
	fav := favorites.New(kv)
	tg := tags.New(kv)
	return &Env{
		Provider:  p,
		KV:        kv,
		Favorites: fav,
		Tags:      tg,
		Service:   bookmarkservice.New(p, fav, tg, opts...),
	}
}
