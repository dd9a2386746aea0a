package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/favorites"
	"github.com/starford/shelf/internal/kvstore"
	"github.com/starford/shelf/internal/provider"
	"github.com/starford/shelf/internal/tags"
	"github.com/starford/shelf/internal/theme"
)

// Components bundles the stores and services every command works with.
type Components struct {
	Provider  *provider.SQLite
	KV        kvstore.Store
	Favorites *favorites.Index
	Tags      *tags.Index
	Themes    *theme.Service
	Service   *bookmarkservice.Service

	// FileKV is set when the file backend is active so callers can watch it.
	FileKV *kvstore.File
}

// Build opens the bookmark database and the metadata store selected by
// cfg and wires the services on top of them. Close releases both.
func Build(cfg *Config, opts ...bookmarkservice.Option) (*Components, error) {
	p, err := provider.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	c := &Components{Provider: p}
	switch cfg.KV.Backend {
	case KVBackendSQLite:
		kv, err := kvstore.NewSQLite(p.Conn())
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("init kv: %w", err)
		}
		c.KV = kv
	case KVBackendMemory:
		c.KV = kvstore.NewMemory()
	default:
		kv, err := kvstore.NewFile(cfg.KV.Path)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("init kv: %w", err)
		}
		c.KV = kv
		c.FileKV = kv
	}

	c.Favorites = favorites.New(c.KV)
	c.Tags = tags.New(c.KV)
	c.Themes = theme.New(c.KV)

	opts = append([]bookmarkservice.Option{bookmarkservice.WithLocale(cfg.Query.Tag())}, opts...)
	c.Service = bookmarkservice.New(p, c.Favorites, c.Tags, opts...)
	return c, nil
}

// Close releases the bookmark database.
func (c *Components) Close() error {
	if c.Provider == nil {
		return nil
	}
	return c.Provider.Close()
}

// NewLogger returns the JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ErrConfigRequired is returned when no configuration was supplied.
var ErrConfigRequired = errors.New("config is required")
