// Package theme persists the popup colour scheme.
package theme

import (
	"context"
	"fmt"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/kvstore"
	"github.com/starford/shelf/internal/models"
)

// Service reads and writes the theme.
type Service struct {
	store kvstore.Store
}

// New returns a Service persisted in store.
func New(store kvstore.Store) *Service {
	return &Service{store: store}
}

// Get returns the stored theme, or light when none (or an unknown one) is stored.
func (s *Service) Get(ctx context.Context) (models.Theme, error) {
	var t models.Theme
	found, err := s.store.Get(ctx, kvstore.KeyTheme, &t)
	if err != nil {
		return "", fmt.Errorf("theme: load: %w", err)
	}
	if !found || !t.Valid() {
		return models.ThemeLight, nil
	}
	return t, nil
}

// Set stores t.
func (s *Service) Set(ctx context.Context, t models.Theme) error {
	if !t.Valid() {
		return &apperr.ValidationError{Field: "theme", Message: fmt.Sprintf("must be %q or %q", models.ThemeLight, models.ThemeDark)}
	}
	if err := s.store.Set(ctx, kvstore.KeyTheme, t); err != nil {
		return fmt.Errorf("theme: save: %w", err)
	}
	return nil
}

// Toggle flips between light and dark and returns the new theme.
func (s *Service) Toggle(ctx context.Context) (models.Theme, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	next := models.ThemeDark
	if cur == models.ThemeDark {
		next = models.ThemeLight
	}
	if err := s.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
