// Package favorites keeps the set of bookmark ids marked favorite.
//
// The set is persisted as an ordered JSON list under kvstore.KeyFavorites.
// Every mutation reads the whole list, computes the new one and writes it
// back; callers serialise writers.
package favorites

import (
	"context"
	"fmt"
	"slices"

	"github.com/starford/shelf/internal/kvstore"
)

// Index is the favorite set.
type Index struct {
	store kvstore.Store
}

// New returns an Index persisted in store.
func New(store kvstore.Store) *Index {
	return &Index{store: store}
}

// List returns favorite ids in insertion order.
func (x *Index) List(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := x.store.Get(ctx, kvstore.KeyFavorites, &ids); err != nil {
		return nil, fmt.Errorf("favorites: load: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Set returns the favorites as a membership set.
func (x *Index) Set(ctx context.Context) (map[string]struct{}, error) {
	ids, err := x.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// IsFavorite reports whether id is in the set.
func (x *Index) IsFavorite(ctx context.Context, id string) (bool, error) {
	ids, err := x.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Add puts id in the set. Adding a member again is a no-op.
func (x *Index) Add(ctx context.Context, id string) error {
	ids, err := x.List(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return x.save(ctx, append(ids, id))
}

// Remove drops id from the set.
func (x *Index) Remove(ctx context.Context, id string) error {
	ids, err := x.List(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(ids, func(v string) bool { return v == id })
	return x.save(ctx, kept)
}

// Toggle flips membership of id and returns the new state.
func (x *Index) Toggle(ctx context.Context, id string) (bool, error) {
	ids, err := x.List(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, id) {
		return false, x.save(ctx, slices.DeleteFunc(ids, func(v string) bool { return v == id }))
	}
	return true, x.save(ctx, append(ids, id))
}

func (x *Index) save(ctx context.Context, ids []string) error {
	if err := x.store.Set(ctx, kvstore.KeyFavorites, ids); err != nil {
		return fmt.Errorf("favorites: save: %w", err)
	}
	return nil
}
