// Package tags keeps the bookmark id → tags mapping.
package tags

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/starford/shelf/internal/kvstore"
	"github.com/starford/shelf/internal/models"
)

// Index is the persisted tag index. It holds at most one entry per
// bookmark and never persists an entry with no tags.
type Index struct {
	store kvstore.Store
}

// New returns an Index persisted in store.
func New(store kvstore.Store) *Index {
	return &Index{store: store}
}

// Entries returns the raw index.
func (x *Index) Entries(ctx context.Context) ([]models.BookmarkTags, error) {
	var entries []models.BookmarkTags
	if _, err := x.store.Get(ctx, kvstore.KeyTags, &entries); err != nil {
		return nil, fmt.Errorf("tags: load: %w", err)
	}
	if entries == nil {
		entries = []models.BookmarkTags{}
	}
	return entries, nil
}

// Lookup returns the index as a map of bookmark id to sorted tags.
func (x *Index) Lookup(ctx context.Context) (map[string][]string, error) {
	entries, err := x.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		out[e.BookmarkID] = sorted(e.Tags)
	}
	return out, nil
}

// ForBookmark returns the sorted tags of one bookmark, or an empty slice.
func (x *Index) ForBookmark(ctx context.Context, bookmarkID string) ([]string, error) {
	entries, err := x.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.BookmarkID == bookmarkID {
			return sorted(e.Tags), nil
		}
	}
	return []string{}, nil
}

// Set replaces the tags of bookmarkID. Tags are trimmed, blanks and
// duplicates dropped; an empty result removes the entry.
func (x *Index) Set(ctx context.Context, bookmarkID string, tagList []string) error {
	entries, err := x.Entries(ctx)
	if err != nil {
		return err
	}
	entries = slices.DeleteFunc(entries, func(e models.BookmarkTags) bool {
		return e.BookmarkID == bookmarkID
	})
	if clean := Normalize(tagList); len(clean) > 0 {
		entries = append(entries, models.BookmarkTags{BookmarkID: bookmarkID, Tags: clean})
	}
	if err := x.store.Set(ctx, kvstore.KeyTags, entries); err != nil {
		return fmt.Errorf("tags: save: %w", err)
	}
	return nil
}

// Remove deletes the entry of bookmarkID.
func (x *Index) Remove(ctx context.Context, bookmarkID string) error {
	return x.Set(ctx, bookmarkID, nil)
}

// All returns every distinct tag in the index, sorted.
func (x *Index) All(ctx context.Context) ([]string, error) {
	entries, err := x.Entries(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range entries {
		for _, t := range e.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Normalize trims tags and drops blanks and repeats, keeping first-seen order.
func Normalize(tagList []string) []string {
	out := make([]string, 0, len(tagList))
	for _, t := range tagList {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sorted(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		out = []string{}
	}
	sort.Strings(out)
	return out
}
