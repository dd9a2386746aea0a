// Package kvstore provides the string-keyed JSON store that holds bookmark
// metadata the native bookmark store has no fields for.
package kvstore

import (
	"context"
	"fmt"
	"regexp"
)

// Fixed keys.
const (
	KeyTheme     = "theme"
	KeyFavorites = "favorites"
	KeyTags      = "tags"
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is the interface for persisted JSON values.
type Store interface {
	// Get decodes the value stored under key into dst.
	// found is false (and dst untouched) when nothing is stored.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	// Set replaces the value stored under key with the JSON encoding of value.
	Set(ctx context.Context, key string, value any) error
}

func checkKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("kvstore: invalid key %q", key)
	}
	return nil
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*File)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)
