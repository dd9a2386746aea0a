package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/shelf/internal/checksum"
)

const fileExt = ".json"

// File implements Store with one JSON document per key in a directory.
type File struct {
	root string

	mu      sync.Mutex
	written map[string]string // key -> checksum of our last write
}

// NewFile creates a File store rooted at dir, creating dir if needed.
func NewFile(dir string) (*File, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: mkdir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kvstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kvstore: root is not a directory: %s", abs)
	}
	return &File{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute directory holding the documents.
func (f *File) Root() string {
	return f.root
}

func (f *File) path(key string) string {
	return filepath.Join(f.root, key+fileExt)
}

// KeyForPath maps a document path back to its key.
func (f *File) KeyForPath(p string) (string, bool) {
	if filepath.Dir(p) != f.root || !strings.HasSuffix(p, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(filepath.Base(p), fileExt)
	return key, checkKey(key) == nil
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string, dst any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	// A document holding JSON null reads as absent.
	if strings.TrimSpace(string(data)) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("kvstore: decode %s: %w", key, err)
	}
	return true, nil
}

// Set implements Store. The write is atomic: tmp file → fsync → rename.
func (f *File) Set(_ context.Context, key string, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.root, ".shelf-tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	success = true
	f.written[key] = checksum.Sum(data)
	return nil
}

// IsOwnWrite reports whether data is exactly what this store last wrote
// under key. The watcher uses it to skip events caused by Set.
func (f *File) IsOwnWrite(key string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.written[key]
	return ok && checksum.Matches(data, cs)
}
