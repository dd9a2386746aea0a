// Package bookmarkservice answers bookmark queries by joining the native
// bookmark store with the locally kept favorite and tag indexes.
package bookmarkservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/favorites"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/provider"
	"github.com/starford/shelf/internal/tags"
)

// Change kinds passed to a Notifier.
const (
	ChangeCreated         = "created"
	ChangeUpdated         = "updated"
	ChangeDeleted         = "deleted"
	ChangeFavoriteToggled = "favorite"
)

// Notifier is told about every successful mutation.
type Notifier func(kind, bookmarkID string)

// Query selects and orders the bookmarks returned by GetBookmarks.
// The zero value lists everything in ascending title order.
type Query struct {
	Search         string
	SortDescending bool
	FavoritesOnly  bool
}

// Service coordinates the provider and the metadata indexes.
type Service struct {
	provider  provider.Provider
	favorites *favorites.Index
	tags      *tags.Index
	locale    language.Tag
	notify    Notifier

	// Index mutations are read-modify-write over whole documents.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLocale sets the collation used to order titles.
func WithLocale(tag language.Tag) Option {
	return func(s *Service) {
		s.locale = tag
	}
}

// WithNotifier registers fn to be called after each mutation.
func WithNotifier(fn Notifier) Option {
	return func(s *Service) {
		s.notify = fn
	}
}

// New creates a bookmark service.
func New(p provider.Provider, fav *favorites.Index, tg *tags.Index, opts ...Option) *Service {
	s := &Service{
		provider:  p,
		favorites: fav,
		tags:      tg,
		locale:    language.Und,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBookmarks returns the bookmarks matching q: search, then favorite
// filter, then title sort. Folders are never returned.
func (s *Service) GetBookmarks(ctx context.Context, q Query) ([]models.Bookmark, error) {
	nodes, err := s.provider.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	favSet, err := s.favorites.Set(ctx)
	if err != nil {
		return nil, err
	}
	tagMap, err := s.tags.Lookup(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.Bookmark, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsBookmark() {
			continue
		}
		_, fav := favSet[n.ID]
		b := toBookmark(n, fav, tagMap[n.ID])
		if b.Title == "" {
			b.Title = models.NoTitle
		}
		items = append(items, b)
	}

	items = applySearch(items, q.Search)
	if q.FavoritesOnly {
		items = slices.DeleteFunc(items, func(b models.Bookmark) bool { return !b.IsFavorite })
	}
	s.sortByTitle(items, q.SortDescending)
	return items, nil
}

// GetBookmark returns one bookmark joined with its metadata.
func (s *Service) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	n, err := s.bookmarkNode(ctx, id)
	if err != nil {
		return nil, err
	}
	fav, err := s.favorites.IsFavorite(ctx, id)
	if err != nil {
		return nil, err
	}
	tagList, err := s.tags.ForBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	b := toBookmark(n, fav, tagList)
	return &b, nil
}

// CreateBookmark stores a new bookmark and seeds its favorite and tag entries.
func (s *Service) CreateBookmark(ctx context.Context, nb models.NewBookmark) (*models.Bookmark, error) {
	if err := s.validateURL(nb.URL); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.provider.Create(ctx, nb.Title, provider.EncodeURL(nb.URL, nb.IsReaderMode))
	if err != nil {
		return nil, err
	}
	if nb.IsFavorite {
		if err := s.favorites.Add(ctx, n.ID); err != nil {
			return nil, err
		}
	}
	clean := tags.Normalize(nb.Tags)
	if len(clean) > 0 {
		if err := s.tags.Set(ctx, n.ID, clean); err != nil {
			return nil, err
		}
	}
	slices.Sort(clean)

	b := toBookmark(n, nb.IsFavorite, clean)
	s.emit(ChangeCreated, b.ID)
	return &b, nil
}

// UpdateBookmark writes title and URL to the provider, then rewrites the
// favorite membership and the tag entry from b (replace, not merge).
func (s *Service) UpdateBookmark(ctx context.Context, b models.Bookmark) (*models.Bookmark, error) {
	if b.ID == "" {
		return nil, &apperr.ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.validateURL(b.URL); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireBookmark(ctx, b.ID); err != nil {
		return nil, err
	}
	n, err := s.provider.Update(ctx, b.ID, b.Title, provider.EncodeURL(b.URL, b.IsReaderMode))
	if err != nil {
		return nil, err
	}
	if b.IsFavorite {
		err = s.favorites.Add(ctx, b.ID)
	} else {
		err = s.favorites.Remove(ctx, b.ID)
	}
	if err != nil {
		return nil, err
	}
	clean := tags.Normalize(b.Tags)
	if err := s.tags.Set(ctx, b.ID, clean); err != nil {
		return nil, err
	}
	slices.Sort(clean)

	out := toBookmark(n, b.IsFavorite, clean)
	s.emit(ChangeUpdated, out.ID)
	return &out, nil
}

// RemoveBookmark deletes the bookmark, then its favorite and tag entries.
// Folder ids report ErrNotFound. When the provider refuses, the indexes
// are left untouched.
func (s *Service) RemoveBookmark(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireBookmark(ctx, id); err != nil {
		return err
	}
	if err := s.provider.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.favorites.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.tags.Remove(ctx, id); err != nil {
		return err
	}
	s.emit(ChangeDeleted, id)
	return nil
}

// ToggleFavorite flips favorite membership of id and returns the new state.
// The provider is not consulted.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	on, err := s.favorites.Toggle(ctx, id)
	if err != nil {
		return false, err
	}
	s.emit(ChangeFavoriteToggled, id)
	return on, nil
}

// AllTags returns every tag in use, sorted, for tag suggestions.
func (s *Service) AllTags(ctx context.Context) ([]string, error) {
	return s.tags.All(ctx)
}

// SupportedProtocols returns the URL prefixes a bookmark may use.
func (s *Service) SupportedProtocols() []string {
	return s.provider.SupportedURLProtocols()
}

// Validate checks a bookmark before it is saved.
func (s *Service) Validate(b models.Bookmark) error {
	return s.validateURL(b.URL)
}

func (s *Service) validateURL(u string) error {
	protocols := s.provider.SupportedURLProtocols()
	err := validation.Validate(u, validation.By(func(v any) error {
		str, _ := v.(string)
		for _, p := range protocols {
			if strings.HasPrefix(str, p) {
				return nil
			}
		}
		return errors.New("URL must start with " + strings.Join(protocols, ", "))
	}))
	if err != nil {
		return &apperr.ValidationError{Field: "url", Message: err.Error()}
	}
	return nil
}

func (s *Service) sortByTitle(items []models.Bookmark, descending bool) {
	c := collate.New(s.locale)
	slices.SortStableFunc(items, func(a, b models.Bookmark) int {
		r := c.CompareString(a.Title, b.Title)
		if descending {
			return -r
		}
		return r
	})
}

// bookmarkNode returns the node id, treating folders and separators as missing.
func (s *Service) bookmarkNode(ctx context.Context, id string) (provider.Node, error) {
	n, err := s.provider.Get(ctx, id)
	if err != nil {
		return provider.Node{}, err
	}
	if !n.IsBookmark() {
		return provider.Node{}, fmt.Errorf("bookmarkservice: %s is a %s: %w", id, n.Type, apperr.ErrNotFound)
	}
	return n, nil
}

func (s *Service) requireBookmark(ctx context.Context, id string) error {
	_, err := s.bookmarkNode(ctx, id)
	return err
}

func (s *Service) emit(kind, id string) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}

func applySearch(items []models.Bookmark, search string) []models.Bookmark {
	if search == "" {
		return items
	}
	needle := strings.ToLower(search)
	return slices.DeleteFunc(items, func(b models.Bookmark) bool {
		return !matches(b, needle)
	})
}

func matches(b models.Bookmark, needle string) bool {
	fields := append([]string{b.Title, b.URL}, b.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(strings.TrimSpace(f)), needle) {
			return true
		}
	}
	return false
}

func toBookmark(n provider.Node, fav bool, tagList []string) models.Bookmark {
	u, reader := provider.DecodeURL(n.URL)
	if tagList == nil {
		tagList = []string{}
	}
	return models.Bookmark{
		ID:           n.ID,
		Title:        n.Title,
		URL:          u,
		IsFavorite:   fav,
		IsReaderMode: reader,
		Tags:         tagList,
	}
}
