// Package transfer moves bookmarks in and out of Shelf: Netscape bookmark
// HTML files (what every browser exports) and Shelf's own YAML dump.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/models"
)

// FormatVersion is written to every YAML dump.
const FormatVersion = 1

// Entry is one bookmark in a YAML dump.
type Entry struct {
	Title      string   `yaml:"title"`
	URL        string   `yaml:"url"`
	Favorite   bool     `yaml:"favorite,omitempty"`
	ReaderMode bool     `yaml:"reader_mode,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
}

// Document is the top-level YAML dump.
type Document struct {
	Version   int     `yaml:"version"`
	Bookmarks []Entry `yaml:"bookmarks"`
}

// Result summarizes an import.
type Result struct {
	Imported int
	// Skipped holds the URLs that failed validation, such as place: or
	// javascript: entries browsers put in their exports.
	Skipped []string
}

// ParseNetscape reads a Netscape bookmark file. Folder structure is
// flattened; the TAGS attribute (comma separated) becomes the tag list.
func ParseNetscape(r io.Reader) ([]models.NewBookmark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("transfer: parse html: %w", err)
	}

	var out []models.NewBookmark
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		nb := models.NewBookmark{
			Title: strings.TrimSpace(a.Text()),
			URL:   strings.TrimSpace(href),
		}
		if raw, ok := a.Attr("tags"); ok {
			nb.Tags = strings.Split(raw, ",")
		}
		out = append(out, nb)
	})
	return out, nil
}

// DecodeYAML reads a dump produced by Export.
func DecodeYAML(r io.Reader) ([]models.NewBookmark, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("transfer: decode yaml: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("transfer: unsupported dump version %d", doc.Version)
	}

	out := make([]models.NewBookmark, 0, len(doc.Bookmarks))
	for _, e := range doc.Bookmarks {
		out = append(out, models.NewBookmark{
			Title:        e.Title,
			URL:          e.URL,
			IsFavorite:   e.Favorite,
			IsReaderMode: e.ReaderMode,
			Tags:         e.Tags,
		})
	}
	return out, nil
}

// Import creates every bookmark through svc. Entries rejected by
// validation are reported in Result.Skipped; any other error stops the
// import and is returned together with what was imported so far.
func Import(ctx context.Context, svc *bookmarkservice.Service, items []models.NewBookmark) (Result, error) {
	var res Result
	for _, nb := range items {
		if _, err := svc.CreateBookmark(ctx, nb); err != nil {
			if errors.Is(err, apperr.ErrValidation) {
				res.Skipped = append(res.Skipped, nb.URL)
				continue
			}
			return res, fmt.Errorf("transfer: import %q: %w", nb.URL, err)
		}
		res.Imported++
	}
	return res, nil
}

// Export writes every bookmark, title-sorted, as a YAML dump.
func Export(ctx context.Context, svc *bookmarkservice.Service, w io.Writer) (int, error) {
	list, err := svc.GetBookmarks(ctx, bookmarkservice.Query{})
	if err != nil {
		return 0, fmt.Errorf("transfer: list bookmarks: %w", err)
	}

	doc := Document{Version: FormatVersion, Bookmarks: make([]Entry, 0, len(list))}
	for _, b := range list {
		title := b.Title
		if title == models.NoTitle {
			title = ""
		}
		doc.Bookmarks = append(doc.Bookmarks, Entry{
			Title:      title,
			URL:        b.URL,
			Favorite:   b.IsFavorite,
			ReaderMode: b.IsReaderMode,
			Tags:       b.Tags,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("transfer: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("transfer: encode yaml: %w", err)
	}
	return len(doc.Bookmarks), nil
}
