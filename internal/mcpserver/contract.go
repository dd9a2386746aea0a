package mcpserver

// BookmarkContract describes how bookmarks are shaped and validated so
// that LLM consumers create entries the popup can display.
const BookmarkContract = `# Shelf Bookmark Contract

## Fields

- ` + "`title`" + `: display name. May be empty; lists show "[No Title]" instead.
- ` + "`url`" + `: REQUIRED. Must start with one of https://, http://, ftp://, file://.
- ` + "`isFavorite`" + `: marks the bookmark as a favorite.
- ` + "`isReaderMode`" + `: open the page in reader view. Stored as an
  ` + "`about:reader?url=`" + ` address; always pass the plain page URL.
- ` + "`tags`" + `: free-form labels. Whitespace is trimmed, blank and duplicate
  tags are dropped, and tags are returned sorted.

## Search

` + "`search_bookmarks`" + ` matches the query case-insensitively against title,
URL and tags. Results are sorted by title using the configured locale.

## Example

` + "```" + `json
{
  "title": "Go documentation",
  "url": "https://go.dev/doc/",
  "isFavorite": true,
  "tags": ["go", "reference"]
}
` + "```" + `
`
