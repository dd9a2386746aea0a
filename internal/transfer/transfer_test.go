package transfer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/bookmarkservice"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/testutil"
	"github.com/starford/shelf/internal/transfer"
)

const netscapeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks Menu</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000">Dev</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/" ADD_DATE="1700000001" TAGS="go, lang">The Go Programming Language</A>
        <DT><A HREF="https://pkg.go.dev/" ADD_DATE="1700000002">Go Packages</A>
    </DL><p>
    <DT><A HREF="place:sort=8&amp;maxResults=10">Recent Tags</A>
    <DT><A HREF="file:///home/me/notes.txt"></A>
</DL>
`

func TestParseNetscape(t *testing.T) {
	items, err := transfer.ParseNetscape(strings.NewReader(netscapeExport))
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "The Go Programming Language", items[0].Title)
	assert.Equal(t, "https://go.dev/", items[0].URL)
	assert.Equal(t, []string{"go", " lang"}, items[0].Tags)

	assert.Equal(t, "Go Packages", items[1].Title)
	assert.Empty(t, items[1].Tags)

	assert.Equal(t, "place:sort=8&maxResults=10", items[2].URL)
	assert.Equal(t, "", items[3].Title)
}

func TestImportSkipsUnsupportedProtocols(t *testing.T) {
	env := testutil.TestService(t)
	ctx := context.Background()

	items, err := transfer.ParseNetscape(strings.NewReader(netscapeExport))
	require.NoError(t, err)

	res, err := transfer.Import(ctx, env.Service, items)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, []string{"place:sort=8&maxResults=10"}, res.Skipped)

	list, err := env.Service.GetBookmarks(ctx, bookmarkservice.Query{Search: "lang"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"go", "lang"}, list[0].Tags)
}

func TestExportThenImportYAML(t *testing.T) {
	ctx := context.Background()
	src := testutil.TestService(t)

	_, err := src.Service.CreateBookmark(ctx, models.NewBookmark{
		Title: "Zeta", URL: "https://zeta.example", IsFavorite: true, Tags: []string{"z"},
	})
	require.NoError(t, err)
	_, err = src.Service.CreateBookmark(ctx, models.NewBookmark{
		URL: "https://read.example/post", IsReaderMode: true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := transfer.Export(ctx, src.Service, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "version: 1")
	assert.Contains(t, buf.String(), "reader_mode: true")
	assert.NotContains(t, buf.String(), models.NoTitle)

	items, err := transfer.DecodeYAML(&buf)
	require.NoError(t, err)

	dst := testutil.TestService(t)
	res, err := transfer.Import(ctx, dst.Service, items)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Skipped)

	want, err := src.Service.GetBookmarks(ctx, bookmarkservice.Query{})
	require.NoError(t, err)
	got, err := dst.Service.GetBookmarks(ctx, bookmarkservice.Query{})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].URL, got[i].URL)
		assert.Equal(t, want[i].IsFavorite, got[i].IsFavorite)
		assert.Equal(t, want[i].IsReaderMode, got[i].IsReaderMode)
		assert.Equal(t, want[i].Tags, got[i].Tags)
	}
}

func TestDecodeYAML(t *testing.T) {
	items, err := transfer.DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = transfer.DecodeYAML(strings.NewReader("version: 99\nbookmarks: []\n"))
	assert.Error(t, err)

	_, err = transfer.DecodeYAML(strings.NewReader("bookmarks: {"))
	assert.Error(t, err)
}
