package sheets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// fakeFetcher serves canned bodies keyed by URL.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Get(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if body, ok := f.pages[url]; ok {
		return body, nil
	}
	return "", fmt.Errorf("no page for %s", url)
}

const docURL = "https://docs.google.com/spreadsheets/d/abc123/edit"

func TestDocumentID(t *testing.T) {
	id, err := DocumentID(docURL)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = DocumentID("https://example.com/nope")
	assert.Error(t, err)
}

func TestRebuildURLs(t *testing.T) {
	view, err := HTMLViewURL(docURL)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc123/htmlview", view)

	export, err := CSVExportURL(docURL, "42")
	require.NoError(t, err)
	assert.Contains(t, export, "/spreadsheets/d/abc123/export")
	assert.Contains(t, export, "format=csv")
	assert.Contains(t, export, "gid=42")
}

func TestResolveDocumentURLPassThrough(t *testing.T) {
	f := &fakeFetcher{}
	got, err := ResolveDocumentURL(context.Background(), f, docURL)
	require.NoError(t, err)
	assert.Equal(t, docURL, got)
	assert.Empty(t, f.calls)
}

func TestResolveDocumentURLFromIframe(t *testing.T) {
	page := "https://school.example/raspisanie"
	f := &fakeFetcher{pages: map[string]string{
		page: `<html><body><iframe src="` + docURL + `"></iframe></body></html>`,
	}}
	got, err := ResolveDocumentURL(context.Background(), f, page)
	require.NoError(t, err)
	assert.Equal(t, docURL, got)
}

func TestResolveDocumentURLFromAnchor(t *testing.T) {
	page := "https://school.example/raspisanie"
	f := &fakeFetcher{pages: map[string]string{
		page: `<html><body><a href="` + docURL + `">таблица</a></body></html>`,
	}}
	got, err := ResolveDocumentURL(context.Background(), f, page)
	require.NoError(t, err)
	assert.Equal(t, docURL, got)
}

func TestResolveDocumentURLNotFound(t *testing.T) {
	page := "https://school.example/raspisanie"
	f := &fakeFetcher{pages: map[string]string{page: `<html><body>ничего</body></html>`}}
	_, err := ResolveDocumentURL(context.Background(), f, page)
	assert.ErrorIs(t, err, appErrors.ErrDocumentNotFound)
}

func TestDiscoverTabs(t *testing.T) {
	view, _ := HTMLViewURL(docURL)
	body := `<html><body>
	<a href="?gid=111">Расписание 10 классы</a>
	<script>{"sheetId": 222, "extra": 1, "title": "11 классы"}</script>
	<div data-gid="333"></div>
	</body></html>`
	f := &fakeFetcher{pages: map[string]string{view: body}}

	meta, err := DiscoverTabs(context.Background(), f, docURL)
	require.NoError(t, err)

	assert.Equal(t, "Расписание 10 классы", meta.Titles["111"])
	assert.Equal(t, "11 классы", meta.Titles["222"])
	assert.Contains(t, meta.Tabs, "111")
	assert.Contains(t, meta.Tabs, "333")
}

func TestDiscoverTabsFallsBackToDefault(t *testing.T) {
	view, _ := HTMLViewURL(docURL)
	f := &fakeFetcher{pages: map[string]string{view: `<html><body>пусто</body></html>`}}

	meta, err := DiscoverTabs(context.Background(), f, docURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, meta.Tabs)
}

func TestRowsFromCSV(t *testing.T) {
	rows, err := RowsFromCSV("Время,10А\n\"09:00-09:45\",Математика\nодин")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Время", "10А"}, rows[0])
	assert.Equal(t, []string{"09:00-09:45", "Математика"}, rows[1])
	assert.Equal(t, []string{"один"}, rows[2])
}
