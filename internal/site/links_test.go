package site

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Get(_ context.Context, url string) (string, error) {
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return body, nil
}

const pageURL = "https://school.example/glavnoe/raspisanie/"

const schedulePage = `<html><body>
<h2>Образовательная площадка № 1</h2>
<p><a href="/files/rasp2.html">Расписание уроков на 02.09</a></p>
<p><a href="/files/rasp1.html">Расписание уроков на 01.09</a></p>
<p><a href="/files/rasp2.html">Расписание уроков на 02.09</a></p>
<p><a href="/files/nach.html">Расписание уроков начальная школа на 02.09</a></p>
<p><a href="/files/other.html">Приказ о зачислении</a></p>
<h2>Образовательная площадка № 2</h2>
<p><a href="/files/rasp3.html">Расписание уроков на 03.09</a></p>
</body></html>`

func TestFetchLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{pageURL: schedulePage}}

	links, err := FetchLinks(context.Background(), f, pageURL)
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, "02.09", links[0].Date)
	assert.Equal(t, "https://school.example/files/rasp2.html", links[0].URL)
	assert.Equal(t, "01.09", links[1].Date)
}

func TestFetchLinksSkipsOtherSections(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{pageURL: schedulePage}}

	links, err := FetchLinks(context.Background(), f, pageURL)
	require.NoError(t, err)
	for _, l := range links {
		assert.NotEqual(t, "03.09", l.Date)
	}
}

func TestFetchLinksExcludesPrimarySchool(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{pageURL: schedulePage}}

	links, err := FetchLinks(context.Background(), f, pageURL)
	require.NoError(t, err)
	for _, l := range links {
		assert.NotContains(t, l.URL, "nach")
	}
}

func TestFetchLinksNewestFirstAcrossMonths(t *testing.T) {
	page := `<html><body>
<h2>Образовательная площадка № 1</h2>
<p><a href="/a.html">Расписание уроков на 30.08</a></p>
<p><a href="/b.html">Расписание уроков на 01.09</a></p>
</body></html>`
	f := &fakeFetcher{pages: map[string]string{pageURL: page}}

	links, err := FetchLinks(context.Background(), f, pageURL)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "01.09", links[0].Date)
	assert.Equal(t, "30.08", links[1].Date)
}

func TestFetchLinksFetchError(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}

	_, err := FetchLinks(context.Background(), f, pageURL)
	assert.Error(t, err)
}
