package sheets

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pokrovsky/timetable-api/internal/fetch"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// TabMeta is the best-effort view of a document's tabs: identifier to title
// where a title could be recovered, plus every identifier seen by any means.
type TabMeta struct {
	Titles map[string]string
	Tabs   []string
}

// ResolveDocumentURL maps a schedule page to its spreadsheet document. A URL
// that already is a document passes through; otherwise the page markup is
// searched for an embedded iframe or a plain link.
func ResolveDocumentURL(ctx context.Context, f fetch.Fetcher, pageURL string) (string, error) {
	if IsDocumentURL(pageURL) {
		return pageURL, nil
	}

	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrDocumentNotFound.Code, appErrors.ErrDocumentNotFound.Status, appErrors.ErrDocumentNotFound.Message)
	}

	found := ""
	doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && IsDocumentURL(src) {
			found = src
			return false
		}
		return true
	})
	if found == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok && IsDocumentURL(href) {
				found = href
				return false
			}
			return true
		})
	}
	if found == "" {
		return "", appErrors.ErrDocumentNotFound
	}
	return found, nil
}

var (
	jsonGidTitleRx   = regexp.MustCompile(`(?s)"gid"\s*:\s*(\d+).*?"title"\s*:\s*"([^"]+)"`)
	jsonSheetIDRx    = regexp.MustCompile(`(?s)"sheetId"\s*:\s*(\d+).*?"title"\s*:\s*"([^"]+)"`)
	queryGidRx       = regexp.MustCompile(`[?&]gid=(\d+)`)
	dataGidRx        = regexp.MustCompile(`data-gid="(\d+)"`)
	escapedGidRx     = regexp.MustCompile(`gid\\?"\s*:\s*"?(\d+)"?`)
	defaultTabReturn = "0"
)

// DiscoverTabs fetches the document's htmlview rendering and extracts tab
// identifiers and titles by three independent pattern searches: anchor hrefs
// and two JSON-embedded id/title pairings. When nothing at all is found the
// default identifier "0" is returned so callers always have a candidate.
func DiscoverTabs(ctx context.Context, f fetch.Fetcher, docURL string) (TabMeta, error) {
	viewURL, err := HTMLViewURL(docURL)
	if err != nil {
		return TabMeta{}, err
	}
	body, err := f.Get(ctx, viewURL)
	if err != nil {
		return TabMeta{}, err
	}

	titles := make(map[string]string)

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if !strings.Contains(href, "gid=") {
				return
			}
			gid := gidFromHref(href)
			title := strings.TrimSpace(s.AttrOr("aria-label", ""))
			if title == "" {
				title = strings.TrimSpace(s.Text())
			}
			if gid != "" && title != "" {
				titles[gid] = title
			}
		})
	}

	for _, rx := range []*regexp.Regexp{jsonGidTitleRx, jsonSheetIDRx} {
		for _, m := range rx.FindAllStringSubmatch(body, -1) {
			if _, ok := titles[m[1]]; !ok {
				titles[m[1]] = m[2]
			}
		}
	}

	set := make(map[string]struct{})
	for _, rx := range []*regexp.Regexp{queryGidRx, dataGidRx, escapedGidRx} {
		for _, m := range rx.FindAllStringSubmatch(body, -1) {
			set[m[1]] = struct{}{}
		}
	}
	if len(set) == 0 {
		set[defaultTabReturn] = struct{}{}
	}

	tabs := make([]string, 0, len(set))
	for gid := range set {
		tabs = append(tabs, gid)
	}
	sort.Strings(tabs)

	return TabMeta{Titles: titles, Tabs: tabs}, nil
}

func gidFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if gid := u.Query().Get("gid"); gid != "" {
		return gid
	}
	return defaultTabReturn
}
