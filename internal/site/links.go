// Package site scrapes the public schedule page for published dates.
package site

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pokrovsky/timetable-api/internal/fetch"
	"github.com/pokrovsky/timetable-api/internal/models"
	"github.com/pokrovsky/timetable-api/internal/textutil"
)

var (
	sectionRx = regexp.MustCompile(`(?i)образовательная\s+площадка\s*№\s*(\d+)`)
	titleRx   = regexp.MustCompile(`(?i)расписан\p{L}*\s+урок\p{L}*\s+на\s+(\d{2}\.\d{2})`)
)

// Titles containing these fragments belong to other school branches and are
// skipped.
var excludeFragments = []string{"начальная школа"}

// primarySection is the branch whose links this deployment serves.
const primarySection = 1

// FetchLinks scrapes the schedule page and returns published dates, newest
// first. Only anchors under the primary section marker are collected.
func FetchLinks(ctx context.Context, f fetch.Fetcher, pageURL string) ([]models.SheetLink, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)
	section := 0
	var out []models.SheetLink

	doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		text := textutil.Norm(el.Text())
		if m := sectionRx.FindStringSubmatch(text); m != nil {
			section, _ = strconv.Atoi(m[1])
			return
		}
		if section != primarySection {
			return
		}
		el.ChildrenFiltered("a[href]").Each(func(_ int, a *goquery.Selection) {
			title := textutil.Norm(a.Text())
			lower := strings.ToLower(title)
			for _, frag := range excludeFragments {
				if strings.Contains(lower, frag) {
					return
				}
			}
			m := titleRx.FindStringSubmatch(title)
			if m == nil {
				return
			}
			href := a.AttrOr("href", "")
			out = append(out, models.SheetLink{
				Title: title,
				URL:   resolveHref(base, href),
				Date:  m[1],
			})
		})
	})

	return sortLinks(dedupeLinks(out)), nil
}

func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func dedupeLinks(links []models.SheetLink) []models.SheetLink {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		key := l.Title + "|" + l.URL
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// sortLinks orders newest first by (month, day) of the "dd.mm" date label.
func sortLinks(links []models.SheetLink) []models.SheetLink {
	sort.SliceStable(links, func(i, j int) bool {
		di, mi := splitDate(links[i].Date)
		dj, mj := splitDate(links[j].Date)
		if mi != mj {
			return mi > mj
		}
		return di > dj
	})
	return links
}

func splitDate(d string) (day, month int) {
	parts := strings.SplitN(d, ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	day, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	return day, month
}
