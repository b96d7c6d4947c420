package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pokrovsky/timetable-api/internal/fetch"
	"github.com/pokrovsky/timetable-api/internal/grid"
	"github.com/pokrovsky/timetable-api/internal/models"
	"github.com/pokrovsky/timetable-api/internal/sheets"
	"github.com/pokrovsky/timetable-api/internal/site"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// ResolverService finds published timetable documents and locates the tab
// that carries a given grade. Resolved locations are memoized so repeated
// lookups hit the network at most once per document.
type ResolverService struct {
	fetcher          fetch.Fetcher
	logger           *zap.Logger
	metrics          *MetricsService
	pageURL          string
	linksTTL         time.Duration
	probeConcurrency int

	mu        sync.Mutex
	links     []models.SheetLink
	linksAt   time.Time
	docByDate map[string]string
	gidByKey  map[string]string
	tabCache  map[string]grid.ParsedTab
}

// NewResolverService constructs a ResolverService.
func NewResolverService(fetcher fetch.Fetcher, pageURL string, linksTTL time.Duration, probeConcurrency int, metrics *MetricsService, logger *zap.Logger) *ResolverService {
	if linksTTL <= 0 {
		linksTTL = time.Minute
	}
	if probeConcurrency <= 0 {
		probeConcurrency = 6
	}
	return &ResolverService{
		fetcher:          fetcher,
		logger:           logger,
		metrics:          metrics,
		pageURL:          pageURL,
		linksTTL:         linksTTL,
		probeConcurrency: probeConcurrency,
		docByDate:        make(map[string]string),
		gidByKey:         make(map[string]string),
		tabCache:         make(map[string]grid.ParsedTab),
	}
}

// Links returns the published timetable links, newest first. Results are
// cached for the configured TTL; force bypasses the cache.
func (s *ResolverService) Links(ctx context.Context, force bool) ([]models.SheetLink, error) {
	s.mu.Lock()
	if !force && s.links != nil && time.Since(s.linksAt) < s.linksTTL {
		cached := s.links
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	links, err := s.FreshLinks(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.links = links
	s.linksAt = time.Now()
	s.mu.Unlock()
	return links, nil
}

// FreshLinks fetches the link list from the source without touching the
// cache. The watcher uses it so the cached list is only replaced after a
// completed check cycle.
func (s *ResolverService) FreshLinks(ctx context.Context) ([]models.SheetLink, error) {
	start := time.Now()
	links, err := site.FetchLinks(ctx, s.fetcher, s.pageURL)
	s.metrics.ObserveFetch("page", err, time.Since(start))
	return links, err
}

// ReplaceLinks swaps the cached link list. The watcher calls it after a
// completed cycle so readers see the set it just verified.
func (s *ResolverService) ReplaceLinks(links []models.SheetLink) {
	s.mu.Lock()
	s.links = links
	s.linksAt = time.Now()
	s.mu.Unlock()
}

// LinkForDate finds the published link for a dd.mm date.
func (s *ResolverService) LinkForDate(ctx context.Context, date string) (models.SheetLink, error) {
	links, err := s.Links(ctx, false)
	if err != nil {
		return models.SheetLink{}, err
	}
	for _, l := range links {
		if l.Date == date {
			return l, nil
		}
	}
	return models.SheetLink{}, appErrors.ErrDateNotFound
}

// ResolveDoc resolves a published link to its spreadsheet document URL.
func (s *ResolverService) ResolveDoc(ctx context.Context, link models.SheetLink) (string, error) {
	s.mu.Lock()
	if docURL, ok := s.docByDate[link.Date]; ok {
		s.mu.Unlock()
		return docURL, nil
	}
	s.mu.Unlock()

	start := time.Now()
	docURL, err := sheets.ResolveDocumentURL(ctx, s.fetcher, link.URL)
	if !sheets.IsDocumentURL(link.URL) {
		s.metrics.ObserveFetch("resolve", err, time.Since(start))
	}
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.docByDate[link.Date] = docURL
	s.mu.Unlock()
	return docURL, nil
}

// Tab fetches and parses one tab, memoizing the parsed result.
func (s *ResolverService) Tab(ctx context.Context, docURL, gid string) (grid.ParsedTab, error) {
	key := tabKey(docURL, gid)
	s.mu.Lock()
	if tab, ok := s.tabCache[key]; ok {
		s.mu.Unlock()
		return tab, nil
	}
	s.mu.Unlock()

	tab, _, err := s.fetchTab(ctx, docURL, gid)
	if err != nil {
		return grid.ParsedTab{}, err
	}

	s.mu.Lock()
	s.tabCache[key] = tab
	s.mu.Unlock()
	return tab, nil
}

// TabHash downloads a tab and returns its content hash alongside the parsed
// grid. It always goes to the network; the watcher relies on that.
func (s *ResolverService) TabHash(ctx context.Context, docURL, gid string) (grid.ParsedTab, string, error) {
	tab, raw, err := s.fetchTab(ctx, docURL, gid)
	if err != nil {
		return grid.ParsedTab{}, "", err
	}
	sum := sha256.Sum256([]byte(raw))

	s.mu.Lock()
	s.tabCache[tabKey(docURL, gid)] = tab
	s.mu.Unlock()
	return tab, hex.EncodeToString(sum[:]), nil
}

func (s *ResolverService) fetchTab(ctx context.Context, docURL, gid string) (grid.ParsedTab, string, error) {
	exportURL, err := sheets.CSVExportURL(docURL, gid)
	if err != nil {
		return grid.ParsedTab{}, "", err
	}
	start := time.Now()
	raw, err := s.fetcher.Get(ctx, exportURL)
	s.metrics.ObserveFetch("csv", err, time.Since(start))
	if err != nil {
		return grid.ParsedTab{}, "", err
	}
	rows, err := sheets.RowsFromCSV(raw)
	if err != nil {
		return grid.ParsedTab{}, "", err
	}
	parseStart := time.Now()
	tab := grid.Parse(rows)
	s.metrics.ObserveParse(time.Since(parseStart))
	return tab, raw, nil
}

// Tabs discovers the document's tab identifiers and titles.
func (s *ResolverService) Tabs(ctx context.Context, docURL string) (sheets.TabMeta, error) {
	start := time.Now()
	meta, err := sheets.DiscoverTabs(ctx, s.fetcher, docURL)
	s.metrics.ObserveFetch("htmlview", err, time.Since(start))
	return meta, err
}

// TabForGrade locates the tab of a document that carries the given grade.
// It tries, in order, a previously resolved gid, the document's tab titles,
// and finally a bounded concurrent probe of every tab.
func (s *ResolverService) TabForGrade(ctx context.Context, docURL string, grade int) (grid.ParsedTab, string, error) {
	key := tabKey(docURL, strconv.Itoa(grade))

	s.mu.Lock()
	known, hasKnown := s.gidByKey[key]
	s.mu.Unlock()

	if hasKnown {
		tab, err := s.Tab(ctx, docURL, known)
		if err == nil && tab.HasGrade(grade) {
			return tab, known, nil
		}
		s.mu.Lock()
		delete(s.gidByKey, key)
		s.mu.Unlock()
	}

	meta, err := s.Tabs(ctx, docURL)
	if err != nil {
		return grid.ParsedTab{}, "", err
	}

	if gid := gidByTitle(meta, grade); gid != "" {
		tab, err := s.Tab(ctx, docURL, gid)
		if err == nil && tab.HasGrade(grade) {
			s.remember(key, gid)
			return tab, gid, nil
		}
	}

	tab, gid, err := s.probe(ctx, docURL, meta.Tabs, grade)
	if err != nil {
		return grid.ParsedTab{}, "", err
	}
	s.remember(key, gid)
	return tab, gid, nil
}

func (s *ResolverService) remember(key, gid string) {
	s.mu.Lock()
	s.gidByKey[key] = gid
	s.mu.Unlock()
}

func tabKey(docURL, gid string) string {
	if id, err := sheets.DocumentID(docURL); err == nil {
		return id + "|" + gid
	}
	return docURL + "|" + gid
}

// gidByTitle matches a tab title that mentions the grade number as a
// standalone token, so grade 1 does not match "10 классы".
func gidByTitle(meta sheets.TabMeta, grade int) string {
	want := strconv.Itoa(grade)
	for gid, title := range meta.Titles {
		for _, tok := range strings.FieldsFunc(title, func(r rune) bool {
			return r < '0' || r > '9'
		}) {
			if tok == want {
				return gid
			}
		}
	}
	return ""
}

// errTabFound aborts the remaining tab downloads once a match is in hand.
var errTabFound = errors.New("tab found")

// probe downloads tabs with bounded concurrency and selects a matching one as
// soon as its parse lands, cancelling the downloads still in flight.
// Individual tab failures are logged and skipped so one broken export cannot
// mask the rest.
func (s *ResolverService) probe(ctx context.Context, docURL string, gids []string, grade int) (grid.ParsedTab, string, error) {
	var (
		mu     sync.Mutex
		winTab grid.ParsedTab
		winGid string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.probeConcurrency)
	for _, gid := range gids {
		gid := gid
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			tab, err := s.Tab(gctx, docURL, gid)
			if err != nil {
				if s.logger != nil {
					s.logger.Debug("tab probe failed", zap.String("gid", gid), zap.Error(err))
				}
				return nil
			}
			if !tab.HasGrade(grade) {
				return nil
			}
			mu.Lock()
			if winGid == "" {
				winTab, winGid = tab, gid
			}
			mu.Unlock()
			return errTabFound
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errTabFound) {
		return grid.ParsedTab{}, "", err
	}

	if winGid != "" {
		return winTab, winGid, nil
	}
	return grid.ParsedTab{}, "", appErrors.ErrTabNotFound
}
