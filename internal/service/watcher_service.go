package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pokrovsky/timetable-api/internal/models"
	"github.com/pokrovsky/timetable-api/internal/sheets"
)

// ScheduleStore keeps one record per published date: the page link and the
// resolved document URL. Dates present here are considered announced.
type ScheduleStore interface {
	GetAll(ctx context.Context) (map[string]models.ScheduleRecord, error)
	Upsert(ctx context.Context, date, linkURL, googleURL string) error
}

// HashStore keeps the last seen content hash and title per document tab.
type HashStore interface {
	Get(ctx context.Context, docID, gid string) (string, error)
	Set(ctx context.Context, docID, gid, title, hash string) error
}

// Notifier broadcasts detected timetable events. The tab argument of
// NotifyChanged names the sheet the change was seen on.
type Notifier interface {
	NotifyNew(ctx context.Context, date string) error
	NotifyChanged(ctx context.Context, date, tab string) error
}

// MemoryScheduleStore is the fallback ScheduleStore used when the database
// is disabled. Dates announced before a restart are forgotten.
type MemoryScheduleStore struct {
	mu      sync.Mutex
	records map[string]models.ScheduleRecord
}

// NewMemoryScheduleStore constructs an empty in-memory store.
func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{records: make(map[string]models.ScheduleRecord)}
}

// GetAll returns a copy of the stored records keyed by date.
func (m *MemoryScheduleStore) GetAll(_ context.Context) (map[string]models.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.ScheduleRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

// Upsert stores or replaces the record for a date.
func (m *MemoryScheduleStore) Upsert(_ context.Context, date, linkURL, googleURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[date]
	if !ok {
		rec = models.ScheduleRecord{Date: date, CreatedAt: time.Now()}
	}
	rec.LinkURL = linkURL
	rec.GoogleURL = googleURL
	m.records[date] = rec
	return nil
}

// MemoryHashStore is the fallback HashStore used when the database is
// disabled. State is lost on restart, so every tab reads as first-seen.
type MemoryHashStore struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewMemoryHashStore constructs an empty in-memory store.
func NewMemoryHashStore() *MemoryHashStore {
	return &MemoryHashStore{hashes: make(map[string]string)}
}

// Get returns the stored hash, or empty string when none exists.
func (m *MemoryHashStore) Get(_ context.Context, docID, gid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hashes[docID+"|"+gid], nil
}

// Set stores or replaces the hash.
func (m *MemoryHashStore) Set(_ context.Context, docID, gid, _, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[docID+"|"+gid] = hash
	return nil
}

// WatcherService polls the schedule page, detects newly published dates and
// edited tabs, and triggers notifications. A date is new when the schedule
// store has no record of it, so announcements survive restarts when the
// store is durable. A hash seen for the first time is stored silently.
type WatcherService struct {
	resolver    *ResolverService
	schedules   ScheduleStore
	hashes      HashStore
	notifier    Notifier
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	minInterval time.Duration
	maxInterval time.Duration
}

// NewWatcherService constructs a WatcherService. Nil stores fall back to
// in-memory equivalents.
func NewWatcherService(resolver *ResolverService, schedules ScheduleStore, hashes HashStore, notifier Notifier, cache *CacheService, minInterval, maxInterval time.Duration, metrics *MetricsService, logger *zap.Logger) *WatcherService {
	if minInterval <= 0 {
		minInterval = 5 * time.Minute
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	if schedules == nil {
		schedules = NewMemoryScheduleStore()
	}
	if hashes == nil {
		hashes = NewMemoryHashStore()
	}
	return &WatcherService{
		resolver:    resolver,
		schedules:   schedules,
		hashes:      hashes,
		notifier:    notifier,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		minInterval: minInterval,
		maxInterval: maxInterval,
	}
}

// Run polls until the context is cancelled. Each cycle is followed by a
// uniformly random pause between the configured bounds.
func (w *WatcherService) Run(ctx context.Context) {
	for {
		if err := w.CheckOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher cycle failed", zap.Error(err))
			}
		}

		pause := w.minInterval
		if span := w.maxInterval - w.minInterval; span > 0 {
			pause += time.Duration(rand.Int63n(int64(span)))
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// CheckOnce runs one detection cycle: fetch the link list, persist and
// announce dates absent from the schedule store, compare tab hashes for
// every known document, then publish the fresh link list to readers.
func (w *WatcherService) CheckOnce(ctx context.Context) error {
	links, err := w.resolver.FreshLinks(ctx)
	if err != nil {
		return fmt.Errorf("fetch links: %w", err)
	}

	known, err := w.schedules.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load schedule records: %w", err)
	}

	for _, link := range links {
		if _, ok := known[link.Date]; ok {
			continue
		}
		rec, err := w.recordDate(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			if w.logger != nil {
				w.logger.Warn("recording new date failed", zap.String("date", link.Date), zap.Error(err))
			}
			continue
		}
		known[link.Date] = rec

		w.metrics.RecordWatcherChange("new")
		if w.logger != nil {
			w.logger.Info("new timetable published", zap.String("date", link.Date))
		}
		if w.notifier != nil {
			if err := w.notifier.NotifyNew(ctx, link.Date); err != nil && w.logger != nil {
				w.logger.Warn("new-date broadcast failed", zap.String("date", link.Date), zap.Error(err))
			}
		}
	}

	for date, rec := range known {
		if err := w.checkRecord(ctx, date, rec); err != nil {
			if ctx.Err() != nil {
				return err
			}
			if w.logger != nil {
				w.logger.Warn("record check failed", zap.String("date", date), zap.Error(err))
			}
		}
	}

	w.resolver.ReplaceLinks(links)
	w.metrics.RecordWatcherRun()
	return nil
}

// recordDate persists a newly published date. Document resolution may fail
// while the sheet is still being set up; the record is kept with an empty
// document URL and completed on a later cycle.
func (w *WatcherService) recordDate(ctx context.Context, link models.SheetLink) (models.ScheduleRecord, error) {
	docURL, err := w.resolver.ResolveDoc(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return models.ScheduleRecord{}, err
		}
		if w.logger != nil {
			w.logger.Debug("document not resolvable yet", zap.String("date", link.Date), zap.Error(err))
		}
		docURL = ""
	}
	if err := w.schedules.Upsert(ctx, link.Date, link.URL, docURL); err != nil {
		return models.ScheduleRecord{}, err
	}
	return models.ScheduleRecord{Date: link.Date, LinkURL: link.URL, GoogleURL: docURL}, nil
}

// checkRecord hashes every tab of one known document. The first hash ever
// seen for a tab is stored without announcing; a later difference stores the
// new hash and notifies change subscribers once per differing tab.
func (w *WatcherService) checkRecord(ctx context.Context, date string, rec models.ScheduleRecord) error {
	docURL := rec.GoogleURL
	if docURL == "" {
		resolved, err := w.resolver.ResolveDoc(ctx, models.SheetLink{Date: date, URL: rec.LinkURL})
		if err != nil {
			return err
		}
		docURL = resolved
		if err := w.schedules.Upsert(ctx, date, rec.LinkURL, docURL); err != nil {
			return err
		}
	}
	docID, err := sheets.DocumentID(docURL)
	if err != nil {
		return err
	}
	meta, err := w.resolver.Tabs(ctx, docURL)
	if err != nil {
		return err
	}

	changed := false
	for _, gid := range meta.Tabs {
		_, hash, err := w.resolver.TabHash(ctx, docURL, gid)
		if err != nil {
			if w.logger != nil {
				w.logger.Debug("tab hash failed", zap.String("gid", gid), zap.Error(err))
			}
			continue
		}
		stored, err := w.hashes.Get(ctx, docID, gid)
		if err != nil {
			return err
		}
		if stored == hash {
			continue
		}
		title := meta.Titles[gid]
		if err := w.hashes.Set(ctx, docID, gid, title, hash); err != nil {
			return err
		}
		if stored == "" {
			continue
		}

		changed = true
		w.metrics.RecordWatcherChange("edited")
		if title == "" {
			title = "лист " + gid
		}
		if w.logger != nil {
			w.logger.Info("timetable edited", zap.String("date", date), zap.String("tab", title))
		}
		if w.notifier != nil {
			if err := w.notifier.NotifyChanged(ctx, date, title); err != nil && w.logger != nil {
				w.logger.Warn("change broadcast failed", zap.String("date", date), zap.Error(err))
			}
		}
	}

	if !changed {
		return nil
	}
	if err := w.cache.Invalidate(ctx, "schedule:"+date+":*"); err != nil && w.logger != nil {
		w.logger.Warn("schedule cache invalidation failed", zap.Error(err))
	}
	if err := w.cache.Invalidate(ctx, "cabinets:"+date); err != nil && w.logger != nil {
		w.logger.Warn("cabinet cache invalidation failed", zap.Error(err))
	}
	return nil
}
