package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pokrovsky/timetable-api/internal/grid"
	"github.com/pokrovsky/timetable-api/internal/models"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// ScheduleService renders per-class timetables for published dates.
type ScheduleService struct {
	resolver *ResolverService
	cache    *CacheService
	logger   *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(resolver *ResolverService, cache *CacheService, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{resolver: resolver, cache: cache, logger: logger}
}

// Links lists published timetable dates, newest first.
func (s *ScheduleService) Links(ctx context.Context, force bool) ([]models.SheetLink, error) {
	return s.resolver.Links(ctx, force)
}

// Schedule returns the collapsed lesson entries for a class on a date.
func (s *ScheduleService) Schedule(ctx context.Context, date, class string) ([]grid.Entry, string, error) {
	label := grid.ParseClassLabel(class)
	if label == "" {
		return nil, "", appErrors.ErrValidation.WithMessage(fmt.Sprintf("unrecognized class %q", class))
	}
	grade := grid.GradeFromLabel(label)
	if grade == 0 {
		return nil, "", appErrors.ErrValidation.WithMessage(fmt.Sprintf("unrecognized class %q", class))
	}

	link, err := s.resolver.LinkForDate(ctx, date)
	if err != nil {
		return nil, "", err
	}
	docURL, err := s.resolver.ResolveDoc(ctx, link)
	if err != nil {
		return nil, "", err
	}
	tab, _, err := s.resolver.TabForGrade(ctx, docURL, grade)
	if err != nil {
		return nil, "", err
	}

	entries, err := extractEntries(tab, label)
	if err != nil {
		return nil, "", err
	}
	return entries, label, nil
}

// RenderSchedule returns the HTML rendering of a class schedule, serving
// from cache when possible.
func (s *ScheduleService) RenderSchedule(ctx context.Context, date, class string) (string, error) {
	label := grid.ParseClassLabel(class)
	cacheKey := fmt.Sprintf("schedule:%s:%s", date, label)

	var cached string
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	entries, label, err := s.Schedule(ctx, date, class)
	if err != nil {
		return "", err
	}
	rendered := grid.Render(date, label, entries)

	if err := s.cache.Set(ctx, cacheKey, rendered); err != nil && s.logger != nil {
		s.logger.Warn("schedule cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return rendered, nil
}

// extractEntries pulls a class's lessons from a parsed tab. An anchored scan
// below the class header runs first; when it yields nothing the free search
// over the label's column zone runs as fallback.
func extractEntries(tab grid.ParsedTab, label string) ([]grid.Entry, error) {
	key, ok := matchLabel(tab, label)
	if !ok {
		return nil, appErrors.ErrClassNotFound
	}

	entries := grid.ExtractSchedule(tab.Grid, tab.Labels, tab.Headers, key, tab.Cabinets[key])
	if len(entries) == 0 {
		entries = grid.ExtractScheduleFree(tab.Grid, tab.Labels, tab.Headers, key)
	}
	return grid.Collapse(entries), nil
}

// matchLabel finds the tab's key for a canonical label, falling back to a
// case-insensitive scan for tabs with inconsistent letter casing.
func matchLabel(tab grid.ParsedTab, label string) (string, bool) {
	if _, ok := tab.Labels[label]; ok {
		return label, true
	}
	for k := range tab.Labels {
		if strings.EqualFold(k, label) {
			return k, true
		}
	}
	return "", false
}
