package service

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pokrovsky/timetable-api/internal/grid"
	"github.com/pokrovsky/timetable-api/internal/models"
)

// Floor bucket names for the cabinet index. Rooms that don't follow the
// building-letter room code land in OTHER; gyms land in SPORT.
const (
	FloorSport = "SPORT"
	FloorOther = "OTHER"
)

// CabinetIndex groups a date's room occupancy by floor.
type CabinetIndex struct {
	Date   string                           `json:"date"`
	Floors map[string][]models.CabinetEntry `json:"floors"`
	Totals map[string]int                   `json:"totals"`
}

// CabinetService builds the reverse room index: which class sits in which
// physical room at which time on a date.
type CabinetService struct {
	resolver *ResolverService
	cache    *CacheService
	logger   *zap.Logger
}

// NewCabinetService constructs a CabinetService.
func NewCabinetService(resolver *ResolverService, cache *CacheService, logger *zap.Logger) *CabinetService {
	return &CabinetService{resolver: resolver, cache: cache, logger: logger}
}

// middle and senior school grades the published documents cover
const (
	minGrade = 5
	maxGrade = 11
)

// Index builds the cabinet occupancy index for a date.
func (s *CabinetService) Index(ctx context.Context, date string) (CabinetIndex, error) {
	cacheKey := "cabinets:" + date
	var cached CabinetIndex
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	link, err := s.resolver.LinkForDate(ctx, date)
	if err != nil {
		return CabinetIndex{}, err
	}
	docURL, err := s.resolver.ResolveDoc(ctx, link)
	if err != nil {
		return CabinetIndex{}, err
	}

	entries, err := s.collect(ctx, docURL)
	if err != nil {
		return CabinetIndex{}, err
	}

	idx := bucketByFloor(date, entries)
	if err := s.cache.Set(ctx, cacheKey, idx); err != nil && s.logger != nil {
		s.logger.Warn("cabinet cache write failed", zap.String("date", date), zap.Error(err))
	}
	return idx, nil
}

// collect walks every grade's tab once and pulls out lessons held in
// physical rooms. Tabs shared between grades are visited a single time.
// The free-search extractor runs for every label so rooms sitting outside a
// class's detected cabinet column still make the index.
func (s *CabinetService) collect(ctx context.Context, docURL string) ([]models.CabinetEntry, error) {
	var out []models.CabinetEntry
	seenTabs := make(map[string]struct{})

	for grade := minGrade; grade <= maxGrade; grade++ {
		tab, gid, err := s.resolver.TabForGrade(ctx, docURL, grade)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("no tab for grade", zap.Int("grade", grade), zap.Error(err))
			}
			continue
		}
		if _, ok := seenTabs[gid]; ok {
			continue
		}
		seenTabs[gid] = struct{}{}

		for _, label := range tab.LabelSet() {
			items := grid.ExtractScheduleFree(tab.Grid, tab.Labels, tab.Headers, label)
			for _, it := range items {
				for _, cab := range grid.SplitCabinets(it.Cabinet) {
					if !grid.IsPhysicalCabinet(cab) {
						continue
					}
					out = append(out, models.CabinetEntry{
						Cabinet: cab,
						Class:   label,
						Time:    it.Time,
						Subject: it.Subject,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := startMinutes(out[i].Time), startMinutes(out[j].Time)
		if ti != tj {
			return ti < tj
		}
		if out[i].Cabinet != out[j].Cabinet {
			return out[i].Cabinet < out[j].Cabinet
		}
		return out[i].Class < out[j].Class
	})
	return out, nil
}

// startMinutes parses the start of a "HH:MM - HH:MM" range for ordering.
// Unparseable times sort last.
func startMinutes(t string) int {
	key := grid.TimeKey(t)
	if key == "" {
		return 1 << 20
	}
	parts := strings.SplitN(key, "-", 2)
	hm := strings.SplitN(parts[0], ":", 2)
	if len(hm) != 2 {
		return 1 << 20
	}
	h, _ := strconv.Atoi(hm[0])
	m, _ := strconv.Atoi(hm[1])
	return h*60 + m
}

func bucketByFloor(date string, entries []models.CabinetEntry) CabinetIndex {
	floors := make(map[string][]models.CabinetEntry)
	totals := make(map[string]int)
	for _, e := range entries {
		f := floorOf(e.Cabinet)
		floors[f] = append(floors[f], e)
		totals[f]++
	}
	return CabinetIndex{Date: date, Floors: floors, Totals: totals}
}

var floorRx = regexp.MustCompile(`^\p{L}\s*(\d)`)

// floorOf maps a room code to its bucket. The leading letter is the building
// and the first digit after it is the storey, so Г3-08 is F3 and Б4-08 is F4.
// Gyms go to SPORT; everything else, plain numbers included, goes to OTHER.
func floorOf(cab string) string {
	upper := strings.ToUpper(cab)
	if strings.Contains(upper, "СПОРТЗАЛ") {
		return FloorSport
	}
	if m := floorRx.FindStringSubmatch(upper); m != nil {
		if d := m[1][0]; d >= '1' && d <= '4' {
			return "F" + m[1]
		}
	}
	return FloorOther
}
