package score

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

// DefaultStalenessWindow is the maximum age of a cached score record
// before it becomes eligible for bulk refresh. A venue with no record at
// all is always eligible.
const DefaultStalenessWindow = 24 * time.Hour

// DefaultPageSize is the category listing page size when the caller does
// not specify one.
const DefaultPageSize = 20

// DefaultThresholds returns the minimum cached score a venue needs per
// category to appear in that category's listing. The values suppress
// low-signal entries from the public "best of" lists and are tunable,
// not derived.
func DefaultThresholds() map[venue.Category]int {
	return map[venue.Category]int{
		venue.CategoryTrending:        25,
		venue.CategoryLuxury:          40,
		venue.CategoryStudentFriendly: 40,
		venue.CategoryBigGroups:       35,
		venue.CategoryDateNight:       30,
		venue.CategoryLiveMusic:       25,
	}
}

// Manager orchestrates score refreshes against the persisted cache and
// answers category-ranking queries.
type Manager struct {
	store      store.Store
	thresholds map[venue.Category]int
	maxAge     time.Duration
}

// NewManager creates a score cache manager. A nil thresholds map and a
// non-positive maxAge fall back to the defaults.
func NewManager(s store.Store, thresholds map[venue.Category]int, maxAge time.Duration) *Manager {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	if maxAge <= 0 {
		maxAge = DefaultStalenessWindow
	}
	return &Manager{
		store:      s,
		thresholds: thresholds,
		maxAge:     maxAge,
	}
}

// RefreshOne recomputes and persists all six category scores for one
// venue. A missing venue is a no-op, not an error.
func (m *Manager) RefreshOne(ctx context.Context, venueID string) error {
	v, err := m.store.GetVenue(ctx, venueID)
	if err != nil {
		return fmt.Errorf("refresh venue %s: %w", venueID, err)
	}
	if v == nil {
		return nil
	}

	rec := store.ScoreRecord{
		VenueID:     v.ID,
		Scores:      AllScores(v),
		LastUpdated: time.Now().UTC(),
	}

	report, err := m.store.UpsertScoreRecords(ctx, []store.ScoreRecord{rec})
	if err != nil {
		return fmt.Errorf("refresh venue %s: %w", venueID, err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("refresh venue %s: %s", venueID, report.Errors[0])
	}
	return nil
}

// RefreshStale recomputes scores for every venue whose cached record is
// missing or older than the staleness window. The candidate set is read
// once, each venue is scored independently, and all records go out in a
// single batched upsert. Partial failures are reported, not rolled back.
func (m *Manager) RefreshStale(ctx context.Context) (store.UpsertReport, error) {
	cutoff := time.Now().Add(-m.maxAge)

	stale, err := m.store.ListVenuesNeedingRefresh(ctx, cutoff)
	if err != nil {
		return store.UpsertReport{}, fmt.Errorf("refresh stale: %w", err)
	}
	if len(stale) == 0 {
		return store.UpsertReport{}, nil
	}

	now := time.Now().UTC()
	records := make([]store.ScoreRecord, 0, len(stale))
	for i := range stale {
		records = append(records, store.ScoreRecord{
			VenueID:     stale[i].ID,
			Scores:      AllScores(&stale[i]),
			LastUpdated: now,
		})
	}

	report, err := m.store.UpsertScoreRecords(ctx, records)
	if err != nil {
		return report, fmt.Errorf("refresh stale: %w", err)
	}
	return report, nil
}

// RankedVenue is a venue joined with its cached score for one category.
type RankedVenue struct {
	venue.Venue
	Score int `json:"score"`
}

// ListByCategory returns the requested page of venues ranked by cached
// category score, descending. Venues scoring below the category
// threshold are dropped; a venue with no cached score counts as 0, and
// orphaned score records never appear because the join starts from the
// venue side. Ties keep the underlying store order.
func (m *Manager) ListByCategory(ctx context.Context, cat venue.Category, page, pageSize int) ([]RankedVenue, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	venues, err := m.store.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category %s: %w", cat, err)
	}

	scores, err := m.store.CategoryScores(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("list category %s: %w", cat, err)
	}

	threshold := m.thresholds[cat]
	ranked := make([]RankedVenue, 0, len(venues))
	for _, v := range venues {
		s := scores[v.ID]
		if s < threshold {
			continue
		}
		ranked = append(ranked, RankedVenue{Venue: v, Score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	offset := (page - 1) * pageSize
	if offset >= len(ranked) {
		return []RankedVenue{}, nil
	}
	end := offset + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], nil
}
