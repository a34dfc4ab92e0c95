package score

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "venuerank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func luxuryVenue(id string) venue.Venue {
	return venue.Venue{
		ID:          id,
		DisplayName: "The Velvet Room",
		Rating:      5,
		PriceTier:   4,
		DressCode:   "Formal",
		Features:    []string{"VIP Tables", "Bottle Service", "Valet Parking", "Private Events"},
	}
}

func TestRefreshOneMissingVenueIsNoop(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)
	ctx := context.Background()

	require.NoError(t, m.RefreshOne(ctx, "ghost"))

	rec, err := db.GetScoreRecord(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRefreshOneThenListReflectsScore(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)
	ctx := context.Background()

	v := luxuryVenue("club-1")
	require.NoError(t, db.UpsertVenue(ctx, &v))
	require.NoError(t, m.RefreshOne(ctx, "club-1"))

	rec, err := db.GetScoreRecord(ctx, "club-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 100, rec.Scores[venue.CategoryLuxury])
	assert.Len(t, rec.Scores, 6)

	ranked, err := m.ListByCategory(ctx, venue.CategoryLuxury, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "club-1", ranked[0].ID)
	assert.Equal(t, 100, ranked[0].Score)
}

func TestRefreshOnePicksUpVenueChanges(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)
	ctx := context.Background()

	v := luxuryVenue("club-1")
	require.NoError(t, db.UpsertVenue(ctx, &v))
	require.NoError(t, m.RefreshOne(ctx, "club-1"))

	v.Rating = 0
	v.DressCode = "Casual"
	require.NoError(t, db.UpsertVenue(ctx, &v))
	require.NoError(t, m.RefreshOne(ctx, "club-1"))

	rec, err := db.GetScoreRecord(ctx, "club-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 55, rec.Scores[venue.CategoryLuxury]) // 30 + 5 + 0 + 20
}

func TestRefreshStaleProcessesMissingAndOldRecords(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)
	ctx := context.Background()

	a := luxuryVenue("club-a")
	b := venue.Venue{ID: "club-b", DisplayName: "Corner Dive"}
	require.NoError(t, db.UpsertVenue(ctx, &a))
	require.NoError(t, db.UpsertVenue(ctx, &b))

	report, err := m.RefreshStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	// Fresh records are skipped on the next pass.
	report, err = m.RefreshStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Succeeded+report.Failed)

	// Age one record past the staleness window.
	_, err = db.UpsertScoreRecords(ctx, []store.ScoreRecord{{
		VenueID:     "club-a",
		Scores:      map[venue.Category]int{},
		LastUpdated: time.Now().Add(-48 * time.Hour),
	}})
	require.NoError(t, err)

	report, err = m.RefreshStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestListByCategoryThresholdLaw(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)
	ctx := context.Background()

	lux := luxuryVenue("club-lux")
	dive := venue.Venue{ID: "club-dive", DisplayName: "Corner Dive"} // luxury score 15
	require.NoError(t, db.UpsertVenue(ctx, &lux))
	require.NoError(t, db.UpsertVenue(ctx, &dive))

	_, err := m.RefreshStale(ctx)
	require.NoError(t, err)

	ranked, err := m.ListByCategory(ctx, venue.CategoryLuxury, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "club-lux", ranked[0].ID)
	for _, r := range ranked {
		assert.GreaterOrEqual(t, r.Score, DefaultThresholds()[venue.CategoryLuxury])
	}
}

func TestListByCategoryPaginationLaw(t *testing.T) {
	db := newTestStore(t)
	// Empty thresholds map disables filtering.
	m := NewManager(db, map[venue.Category]int{}, 0)
	ctx := context.Background()

	// Ratings 1..5 give distinct trending scores 6, 12, 18, 24, 30.
	for i, rating := range []float64{1, 2, 3, 4, 5} {
		v := venue.Venue{
			ID:     string(rune('a' + i)),
			Rating: rating,
		}
		require.NoError(t, db.UpsertVenue(ctx, &v))
	}
	_, err := m.RefreshStale(ctx)
	require.NoError(t, err)

	full, err := m.ListByCategory(ctx, venue.CategoryTrending, 1, 100)
	require.NoError(t, err)
	require.Len(t, full, 5)
	assert.Equal(t, []int{30, 24, 18, 12, 6}, scoresOf(full))

	page2, err := m.ListByCategory(ctx, venue.CategoryTrending, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{18, 12}, scoresOf(page2))

	page3, err := m.ListByCategory(ctx, venue.CategoryTrending, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{6}, scoresOf(page3))

	beyond, err := m.ListByCategory(ctx, venue.CategoryTrending, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func scoresOf(ranked []RankedVenue) []int {
	scores := make([]int, len(ranked))
	for i, r := range ranked {
		scores[i] = r.Score
	}
	return scores
}

func TestListByCategoryUnknownCategory(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)

	_, err := m.ListByCategory(context.Background(), "afterparty", 1, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestListByCategoryExcludesOrphanedScores(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, map[venue.Category]int{}, 0)
	ctx := context.Background()

	v := venue.Venue{ID: "club-real", Rating: 5}
	require.NoError(t, db.UpsertVenue(ctx, &v))
	_, err := m.RefreshStale(ctx)
	require.NoError(t, err)

	// A cached score with no venue behind it must never surface.
	_, err = db.UpsertScoreRecords(ctx, []store.ScoreRecord{{
		VenueID:     "club-ghost",
		Scores:      map[venue.Category]int{venue.CategoryTrending: 99},
		LastUpdated: time.Now().UTC(),
	}})
	require.NoError(t, err)

	ranked, err := m.ListByCategory(ctx, venue.CategoryTrending, 1, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "club-real", ranked[0].ID)
}

func TestListByCategoryEmptyResultIsNotAnError(t *testing.T) {
	db := newTestStore(t)
	m := NewManager(db, nil, 0)

	ranked, err := m.ListByCategory(context.Background(), venue.CategoryDateNight, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
