package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/hotness"
	"github.com/plinkoapp/venuerank/pkg/score"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

func newTestServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "venuerank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := score.NewManager(db, nil, 0)
	return New(db, manager, hotness.Options{}, 0), db
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHandleRankingsUnknownCategory(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleRankings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rankings?category=afterparty", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRankingsReturnsScoredVenues(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	v := venue.Venue{
		ID:          "club-1",
		DisplayName: "The Velvet Room",
		Rating:      5,
		PriceTier:   4,
		DressCode:   "Formal",
		Features:    []string{"VIP Tables", "Bottle Service", "Valet Parking", "Private Events"},
	}
	require.NoError(t, db.UpsertVenue(ctx, &v))
	require.NoError(t, srv.manager.RefreshOne(ctx, "club-1"))

	rec := httptest.NewRecorder()
	srv.handleRankings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rankings?category=luxury", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int                 `json:"count"`
		Data  []score.RankedVenue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "club-1", body.Data[0].ID)
	assert.Equal(t, 100, body.Data[0].Score)
}

func TestHandleHottestRequiresCoordinates(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleHottest(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hottest", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefreshMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleRefresh(rec, httptest.NewRequest(http.MethodGet, "/api/v1/refresh", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRefreshReportsCounts(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		v := venue.Venue{ID: id}
		require.NoError(t, db.UpsertVenue(ctx, &v))
	}

	rec := httptest.NewRecorder()
	srv.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Processed int `json:"processed"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Processed)
	assert.Equal(t, 2, body.Succeeded)
	assert.Equal(t, 0, body.Failed)
}
