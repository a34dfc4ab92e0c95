package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/plinkoapp/venuerank/pkg/venue"
)

// ScoreRecord is the cached per-category fitness of a single venue.
// One record per venue, mutated in place on every refresh.
type ScoreRecord struct {
	VenueID     string                 `json:"venue_id"`
	Scores      map[venue.Category]int `json:"scores"`
	LastUpdated time.Time              `json:"last_updated"`
}

// UpsertReport summarizes a batched score write. Each record's upsert is
// independent, so a failed record never blocks or rolls back the others.
type UpsertReport struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Store is the persistence interface.
type Store interface {
	UpsertVenue(ctx context.Context, v *venue.Venue) error
	UpsertVenues(ctx context.Context, venues []venue.Venue) error
	GetVenue(ctx context.Context, id string) (*venue.Venue, error)
	ListVenues(ctx context.Context) ([]venue.Venue, error)
	ListVenuesNeedingRefresh(ctx context.Context, cutoff time.Time) ([]venue.Venue, error)
	SetVenueEvents(ctx context.Context, venueID string, events []venue.Event) error

	AddReview(ctx context.Context, r *venue.Review) error
	ListReviews(ctx context.Context) ([]venue.Review, error)

	UpsertScoreRecords(ctx context.Context, records []ScoreRecord) (UpsertReport, error)
	GetScoreRecord(ctx context.Context, venueID string) (*ScoreRecord, error)
	CategoryScores(ctx context.Context, cat venue.Category) (map[string]int, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertVenue(ctx context.Context, v *venue.Venue) error {
	featuresJSON, _ := json.Marshal(v.Features)
	genresJSON, _ := json.Marshal(v.Genres)
	tablesJSON, _ := json.Marshal(v.Tables)
	eventsJSON, _ := json.Marshal(v.Events)

	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO venues (id, username, display_name, rating, price_tier, dress_code, capacity, min_age, followers, features, genres, tables, events, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			rating = excluded.rating,
			price_tier = excluded.price_tier,
			dress_code = excluded.dress_code,
			capacity = excluded.capacity,
			min_age = excluded.min_age,
			followers = excluded.followers,
			features = excluded.features,
			genres = excluded.genres,
			tables = excluded.tables,
			events = excluded.events,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at
	`, v.ID, v.Username, v.DisplayName, v.Rating, v.PriceTier, v.DressCode,
		v.Capacity, v.MinAge, v.Followers, string(featuresJSON), string(genresJSON),
		string(tablesJSON), string(eventsJSON), v.Latitude, v.Longitude, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert venue %s: %w", v.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertVenues(ctx context.Context, venues []venue.Venue) error {
	for i := range venues {
		if err := s.UpsertVenue(ctx, &venues[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetVenue returns (nil, nil) when the venue does not exist. Callers
// treat a missing venue as a no-op rather than an error.
func (s *SQLiteStore) GetVenue(ctx context.Context, id string) (*venue.Venue, error) {
	var v venue.Venue
	err := s.db.GetContext(ctx, &v, "SELECT * FROM venues WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get venue %s: %w", id, err)
	}
	decodeVenue(&v)

	if err := s.loadReviewDates(ctx, []*venue.Venue{&v}); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLiteStore) ListVenues(ctx context.Context) ([]venue.Venue, error) {
	var venues []venue.Venue
	if err := s.db.SelectContext(ctx, &venues, "SELECT * FROM venues ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return s.finishVenues(ctx, venues)
}

// ListVenuesNeedingRefresh returns every venue whose score record is
// missing or older than cutoff.
func (s *SQLiteStore) ListVenuesNeedingRefresh(ctx context.Context, cutoff time.Time) ([]venue.Venue, error) {
	var venues []venue.Venue
	err := s.db.SelectContext(ctx, &venues, `
		SELECT v.* FROM venues v
		LEFT JOIN venue_scores s ON s.venue_id = v.id
		WHERE s.venue_id IS NULL OR s.last_updated < ?
		ORDER BY v.id
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list venues needing refresh: %w", err)
	}
	return s.finishVenues(ctx, venues)
}

func (s *SQLiteStore) finishVenues(ctx context.Context, venues []venue.Venue) ([]venue.Venue, error) {
	ptrs := make([]*venue.Venue, len(venues))
	for i := range venues {
		decodeVenue(&venues[i])
		ptrs[i] = &venues[i]
	}
	if err := s.loadReviewDates(ctx, ptrs); err != nil {
		return nil, err
	}
	return venues, nil
}

func decodeVenue(v *venue.Venue) {
	json.Unmarshal([]byte(v.FeaturesJSON), &v.Features)
	json.Unmarshal([]byte(v.GenresJSON), &v.Genres)
	json.Unmarshal([]byte(v.TablesJSON), &v.Tables)
	json.Unmarshal([]byte(v.EventsJSON), &v.Events)
}

// loadReviewDates attaches review timestamps to each venue in one query.
func (s *SQLiteStore) loadReviewDates(ctx context.Context, venues []*venue.Venue) error {
	if len(venues) == 0 {
		return nil
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT venue_id, created_at FROM reviews ORDER BY created_at")
	if err != nil {
		return fmt.Errorf("load review dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string][]time.Time)
	for rows.Next() {
		var venueID string
		var createdAt time.Time
		if err := rows.Scan(&venueID, &createdAt); err != nil {
			return fmt.Errorf("scan review date: %w", err)
		}
		dates[venueID] = append(dates[venueID], createdAt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load review dates: %w", err)
	}

	for _, v := range venues {
		v.ReviewDates = dates[v.ID]
	}
	return nil
}

func (s *SQLiteStore) SetVenueEvents(ctx context.Context, venueID string, events []venue.Event) error {
	eventsJSON, _ := json.Marshal(events)
	res, err := s.db.ExecContext(ctx,
		"UPDATE venues SET events = ?, updated_at = ? WHERE id = ?",
		string(eventsJSON), time.Now().UTC(), venueID)
	if err != nil {
		return fmt.Errorf("set venue events %s: %w", venueID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set venue events: venue %s not found", venueID)
	}
	return nil
}

func (s *SQLiteStore) AddReview(ctx context.Context, r *venue.Review) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, venue_id, reviewer, rating, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.VenueID, r.Reviewer, r.Rating, r.Text, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("add review %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListReviews(ctx context.Context) ([]venue.Review, error) {
	var reviews []venue.Review
	if err := s.db.SelectContext(ctx, &reviews, "SELECT * FROM reviews ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// UpsertScoreRecords writes cached scores one record at a time. A failed
// record is counted and skipped; successful writes are kept. The cache is
// best-effort and eventually consistent, so there is no rollback.
func (s *SQLiteStore) UpsertScoreRecords(ctx context.Context, records []ScoreRecord) (UpsertReport, error) {
	var report UpsertReport
	for i := range records {
		if err := s.upsertScoreRecord(ctx, &records[i]); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func (s *SQLiteStore) upsertScoreRecord(ctx context.Context, rec *ScoreRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO venue_scores (venue_id, trending, luxury, student_friendly, big_groups, date_night, live_music, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue_id) DO UPDATE SET
			trending = excluded.trending,
			luxury = excluded.luxury,
			student_friendly = excluded.student_friendly,
			big_groups = excluded.big_groups,
			date_night = excluded.date_night,
			live_music = excluded.live_music,
			last_updated = excluded.last_updated
	`, rec.VenueID,
		rec.Scores[venue.CategoryTrending],
		rec.Scores[venue.CategoryLuxury],
		rec.Scores[venue.CategoryStudentFriendly],
		rec.Scores[venue.CategoryBigGroups],
		rec.Scores[venue.CategoryDateNight],
		rec.Scores[venue.CategoryLiveMusic],
		rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert score record %s: %w", rec.VenueID, err)
	}
	return nil
}

// GetScoreRecord returns (nil, nil) when no scores are cached yet.
func (s *SQLiteStore) GetScoreRecord(ctx context.Context, venueID string) (*ScoreRecord, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT venue_id, trending, luxury, student_friendly, big_groups, date_night, live_music, last_updated FROM venue_scores WHERE venue_id = ?",
		venueID)

	rec := ScoreRecord{Scores: make(map[venue.Category]int)}
	var trending, luxury, student, groups, date, music int
	err := row.Scan(&rec.VenueID, &trending, &luxury, &student, &groups, &date, &music, &rec.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score record %s: %w", venueID, err)
	}

	rec.Scores[venue.CategoryTrending] = trending
	rec.Scores[venue.CategoryLuxury] = luxury
	rec.Scores[venue.CategoryStudentFriendly] = student
	rec.Scores[venue.CategoryBigGroups] = groups
	rec.Scores[venue.CategoryDateNight] = date
	rec.Scores[venue.CategoryLiveMusic] = music
	return &rec, nil
}

// scoreColumns maps each category to its venue_scores column. The map is
// the only path from a category name into SQL text.
var scoreColumns = map[venue.Category]string{
	venue.CategoryTrending:        "trending",
	venue.CategoryLuxury:          "luxury",
	venue.CategoryStudentFriendly: "student_friendly",
	venue.CategoryBigGroups:       "big_groups",
	venue.CategoryDateNight:       "date_night",
	venue.CategoryLiveMusic:       "live_music",
}

// CategoryScores returns venue id -> cached score for one category.
func (s *SQLiteStore) CategoryScores(ctx context.Context, cat venue.Category) (map[string]int, error) {
	col, ok := scoreColumns[cat]
	if !ok {
		return nil, fmt.Errorf("category scores: unknown category %q", cat)
	}

	rows, err := s.db.QueryxContext(ctx,
		fmt.Sprintf("SELECT venue_id, %s FROM venue_scores", col))
	if err != nil {
		return nil, fmt.Errorf("category scores %s: %w", cat, err)
	}
	defer rows.Close()

	scores := make(map[string]int)
	for rows.Next() {
		var venueID string
		var score int
		if err := rows.Scan(&venueID, &score); err != nil {
			return nil, fmt.Errorf("scan category score: %w", err)
		}
		scores[venueID] = score
	}
	return scores, rows.Err()
}
