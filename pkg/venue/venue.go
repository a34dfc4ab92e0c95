package venue

import (
	"time"
)

// Category identifies one of the curated discovery lists a venue is
// scored against.
type Category string

const (
	CategoryTrending        Category = "trending"
	CategoryLuxury          Category = "luxury"
	CategoryStudentFriendly Category = "student_friendly"
	CategoryBigGroups       Category = "big_groups"
	CategoryDateNight       Category = "date_night"
	CategoryLiveMusic       Category = "live_music"
)

// AllCategories returns all known categories.
func AllCategories() []Category {
	return []Category{
		CategoryTrending,
		CategoryLuxury,
		CategoryStudentFriendly,
		CategoryBigGroups,
		CategoryDateNight,
		CategoryLiveMusic,
	}
}

// Valid reports whether c is one of the six fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTrending, CategoryLuxury, CategoryStudentFriendly,
		CategoryBigGroups, CategoryDateNight, CategoryLiveMusic:
		return true
	}
	return false
}

// Table is a single table descriptor in a venue's floor layout.
type Table struct {
	Name     string `json:"name,omitempty"`
	Capacity int    `json:"capacity"`
}

// Event is an event hosted by a venue.
type Event struct {
	Name string    `json:"name,omitempty"`
	Date time.Time `json:"date"`
	Type string    `json:"type,omitempty"`
}

// Venue is the standardized record every ranking pipeline reads.
//
// Missing data never fails scoring: zero values act as documented
// defaults (rating 0, no features, no events, capacity 0). Two fields
// use a sentinel zero instead: PriceTier 0 means "unknown tier" and
// MinAge 0 means "unknown age"; the calculator substitutes the
// category-appropriate default for those. DressCode "" is read as
// "Casual". ReviewDates is populated from the reviews table at the
// data-access boundary.
type Venue struct {
	ID          string      `json:"id" db:"id"`
	Username    string      `json:"username" db:"username"`
	DisplayName string      `json:"display_name" db:"display_name"`
	Rating      float64     `json:"rating" db:"rating"`
	PriceTier   int         `json:"price_tier" db:"price_tier"`
	DressCode   string      `json:"dress_code" db:"dress_code"`
	Capacity    int         `json:"capacity" db:"capacity"`
	MinAge      int         `json:"min_age" db:"min_age"`
	Followers   int         `json:"followers" db:"followers"`
	Features    []string    `json:"features" db:"-"`
	Genres      []string    `json:"genres" db:"-"`
	Tables      []Table     `json:"tables" db:"-"`
	Events      []Event     `json:"events" db:"-"`
	ReviewDates []time.Time `json:"-" db:"-"`
	Latitude    *float64    `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64    `json:"longitude,omitempty" db:"longitude"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	FeaturesJSON string `json:"-" db:"features"`
	GenresJSON   string `json:"-" db:"genres"`
	TablesJSON   string `json:"-" db:"tables"`
	EventsJSON   string `json:"-" db:"events"`
}

// Coordinate returns the venue's geographic position, if it has one.
func (v *Venue) Coordinate() (Coordinate, bool) {
	if v.Latitude == nil || v.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *v.Latitude, Lon: *v.Longitude}, true
}

// Coordinate is a geographic point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Review is a single user review of a venue.
type Review struct {
	ID        string    `json:"id" db:"id"`
	VenueID   string    `json:"venue_id" db:"venue_id"`
	Reviewer  string    `json:"reviewer" db:"reviewer"`
	Rating    int       `json:"rating" db:"rating"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
