// Package hotness ranks venues near a user by a composite of review
// volume, rating, review recency and proximity. It is a standalone
// read-only pipeline and does not touch the persisted score cache.
package hotness

import (
	"math"
	"sort"
	"time"

	"github.com/plinkoapp/venuerank/pkg/venue"
)

const (
	// DefaultLimit caps the ranked result size.
	DefaultLimit = 100
	// DefaultMaxDistanceKm is the proximity cutoff.
	DefaultMaxDistanceKm = 10.0

	earthRadiusKm = 6371.0
)

// Composite weights. Review count is intentionally left unnormalized,
// so heavily reviewed venues dominate the composite.
const (
	weightReviewCount = 0.25
	weightRating      = 0.5
	weightRecency     = 0.1
	weightDistance    = 0.15
)

// Options tunes a ranking request. Zero values take the defaults.
type Options struct {
	Limit         int
	MaxDistanceKm float64
}

// RankedVenue is a venue annotated with its hotness metrics.
type RankedVenue struct {
	venue.Venue
	ReviewCount  int     `json:"review_count"`
	HotnessScore float64 `json:"hotness_score"`
	DistanceKm   float64 `json:"distance_km"`
}

// Rank filters venues to those within reach of the user and orders them
// by hotness, hottest first. A venue without valid coordinates is
// infinitely far away and silently dropped. With no reviews anywhere the
// result degrades to zero-hotness entries in filter order.
func Rank(venues []venue.Venue, reviews []venue.Review, user venue.Coordinate, opts Options) []RankedVenue {
	return rankAt(venues, reviews, user, opts, time.Now())
}

func rankAt(venues []venue.Venue, reviews []venue.Review, user venue.Coordinate, opts Options, now time.Time) []RankedVenue {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	maxDistance := opts.MaxDistanceKm
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistanceKm
	}

	var nearby []RankedVenue
	for _, v := range venues {
		d := math.Inf(1)
		if c, ok := v.Coordinate(); ok {
			d = Distance(user, c)
		}
		if d > maxDistance {
			continue
		}
		nearby = append(nearby, RankedVenue{Venue: v, DistanceKm: d})
	}

	if len(reviews) == 0 {
		if len(nearby) > limit {
			nearby = nearby[:limit]
		}
		return nearby
	}

	counts := make(map[string]int)
	lastReview := make(map[string]time.Time)
	for _, r := range reviews {
		counts[r.VenueID]++
		if r.CreatedAt.After(lastReview[r.VenueID]) {
			lastReview[r.VenueID] = r.CreatedAt
		}
	}

	for i := range nearby {
		v := &nearby[i]
		v.ReviewCount = counts[v.ID]

		last, ok := lastReview[v.ID]
		if !ok {
			last = now
		}
		days := now.Sub(last).Hours() / 24
		recency := 1 / (days + 1)

		distanceScore := 1 - v.DistanceKm/maxDistance

		v.HotnessScore = weightReviewCount*float64(v.ReviewCount) +
			weightRating*v.Rating +
			weightRecency*recency +
			weightDistance*distanceScore
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].HotnessScore > nearby[j].HotnessScore
	})

	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}

// Distance returns the great-circle distance between two points in
// kilometers, using the haversine formula.
func Distance(a, b venue.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}
