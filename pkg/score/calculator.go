package score

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/plinkoapp/venuerank/pkg/venue"
)

// ErrUnknownCategory is returned when a category name is outside the
// fixed set. It is surfaced to the caller and never retried.
var ErrUnknownCategory = errors.New("unknown category")

// RecencyWindow bounds which events and reviews count toward the
// trending score.
const RecencyWindow = 7 * 24 * time.Hour

// scorers is the closed dispatch table from category to scoring
// function. It is initialized once and never mutated.
var scorers = map[venue.Category]func(*venue.Venue, time.Time) float64{
	venue.CategoryTrending:        trendingScore,
	venue.CategoryLuxury:          luxuryScore,
	venue.CategoryStudentFriendly: studentFriendlyScore,
	venue.CategoryBigGroups:       bigGroupsScore,
	venue.CategoryDateNight:       dateNightScore,
	venue.CategoryLiveMusic:       liveMusicScore,
}

// Calculate returns how well a venue fits a category, in [0, 100].
// A nil venue scores 0 without error; an unknown category is an error.
func Calculate(v *venue.Venue, cat venue.Category) (int, error) {
	return calculateAt(v, cat, time.Now())
}

func calculateAt(v *venue.Venue, cat venue.Category, now time.Time) (int, error) {
	if v == nil {
		return 0, nil
	}

	fn, ok := scorers[cat]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	s := int(math.Round(fn(v, now)))
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s, nil
}

// AllScores computes every category score for one venue. Every sub-term
// is a pure function of the venue record, so recomputing an unchanged
// venue always reproduces the same scores.
func AllScores(v *venue.Venue) map[venue.Category]int {
	return allScoresAt(v, time.Now())
}

func allScoresAt(v *venue.Venue, now time.Time) map[venue.Category]int {
	scores := make(map[venue.Category]int, len(scorers))
	for _, cat := range venue.AllCategories() {
		s, _ := calculateAt(v, cat, now)
		scores[cat] = s
	}
	return scores
}

func trendingScore(v *venue.Venue, now time.Time) float64 {
	weekAgo := now.Add(-RecencyWindow)

	recentEvents := 0
	for _, e := range v.Events {
		if !e.Date.Before(weekAgo) {
			recentEvents++
		}
	}

	recentReviews := 0
	for _, d := range v.ReviewDates {
		if !d.Before(weekAgo) {
			recentReviews++
		}
	}

	score := (v.Rating / 5) * 30
	score += capped(float64(recentEvents)*10, 30)
	score += capped(float64(v.Followers)/100*20, 20)
	score += capped(float64(recentReviews)*5, 20)
	return score
}

var luxuryFeatures = featureSet(
	"VIP Tables", "Bottle Service", "Valet Parking", "Private Events",
)

func luxuryScore(v *venue.Venue, _ time.Time) float64 {
	var score float64

	switch v.PriceTier {
	case 4:
		score += 30
	case 3:
		score += 20
	default:
		score += 10
	}

	dressCode := v.DressCode
	if dressCode == "" {
		dressCode = "Casual"
	}
	switch dressCode {
	case "Formal":
		score += 25
	case "Smart":
		score += 20
	case "Smart Casual":
		score += 15
	case "Casual":
		score += 5
	}

	score += (v.Rating / 5) * 25
	score += capped(float64(matchCount(v.Features, luxuryFeatures))*5, 20)
	return score
}

var studentGenres = featureSet("Pop", "Hip-Hop", "EDM", "House")

var studentFeatures = featureSet(
	"Student Discount", "Happy Hour", "Dance Floor", "Games",
)

func studentFriendlyScore(v *venue.Venue, _ time.Time) float64 {
	var score float64

	// Tier 0 means unknown; assume the most expensive tier.
	tier := v.PriceTier
	if tier == 0 {
		tier = 4
	}
	switch {
	case tier <= 2:
		score += 35
	case tier <= 3:
		score += 25
	default:
		score += 10
	}

	// Age 0 means unknown; assume the common 21+ door policy.
	minAge := v.MinAge
	if minAge == 0 {
		minAge = 21
	}
	switch {
	case minAge <= 18:
		score += 25
	case minAge <= 21:
		score += 20
	default:
		score += 10
	}

	score += float64(genreMatches(v.Genres, studentGenres)) / float64(len(studentGenres)) * 20
	score += capped(float64(matchCount(v.Features, studentFeatures))*5, 20)
	return score
}

var groupFeatures = featureSet(
	"Group Packages", "Private Areas", "Group Discounts", "Birthday Specials",
)

func bigGroupsScore(v *venue.Venue, _ time.Time) float64 {
	var score float64

	switch {
	case v.Capacity >= 300:
		score += 30
	case v.Capacity >= 200:
		score += 25
	case v.Capacity >= 100:
		score += 15
	default:
		score += 5
	}

	largeTables := 0
	for _, t := range v.Tables {
		if t.Capacity >= 6 {
			largeTables++
		}
	}
	score += capped(float64(largeTables)*5, 30)

	score += capped(float64(matchCount(v.Features, groupFeatures))*10, 40)
	return score
}

var dateGenres = featureSet("Jazz", "Lounge", "R&B")

var dateFeatures = featureSet(
	"Intimate Seating", "Mood Lighting", "Cocktail Menu", "Quiet Areas",
)

func dateNightScore(v *venue.Venue, _ time.Time) float64 {
	score := capped(float64(matchCount(v.Features, dateFeatures))*10, 40)
	score += float64(genreMatches(v.Genres, dateGenres)) / float64(len(dateGenres)) * 30
	score += (v.Rating / 5) * 30
	return score
}

var musicFeatures = featureSet(
	"Live Band", "Stage", "Sound System", "Dance Floor", "Music Events",
)

func liveMusicScore(v *venue.Venue, _ time.Time) float64 {
	score := capped(float64(matchCount(v.Features, musicFeatures))*10, 50)

	musicEvents := 0
	for _, e := range v.Events {
		if e.Type == "Live Music" {
			musicEvents++
		}
	}
	score += capped(float64(musicEvents)*5, 30)

	score += (v.Rating / 5) * 20
	return score
}

func featureSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// matchCount counts tag occurrences that belong to set.
func matchCount(tags []string, set map[string]bool) int {
	n := 0
	for _, t := range tags {
		if set[t] {
			n++
		}
	}
	return n
}

// genreMatches counts distinct genres present in set.
func genreMatches(genres []string, set map[string]bool) int {
	seen := make(map[string]bool, len(genres))
	n := 0
	for _, g := range genres {
		if set[g] && !seen[g] {
			seen[g] = true
			n++
		}
	}
	return n
}

func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
