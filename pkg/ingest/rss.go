// Package ingest imports venue event calendars published as RSS/Atom
// feeds and writes the parsed event descriptors onto the venue records,
// where they feed the trending and live_music scores.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

// maxEventAge drops calendar entries that ended long ago; past the
// trending window they contribute nothing to any score.
const maxEventAge = 30 * 24 * time.Hour

// Feed binds a venue to its published event calendar.
type Feed struct {
	VenueID string
	Name    string
	URL     string
}

// Importer fetches configured event feeds and stores their events.
type Importer struct {
	client *http.Client
	parser *gofeed.Parser
	store  store.Store
	feeds  []Feed
}

// NewImporter creates an event feed importer.
func NewImporter(s store.Store, feeds []Feed) *Importer {
	return &Importer{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		store:  s,
		feeds:  feeds,
	}
}

// HasFeeds returns true if at least one feed is configured.
func (im *Importer) HasFeeds() bool {
	return len(im.feeds) > 0
}

// ImportAll fetches every configured feed and replaces each venue's
// event list with the parsed calendar. A failing feed is logged and
// skipped; it never aborts the rest. Returns the total events imported.
func (im *Importer) ImportAll(ctx context.Context) (int, error) {
	total := 0
	for _, feed := range im.feeds {
		events, err := im.importFeed(ctx, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  feed %s error: %v\n", feed.Name, err)
			continue
		}

		if err := im.store.SetVenueEvents(ctx, feed.VenueID, events); err != nil {
			fmt.Fprintf(os.Stderr, "  feed %s store error: %v\n", feed.Name, err)
			continue
		}
		total += len(events)
	}
	return total, nil
}

func (im *Importer) importFeed(ctx context.Context, feed Feed) ([]venue.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "venuerank/1.0")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", feed.Name, resp.StatusCode)
	}

	return im.parseEvents(resp.Body, time.Now())
}

// parseEvents maps feed entries onto event descriptors. Undated entries
// are skipped; entry categories become the event type.
func (im *Importer) parseEvents(r io.Reader, now time.Time) ([]venue.Event, error) {
	parsed, err := im.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cutoff := now.Add(-maxEventAge)

	var events []venue.Event
	for _, entry := range parsed.Items {
		var date time.Time
		if entry.PublishedParsed != nil {
			date = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			date = entry.UpdatedParsed.UTC()
		} else {
			continue
		}

		if date.Before(cutoff) {
			continue
		}

		eventType := ""
		if len(entry.Categories) > 0 {
			eventType = entry.Categories[0]
		}

		events = append(events, venue.Event{
			Name: entry.Title,
			Date: date,
			Type: eventType,
		})
	}

	return events, nil
}
