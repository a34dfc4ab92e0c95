package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./venuerank.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Hotness.Limit)
	assert.Equal(t, 10.0, cfg.Hotness.MaxDistanceKm)
	assert.Equal(t, 24*time.Hour, cfg.Scores.ParseStalenessWindow())
	assert.Equal(t, 1*time.Hour, cfg.Schedule.ParseIngestInterval())
	assert.Equal(t, 6*time.Hour, cfg.Schedule.ParseRefreshInterval())

	assert.Equal(t, map[string]int{
		"trending":         25,
		"luxury":           40,
		"student_friendly": 40,
		"big_groups":       35,
		"date_night":       30,
		"live_music":       25,
	}, cfg.Scores.Thresholds)
}

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Database.Path, cfg.Database.Path)
}

func TestLoadNonexistentFileErrors(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /var/lib/venuerank/clubs.db
schedule:
  refresh_interval: 2h
scores:
  staleness_window: 12h
  thresholds:
    luxury: 50
hotness:
  max_distance_km: 25
feeds:
  - venue_id: club-1
    name: Velvet Room Calendar
    url: https://velvetroom.example/events.rss
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/venuerank/clubs.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.ParseRefreshInterval())
	assert.Equal(t, 12*time.Hour, cfg.Scores.ParseStalenessWindow())
	assert.Equal(t, 50, cfg.Scores.Thresholds["luxury"])
	assert.Equal(t, 25.0, cfg.Hotness.MaxDistanceKm)
	assert.Equal(t, 9090, cfg.Server.Port)

	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "club-1", cfg.Feeds[0].VenueID)
	assert.Equal(t, "https://velvetroom.example/events.rss", cfg.Feeds[0].URL)

	// Intervals not set in the file keep their defaults.
	assert.Equal(t, 1*time.Hour, cfg.Schedule.ParseIngestInterval())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VENUERANK_DB_PATH", "/tmp/override.db")
	t.Setenv("VENUERANK_PORT", "7070")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T123")
	t.Setenv("ALERT_WEBHOOK_URL", "https://alerts.example/hook")
	t.Setenv("ALERT_WEBHOOK_SECRET", "s3cr3t")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, "https://hooks.slack.example/T123", cfg.Alerts.Slack.WebhookURL)
	assert.True(t, cfg.Alerts.Webhook.Enabled)
	assert.Equal(t, "s3cr3t", cfg.Alerts.Webhook.Secret)
}

func TestParseDurationsFallBackOnGarbage(t *testing.T) {
	s := ScheduleConfig{IngestInterval: "often", RefreshInterval: ""}
	assert.Equal(t, 1*time.Hour, s.ParseIngestInterval())
	assert.Equal(t, 6*time.Hour, s.ParseRefreshInterval())

	sc := ScoresConfig{StalenessWindow: "daily"}
	assert.Equal(t, 24*time.Hour, sc.ParseStalenessWindow())
}
