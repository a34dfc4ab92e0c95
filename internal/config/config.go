package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Scores   ScoresConfig   `yaml:"scores"`
	Hotness  HotnessConfig  `yaml:"hotness"`
	Feeds    []FeedConfig   `yaml:"feeds"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures feed ingest and score refresh intervals.
type ScheduleConfig struct {
	IngestInterval  string `yaml:"ingest_interval"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// ParseIngestInterval returns the ingest interval as time.Duration.
func (s ScheduleConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(s.IngestInterval)
	if err != nil {
		return 1 * time.Hour
	}
	return d
}

// ParseRefreshInterval returns the refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ScoresConfig tunes the score cache.
type ScoresConfig struct {
	StalenessWindow string         `yaml:"staleness_window"`
	Thresholds      map[string]int `yaml:"thresholds"`
}

// ParseStalenessWindow returns the staleness window as time.Duration.
func (s ScoresConfig) ParseStalenessWindow() time.Duration {
	d, err := time.ParseDuration(s.StalenessWindow)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// HotnessConfig tunes the proximity ranking defaults.
type HotnessConfig struct {
	Limit         int     `yaml:"limit"`
	MaxDistanceKm float64 `yaml:"max_distance_km"`
}

// FeedConfig binds a venue to its published event calendar feed.
type FeedConfig struct {
	VenueID string `yaml:"venue_id"`
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
}

// AlertsConfig configures refresh failure alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./venuerank.db"},
		Schedule: ScheduleConfig{
			IngestInterval:  "1h",
			RefreshInterval: "6h",
		},
		Scores: ScoresConfig{
			StalenessWindow: "24h",
			Thresholds: map[string]int{
				"trending":         25,
				"luxury":           40,
				"student_friendly": 40,
				"big_groups":       35,
				"date_night":       30,
				"live_music":       25,
			},
		},
		Hotness: HotnessConfig{
			Limit:         100,
			MaxDistanceKm: 10,
		},
		Alerts: AlertsConfig{},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
// Credentials are only ever sourced here or from the config file, never
// embedded in code.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VENUERANK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("VENUERANK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("ALERT_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}
