package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/plinkoapp/venuerank/internal/config"
	"github.com/plinkoapp/venuerank/internal/scheduler"
	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/alert"
	"github.com/plinkoapp/venuerank/pkg/hotness"
	"github.com/plinkoapp/venuerank/pkg/ingest"
	"github.com/plinkoapp/venuerank/pkg/score"
	"github.com/plinkoapp/venuerank/pkg/server"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildManager(cfg *config.Config, db store.Store) *score.Manager {
	var thresholds map[venue.Category]int
	if len(cfg.Scores.Thresholds) > 0 {
		thresholds = score.DefaultThresholds()
		for name, min := range cfg.Scores.Thresholds {
			cat := venue.Category(name)
			if cat.Valid() {
				thresholds[cat] = min
			}
		}
	}
	return score.NewManager(db, thresholds, cfg.Scores.ParseStalenessWindow())
}

func buildImporter(cfg *config.Config, db store.Store) *ingest.Importer {
	feeds := make([]ingest.Feed, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		feeds[i] = ingest.Feed{VenueID: f.VenueID, Name: f.Name, URL: f.URL}
	}
	return ingest.NewImporter(db, feeds)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func hotOptions(cfg *config.Config) hotness.Options {
	return hotness.Options{
		Limit:         cfg.Hotness.Limit,
		MaxDistanceKm: cfg.Hotness.MaxDistanceKm,
	}
}

func runRefresh(venueID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	manager := buildManager(cfg, db)
	ctx := context.Background()

	if venueID != "" {
		if err := manager.RefreshOne(ctx, venueID); err != nil {
			return fmt.Errorf("refresh venue: %w", err)
		}
		fmt.Fprintf(os.Stderr, "refreshed venue %s\n", venueID)
		return nil
	}

	report, err := manager.RefreshStale(ctx)
	if err != nil {
		return fmt.Errorf("refresh stale: %w", err)
	}

	fmt.Fprintf(os.Stderr, "refreshed %d venues (%d failed)\n",
		report.Succeeded+report.Failed, report.Failed)
	return nil
}

func runRankings(category string, page, pageSize int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	manager := buildManager(cfg, db)
	ranked, err := manager.ListByCategory(context.Background(), venue.Category(category), page, pageSize)
	if err != nil {
		return fmt.Errorf("list rankings: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if len(ranked) == 0 {
		fmt.Println("no venues meet the threshold (try refreshing scores first: venuerank refresh)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tVENUE\tRATING\tCAPACITY")
	for _, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%d\n", r.Score, r.DisplayName, r.Rating, r.Capacity)
	}
	return w.Flush()
}

func runHottest(lat, lon float64, limit int, maxDistance float64, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	venues, err := db.ListVenues(ctx)
	if err != nil {
		return fmt.Errorf("list venues: %w", err)
	}
	reviews, err := db.ListReviews(ctx)
	if err != nil {
		return fmt.Errorf("list reviews: %w", err)
	}

	opts := hotOptions(cfg)
	if limit > 0 {
		opts.Limit = limit
	}
	if maxDistance > 0 {
		opts.MaxDistanceKm = maxDistance
	}

	ranked := hotness.Rank(venues, reviews, venue.Coordinate{Lat: lat, Lon: lon}, opts)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if len(ranked) == 0 {
		fmt.Println("no venues within range")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOTNESS\tVENUE\tRATING\tREVIEWS\tDISTANCE")
	for _, r := range ranked {
		fmt.Fprintf(w, "%.2f\t%s\t%.1f\t%d\t%.1fkm\n",
			r.HotnessScore, r.DisplayName, r.Rating, r.ReviewCount, r.DistanceKm)
	}
	return w.Flush()
}

func runIngest() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("no event feeds configured")
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	importer := buildImporter(cfg, db)
	total, err := importer.ImportAll(context.Background())
	if err != nil {
		return fmt.Errorf("import feeds: %w", err)
	}

	fmt.Fprintf(os.Stderr, "imported %d events from %d feeds\n", total, len(cfg.Feeds))
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	manager := buildManager(cfg, db)
	srv := server.New(db, manager, hotOptions(cfg), port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	manager := buildManager(cfg, db)
	importer := buildImporter(cfg, db)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(manager, importer, alertMgr,
		cfg.Schedule.ParseIngestInterval(),
		cfg.Schedule.ParseRefreshInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(db, manager, hotOptions(cfg), port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
