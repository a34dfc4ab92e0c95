package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/plinkoapp/venuerank/pkg/alert"
	"github.com/plinkoapp/venuerank/pkg/ingest"
	"github.com/plinkoapp/venuerank/pkg/score"
)

// Scheduler runs periodic event feed ingest and stale score refresh.
type Scheduler struct {
	manager    *score.Manager
	importer   *ingest.Importer
	alertMgr   *alert.Manager
	ingestInt  time.Duration
	refreshInt time.Duration
}

// New creates a new scheduler. The importer may be nil when no event
// feeds are configured.
func New(
	manager *score.Manager,
	importer *ingest.Importer,
	alertMgr *alert.Manager,
	ingestInt, refreshInt time.Duration,
) *Scheduler {
	if ingestInt == 0 {
		ingestInt = 1 * time.Hour
	}
	if refreshInt == 0 {
		refreshInt = 6 * time.Hour
	}
	return &Scheduler{
		manager:    manager,
		importer:   importer,
		alertMgr:   alertMgr,
		ingestInt:  ingestInt,
		refreshInt: refreshInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.ingestInt)
	refreshTicker := time.NewTicker(s.refreshInt)
	defer ingestTicker.Stop()
	defer refreshTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial feed ingest...")
	s.ingestFeeds(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial score refresh...")
	s.refreshAndAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (ingest every %s, refresh every %s)\n",
		s.ingestInt, s.refreshInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ingestTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: ingesting feeds...")
			s.ingestFeeds(ctx)
		case <-refreshTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: refreshing stale scores...")
			s.refreshAndAlert(ctx)
		}
	}
}

func (s *Scheduler) ingestFeeds(ctx context.Context) {
	if s.importer == nil || !s.importer.HasFeeds() {
		return
	}

	total, err := s.importer.ImportAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  feed ingest error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "  imported %d events\n", total)
}

func (s *Scheduler) refreshAndAlert(ctx context.Context) {
	report, err := s.manager.RefreshStale(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  score refresh error: %v\n", err)
		return
	}

	fmt.Fprintf(os.Stderr, "  refreshed %d venues (%d failed)\n",
		report.Succeeded+report.Failed, report.Failed)

	if report.Failed == 0 || !s.alertMgr.HasNotifiers() {
		return
	}

	notification := &alert.Notification{
		Title:     "score refresh degraded",
		Body:      fmt.Sprintf("%d of %d score upserts failed", report.Failed, report.Succeeded+report.Failed),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Errors:    report.Errors,
		At:        time.Now().UTC(),
	}

	if err := s.alertMgr.Broadcast(ctx, notification); err != nil {
		fmt.Fprintf(os.Stderr, "  alert error: %v\n", err)
	}
}
