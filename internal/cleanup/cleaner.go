package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/compliance-engine/internal/assessment"
)

// Cleaner handles periodic removal of abandoned draft assessments
type Cleaner struct {
	service   assessment.Service
	interval  time.Duration
	retention time.Duration
}

// NewCleaner creates a new cleanup worker. Incomplete assessments untouched
// for longer than retention are deleted.
func NewCleaner(service assessment.Service, interval, retention time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &Cleaner{
		service:   service,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "retention", c.retention)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one cycle and returns the number of assessments removed
func (c *Cleaner) Cleanup(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	stale, err := c.service.GetStale(ctx, c.retention)
	if err != nil {
		slog.Error("failed to get stale assessments", "error", err)
		return 0
	}

	if len(stale) == 0 {
		slog.Debug("no stale assessments found")
		return 0
	}

	slog.Info("found stale assessments", "count", len(stale))

	removed := 0
	for _, a := range stale {
		slog.Info("deleting stale assessment",
			"id", a.ID,
			"framework", a.FrameworkID,
			"organization", a.OrganizationInfo.Name,
			"last_modified", a.LastModified,
		)

		if err := c.service.Delete(ctx, a.ID); err != nil {
			slog.Error("failed to delete stale assessment",
				"error", err,
				"id", a.ID,
			)
			continue
		}

		removed++
	}

	slog.Info("cleanup cycle finished", "removed", removed)
	return removed
}
