package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Expirer marks overdue sessions expired and returns them
type Expirer interface {
	ExpireSessions(ctx context.Context, now time.Time) ([]*models.InterviewSession, error)
}

// Cleaner periodically expires interview sessions whose TTL has elapsed
type Cleaner struct {
	store    Expirer
	interval time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store Expirer, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run is the main loop for the cleanup worker. It returns when ctx is done.
func (c *Cleaner) Run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup expires overdue sessions and returns how many were expired
func (c *Cleaner) cleanup(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	expired, err := c.store.ExpireSessions(ctx, c.now())
	if err != nil {
		slog.Error("failed to expire sessions", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("no expired sessions found")
		return 0
	}

	for _, s := range expired {
		slog.Info("session expired",
			"id", s.ID,
			"interview_id", s.InterviewID,
			"association_id", s.AssociationID,
			"expired_at", s.ExpiresAt,
		)
	}

	slog.Info("expired sessions", "count", len(expired))
	return len(expired)
}
