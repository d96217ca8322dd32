package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/venuedesk/venuedesk/internal/jobs"
)

// KeyCleaner deletes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges expired submission keys.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	removed, err := j.Keys.Cleanup(ctx, payload.Retention())
	if err != nil {
		return tracker.End(fmt.Errorf("cleanup idempotency keys: %w", err))
	}
	if j.Logger != nil {
		j.Logger.Info("idempotency keys purged", slog.Int64("removed", removed), slog.Duration("retention", payload.Retention()))
	}
	return tracker.End(nil)
}
