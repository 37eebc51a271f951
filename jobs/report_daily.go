package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/faida-app/faida/internal/report"
)

// VendeurSource lists the vendeurs covered by an all-tenant run.
type VendeurSource interface {
	VendeurIDs(ctx context.Context) ([]int64, error)
}

// ReportDailyJob persists daily reports when triggered by cron or a
// manual enqueue. Runs for the same date must not overlap; the
// scheduler enqueues once per day and retries replace, not parallel,
// the failed run.
type ReportDailyJob struct {
	store    *report.Store
	vendeurs VendeurSource
	clock    *report.Clock
	logger   *slog.Logger
}

// NewReportDailyJob constructs the job.
func NewReportDailyJob(store *report.Store, vendeurs VendeurSource, clock *report.Clock, logger *slog.Logger) *ReportDailyJob {
	return &ReportDailyJob{store: store, vendeurs: vendeurs, clock: clock, logger: logger}
}

// Handle processes TaskReportDaily tasks.
func (j *ReportDailyJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReportDailyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.clock.Yesterday()
	if payload.Date != "" {
		parsed, err := report.ParseDate(payload.Date)
		if err != nil {
			if j.logger != nil {
				j.logger.Error("report daily: bad date in payload", slog.String("date", payload.Date))
			}
			return asynq.SkipRetry
		}
		day = parsed
	}

	ids := []int64{payload.VendeurID}
	if payload.VendeurID == 0 {
		var err error
		ids, err = j.vendeurs.VendeurIDs(ctx)
		if err != nil {
			return fmt.Errorf("jobs: list vendeurs: %w", err)
		}
	}

	var failed int
	for _, vendeurID := range ids {
		if _, err := j.store.Persist(ctx, vendeurID, day); err != nil {
			failed++
			if j.logger != nil {
				j.logger.Error("report daily: persist failed",
					slog.Int64("vendeur_id", vendeurID),
					slog.String("date", day.String()),
					slog.Any("error", err))
			}
		}
	}
	if failed > 0 {
		// Rerunning is idempotent, so the whole task retries.
		return fmt.Errorf("jobs: report daily: %d of %d vendeurs failed for %s", failed, len(ids), day)
	}

	if j.logger != nil {
		j.logger.Info("report daily: complete",
			slog.String("date", day.String()),
			slog.Int("vendeurs", len(ids)))
	}
	return nil
}
