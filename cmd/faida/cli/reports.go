package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faida-app/faida/internal/report"
)

// ReportsCLI runs report persistence from the command line, bypassing
// the queue. Useful for backfills and for environments without Redis.
type ReportsCLI struct {
	store    *report.Store
	vendeurs VendeurSource
	clock    *report.Clock
	logger   *slog.Logger
}

// VendeurSource lists the vendeurs an all-tenant run covers.
type VendeurSource interface {
	VendeurIDs(ctx context.Context) ([]int64, error)
}

// NewReportsCLI wires the CLI helpers.
func NewReportsCLI(store *report.Store, vendeurs VendeurSource, clock *report.Clock, logger *slog.Logger) *ReportsCLI {
	return &ReportsCLI{store: store, vendeurs: vendeurs, clock: clock, logger: logger}
}

// Generate persists the report for the given date, for one vendeur or
// all of them. An empty date means the previous local day; vendeurID
// zero means every vendeur.
func (c *ReportsCLI) Generate(ctx context.Context, vendeurID int64, date string) error {
	if c == nil || c.store == nil {
		return errors.New("reports cli: store not configured")
	}

	day := c.clock.Yesterday()
	if date != "" {
		parsed, err := report.ParseDate(date)
		if err != nil {
			return fmt.Errorf("reports cli: %w", err)
		}
		day = parsed
	}

	ids := []int64{vendeurID}
	if vendeurID == 0 {
		var err error
		ids, err = c.vendeurs.VendeurIDs(ctx)
		if err != nil {
			return fmt.Errorf("reports cli: list vendeurs: %w", err)
		}
	}

	for _, id := range ids {
		computed, err := c.store.Persist(ctx, id, day)
		if err != nil {
			return fmt.Errorf("reports cli: vendeur %d: %w", id, err)
		}
		c.logger.Info("report generated",
			slog.Int64("vendeur_id", id),
			slog.String("date", day.String()),
			slog.Int("networks", len(computed.Rows)))
	}
	return nil
}
