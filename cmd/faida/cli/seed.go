package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faida-app/faida/internal/report"
)

// SeedCLI bootstraps a vendeur's opening stock from a seed file.
type SeedCLI struct {
	seeder *report.Seeder
	clock  *report.Clock
	logger *slog.Logger
}

// NewSeedCLI wires the seed helpers.
func NewSeedCLI(seeder *report.Seeder, clock *report.Clock, logger *slog.Logger) *SeedCLI {
	return &SeedCLI{seeder: seeder, clock: clock, logger: logger}
}

// Run loads the seed file and writes opening balances plus the day-zero
// report for the vendeur. An empty date seeds as of the previous local
// day so the first scheduled run chains from it.
func (c *SeedCLI) Run(ctx context.Context, vendeurID int64, path, date string) error {
	if c == nil || c.seeder == nil {
		return errors.New("seed cli: seeder not configured")
	}
	if vendeurID <= 0 {
		return errors.New("seed cli: vendeur id required")
	}

	data, err := report.LoadSeedFile(path)
	if err != nil {
		return err
	}

	day := c.clock.Yesterday()
	if date != "" {
		parsed, err := report.ParseDate(date)
		if err != nil {
			return fmt.Errorf("seed cli: %w", err)
		}
		day = parsed
	}

	if err := c.seeder.Seed(ctx, vendeurID, day, data); err != nil {
		return err
	}
	c.logger.Info("seed complete",
		slog.Int64("vendeur_id", vendeurID),
		slog.String("date", day.String()),
		slog.Int("networks", len(data.Balances)))
	return nil
}
