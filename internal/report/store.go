package report

import (
	"context"
	"fmt"
	"log/slog"
)

// StoreRepository persists report rows and serves history lookups.
type StoreRepository interface {
	HistoryReader
	WithTx(ctx context.Context, fn func(context.Context, ReportTx) error) error
	NetworkRows(ctx context.Context, vendeurID int64, day Date) ([]NetworkRow, error)
	OverallRow(ctx context.Context, vendeurID int64, day Date) (Overall, error)
}

// ReportTx exposes the transactional writes of one persistence run.
// Upserts overwrite every field; reruns for a date are idempotent and
// authoritative.
type ReportTx interface {
	UpsertNetworkRow(ctx context.Context, row NetworkRow) error
	UpsertOverall(ctx context.Context, overall Overall) error
}

// Store turns a computed report into persisted rows.
type Store struct {
	calc   *Calculator
	repo   StoreRepository
	logger *slog.Logger
}

// NewStore builds Store.
func NewStore(calc *Calculator, repo StoreRepository, logger *slog.Logger) *Store {
	return &Store{calc: calc, repo: repo, logger: logger}
}

// Persist computes the report for the date and upserts every network
// row plus the overall row in a single transaction. A failure rolls the
// whole date back; rerunning is safe. Callers serialize runs per date.
func (s *Store) Persist(ctx context.Context, vendeurID int64, day Date) (Computed, error) {
	computed, err := s.calc.Compute(ctx, vendeurID, day)
	if err != nil {
		return Computed{}, err
	}
	overall := computed.Overall()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ReportTx) error {
		for _, row := range computed.Rows {
			if err := tx.UpsertNetworkRow(ctx, row); err != nil {
				return fmt.Errorf("report: upsert %s row: %w", row.Network, err)
			}
		}
		if err := tx.UpsertOverall(ctx, overall); err != nil {
			return fmt.Errorf("report: upsert overall row: %w", err)
		}
		return nil
	})
	if err != nil {
		return Computed{}, err
	}

	if s.logger != nil {
		s.logger.Info("daily reports persisted",
			slog.Int64("vendeur_id", vendeurID),
			slog.String("date", day.String()))
	}
	s.verify(computed, overall)
	return computed, nil
}

// verify recomputes the sold stock from the balance movement and
// compares it to the ledgered sale quantities. A mismatch signals an
// upstream data-entry gap, e.g. a sale recorded without line items; it
// is logged and never reverts the already committed rows.
func (s *Store) verify(computed Computed, overall Overall) {
	if s.logger == nil {
		return
	}
	var fromBalances int64
	for _, row := range computed.Rows {
		fromBalances += row.InitialStock + row.Purchased - row.FinalStock
	}
	if fromBalances != overall.TotalSoldStock {
		s.logger.Warn("sales verification discrepancy",
			slog.Int64("vendeur_id", computed.VendeurID),
			slog.String("date", computed.Date.String()),
			slog.Int64("calculated_sold", fromBalances),
			slog.Int64("ledgered_sold", overall.TotalSoldStock))
		return
	}
	s.logger.Info("sales verification passed",
		slog.Int64("vendeur_id", computed.VendeurID),
		slog.String("date", computed.Date.String()))
}

// History returns the persisted rows for a date.
func (s *Store) History(ctx context.Context, vendeurID int64, day Date) ([]NetworkRow, Overall, error) {
	rows, err := s.repo.NetworkRows(ctx, vendeurID, day)
	if err != nil {
		return nil, Overall{}, err
	}
	overall, err := s.repo.OverallRow(ctx, vendeurID, day)
	if err != nil {
		return nil, Overall{}, err
	}
	return rows, overall, nil
}
