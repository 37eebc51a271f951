package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/stock"
)

// LedgerReader aggregates the transaction ledger for one vendeur.
// Windowed reads use the half-open [start, end) range; debt reads are
// cumulative up to the given instant.
type LedgerReader interface {
	PurchasedByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]int64, error)
	SoldByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]SoldTotals, error)
	DebtByNetwork(ctx context.Context, vendeurID int64, asOf time.Time) (map[stock.Network]decimal.Decimal, error)
	OutstandingDebt(ctx context.Context, vendeurID int64, asOf time.Time) (decimal.Decimal, error)
}

// AccountReader exposes the live stock accounts, total over the closed
// network set.
type AccountReader interface {
	Accounts(ctx context.Context, vendeurID int64) (map[stock.Network]stock.Account, error)
}

// HistoryReader looks up already persisted report rows.
type HistoryReader interface {
	FinalBalances(ctx context.Context, vendeurID int64, day Date) (map[stock.Network]int64, error)
}

// Computed is the result of one report calculation. Rows are total over
// the network set and ordered as stock.AllNetworks.
type Computed struct {
	VendeurID       int64
	Date            Date
	Rows            []NetworkRow
	TotalSalesValue decimal.Decimal
	TotalDebt       decimal.Decimal
}

// Overall folds the per-network rows into the aggregate report row.
// TotalDebts comes from the sale-level sum, not the per-network rows,
// so a sale spanning several networks is not counted twice.
func (c Computed) Overall() Overall {
	o := Overall{
		VendeurID:                  c.VendeurID,
		Date:                       c.Date,
		TotalVirtualValue:          decimal.Zero,
		TotalDebts:                 c.TotalDebt,
		TotalSalesFromTransactions: c.TotalSalesValue,
	}
	for _, row := range c.Rows {
		o.TotalInitialStock += row.InitialStock
		o.TotalPurchasedStock += row.Purchased
		o.TotalSoldStock += row.SoldQuantity
		o.TotalFinalStock += row.FinalStock
		o.TotalVirtualValue = o.TotalVirtualValue.Add(row.VirtualValue)
	}
	o.TotalCapitalCirculant = o.TotalVirtualValue
	return o
}

// Calculator derives a day's report from the ledger, the previous day's
// report and, for the live day only, the current account balances.
type Calculator struct {
	ledger   LedgerReader
	accounts AccountReader
	history  HistoryReader
	clock    *Clock
	logger   *slog.Logger
}

// NewCalculator builds Calculator.
func NewCalculator(ledger LedgerReader, accounts AccountReader, history HistoryReader, clock *Clock, logger *slog.Logger) *Calculator {
	return &Calculator{ledger: ledger, accounts: accounts, history: history, clock: clock, logger: logger}
}

// Compute builds the per-network rows for the date. Initial stock comes
// from the previous day's final balance; when that row is absent the
// live balance anchors a back-calculation for the current day, and any
// other date falls back to zero. Every network of the closed set
// appears in the output even with no activity.
func (calc *Calculator) Compute(ctx context.Context, vendeurID int64, day Date) (Computed, error) {
	start, end := calc.clock.Window(day)
	isToday := calc.clock.IsToday(day)

	purchased, err := calc.ledger.PurchasedByNetwork(ctx, vendeurID, start, end)
	if err != nil {
		return Computed{}, fmt.Errorf("report: aggregate purchases: %w", err)
	}
	sold, err := calc.ledger.SoldByNetwork(ctx, vendeurID, start, end)
	if err != nil {
		return Computed{}, fmt.Errorf("report: aggregate sales: %w", err)
	}
	debts, err := calc.ledger.DebtByNetwork(ctx, vendeurID, end)
	if err != nil {
		return Computed{}, fmt.Errorf("report: aggregate network debts: %w", err)
	}
	totalDebt, err := calc.ledger.OutstandingDebt(ctx, vendeurID, end)
	if err != nil {
		return Computed{}, fmt.Errorf("report: aggregate outstanding debt: %w", err)
	}
	previous, err := calc.history.FinalBalances(ctx, vendeurID, day.Prev())
	if err != nil {
		return Computed{}, fmt.Errorf("report: previous day lookup: %w", err)
	}
	accounts, err := calc.accounts.Accounts(ctx, vendeurID)
	if err != nil {
		return Computed{}, fmt.Errorf("report: live accounts: %w", err)
	}

	computed := Computed{
		VendeurID:       vendeurID,
		Date:            day,
		Rows:            make([]NetworkRow, 0, len(stock.AllNetworks())),
		TotalSalesValue: decimal.Zero,
		TotalDebt:       totalDebt,
	}

	for _, network := range stock.AllNetworks() {
		qtyPurchased := purchased[network]
		soldTotals := sold[network]
		account := accounts[network]

		sellingPrice := account.SellingPrice
		if sellingPrice.IsZero() {
			sellingPrice = decimal.NewFromInt(1)
		}

		initial, hasPrevious := previous[network]
		if !hasPrevious {
			if isToday {
				// No report exists yet for the live day, so the current
				// balance anchors the reverse of the forward formula.
				initial = account.Balance + soldTotals.Quantity - qtyPurchased
				if calc.logger != nil {
					calc.logger.Debug("initial stock back-calculated from live balance",
						slog.Int64("vendeur_id", vendeurID),
						slog.String("network", string(network)),
						slog.Int64("initial", initial),
						slog.Int64("balance", account.Balance),
						slog.Int64("sold", soldTotals.Quantity),
						slog.Int64("purchased", qtyPurchased))
				}
			} else {
				// A historical date with no prior report resets to zero.
				// A genuinely missing chain is indistinguishable from a
				// real zero-stock day here.
				initial = 0
			}
		}

		final := initial + qtyPurchased - soldTotals.Quantity
		soldValue := soldTotals.Value
		debt := debts[network]

		computed.Rows = append(computed.Rows, NetworkRow{
			VendeurID:    vendeurID,
			Date:         day,
			Network:      network,
			InitialStock: initial,
			Purchased:    qtyPurchased,
			SoldQuantity: soldTotals.Quantity,
			SoldValue:    soldValue,
			FinalStock:   final,
			VirtualValue: decimal.NewFromInt(final).Mul(sellingPrice),
			DebtAmount:   debt,
		})
		computed.TotalSalesValue = computed.TotalSalesValue.Add(soldValue)
	}

	return computed, nil
}
