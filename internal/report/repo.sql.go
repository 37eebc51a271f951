package report

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/platform/db"
	"github.com/faida-app/faida/internal/stock"
)

// Repository reads the ledger aggregates and persists report rows in
// PostgreSQL. Monetary numerics travel as text and are parsed exactly
// once on read.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type reportTx struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, ReportTx) error) error {
	return r.withTx(ctx, func(ctx context.Context, tx *reportTx) error {
		return fn(ctx, tx)
	})
}

// WithSeedTx is WithTx with the account upsert available to the seeder.
func (r *Repository) WithSeedTx(ctx context.Context, fn func(context.Context, SeedTx) error) error {
	return r.withTx(ctx, func(ctx context.Context, tx *reportTx) error {
		return fn(ctx, tx)
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(context.Context, *reportTx) error) error {
	if r == nil {
		return errors.New("report repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &reportTx{tx: tx})
	})
}

// PurchasedByNetwork sums purchased quantities inside [start, end).
func (r *Repository) PurchasedByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT network, COALESCE(SUM(quantity), 0)
FROM stock_purchases
WHERE vendeur_id=$1 AND created_at >= $2 AND created_at < $3
GROUP BY network`, vendeurID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[stock.Network]int64{}
	for rows.Next() {
		var network stock.Network
		var qty int64
		if err := rows.Scan(&network, &qty); err != nil {
			return nil, err
		}
		out[network] = qty
	}
	return out, rows.Err()
}

// SoldByNetwork sums line quantities and rounded subtotals for line
// items whose parent sale falls inside [start, end).
func (r *Repository) SoldByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]SoldTotals, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.network, COALESCE(SUM(i.quantity), 0), COALESCE(SUM(i.subtotal), 0)::text
FROM sale_items i
JOIN sales s ON s.id = i.sale_id
WHERE s.vendeur_id=$1 AND s.created_at >= $2 AND s.created_at < $3
GROUP BY i.network`, vendeurID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[stock.Network]SoldTotals{}
	for rows.Next() {
		var network stock.Network
		var qty int64
		var value string
		if err := rows.Scan(&network, &qty, &value); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, err
		}
		out[network] = SoldTotals{Quantity: qty, Value: parsed}
	}
	return out, rows.Err()
}

// DebtByNetwork sums the outstanding debt of sales created up to asOf,
// per network the sale touches. A sale counts once per network even
// when it holds several lines of that network.
func (r *Repository) DebtByNetwork(ctx context.Context, vendeurID int64, asOf time.Time) (map[stock.Network]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.network, COALESCE(SUM(s.debt_amount), 0)::text
FROM sales s
JOIN (SELECT DISTINCT sale_id, network FROM sale_items) i ON i.sale_id = s.id
WHERE s.vendeur_id=$1 AND s.debt_amount > 0 AND s.created_at <= $2
GROUP BY i.network`, vendeurID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[stock.Network]decimal.Decimal{}
	for rows.Next() {
		var network stock.Network
		var value string
		if err := rows.Scan(&network, &value); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, err
		}
		out[network] = parsed
	}
	return out, rows.Err()
}

// OutstandingDebt sums the debt of all sales created up to asOf, at the
// sale level so multi-network sales count once.
func (r *Repository) OutstandingDebt(ctx context.Context, vendeurID int64, asOf time.Time) (decimal.Decimal, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(debt_amount), 0)::text
FROM sales
WHERE vendeur_id=$1 AND debt_amount > 0 AND created_at <= $2`, vendeurID, asOf).Scan(&value)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(value)
}

// FinalBalances returns the persisted final stock per network for a
// date. An absent day yields an empty map, not an error.
func (r *Repository) FinalBalances(ctx context.Context, vendeurID int64, day Date) (map[stock.Network]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT network, final_stock_balance
FROM daily_network_reports
WHERE vendeur_id=$1 AND report_date=$2`, vendeurID, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[stock.Network]int64{}
	for rows.Next() {
		var network stock.Network
		var balance int64
		if err := rows.Scan(&network, &balance); err != nil {
			return nil, err
		}
		out[network] = balance
	}
	return out, rows.Err()
}

// NetworkRows returns the persisted per-network rows for a date.
func (r *Repository) NetworkRows(ctx context.Context, vendeurID int64, day Date) ([]NetworkRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT vendeur_id, report_date::text, network, initial_stock_balance, purchased_stock_amount, sold_stock_amount, sold_stock_value::text, final_stock_balance, virtual_value::text, debt_amount::text
FROM daily_network_reports
WHERE vendeur_id=$1 AND report_date=$2
ORDER BY network`, vendeurID, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []NetworkRow{}
	for rows.Next() {
		var row NetworkRow
		var date, soldValue, virtual, debt string
		if err := rows.Scan(&row.VendeurID, &date, &row.Network, &row.InitialStock, &row.Purchased, &row.SoldQuantity, &soldValue, &row.FinalStock, &virtual, &debt); err != nil {
			return nil, err
		}
		if row.Date, err = ParseDate(date); err != nil {
			return nil, err
		}
		if row.SoldValue, err = decimal.NewFromString(soldValue); err != nil {
			return nil, err
		}
		if row.VirtualValue, err = decimal.NewFromString(virtual); err != nil {
			return nil, err
		}
		if row.DebtAmount, err = decimal.NewFromString(debt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// OverallRow returns the persisted aggregate row for a date.
func (r *Repository) OverallRow(ctx context.Context, vendeurID int64, day Date) (Overall, error) {
	var o Overall
	var date, virtual, debts, sales, capital string
	err := r.pool.QueryRow(ctx, `SELECT vendeur_id, report_date::text, total_initial_stock, total_purchased_stock, total_sold_stock, total_final_stock, total_virtual_value::text, total_debts::text, total_sales_from_transactions::text, total_capital_circulant::text
FROM daily_overall_reports
WHERE vendeur_id=$1 AND report_date=$2`, vendeurID, day.String()).
		Scan(&o.VendeurID, &date, &o.TotalInitialStock, &o.TotalPurchasedStock, &o.TotalSoldStock, &o.TotalFinalStock, &virtual, &debts, &sales, &capital)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Overall{}, ErrReportNotFound
		}
		return Overall{}, err
	}
	if o.Date, err = ParseDate(date); err != nil {
		return Overall{}, err
	}
	if o.TotalVirtualValue, err = decimal.NewFromString(virtual); err != nil {
		return Overall{}, err
	}
	if o.TotalDebts, err = decimal.NewFromString(debts); err != nil {
		return Overall{}, err
	}
	if o.TotalSalesFromTransactions, err = decimal.NewFromString(sales); err != nil {
		return Overall{}, err
	}
	if o.TotalCapitalCirculant, err = decimal.NewFromString(capital); err != nil {
		return Overall{}, err
	}
	return o, nil
}

// VendeurIDs lists every vendeur with at least one stock account, for
// the nightly all-tenant run.
func (r *Repository) VendeurIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT vendeur_id FROM stock_accounts ORDER BY vendeur_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *reportTx) UpsertNetworkRow(ctx context.Context, row NetworkRow) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO daily_network_reports (vendeur_id, report_date, network, initial_stock_balance, purchased_stock_amount, sold_stock_amount, sold_stock_value, final_stock_balance, virtual_value, debt_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (vendeur_id, report_date, network) DO UPDATE SET
  initial_stock_balance=EXCLUDED.initial_stock_balance,
  purchased_stock_amount=EXCLUDED.purchased_stock_amount,
  sold_stock_amount=EXCLUDED.sold_stock_amount,
  sold_stock_value=EXCLUDED.sold_stock_value,
  final_stock_balance=EXCLUDED.final_stock_balance,
  virtual_value=EXCLUDED.virtual_value,
  debt_amount=EXCLUDED.debt_amount`,
		row.VendeurID, row.Date.String(), string(row.Network),
		row.InitialStock, row.Purchased, row.SoldQuantity, row.SoldValue.String(),
		row.FinalStock, row.VirtualValue.String(), row.DebtAmount.String())
	return err
}

func (t *reportTx) UpsertOverall(ctx context.Context, overall Overall) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO daily_overall_reports (vendeur_id, report_date, total_initial_stock, total_purchased_stock, total_sold_stock, total_final_stock, total_virtual_value, total_debts, total_sales_from_transactions, total_capital_circulant)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (vendeur_id, report_date) DO UPDATE SET
  total_initial_stock=EXCLUDED.total_initial_stock,
  total_purchased_stock=EXCLUDED.total_purchased_stock,
  total_sold_stock=EXCLUDED.total_sold_stock,
  total_final_stock=EXCLUDED.total_final_stock,
  total_virtual_value=EXCLUDED.total_virtual_value,
  total_debts=EXCLUDED.total_debts,
  total_sales_from_transactions=EXCLUDED.total_sales_from_transactions,
  total_capital_circulant=EXCLUDED.total_capital_circulant`,
		overall.VendeurID, overall.Date.String(),
		overall.TotalInitialStock, overall.TotalPurchasedStock, overall.TotalSoldStock, overall.TotalFinalStock,
		overall.TotalVirtualValue.String(), overall.TotalDebts.String(),
		overall.TotalSalesFromTransactions.String(), overall.TotalCapitalCirculant.String())
	return err
}

func (t *reportTx) UpsertAccount(ctx context.Context, account stock.Account) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO stock_accounts (vendeur_id, network, balance, buying_price, selling_price, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (vendeur_id, network) DO UPDATE SET balance=EXCLUDED.balance, buying_price=EXCLUDED.buying_price, selling_price=EXCLUDED.selling_price, updated_at=NOW()`,
		account.VendeurID, string(account.Network), account.Balance, account.BuyingPrice.String(), account.SellingPrice.String())
	return err
}
