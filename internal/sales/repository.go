package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/platform/db"
	"github.com/faida-app/faida/internal/platform/httpx"
	"github.com/faida-app/faida/internal/stock"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListSales returns sale headers with their items inside [from, to),
// newest first.
func (r *Repository) ListSales(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, vendeur_id, client_id, client_name, total_due::text, cash_paid::text, debt_amount::text, actor_id, created_at
FROM sales
WHERE vendeur_id=$1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT $4`, vendeurID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	salesRows := []Sale{}
	ids := []int64{}
	for rows.Next() {
		var s Sale
		var due, paid, debt string
		if err := rows.Scan(&s.ID, &s.Code, &s.VendeurID, &s.ClientID, &s.ClientName, &due, &paid, &debt, &s.ActorID, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.TotalDue, err = decimal.NewFromString(due); err != nil {
			return nil, err
		}
		if s.CashPaid, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		if s.DebtAmount, err = decimal.NewFromString(debt); err != nil {
			return nil, err
		}
		salesRows = append(salesRows, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return salesRows, nil
	}

	itemRows, err := r.pool.Query(ctx, `SELECT id, sale_id, network, quantity, price_per_unit_applied::text, subtotal::text
FROM sale_items
WHERE sale_id = ANY($1)
ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	itemsBySale := map[int64][]Item{}
	for itemRows.Next() {
		var item Item
		var price, subtotal string
		if err := itemRows.Scan(&item.ID, &item.SaleID, &item.Network, &item.Quantity, &price, &subtotal); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		itemsBySale[item.SaleID] = append(itemsBySale[item.SaleID], item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	for i := range salesRows {
		salesRows[i].Items = itemsBySale[salesRows[i].ID]
	}
	return salesRows, nil
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (code, vendeur_id, client_id, client_name, total_due, cash_paid, debt_amount, actor_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		sale.Code, sale.VendeurID, sale.ClientID, sale.ClientName,
		sale.TotalDue.String(), sale.CashPaid.String(), sale.DebtAmount.String(),
		sale.ActorID, sale.CreatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("sales: code %s: %w", sale.Code, httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertItems(ctx context.Context, saleID int64, items []Item) error {
	for _, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_items (sale_id, network, quantity, price_per_unit_applied, subtotal)
VALUES ($1,$2,$3,$4,$5)`,
			saleID, string(item.Network), item.Quantity, item.UnitPrice.String(), item.Subtotal.String()); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, vendeurID int64, network stock.Network) (stock.Account, error) {
	var a stock.Account
	var buying, selling string
	err := r.tx.QueryRow(ctx, `SELECT id, vendeur_id, network, balance, buying_price::text, selling_price::text, updated_at
FROM stock_accounts
WHERE vendeur_id=$1 AND network=$2
FOR UPDATE`, vendeurID, string(network)).Scan(&a.ID, &a.VendeurID, &a.Network, &a.Balance, &buying, &selling, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stock.Account{VendeurID: vendeurID, Network: network}, stock.ErrAccountNotFound
		}
		return stock.Account{}, err
	}
	if a.BuyingPrice, err = decimal.NewFromString(buying); err != nil {
		return stock.Account{}, err
	}
	if a.SellingPrice, err = decimal.NewFromString(selling); err != nil {
		return stock.Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpsertAccount(ctx context.Context, account stock.Account) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_accounts (vendeur_id, network, balance, buying_price, selling_price, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (vendeur_id, network) DO UPDATE SET balance=EXCLUDED.balance, buying_price=EXCLUDED.buying_price, selling_price=EXCLUDED.selling_price, updated_at=NOW()`,
		account.VendeurID, string(account.Network), account.Balance, account.BuyingPrice.String(), account.SellingPrice.String())
	return err
}
