package stock

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
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrAccountNotFound indicates a missing account row.
var ErrAccountNotFound = errors.New("stock account not found")

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Accounts lists the live accounts of one vendeur.
func (r *Repository) Accounts(ctx context.Context, vendeurID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, vendeur_id, network, balance, buying_price::text, selling_price::text, updated_at
FROM stock_accounts
WHERE vendeur_id=$1
ORDER BY network`, vendeurID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// ListPurchases returns purchases inside [from, to), newest first.
func (r *Repository) ListPurchases(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, vendeur_id, network, quantity, buying_price_at_purchase::text, selling_price_at_purchase::text, actor_id, created_at
FROM stock_purchases
WHERE vendeur_id=$1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at DESC
LIMIT $4`, vendeurID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []Purchase{}
	for rows.Next() {
		var p Purchase
		var buying, selling string
		if err := rows.Scan(&p.ID, &p.Code, &p.VendeurID, &p.Network, &p.Quantity, &buying, &selling, &p.ActorID, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.BuyingPrice, err = decimal.NewFromString(buying); err != nil {
			return nil, err
		}
		if p.SellingPrice, err = decimal.NewFromString(selling); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, vendeurID int64, network Network) (Account, error) {
	var a Account
	var buying, selling string
	err := r.tx.QueryRow(ctx, `SELECT id, vendeur_id, network, balance, buying_price::text, selling_price::text, updated_at
FROM stock_accounts
WHERE vendeur_id=$1 AND network=$2
FOR UPDATE`, vendeurID, string(network)).Scan(&a.ID, &a.VendeurID, &a.Network, &a.Balance, &buying, &selling, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{VendeurID: vendeurID, Network: network}, ErrAccountNotFound
		}
		return Account{}, err
	}
	if a.BuyingPrice, err = decimal.NewFromString(buying); err != nil {
		return Account{}, err
	}
	if a.SellingPrice, err = decimal.NewFromString(selling); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpsertAccount(ctx context.Context, account Account) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_accounts (vendeur_id, network, balance, buying_price, selling_price, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (vendeur_id, network) DO UPDATE SET balance=EXCLUDED.balance, buying_price=EXCLUDED.buying_price, selling_price=EXCLUDED.selling_price, updated_at=NOW()`,
		account.VendeurID, string(account.Network), account.Balance, account.BuyingPrice.String(), account.SellingPrice.String())
	return err
}

func (r *txRepository) InsertPurchase(ctx context.Context, purchase Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_purchases (code, vendeur_id, network, quantity, buying_price_at_purchase, selling_price_at_purchase, actor_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		purchase.Code, purchase.VendeurID, string(purchase.Network), purchase.Quantity,
		purchase.BuyingPrice.String(), purchase.SellingPrice.String(), purchase.ActorID, purchase.CreatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("stock: code %s: %w", purchase.Code, httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

func scanAccounts(rows pgx.Rows) ([]Account, error) {
	accounts := []Account{}
	for rows.Next() {
		var a Account
		var buying, selling string
		if err := rows.Scan(&a.ID, &a.VendeurID, &a.Network, &a.Balance, &buying, &selling, &a.UpdatedAt); err != nil {
			return nil, err
		}
		var err error
		if a.BuyingPrice, err = decimal.NewFromString(buying); err != nil {
			return nil, err
		}
		if a.SellingPrice, err = decimal.NewFromString(selling); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
