package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/faida-app/faida/internal/stock"
)

type memoryRepo struct {
	accounts map[string]stock.Account
	sales    []Sale
	items    map[int64][]Item
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts: make(map[string]stock.Account),
		items:    make(map[int64][]Item),
	}
}

func key(vendeurID int64, network stock.Network) string {
	return fmt.Sprintf("%d:%s", vendeurID, network)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListSales(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Sale, error) {
	out := make([]Sale, len(r.sales))
	copy(out, r.sales)
	return out, nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	tx.repo.nextID++
	sale.ID = tx.repo.nextID
	tx.repo.sales = append(tx.repo.sales, sale)
	return sale.ID, nil
}

func (tx *memoryTx) InsertItems(ctx context.Context, saleID int64, items []Item) error {
	tx.repo.items[saleID] = items
	return nil
}

func (tx *memoryTx) GetAccountForUpdate(ctx context.Context, vendeurID int64, network stock.Network) (stock.Account, error) {
	if a, ok := tx.repo.accounts[key(vendeurID, network)]; ok {
		return a, nil
	}
	return stock.Account{VendeurID: vendeurID, Network: network}, stock.ErrAccountNotFound
}

func (tx *memoryTx) UpsertAccount(ctx context.Context, account stock.Account) error {
	tx.repo.accounts[key(account.VendeurID, account.Network)] = account
	return nil
}

func seedAccount(r *memoryRepo, vendeurID int64, network stock.Network, balance int64, selling string) {
	r.accounts[key(vendeurID, network)] = stock.Account{
		VendeurID:    vendeurID,
		Network:      network,
		Balance:      balance,
		BuyingPrice:  decimal.RequireFromString("0.95"),
		SellingPrice: decimal.RequireFromString(selling),
	}
}

func TestRecordSaleRoundsPerLine(t *testing.T) {
	repo := newMemoryRepo()
	seedAccount(repo, 1, stock.NetworkAirtel, 1000, "46.30")
	seedAccount(repo, 1, stock.NetworkOrange, 1000, "46.30")
	svc := NewService(repo, nil)
	ctx := context.Background()

	// 3 x 46.30 = 138.90, remainder 38.90 -> up to 150.
	// 10 x 46.30 = 463.00, remainder 63 -> up to 500.
	sale, err := svc.RecordSale(ctx, SaleInput{
		VendeurID: 1,
		CashPaid:  decimal.Zero,
		Lines: []LineInput{
			{Network: stock.NetworkAirtel, Quantity: 3},
			{Network: stock.NetworkOrange, Quantity: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	require.True(t, sale.Items[0].Subtotal.Equal(decimal.NewFromInt(150)))
	require.True(t, sale.Items[1].Subtotal.Equal(decimal.NewFromInt(500)))
	// Rounding is applied per line, never once over the sale total.
	require.True(t, sale.TotalDue.Equal(decimal.NewFromInt(650)))
}

func TestRecordSaleDebtAndBalances(t *testing.T) {
	repo := newMemoryRepo()
	seedAccount(repo, 1, stock.NetworkVodacom, 500, "1.20")
	svc := NewService(repo, nil)
	ctx := context.Background()

	sale, err := svc.RecordSale(ctx, SaleInput{
		VendeurID:  1,
		ClientName: "Mama Kyungu",
		CashPaid:   decimal.NewFromInt(100),
		Lines:      []LineInput{{Network: stock.NetworkVodacom, Quantity: 150}},
	})
	require.NoError(t, err)
	// 150 x 1.20 = 180.00, remainder 80 -> up to 200.
	require.True(t, sale.TotalDue.Equal(decimal.NewFromInt(200)))
	require.True(t, sale.DebtAmount.Equal(decimal.NewFromInt(100)))
	require.Equal(t, int64(350), repo.accounts[key(1, stock.NetworkVodacom)].Balance)
}

func TestRecordSaleRejectsBadInput(t *testing.T) {
	repo := newMemoryRepo()
	seedAccount(repo, 1, stock.NetworkAirtel, 100, "1.00")
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, SaleInput{VendeurID: 1})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.RecordSale(ctx, SaleInput{
		VendeurID: 1,
		Lines:     []LineInput{{Network: stock.NetworkAirtel, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordSale(ctx, SaleInput{
		VendeurID: 1,
		CashPaid:  decimal.NewFromInt(-5),
		Lines:     []LineInput{{Network: stock.NetworkAirtel, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNegativePayment)

	_, err = svc.RecordSale(ctx, SaleInput{
		VendeurID: 1,
		CashPaid:  decimal.NewFromInt(10000),
		Lines:     []LineInput{{Network: stock.NetworkAirtel, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrOverpaid)
}

func TestRecordSaleUnitPriceOverride(t *testing.T) {
	repo := newMemoryRepo()
	seedAccount(repo, 1, stock.NetworkAfricel, 100, "1.00")
	svc := NewService(repo, nil)
	ctx := context.Background()

	override := decimal.RequireFromString("1.50")
	sale, err := svc.RecordSale(ctx, SaleInput{
		VendeurID: 1,
		CashPaid:  decimal.Zero,
		Lines:     []LineInput{{Network: stock.NetworkAfricel, Quantity: 100, UnitPrice: &override}},
	})
	require.NoError(t, err)
	// 100 x 1.50 = 150 -> 25..50 band -> 150 stays.
	require.True(t, sale.TotalDue.Equal(decimal.NewFromInt(150)))
}
