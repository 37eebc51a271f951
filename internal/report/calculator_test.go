package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/faida-app/faida/internal/stock"
)

// memoryLedger serves fixed aggregates regardless of the window; each
// test stages exactly one day of activity.
type memoryLedger struct {
	purchased map[stock.Network]int64
	sold      map[stock.Network]SoldTotals
	debts     map[stock.Network]decimal.Decimal
	totalDebt decimal.Decimal
}

func (l *memoryLedger) PurchasedByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]int64, error) {
	return l.purchased, nil
}

func (l *memoryLedger) SoldByNetwork(ctx context.Context, vendeurID int64, start, end time.Time) (map[stock.Network]SoldTotals, error) {
	return l.sold, nil
}

func (l *memoryLedger) DebtByNetwork(ctx context.Context, vendeurID int64, asOf time.Time) (map[stock.Network]decimal.Decimal, error) {
	return l.debts, nil
}

func (l *memoryLedger) OutstandingDebt(ctx context.Context, vendeurID int64, asOf time.Time) (decimal.Decimal, error) {
	return l.totalDebt, nil
}

type memoryAccounts struct {
	accounts map[stock.Network]stock.Account
}

func (a *memoryAccounts) Accounts(ctx context.Context, vendeurID int64) (map[stock.Network]stock.Account, error) {
	return a.accounts, nil
}

// memoryReports persists report rows in memory. It backs both the
// history lookups of the calculator and the store and seeder writes.
type memoryReports struct {
	rows     map[string]map[stock.Network]NetworkRow
	overalls map[string]Overall
	accounts map[stock.Network]stock.Account
}

func newMemoryReports() *memoryReports {
	return &memoryReports{
		rows:     make(map[string]map[stock.Network]NetworkRow),
		overalls: make(map[string]Overall),
		accounts: make(map[stock.Network]stock.Account),
	}
}

func (m *memoryReports) FinalBalances(ctx context.Context, vendeurID int64, day Date) (map[stock.Network]int64, error) {
	out := make(map[stock.Network]int64)
	for network, row := range m.rows[day.String()] {
		out[network] = row.FinalStock
	}
	return out, nil
}

func (m *memoryReports) WithTx(ctx context.Context, fn func(context.Context, ReportTx) error) error {
	return fn(ctx, m)
}

func (m *memoryReports) WithSeedTx(ctx context.Context, fn func(context.Context, SeedTx) error) error {
	return fn(ctx, m)
}

func (m *memoryReports) UpsertNetworkRow(ctx context.Context, row NetworkRow) error {
	key := row.Date.String()
	if m.rows[key] == nil {
		m.rows[key] = make(map[stock.Network]NetworkRow)
	}
	m.rows[key][row.Network] = row
	return nil
}

func (m *memoryReports) UpsertOverall(ctx context.Context, overall Overall) error {
	m.overalls[overall.Date.String()] = overall
	return nil
}

func (m *memoryReports) UpsertAccount(ctx context.Context, account stock.Account) error {
	m.accounts[account.Network] = account
	return nil
}

func (m *memoryReports) NetworkRows(ctx context.Context, vendeurID int64, day Date) ([]NetworkRow, error) {
	stored, ok := m.rows[day.String()]
	if !ok {
		return nil, ErrReportNotFound
	}
	out := make([]NetworkRow, 0, len(stored))
	for _, network := range stock.AllNetworks() {
		if row, ok := stored[network]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryReports) OverallRow(ctx context.Context, vendeurID int64, day Date) (Overall, error) {
	overall, ok := m.overalls[day.String()]
	if !ok {
		return Overall{}, ErrReportNotFound
	}
	return overall, nil
}

func testAccount(network stock.Network, balance int64, selling string) stock.Account {
	return stock.Account{
		VendeurID:    1,
		Network:      network,
		Balance:      balance,
		BuyingPrice:  decimal.RequireFromString("0.95"),
		SellingPrice: decimal.RequireFromString(selling),
	}
}

func rowFor(t *testing.T, computed Computed, network stock.Network) NetworkRow {
	t.Helper()
	for _, row := range computed.Rows {
		if row.Network == network {
			return row
		}
	}
	t.Fatalf("no row for network %s", network)
	return NetworkRow{}
}

func TestComputeChainsFromPreviousDay(t *testing.T) {
	history := newMemoryReports()
	require.NoError(t, history.UpsertNetworkRow(context.Background(), NetworkRow{
		VendeurID: 1, Date: NewDate(2026, time.March, 14),
		Network: stock.NetworkAirtel, FinalStock: 1000,
	}))

	ledger := &memoryLedger{
		purchased: map[stock.Network]int64{stock.NetworkAirtel: 200},
		sold: map[stock.Network]SoldTotals{
			stock.NetworkAirtel: {Quantity: 150, Value: decimal.NewFromInt(150)},
		},
		totalDebt: decimal.Zero,
	}
	accounts := &memoryAccounts{accounts: map[stock.Network]stock.Account{
		stock.NetworkAirtel: testAccount(stock.NetworkAirtel, 1050, "1.00"),
	}}

	// March 15 is a past day for this clock, so only history anchors it.
	clock := fixedClock(t, time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(ledger, accounts, history, clock, nil)

	computed, err := calc.Compute(context.Background(), 1, NewDate(2026, time.March, 15))
	require.NoError(t, err)

	airtel := rowFor(t, computed, stock.NetworkAirtel)
	require.Equal(t, int64(1000), airtel.InitialStock)
	require.Equal(t, int64(200), airtel.Purchased)
	require.Equal(t, int64(150), airtel.SoldQuantity)
	require.Equal(t, int64(1050), airtel.FinalStock)
	require.True(t, airtel.VirtualValue.Equal(decimal.NewFromInt(1050)))
}

func TestComputeBackCalculatesLiveDay(t *testing.T) {
	ledger := &memoryLedger{
		purchased: map[stock.Network]int64{stock.NetworkOrange: 200},
		sold: map[stock.Network]SoldTotals{
			stock.NetworkOrange: {Quantity: 150, Value: decimal.NewFromInt(150)},
		},
	}
	// The live balance already reflects today's movement.
	accounts := &memoryAccounts{accounts: map[stock.Network]stock.Account{
		stock.NetworkOrange: testAccount(stock.NetworkOrange, 1050, "1.00"),
	}}

	clock := fixedClock(t, time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(ledger, accounts, newMemoryReports(), clock, nil)

	computed, err := calc.Compute(context.Background(), 1, clock.Today())
	require.NoError(t, err)

	orange := rowFor(t, computed, stock.NetworkOrange)
	// initial = balance + sold - purchased, so final lands back on the
	// live balance.
	require.Equal(t, int64(1000), orange.InitialStock)
	require.Equal(t, int64(1050), orange.FinalStock)
}

func TestComputePastDayWithoutHistoryIsZero(t *testing.T) {
	ledger := &memoryLedger{
		purchased: map[stock.Network]int64{stock.NetworkVodacom: 50},
		sold: map[stock.Network]SoldTotals{
			stock.NetworkVodacom: {Quantity: 30, Value: decimal.NewFromInt(30)},
		},
	}
	accounts := &memoryAccounts{accounts: map[stock.Network]stock.Account{
		stock.NetworkVodacom: testAccount(stock.NetworkVodacom, 9999, "1.00"),
	}}

	clock := fixedClock(t, time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(ledger, accounts, newMemoryReports(), clock, nil)

	computed, err := calc.Compute(context.Background(), 1, NewDate(2026, time.March, 10))
	require.NoError(t, err)

	vodacom := rowFor(t, computed, stock.NetworkVodacom)
	require.Equal(t, int64(0), vodacom.InitialStock)
	require.Equal(t, int64(20), vodacom.FinalStock)
}

func TestComputeCoversEveryNetwork(t *testing.T) {
	clock := fixedClock(t, time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(&memoryLedger{}, &memoryAccounts{}, newMemoryReports(), clock, nil)

	computed, err := calc.Compute(context.Background(), 1, NewDate(2026, time.March, 10))
	require.NoError(t, err)

	require.Len(t, computed.Rows, len(stock.AllNetworks()))
	for i, network := range stock.AllNetworks() {
		require.Equal(t, network, computed.Rows[i].Network)
		// A missing price never zeroes the valuation; it falls back to
		// a unit multiplier.
		require.True(t, computed.Rows[i].VirtualValue.Equal(decimal.NewFromInt(computed.Rows[i].FinalStock)))
	}
}

func TestOverallUsesSaleLevelDebt(t *testing.T) {
	ledger := &memoryLedger{
		sold: map[stock.Network]SoldTotals{
			stock.NetworkAirtel: {Quantity: 10, Value: decimal.NewFromInt(500)},
			stock.NetworkOrange: {Quantity: 5, Value: decimal.NewFromInt(250)},
		},
		debts: map[stock.Network]decimal.Decimal{
			// One unpaid sale spanning both networks shows up under each.
			stock.NetworkAirtel: decimal.NewFromInt(300),
			stock.NetworkOrange: decimal.NewFromInt(300),
		},
		totalDebt: decimal.NewFromInt(300),
	}
	clock := fixedClock(t, time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(ledger, &memoryAccounts{}, newMemoryReports(), clock, nil)

	computed, err := calc.Compute(context.Background(), 1, NewDate(2026, time.March, 10))
	require.NoError(t, err)

	overall := computed.Overall()
	require.True(t, overall.TotalDebts.Equal(decimal.NewFromInt(300)))
	require.True(t, overall.TotalSalesFromTransactions.Equal(decimal.NewFromInt(750)))
	require.Equal(t, int64(15), overall.TotalSoldStock)
	require.True(t, overall.TotalCapitalCirculant.Equal(overall.TotalVirtualValue))
}
