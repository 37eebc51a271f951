package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/faida-app/faida/internal/stock"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `{
		"stock_balances": {"airtel": 120000, "vodacom": 50000},
		"stock_prices": {"buying_price_per_unit": "0.93", "selling_price_per_unit": "1.05"}
	}`)

	data, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Equal(t, int64(120000), data.Balances[stock.NetworkAirtel])
	require.Equal(t, int64(50000), data.Balances[stock.NetworkVodacom])
	require.Equal(t, "0.93", data.BuyingPrice.String())
	require.Equal(t, "1.05", data.SellingPrice.String())
}

func TestLoadSeedFileDefaultsPrices(t *testing.T) {
	path := writeSeedFile(t, `{"stock_balances": {"orange": 1000}}`)

	data, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Equal(t, "0.95", data.BuyingPrice.String())
	require.Equal(t, "1", data.SellingPrice.String())
}

func TestLoadSeedFileRejectsUnknownNetwork(t *testing.T) {
	path := writeSeedFile(t, `{"stock_balances": {"tigo": 1000}}`)

	_, err := LoadSeedFile(path)
	require.ErrorIs(t, err, stock.ErrUnknownNetwork)
}

func TestSeedWritesAccountsAndDayZero(t *testing.T) {
	repo := newMemoryReports()
	seeder := NewSeeder(repo, nil)
	ctx := context.Background()
	day := NewDate(2026, time.March, 14)

	data := SeedData{
		Balances: map[stock.Network]int64{
			stock.NetworkAirtel:  120000,
			stock.NetworkVodacom: 50000,
		},
		BuyingPrice:  decimal.RequireFromString("0.95"),
		SellingPrice: decimal.RequireFromString("1.00"),
	}
	require.NoError(t, seeder.Seed(ctx, 1, day, data))

	require.Equal(t, int64(120000), repo.accounts[stock.NetworkAirtel].Balance)
	require.True(t, repo.accounts[stock.NetworkAirtel].SellingPrice.Equal(decimal.RequireFromString("1.00")))

	rows, err := repo.NetworkRows(ctx, 1, day)
	require.NoError(t, err)
	require.Len(t, rows, len(stock.AllNetworks()))

	airtel := repo.rows[day.String()][stock.NetworkAirtel]
	require.Equal(t, int64(120000), airtel.InitialStock)
	require.Equal(t, int64(120000), airtel.FinalStock)
	// Day zero values stock at cost, not at the selling price.
	require.True(t, airtel.VirtualValue.Equal(decimal.RequireFromString("114000")))

	overall, err := repo.OverallRow(ctx, 1, day)
	require.NoError(t, err)
	require.Equal(t, int64(170000), overall.TotalInitialStock)
	require.Equal(t, int64(170000), overall.TotalFinalStock)
	require.True(t, overall.TotalCapitalCirculant.Equal(overall.TotalVirtualValue))
}

func TestSeedAnchorsNextDayChain(t *testing.T) {
	repo := newMemoryReports()
	seeder := NewSeeder(repo, nil)
	ctx := context.Background()

	require.NoError(t, seeder.Seed(ctx, 1, NewDate(2026, time.March, 14), SeedData{
		Balances:     map[stock.Network]int64{stock.NetworkAirtel: 1000},
		BuyingPrice:  decimal.RequireFromString("0.95"),
		SellingPrice: decimal.RequireFromString("1.00"),
	}))

	ledger := &memoryLedger{
		purchased: map[stock.Network]int64{stock.NetworkAirtel: 200},
		sold: map[stock.Network]SoldTotals{
			stock.NetworkAirtel: {Quantity: 150, Value: decimal.NewFromInt(150)},
		},
	}
	clock := fixedClock(t, time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC))
	calc := NewCalculator(ledger, &memoryAccounts{}, repo, clock, nil)

	computed, err := calc.Compute(ctx, 1, NewDate(2026, time.March, 15))
	require.NoError(t, err)
	airtel := rowFor(t, computed, stock.NetworkAirtel)
	require.Equal(t, int64(1000), airtel.InitialStock)
	require.Equal(t, int64(1050), airtel.FinalStock)
}

func TestSeedRejectsEmptyBalances(t *testing.T) {
	seeder := NewSeeder(newMemoryReports(), nil)
	err := seeder.Seed(context.Background(), 1, NewDate(2026, time.March, 14), SeedData{})
	require.Error(t, err)
}
