package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/money"
	"github.com/faida-app/faida/internal/stock"
)

// SeedData is the external bootstrap configuration: opening balances
// per network and the price pair applied to every seeded account.
type SeedData struct {
	Balances     map[stock.Network]int64
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

type seedFile struct {
	StockBalances map[string]json.Number `json:"stock_balances"`
	StockPrices   struct {
		BuyingPricePerUnit  string `json:"buying_price_per_unit"`
		SellingPricePerUnit string `json:"selling_price_per_unit"`
	} `json:"stock_prices"`
}

// LoadSeedFile reads seed data from a JSON file. Prices go through
// exact decimal parsing; unknown networks are rejected.
func LoadSeedFile(path string) (SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("report: read seed file: %w", err)
	}
	var file seedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return SeedData{}, fmt.Errorf("report: decode seed file: %w", err)
	}

	data := SeedData{Balances: make(map[stock.Network]int64, len(file.StockBalances))}
	for name, qty := range file.StockBalances {
		network, err := stock.ParseNetwork(name)
		if err != nil {
			return SeedData{}, fmt.Errorf("report: seed file: %w", err)
		}
		balance, err := qty.Int64()
		if err != nil {
			return SeedData{}, fmt.Errorf("report: seed balance for %s: %w", name, err)
		}
		data.Balances[network] = balance
	}

	buying := file.StockPrices.BuyingPricePerUnit
	if buying == "" {
		buying = "0.95"
	}
	selling := file.StockPrices.SellingPricePerUnit
	if selling == "" {
		selling = "1.00"
	}
	if data.BuyingPrice, err = money.ParseAmount(buying); err != nil {
		return SeedData{}, err
	}
	if data.SellingPrice, err = money.ParseAmount(selling); err != nil {
		return SeedData{}, err
	}
	return data, nil
}

// SeedRepository extends the report store with the account writes the
// bootstrap needs inside the same transaction.
type SeedRepository interface {
	WithSeedTx(ctx context.Context, fn func(context.Context, SeedTx) error) error
}

// SeedTx groups the writes of one bootstrap run.
type SeedTx interface {
	ReportTx
	UpsertAccount(ctx context.Context, account stock.Account) error
}

// Seeder initialises live balances and the day-zero report chain
// anchor.
type Seeder struct {
	repo   SeedRepository
	logger *slog.Logger
}

// NewSeeder builds Seeder.
func NewSeeder(repo SeedRepository, logger *slog.Logger) *Seeder {
	return &Seeder{repo: repo, logger: logger}
}

// Seed upserts the live accounts to the seed balances and writes a
// day-zero report where initial equals final. Day-zero virtual value is
// a cost basis, so it uses the buying price; the ongoing calculator
// values stock at the selling price instead. After seeding, the next
// day's calculation finds a previous-day final balance to chain from.
func (s *Seeder) Seed(ctx context.Context, vendeurID int64, seedDate Date, data SeedData) error {
	if len(data.Balances) == 0 {
		return fmt.Errorf("report: seed data has no balances")
	}

	err := s.repo.WithSeedTx(ctx, func(ctx context.Context, tx SeedTx) error {
		overall := Overall{
			VendeurID:                  vendeurID,
			Date:                       seedDate,
			TotalVirtualValue:          decimal.Zero,
			TotalDebts:                 decimal.Zero,
			TotalSalesFromTransactions: decimal.Zero,
		}

		for _, network := range stock.AllNetworks() {
			balance := data.Balances[network]

			if err := tx.UpsertAccount(ctx, stock.Account{
				VendeurID:    vendeurID,
				Network:      network,
				Balance:      balance,
				BuyingPrice:  data.BuyingPrice,
				SellingPrice: data.SellingPrice,
			}); err != nil {
				return fmt.Errorf("report: seed account %s: %w", network, err)
			}

			virtual := decimal.NewFromInt(balance).Mul(data.BuyingPrice)
			if err := tx.UpsertNetworkRow(ctx, NetworkRow{
				VendeurID:    vendeurID,
				Date:         seedDate,
				Network:      network,
				InitialStock: balance,
				Purchased:    0,
				SoldQuantity: 0,
				SoldValue:    decimal.Zero,
				FinalStock:   balance,
				VirtualValue: virtual,
				DebtAmount:   decimal.Zero,
			}); err != nil {
				return fmt.Errorf("report: seed %s row: %w", network, err)
			}

			overall.TotalInitialStock += balance
			overall.TotalFinalStock += balance
			overall.TotalVirtualValue = overall.TotalVirtualValue.Add(virtual)
		}

		overall.TotalCapitalCirculant = overall.TotalVirtualValue
		return tx.UpsertOverall(ctx, overall)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seed complete",
			slog.Int64("vendeur_id", vendeurID),
			slog.String("seed_date", seedDate.String()))
	}
	return nil
}
