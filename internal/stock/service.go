package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Accounts(ctx context.Context, vendeurID int64) ([]Account, error)
	ListPurchases(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Purchase, error)
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetAccountForUpdate(ctx context.Context, vendeurID int64, network Network) (Account, error)
	UpsertAccount(ctx context.Context, account Account) error
	InsertPurchase(ctx context.Context, purchase Purchase) (int64, error)
}

// Service coordinates stock purchases and live account reads.
type Service struct {
	repo     RepositoryPort
	defaults PriceDefaults
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, defaults PriceDefaults, logger *slog.Logger) *Service {
	return &Service{repo: repo, defaults: defaults, logger: logger}
}

// PurchaseInput describes a stock purchase request.
type PurchaseInput struct {
	VendeurID int64
	Network   Network
	Quantity  int64
	ActorID   int64
}

// RecordPurchase appends a purchase ledger entry and credits the live
// balance in one transaction. The account's current prices are captured
// on the record so later price changes do not rewrite history.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (Purchase, error) {
	if input.Quantity <= 0 {
		return Purchase{}, ErrInvalidQuantity
	}
	if _, err := ParseNetwork(string(input.Network)); err != nil {
		return Purchase{}, ErrUnknownNetwork
	}

	var recorded Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, input.VendeurID, input.Network)
		if err != nil {
			if !errors.Is(err, ErrAccountNotFound) {
				return err
			}
			account = Account{
				VendeurID:    input.VendeurID,
				Network:      input.Network,
				BuyingPrice:  s.defaults.BuyingPrice,
				SellingPrice: s.defaults.SellingPrice,
			}
		}

		purchase := Purchase{
			Code:         fmt.Sprintf("ACH-%s", uuid.NewString()),
			VendeurID:    input.VendeurID,
			Network:      input.Network,
			Quantity:     input.Quantity,
			BuyingPrice:  account.BuyingPrice,
			SellingPrice: account.SellingPrice,
			ActorID:      input.ActorID,
			CreatedAt:    time.Now().UTC(),
		}
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id

		account.Balance += input.Quantity
		if err := tx.UpsertAccount(ctx, account); err != nil {
			return err
		}
		recorded = purchase
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}

	if s.logger != nil {
		s.logger.Info("stock purchase recorded",
			slog.Int64("vendeur_id", input.VendeurID),
			slog.String("network", string(input.Network)),
			slog.Int64("quantity", input.Quantity))
	}
	return recorded, nil
}

// Accounts returns the live position for every network, total over the
// closed set. A vendeur with no row for a network gets a zero-balance
// account at default prices, never a missing entry.
func (s *Service) Accounts(ctx context.Context, vendeurID int64) (map[Network]Account, error) {
	rows, err := s.repo.Accounts(ctx, vendeurID)
	if err != nil {
		return nil, err
	}
	byNetwork := make(map[Network]Account, len(AllNetworks()))
	for _, row := range rows {
		byNetwork[row.Network] = row
	}
	for _, network := range AllNetworks() {
		if _, ok := byNetwork[network]; !ok {
			byNetwork[network] = Account{
				VendeurID:    vendeurID,
				Network:      network,
				BuyingPrice:  s.defaults.BuyingPrice,
				SellingPrice: s.defaults.SellingPrice,
			}
		}
	}
	return byNetwork, nil
}

// ListPurchases returns the purchase history inside [from, to).
func (s *Service) ListPurchases(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, vendeurID, from, to, limit)
}
