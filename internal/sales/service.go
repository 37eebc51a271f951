package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/money"
	"github.com/faida-app/faida/internal/stock"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSales(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Sale, error)
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertItems(ctx context.Context, saleID int64, items []Item) error
	GetAccountForUpdate(ctx context.Context, vendeurID int64, network stock.Network) (stock.Account, error)
	UpsertAccount(ctx context.Context, account stock.Account) error
}

// Service records sales against the live stock accounts.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LineInput is one requested sale line.
type LineInput struct {
	Network  stock.Network
	Quantity int64
	// UnitPrice overrides the account selling price when set.
	UnitPrice *decimal.Decimal
}

// SaleInput describes a sale to record.
type SaleInput struct {
	VendeurID  int64
	ClientID   *int64
	ClientName string
	CashPaid   decimal.Decimal
	ActorID    int64
	Lines      []LineInput
}

// RecordSale prices every line, applies commercial rounding per line,
// derives the debt as due minus paid, and in a single transaction
// writes the header plus items and debits each network balance.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrNoItems
	}
	if input.CashPaid.IsNegative() {
		return Sale{}, ErrNegativePayment
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return Sale{}, ErrInvalidQuantity
		}
		if _, err := stock.ParseNetwork(string(line.Network)); err != nil {
			return Sale{}, stock.ErrUnknownNetwork
		}
	}

	var recorded Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items := make([]Item, 0, len(input.Lines))
		totalDue := decimal.Zero

		for _, line := range input.Lines {
			account, err := tx.GetAccountForUpdate(ctx, input.VendeurID, line.Network)
			if err != nil && !errors.Is(err, stock.ErrAccountNotFound) {
				return err
			}

			unitPrice := account.SellingPrice
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}
			subtotal := money.RoundCommercial(unitPrice.Mul(decimal.NewFromInt(line.Quantity)))

			items = append(items, Item{
				Network:   line.Network,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
				Subtotal:  subtotal,
			})
			totalDue = totalDue.Add(subtotal)

			account.Balance -= line.Quantity
			if err := tx.UpsertAccount(ctx, account); err != nil {
				return err
			}
		}

		if input.CashPaid.GreaterThan(totalDue) {
			return ErrOverpaid
		}

		sale := Sale{
			Code:       fmt.Sprintf("VNT-%s", uuid.NewString()),
			VendeurID:  input.VendeurID,
			ClientID:   input.ClientID,
			ClientName: input.ClientName,
			TotalDue:   totalDue,
			CashPaid:   input.CashPaid,
			DebtAmount: totalDue.Sub(input.CashPaid),
			ActorID:    input.ActorID,
			CreatedAt:  time.Now().UTC(),
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		if err := tx.InsertItems(ctx, id, items); err != nil {
			return err
		}
		sale.Items = items
		recorded = sale
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.logger != nil {
		s.logger.Info("sale recorded",
			slog.Int64("vendeur_id", input.VendeurID),
			slog.String("total_due", recorded.TotalDue.String()),
			slog.String("debt", recorded.DebtAmount.String()))
	}
	return recorded, nil
}

// ListSales returns sale headers with items inside [from, to).
func (s *Service) ListSales(ctx context.Context, vendeurID int64, from, to time.Time, limit int) ([]Sale, error) {
	return s.repo.ListSales(ctx, vendeurID, from, to, limit)
}
