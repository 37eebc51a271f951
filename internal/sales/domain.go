package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/stock"
)

// Sale is the header of one sale transaction. A sale may reference a
// registered client or carry an ad-hoc buyer name; both may be empty
// for walk-in cash sales. DebtAmount is TotalDue - CashPaid and is
// never negative.
type Sale struct {
	ID         int64
	Code       string
	VendeurID  int64
	ClientID   *int64
	ClientName string
	TotalDue   decimal.Decimal
	CashPaid   decimal.Decimal
	DebtAmount decimal.Decimal
	ActorID    int64
	CreatedAt  time.Time
	Items      []Item
}

// Item is one network line of a sale. Subtotal is quantity times unit
// price passed through the commercial rounding policy, per line.
type Item struct {
	ID        int64
	SaleID    int64
	Network   stock.Network
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

var (
	// ErrNoItems indicates a sale without line items.
	ErrNoItems = errors.New("sales: at least one line item required")
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = errors.New("sales: quantity must be positive")
	// ErrOverpaid indicates cash paid above the amount due.
	ErrOverpaid = errors.New("sales: cash paid exceeds total due")
	// ErrNegativePayment indicates a negative cash amount.
	ErrNegativePayment = errors.New("sales: cash paid must be >= 0")
)
