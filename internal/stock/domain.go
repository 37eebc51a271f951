package stock

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Network enumerates the mobile operators whose airtime is resold.
// The set is closed: every aggregation over networks must be total
// over AllNetworks, never a sparse map.
type Network string

const (
	NetworkAirtel  Network = "airtel"
	NetworkAfricel Network = "africel"
	NetworkOrange  Network = "orange"
	NetworkVodacom Network = "vodacom"
)

// AllNetworks returns the closed operator set in stable order.
func AllNetworks() []Network {
	return []Network{NetworkAirtel, NetworkAfricel, NetworkOrange, NetworkVodacom}
}

// ParseNetwork maps user input onto the closed operator set.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkAirtel, NetworkAfricel, NetworkOrange, NetworkVodacom:
		return Network(s), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownNetwork, s)
}

// Account is the live stock position for one network of one vendeur.
// Balance is the unit count right now, independent of any daily report.
// At most one account exists per (vendeur, network).
type Account struct {
	ID           int64
	VendeurID    int64
	Network      Network
	Balance      int64
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	UpdatedAt    time.Time
}

// Margin is the per-unit spread between selling and buying price.
func (a Account) Margin() decimal.Decimal {
	return a.SellingPrice.Sub(a.BuyingPrice)
}

// Purchase is an immutable ledger entry for airtime bought from an
// operator. Prices are captured as they stood at purchase time.
type Purchase struct {
	ID           int64
	Code         string
	VendeurID    int64
	Network      Network
	Quantity     int64
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	ActorID      int64
	CreatedAt    time.Time
}

// TotalCost is what the vendeur paid for the whole purchase.
func (p Purchase) TotalCost() decimal.Decimal {
	return p.BuyingPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// PriceDefaults seeds pricing for accounts created on first use.
type PriceDefaults struct {
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

// ErrInvalidQuantity indicates a non-positive purchase quantity.
var ErrInvalidQuantity = errors.New("stock: quantity must be positive")

// ErrUnknownNetwork indicates a network outside the closed set.
var ErrUnknownNetwork = errors.New("stock: unknown network")
