// Package report derives the daily stock and cash figures of a vendeur
// from the transaction ledger and reconciles them against the rolling
// daily-report rows. Timestamps are stored and compared in UTC; local
// day boundaries exist only at the Clock boundary.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/stock"
)

// Date is a calendar date without time or zone. Report rows are keyed
// by (vendeur, Date[, network]).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of an instant in the given location.
func DateOf(t time.Time, loc *time.Location) Date {
	local := t.In(loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("report: parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// In returns local midnight of the date in the given location.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Prev returns the previous calendar date.
func (d Date) Prev() Date {
	t := d.In(time.UTC).AddDate(0, 0, -1)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Next returns the next calendar date.
func (d Date) Next() Date {
	t := d.In(time.UTC).AddDate(0, 0, 1)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// NetworkRow is the per-network daily report. FinalStock always equals
// InitialStock + Purchased - SoldQuantity at write time.
type NetworkRow struct {
	VendeurID    int64
	Date         Date
	Network      stock.Network
	InitialStock int64
	Purchased    int64
	SoldQuantity int64
	SoldValue    decimal.Decimal
	FinalStock   int64
	VirtualValue decimal.Decimal
	DebtAmount   decimal.Decimal
}

// Overall aggregates a day across all networks of one vendeur.
type Overall struct {
	VendeurID                  int64
	Date                       Date
	TotalInitialStock          int64
	TotalPurchasedStock        int64
	TotalSoldStock             int64
	TotalFinalStock            int64
	TotalVirtualValue          decimal.Decimal
	TotalDebts                 decimal.Decimal
	TotalSalesFromTransactions decimal.Decimal
	TotalCapitalCirculant      decimal.Decimal
}

// SoldTotals carries the windowed sale aggregates of one network.
type SoldTotals struct {
	Quantity int64
	Value    decimal.Decimal
}

// ErrReportNotFound indicates no persisted report row for the key.
var ErrReportNotFound = errors.New("report: not found")
