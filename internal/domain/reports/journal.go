// Package reports builds the date-ranged purchase journal used for period
// review, including the April-to-March financial year convention.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/ledger"
)

// Journal is a chronological slice of purchase activity with period totals.
type Journal struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Entries []ledger.PurchaseEntry `json:"entries"`

	TotalKg    types.Kg    `json:"totalKg"`
	TotalRolls int         `json:"totalRolls"`
	TotalValue types.Money `json:"totalValue"`
}

// LedgerReader is the slice of the ledger repository the journal reads.
type LedgerReader interface {
	ListPurchasesBetween(ctx context.Context, from, to time.Time) ([]ledger.PurchaseEntry, error)
}

type Service struct {
	entries LedgerReader
}

func NewService(entries LedgerReader) *Service {
	return &Service{entries: entries}
}

// Between returns the purchase journal for [from, to]. Both bounds inclusive.
func (s *Service) Between(ctx context.Context, from, to time.Time) (*Journal, error) {
	if to.Before(from) {
		return nil, apperror.NewValidation(fmt.Sprintf("invalid period: %s is before %s",
			to.Format("2006-01-02"), from.Format("2006-01-02")))
	}

	entries, err := s.entries.ListPurchasesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list purchases between %s and %s: %w",
			from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}

	j := &Journal{From: from, To: to, Entries: entries, TotalValue: decimal.Zero, TotalKg: decimal.Zero}
	for _, e := range entries {
		j.TotalKg = j.TotalKg.Add(e.QtyKg)
		j.TotalRolls += e.QtyRolls
		j.TotalValue = j.TotalValue.Add(e.UnitPrice.Mul(e.QtyKg))
	}
	return j, nil
}

// FinancialYear returns the journal for the Indian financial year starting in
// the given calendar year: 1 April startYear through 31 March startYear+1.
func (s *Service) FinancialYear(ctx context.Context, startYear int) (*Journal, error) {
	from, to := FinancialYearBounds(startYear)
	return s.Between(ctx, from, to)
}

// FinancialYearBounds returns the inclusive bounds of the April-to-March
// financial year starting in startYear.
func FinancialYearBounds(startYear int) (from, to time.Time) {
	from = time.Date(startYear, time.April, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(startYear+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	return from, to
}

// FinancialYearOf returns the start year of the financial year containing d.
func FinancialYearOf(d time.Time) int {
	if d.Month() < time.April {
		return d.Year() - 1
	}
	return d.Year()
}
