package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomledger/internal/core/apperror"
	"loomledger/internal/domain/ledger"
)

type stubLedger struct {
	rows     []ledger.PurchaseEntry
	lastFrom time.Time
	lastTo   time.Time
}

func (s *stubLedger) ListPurchasesBetween(ctx context.Context, from, to time.Time) ([]ledger.PurchaseEntry, error) {
	s.lastFrom, s.lastTo = from, to
	return s.rows, nil
}

func entry(kg, price float64, rolls int) ledger.PurchaseEntry {
	return ledger.PurchaseEntry{
		QtyKg:     decimal.NewFromFloat(kg),
		QtyRolls:  rolls,
		UnitPrice: decimal.NewFromFloat(price),
	}
}

func TestBetween_Totals(t *testing.T) {
	stub := &stubLedger{rows: []ledger.PurchaseEntry{
		entry(100, 250, 5),
		entry(60, 0, 3),
	}}
	svc := NewService(stub)

	from := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)

	j, err := svc.Between(context.Background(), from, to)
	require.NoError(t, err)

	assert.True(t, j.TotalKg.Equal(decimal.NewFromInt(160)), "kg %s", j.TotalKg)
	assert.Equal(t, 8, j.TotalRolls)
	assert.True(t, j.TotalValue.Equal(decimal.NewFromInt(25000)), "value %s", j.TotalValue)
	assert.Len(t, j.Entries, 2)
}

func TestBetween_EmptyPeriod(t *testing.T) {
	svc := NewService(&stubLedger{})

	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	j, err := svc.Between(context.Background(), day, day)
	require.NoError(t, err)

	assert.True(t, j.TotalKg.IsZero())
	assert.True(t, j.TotalValue.IsZero())
	assert.Empty(t, j.Entries)
}

func TestBetween_InvertedPeriodRejected(t *testing.T) {
	svc := NewService(&stubLedger{})

	from := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Between(context.Background(), from, to)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestFinancialYearBounds(t *testing.T) {
	from, to := FinancialYearBounds(2025)

	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), to)
}

func TestFinancialYear_QueriesTheRightRange(t *testing.T) {
	stub := &stubLedger{}
	svc := NewService(stub)

	_, err := svc.FinancialYear(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), stub.lastFrom)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), stub.lastTo)
}

func TestFinancialYearOf(t *testing.T) {
	cases := []struct {
		date time.Time
		want int
	}{
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC), 2025},
		{time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC), 2025},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FinancialYearOf(tc.date), "date %s", tc.date.Format("2006-01-02"))
	}
}
