package stock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomledger/internal/domain/ledger"
)

func row(supplier, deliveredTo, yarnType string, kg float64, rolls int) ledger.PurchaseEntry {
	return ledger.PurchaseEntry{
		Supplier:    supplier,
		DeliveredTo: deliveredTo,
		YarnType:    yarnType,
		QtyKg:       decimal.NewFromFloat(kg),
		QtyRolls:    rolls,
	}
}

type stubLedger struct {
	rows []ledger.PurchaseEntry
}

func (s *stubLedger) ListPurchasesByHolder(ctx context.Context, holder string) ([]ledger.PurchaseEntry, error) {
	return s.rows, nil
}

func TestNet_InflowMinusOutflow(t *testing.T) {
	rows := []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 100, 5),
		row("Shakti Knits", "Rainbow Dyeing", "30s Cotton", 40, 2),
	}

	b := Net(rows, "Shakti Knits", "30s Cotton")
	assert.True(t, b.Kg.Equal(decimal.NewFromInt(60)), "got %s", b.Kg)
	assert.Equal(t, 3, b.Rolls)
	assert.False(t, b.Negative())
}

func TestNet_StockIsConserved(t *testing.T) {
	// A transfer moves stock between holders without creating or destroying
	// any: the sum across all holders stays the total inflow from outside.
	rows := []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 100, 5),
		row("Shakti Knits", "Rainbow Dyeing", "30s Cotton", 40, 2),
	}

	knits := Net(rows, "Shakti Knits", "30s Cotton")
	dyeing := Net(rows, "Rainbow Dyeing", "30s Cotton")

	total := knits.RawKg.Add(dyeing.RawKg)
	assert.True(t, total.Equal(decimal.NewFromInt(100)), "got %s", total)
	assert.Equal(t, 5, knits.RawRolls+dyeing.RawRolls)
}

func TestNet_SelfDeliveryIsNotOutflow(t *testing.T) {
	rows := []ledger.PurchaseEntry{
		row("Shakti Knits", "Shakti Knits", "30s Cotton", 30, 1),
	}

	b := Net(rows, "Shakti Knits", "30s Cotton")
	assert.True(t, b.Kg.Equal(decimal.NewFromInt(30)), "got %s", b.Kg)
}

func TestNet_OtherYarnTypesExcluded(t *testing.T) {
	rows := []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 100, 5),
		row("Vardhman Yarns", "Shakti Knits", "Polyester", 50, 2),
	}

	b := Net(rows, "Shakti Knits", "30s Cotton")
	assert.True(t, b.Kg.Equal(decimal.NewFromInt(100)), "got %s", b.Kg)
	assert.Equal(t, 5, b.Rolls)
}

func TestNet_NegativeClampedButRawKept(t *testing.T) {
	// More leaves than ever arrived: a data-entry inconsistency.
	rows := []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 50, 2),
		row("Shakti Knits", "Rainbow Dyeing", "30s Cotton", 80, 4),
	}

	b := Net(rows, "Shakti Knits", "30s Cotton")
	assert.True(t, b.Kg.IsZero(), "clamped kg, got %s", b.Kg)
	assert.Equal(t, 0, b.Rolls)
	assert.True(t, b.RawKg.Equal(decimal.NewFromInt(-30)), "got %s", b.RawKg)
	assert.Equal(t, -2, b.RawRolls)
	assert.True(t, b.Negative())
}

func TestNet_BlankFieldsGroupUnderUnknownBucket(t *testing.T) {
	rows := []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "", 25, 1),
	}

	b := Net(rows, "Shakti Knits", UnknownBucket)
	assert.Equal(t, UnknownBucket, b.YarnType)
	assert.True(t, b.Kg.Equal(decimal.NewFromInt(25)), "got %s", b.Kg)
}

func TestSummary_SortedByYarnType(t *testing.T) {
	svc := NewService(&stubLedger{rows: []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "Polyester", 50, 2),
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 100, 5),
		row("Vardhman Yarns", "Shakti Knits", "", 10, 0),
	}})

	balances, err := svc.Summary(context.Background(), "Shakti Knits")
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, UnknownBucket, balances[0].YarnType)
	assert.Equal(t, "30s Cotton", balances[1].YarnType)
	assert.Equal(t, "Polyester", balances[2].YarnType)
}

func TestBalance_SingleYarnType(t *testing.T) {
	svc := NewService(&stubLedger{rows: []ledger.PurchaseEntry{
		row("Vardhman Yarns", "Shakti Knits", "30s Cotton", 100, 5),
		row("Shakti Knits", "Rainbow Dyeing", "30s Cotton", 40, 2),
	}})

	b, err := svc.Balance(context.Background(), "Shakti Knits", "30s Cotton")
	require.NoError(t, err)
	assert.True(t, b.Kg.Equal(decimal.NewFromInt(60)), "got %s", b.Kg)
}
