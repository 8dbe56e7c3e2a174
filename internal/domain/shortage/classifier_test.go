package shortage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/config"
	"loomledger/internal/core/id"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
)

func classified(origKg float64, origRolls int, retKg float64, retRolls int) Row {
	r := Row{
		OrigKg:        decimal.NewFromFloat(origKg),
		OrigRolls:     origRolls,
		ReturnedKg:    decimal.NewFromFloat(retKg),
		ReturnedRolls: retRolls,
	}
	Classify(&r, config.DefaultDerivation())
	return r
}

func TestClassify_ShortageArithmetic(t *testing.T) {
	r := classified(160, 8, 152, 8)

	assert.True(t, r.ShortKg.Equal(decimal.NewFromInt(8)), "got %s", r.ShortKg)
	assert.True(t, r.ShortPct.Equal(decimal.NewFromInt(5)), "got %s", r.ShortPct)
}

func TestClassify_NegativeShortageReportedAsIs(t *testing.T) {
	// The unit returned more than it received. Weight gain from dye pickup
	// is real; the negative shortage must not be clamped.
	r := classified(160, 8, 165, 8)

	assert.True(t, r.ShortKg.Equal(decimal.NewFromInt(-5)), "got %s", r.ShortKg)
	assert.True(t, r.ShortPct.IsNegative())
	assert.False(t, r.Flagged)
}

func TestClassify_ZeroOriginal_ZeroPct(t *testing.T) {
	r := classified(0, 0, 10, 1)

	assert.True(t, r.ShortPct.IsZero())
	assert.Equal(t, Completed, r.Classification)
}

func TestClassify_PendingWhileRollsOutstanding(t *testing.T) {
	// All the weight is back but one roll is not: still pending.
	r := classified(160, 8, 160, 7)

	assert.Equal(t, Pending, r.Classification)
}

func TestClassify_CompletedWhenAllRollsBack(t *testing.T) {
	r := classified(160, 8, 120, 8)

	assert.Equal(t, Completed, r.Classification)
}

func TestClassify_NoRolls_WeightThresholdDecides(t *testing.T) {
	// 90% of 160 is 144.
	assert.Equal(t, Completed, classified(160, 0, 144, 0).Classification)
	assert.Equal(t, Pending, classified(160, 0, 143.9, 0).Classification)
}

func TestClassify_FlagThresholds(t *testing.T) {
	cases := []struct {
		name    string
		row     Row
		flagged bool
	}{
		// Pending jobs are flagged above 5%.
		{"pending at 5pct", classified(100, 2, 95, 1), false},
		{"pending above 5pct", classified(100, 2, 94, 1), true},
		// Completed jobs get the looser 10% tolerance.
		{"completed at 8pct", classified(100, 2, 92, 2), false},
		{"completed at 10pct", classified(100, 2, 90, 2), false},
		{"completed above 10pct", classified(100, 2, 89, 2), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.flagged, tc.row.Flagged, "pct %s class %s", tc.row.ShortPct, tc.row.Classification)
		})
	}
}

type fakeEntries struct {
	purchases []ledger.PurchaseEntry
	returns   map[id.ID][]ledger.DyeingReturnEntry
}

func (f *fakeEntries) ListPurchasesDeliveredTo(ctx context.Context, deliveredTo string) ([]ledger.PurchaseEntry, error) {
	return f.purchases, nil
}

func (f *fakeEntries) ListReturnsByLotAndUnit(ctx context.Context, lotID, dyeingUnitID id.ID) ([]ledger.DyeingReturnEntry, error) {
	return f.returns[lotID], nil
}

type fakeLots struct {
	lots map[string]*registry.Lot
}

func (f *fakeLots) GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error) {
	l, ok := f.lots[lotNo]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotNo)
	}
	return l, nil
}

type fakeDirectory struct {
	parties map[string]*party.Party
}

func (f *fakeDirectory) GetByName(ctx context.Context, name string) (*party.Party, error) {
	p, ok := f.parties[name]
	if !ok {
		return nil, apperror.NewNotFound("party", name)
	}
	return p, nil
}

type reportFixture struct {
	entries *fakeEntries
	lots    *fakeLots
	dir     *fakeDirectory
	unit    *party.Party
	svc     *Service
}

func newReportFixture() *reportFixture {
	unit := party.New("Rainbow Dyeing", party.RoleDyeingUnit)
	f := &reportFixture{
		entries: &fakeEntries{returns: make(map[id.ID][]ledger.DyeingReturnEntry)},
		lots:    &fakeLots{lots: make(map[string]*registry.Lot)},
		dir: &fakeDirectory{parties: map[string]*party.Party{
			"Rainbow Dyeing": unit,
			"Shakti Knits":   party.New("Shakti Knits", party.RoleKnittingUnit),
		}},
		unit: unit,
	}
	f.svc = NewService(f.entries, f.lots, f.dir, config.DefaultDerivation())
	return f
}

func (f *reportFixture) addLot(lotNo string) *registry.Lot {
	batchRef, index := registry.SplitLotNo(lotNo)
	l := registry.NewLot(id.New(), batchRef, index)
	f.lots.lots[lotNo] = l
	return l
}

func (f *reportFixture) addDelivery(batchRef, lotNo, yarnType string, kg float64, rolls int) {
	f.entries.purchases = append(f.entries.purchases, ledger.PurchaseEntry{
		BatchRef:    batchRef,
		LotNo:       lotNo,
		Supplier:    "Shakti Knits",
		DeliveredTo: "Rainbow Dyeing",
		YarnType:    yarnType,
		QtyKg:       decimal.NewFromFloat(kg),
		QtyRolls:    rolls,
	})
}

func (f *reportFixture) addReturn(lotID id.ID, kg float64, rolls int) {
	f.entries.returns[lotID] = append(f.entries.returns[lotID], ledger.DyeingReturnEntry{
		LotID:         lotID,
		DyeingUnitID:  f.unit.ID,
		ReturnedKg:    decimal.NewFromFloat(kg),
		ReturnedRolls: rolls,
	})
}

func TestReport_GroupsAndClassifies(t *testing.T) {
	f := newReportFixture()
	lot := f.addLot("200/1")
	f.addDelivery("200", "200/1", "30s Cotton", 100, 4)
	f.addDelivery("200", "200/1", "30s Cotton", 60, 4)
	f.addReturn(lot.ID, 152, 8)

	rows, err := f.svc.Report(context.Background(), "Rainbow Dyeing")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.True(t, r.OrigKg.Equal(decimal.NewFromInt(160)), "got %s", r.OrigKg)
	assert.Equal(t, 8, r.OrigRolls)
	assert.True(t, r.ShortKg.Equal(decimal.NewFromInt(8)), "got %s", r.ShortKg)
	assert.Equal(t, Completed, r.Classification)
	assert.False(t, r.Flagged)
}

func TestReport_UnresolvableLot_Pending(t *testing.T) {
	f := newReportFixture()
	f.addDelivery("200", "200/9", "30s Cotton", 100, 4)

	rows, err := f.svc.Report(context.Background(), "Rainbow Dyeing")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Pending, rows[0].Classification)
	assert.True(t, rows[0].ReturnedKg.IsZero())
}

func TestReport_SortedOutput(t *testing.T) {
	f := newReportFixture()
	f.addLot("300/1")
	f.addLot("200/2")
	f.addLot("200/1")
	f.addDelivery("300", "300/1", "Polyester", 50, 2)
	f.addDelivery("200", "200/2", "30s Cotton", 60, 3)
	f.addDelivery("200", "200/1", "30s Cotton", 40, 2)

	rows, err := f.svc.Report(context.Background(), "Rainbow Dyeing")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "200/1", rows[0].LotNo)
	assert.Equal(t, "200/2", rows[1].LotNo)
	assert.Equal(t, "300/1", rows[2].LotNo)
}

func TestReport_NotADyeingUnit_Rejected(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Report(context.Background(), "Shakti Knits")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestReport_UnknownParty(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Report(context.Background(), "Ghost Dyeing")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
