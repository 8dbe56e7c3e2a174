package costing

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

type fakeEntries struct {
	purchases []ledger.PurchaseEntry
	returns   []ledger.DyeingReturnEntry
}

func (f *fakeEntries) ListPurchasesByBatchRef(ctx context.Context, batchRef string) ([]ledger.PurchaseEntry, error) {
	return f.purchases, nil
}

func (f *fakeEntries) ListReturnsByLots(ctx context.Context, lotIDs []id.ID) ([]ledger.DyeingReturnEntry, error) {
	want := make(map[id.ID]bool, len(lotIDs))
	for _, lid := range lotIDs {
		want[lid] = true
	}
	var out []ledger.DyeingReturnEntry
	for _, r := range f.returns {
		if want[r.LotID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRegistry struct {
	batch *registry.Batch
	lots  []registry.Lot
}

func (f *fakeRegistry) GetBatchByRef(ctx context.Context, batchRef string) (*registry.Batch, error) {
	if f.batch == nil || f.batch.BatchRef != batchRef {
		return nil, apperror.NewNotFound("batch", batchRef)
	}
	return f.batch, nil
}

func (f *fakeRegistry) ListLotsByBatch(ctx context.Context, batchID id.ID) ([]registry.Lot, error) {
	return f.lots, nil
}

type fakeParties struct {
	byName map[string]*party.Party
	byID   map[id.ID]*party.Party
}

func newFakeParties() *fakeParties {
	return &fakeParties{
		byName: make(map[string]*party.Party),
		byID:   make(map[id.ID]*party.Party),
	}
}

func (f *fakeParties) add(p *party.Party) *party.Party {
	f.byName[p.Name] = p
	f.byID[p.ID] = p
	return p
}

func (f *fakeParties) GetByName(ctx context.Context, name string) (*party.Party, error) {
	p, ok := f.byName[name]
	if !ok {
		return nil, apperror.NewNotFound("party", name)
	}
	return p, nil
}

func (f *fakeParties) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	p, ok := f.byID[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID)
	}
	return p, nil
}

type costFixture struct {
	entries  *fakeEntries
	registry *fakeRegistry
	parties  *fakeParties
	svc      *Service
}

func newCostFixture() *costFixture {
	f := &costFixture{
		entries:  &fakeEntries{},
		registry: &fakeRegistry{},
		parties:  newFakeParties(),
	}
	f.svc = NewService(f.entries, f.registry, f.parties, config.DefaultDerivation())
	return f
}

func (f *costFixture) addBatch(batchRef string, lotCount int) []registry.Lot {
	b := registry.NewBatch(batchRef, id.New(), "", lotCount, "")
	f.registry.batch = b
	for i := 1; i <= lotCount; i++ {
		f.registry.lots = append(f.registry.lots, *registry.NewLot(b.ID, batchRef, i))
	}
	return f.registry.lots
}

func (f *costFixture) addPurchase(deliveredTo string, kg, unitPrice float64) {
	f.entries.purchases = append(f.entries.purchases, ledger.PurchaseEntry{
		BatchRef:    "200",
		DeliveredTo: deliveredTo,
		QtyKg:       decimal.NewFromFloat(kg),
		UnitPrice:   decimal.NewFromFloat(unitPrice),
	})
}

func (f *costFixture) addReturn(lotID, unitID id.ID, kg float64) {
	f.entries.returns = append(f.entries.returns, ledger.DyeingReturnEntry{
		LotID:        lotID,
		DyeingUnitID: unitID,
		ReturnedKg:   decimal.NewFromFloat(kg),
	})
}

func money(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestNetPrice_FullBreakdown(t *testing.T) {
	f := newCostFixture()
	lots := f.addBatch("200", 1)
	f.parties.add(party.New("Shakti Knits", party.RoleKnittingUnit))
	dyer := f.parties.add(party.New("Rainbow Dyeing", party.RoleDyeingUnit))

	// 100 kg of yarn at 5/kg delivered to the knitter; 90 kg came back dyed.
	f.addPurchase("Shakti Knits", 100, 5)
	f.addReturn(lots[0].ID, dyer.ID, 90)

	b, err := f.svc.NetPrice(context.Background(), "200")
	require.NoError(t, err)

	// yarn 500, knitting 100×5 default, dyeing 90×10 default.
	assert.True(t, b.YarnCost.Equal(money(500)), "yarn %s", b.YarnCost)
	assert.True(t, b.KnittingCost.Equal(money(500)), "knitting %s", b.KnittingCost)
	assert.True(t, b.DyeingCost.Equal(money(900)), "dyeing %s", b.DyeingCost)
	assert.True(t, b.Total.Equal(money(1900)), "total %s", b.Total)

	require.Len(t, b.Knitting, 1)
	assert.Equal(t, "Shakti Knits", b.Knitting[0].Party)
	require.Len(t, b.Dyeing, 1)
	assert.Equal(t, "Rainbow Dyeing", b.Dyeing[0].Party)
}

func TestNetPrice_PartyRateOverridesDefault(t *testing.T) {
	f := newCostFixture()
	lots := f.addBatch("200", 1)

	rate := money(7.5)
	knitter := party.New("Shakti Knits", party.RoleKnittingUnit)
	knitter.RatePerKg = &rate
	f.parties.add(knitter)
	dyer := f.parties.add(party.New("Rainbow Dyeing", party.RoleDyeingUnit))

	f.addPurchase("Shakti Knits", 100, 0)
	f.addReturn(lots[0].ID, dyer.ID, 80)

	b, err := f.svc.NetPrice(context.Background(), "200")
	require.NoError(t, err)

	assert.True(t, b.KnittingCost.Equal(money(750)), "knitting %s", b.KnittingCost)
	assert.True(t, b.Knitting[0].RatePerKg.Equal(rate))
	assert.True(t, b.DyeingCost.Equal(money(800)), "dyeing %s", b.DyeingCost)
}

func TestNetPrice_DeliveriesToNonKnittersCarryNoProcessingCharge(t *testing.T) {
	f := newCostFixture()
	f.addBatch("200", 0)
	f.parties.add(party.New("Vardhman Yarns", party.RoleYarnSupplier))

	f.addPurchase("Vardhman Yarns", 100, 3)

	b, err := f.svc.NetPrice(context.Background(), "200")
	require.NoError(t, err)

	assert.True(t, b.YarnCost.Equal(money(300)), "yarn %s", b.YarnCost)
	assert.True(t, b.KnittingCost.IsZero())
	assert.Empty(t, b.Knitting)
}

func TestNetPrice_UnknownPartyExcludedNotFatal(t *testing.T) {
	f := newCostFixture()
	f.addBatch("200", 0)

	f.addPurchase("Ghost Mills", 100, 2)

	b, err := f.svc.NetPrice(context.Background(), "200")
	require.NoError(t, err)

	assert.True(t, b.YarnCost.Equal(money(200)), "yarn %s", b.YarnCost)
	assert.True(t, b.KnittingCost.IsZero())
}

func TestNetPrice_MultipleKnittersSortedByName(t *testing.T) {
	f := newCostFixture()
	f.addBatch("200", 0)
	f.parties.add(party.New("Zenith Knits", party.RoleKnittingUnit))
	f.parties.add(party.New("Apex Knits", party.RoleKnittingUnit))

	f.addPurchase("Zenith Knits", 60, 0)
	f.addPurchase("Apex Knits", 40, 0)

	b, err := f.svc.NetPrice(context.Background(), "200")
	require.NoError(t, err)

	require.Len(t, b.Knitting, 2)
	assert.Equal(t, "Apex Knits", b.Knitting[0].Party)
	assert.Equal(t, "Zenith Knits", b.Knitting[1].Party)
	assert.True(t, b.KnittingCost.Equal(money(500)), "knitting %s", b.KnittingCost)
}

func TestNetPrice_UnknownBatch(t *testing.T) {
	f := newCostFixture()

	_, err := f.svc.NetPrice(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
