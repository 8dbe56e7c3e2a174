package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/registry"
)

type fakeRepo struct {
	purchases map[id.ID]*PurchaseEntry
	returns   map[id.ID]*DyeingReturnEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		purchases: make(map[id.ID]*PurchaseEntry),
		returns:   make(map[id.ID]*DyeingReturnEntry),
	}
}

func (f *fakeRepo) CreatePurchase(ctx context.Context, p *PurchaseEntry) error {
	f.purchases[p.ID] = p
	return nil
}

func (f *fakeRepo) UpdatePurchase(ctx context.Context, p *PurchaseEntry) error {
	cur, ok := f.purchases[p.ID]
	if !ok {
		return apperror.NewNotFound("purchase", p.ID)
	}
	if cur.Version != p.Version {
		return apperror.NewConflict("purchase was modified concurrently")
	}
	cp := *p
	cp.Version++
	f.purchases[p.ID] = &cp
	return nil
}

func (f *fakeRepo) DeletePurchase(ctx context.Context, purchaseID id.ID) error {
	delete(f.purchases, purchaseID)
	return nil
}

func (f *fakeRepo) GetPurchase(ctx context.Context, purchaseID id.ID) (*PurchaseEntry, error) {
	p, ok := f.purchases[purchaseID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", purchaseID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) ListPurchasesByBatchRef(ctx context.Context, batchRef string) ([]PurchaseEntry, error) {
	var out []PurchaseEntry
	for _, p := range f.purchases {
		if p.BatchRef == batchRef {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPurchasesByLotNo(ctx context.Context, lotNo string) ([]PurchaseEntry, error) {
	return nil, nil
}

func (f *fakeRepo) ListPurchasesByHolder(ctx context.Context, holder string) ([]PurchaseEntry, error) {
	var out []PurchaseEntry
	for _, p := range f.purchases {
		if p.Supplier == holder || p.DeliveredTo == holder {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPurchasesDeliveredTo(ctx context.Context, deliveredTo string) ([]PurchaseEntry, error) {
	return nil, nil
}

func (f *fakeRepo) ListPurchasesBetween(ctx context.Context, from, to time.Time) ([]PurchaseEntry, error) {
	return nil, nil
}

func (f *fakeRepo) CreateReturn(ctx context.Context, d *DyeingReturnEntry) error {
	f.returns[d.ID] = d
	return nil
}

func (f *fakeRepo) UpdateReturn(ctx context.Context, d *DyeingReturnEntry) error {
	cur, ok := f.returns[d.ID]
	if !ok {
		return apperror.NewNotFound("dyeing return", d.ID)
	}
	if cur.Version != d.Version {
		return apperror.NewConflict("dyeing return was modified concurrently")
	}
	cp := *d
	cp.Version++
	f.returns[d.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteReturn(ctx context.Context, returnID id.ID) error {
	delete(f.returns, returnID)
	return nil
}

func (f *fakeRepo) GetReturn(ctx context.Context, returnID id.ID) (*DyeingReturnEntry, error) {
	d, ok := f.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound("dyeing return", returnID)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) ListReturnsByLot(ctx context.Context, lotID id.ID) ([]DyeingReturnEntry, error) {
	return nil, nil
}

func (f *fakeRepo) ListReturnsByLotAndUnit(ctx context.Context, lotID, dyeingUnitID id.ID) ([]DyeingReturnEntry, error) {
	return nil, nil
}

func (f *fakeRepo) ListReturnsByLots(ctx context.Context, lotIDs []id.ID) ([]DyeingReturnEntry, error) {
	return nil, nil
}

type fakeParties struct {
	known map[string]bool
}

func (f *fakeParties) GetByName(ctx context.Context, name string) (*party.Party, error) {
	if !f.known[name] {
		return nil, apperror.NewNotFound("party", name)
	}
	return party.New(name, party.RoleKnittingUnit), nil
}

type fakeRegistry struct {
	lotsByNo map[string]*registry.Lot
	lotsByID map[id.ID]*registry.Lot

	weightUpdates map[id.ID]types.Kg
}

func newFakeRegistryAccess() *fakeRegistry {
	return &fakeRegistry{
		lotsByNo:      make(map[string]*registry.Lot),
		lotsByID:      make(map[id.ID]*registry.Lot),
		weightUpdates: make(map[id.ID]types.Kg),
	}
}

func (f *fakeRegistry) addLot(lotNo string, weightKg float64) *registry.Lot {
	batchRef, index := registry.SplitLotNo(lotNo)
	l := registry.NewLot(id.New(), batchRef, index)
	l.WeightKg = decimal.NewFromFloat(weightKg)
	f.lotsByNo[lotNo] = l
	f.lotsByID[l.ID] = l
	return l
}

func (f *fakeRegistry) GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error) {
	l, ok := f.lotsByNo[lotNo]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotNo)
	}
	return l, nil
}

func (f *fakeRegistry) GetLotByID(ctx context.Context, lotID id.ID) (*registry.Lot, error) {
	l, ok := f.lotsByID[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID)
	}
	return l, nil
}

func (f *fakeRegistry) UpdateLotWeight(ctx context.Context, lotID id.ID, weightKg types.Kg) error {
	f.weightUpdates[lotID] = weightKg
	f.lotsByID[lotID].WeightKg = weightKg
	return nil
}

type fakeStatuses struct {
	recomputed []string
}

func (f *fakeStatuses) RecomputeBatch(ctx context.Context, batchRef string) error {
	f.recomputed = append(f.recomputed, batchRef)
	return nil
}

type fakeAuditor struct {
	creates, updates, deletes int
}

func (f *fakeAuditor) LogCreate(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error {
	f.creates++
	return nil
}

func (f *fakeAuditor) LogUpdate(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error {
	f.updates++
	return nil
}

func (f *fakeAuditor) LogDelete(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error {
	f.deletes++
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type serviceFixture struct {
	repo     *fakeRepo
	parties  *fakeParties
	registry *fakeRegistry
	statuses *fakeStatuses
	auditor  *fakeAuditor
	svc      *Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo: newFakeRepo(),
		parties: &fakeParties{known: map[string]bool{
			"Shakti Knits":   true,
			"Rainbow Dyeing": true,
			"Vardhman Yarns": true,
		}},
		registry: newFakeRegistryAccess(),
		statuses: &fakeStatuses{},
		auditor:  &fakeAuditor{},
	}
	f.svc = NewService(f.repo, f.parties, f.registry, f.statuses, f.auditor, fakeTxManager{})
	return f
}

func validPurchase() *PurchaseEntry {
	return &PurchaseEntry{
		Base:        entity.NewBase(),
		Date:        time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC),
		BatchRef:    "200",
		LotNo:       "200/1",
		Supplier:    "Vardhman Yarns",
		DeliveredTo: "Shakti Knits",
		YarnType:    "30s Cotton",
		QtyKg:       decimal.NewFromInt(160),
		QtyRolls:    8,
		UnitPrice:   decimal.NewFromInt(250),
	}
}

func TestRecordPurchase_StoresAuditsRecomputes(t *testing.T) {
	f := newServiceFixture()
	f.registry.addLot("200/1", 0)
	p := validPurchase()

	require.NoError(t, f.svc.RecordPurchase(context.Background(), p))

	assert.Len(t, f.repo.purchases, 1)
	assert.Equal(t, 1, f.auditor.creates)
	assert.Equal(t, []string{"200"}, f.statuses.recomputed)
}

func TestRecordPurchase_CapturesLotWeightOnce(t *testing.T) {
	f := newServiceFixture()
	lot := f.registry.addLot("200/1", 0)

	require.NoError(t, f.svc.RecordPurchase(context.Background(), validPurchase()))
	assert.True(t, f.registry.weightUpdates[lot.ID].Equal(decimal.NewFromInt(160)))

	// A second purchase against the same lot must not overwrite the weight.
	p2 := validPurchase()
	p2.QtyKg = decimal.NewFromInt(99)
	require.NoError(t, f.svc.RecordPurchase(context.Background(), p2))
	assert.True(t, f.registry.weightUpdates[lot.ID].Equal(decimal.NewFromInt(160)))
}

func TestRecordPurchase_DanglingLotAccepted(t *testing.T) {
	// The registry row may not exist yet; the purchase still lands and the
	// recompute runs (and surfaces the dangling ref as a diagnostic there).
	f := newServiceFixture()

	require.NoError(t, f.svc.RecordPurchase(context.Background(), validPurchase()))
	assert.Len(t, f.repo.purchases, 1)
}

func TestRecordPurchase_UnknownPartyRejected(t *testing.T) {
	f := newServiceFixture()
	p := validPurchase()
	p.DeliveredTo = "Ghost Mills"

	err := f.svc.RecordPurchase(context.Background(), p)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.repo.purchases)
}

func TestRecordPurchase_ValidationRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *PurchaseEntry)
	}{
		{"zero date", func(p *PurchaseEntry) { p.Date = time.Time{} }},
		{"no delivered-to", func(p *PurchaseEntry) { p.DeliveredTo = "" }},
		{"no quantities", func(p *PurchaseEntry) { p.QtyKg = decimal.Zero; p.QtyRolls = 0 }},
		{"negative kg", func(p *PurchaseEntry) { p.QtyKg = decimal.NewFromInt(-1) }},
		{"negative rolls", func(p *PurchaseEntry) { p.QtyRolls = -1 }},
		{"negative price", func(p *PurchaseEntry) { p.UnitPrice = decimal.NewFromInt(-5) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture()
			p := validPurchase()
			tc.mutate(p)

			err := f.svc.RecordPurchase(context.Background(), p)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestUpdatePurchase_RecomputesBothBatchesWhenRefMoves(t *testing.T) {
	f := newServiceFixture()
	p := validPurchase()
	require.NoError(t, f.svc.RecordPurchase(context.Background(), p))
	f.statuses.recomputed = nil

	moved := *p
	moved.BatchRef = "300"
	moved.LotNo = "300/1"
	require.NoError(t, f.svc.UpdatePurchase(context.Background(), &moved))

	assert.Equal(t, []string{"200", "300"}, f.statuses.recomputed)
	assert.Equal(t, 1, f.auditor.updates)
}

func TestUpdatePurchase_SyncsVersionAfterWrite(t *testing.T) {
	f := newServiceFixture()
	p := validPurchase()
	require.NoError(t, f.svc.RecordPurchase(context.Background(), p))

	edited := *p
	edited.UnitPrice = decimal.NewFromInt(260)
	require.NoError(t, f.svc.UpdatePurchase(context.Background(), &edited))

	// The caller's copy must carry the stored version so a follow-up edit
	// passes the optimistic lock.
	assert.Equal(t, 2, edited.Version)
	assert.Equal(t, 2, f.repo.purchases[p.ID].Version)

	edited.UnitPrice = decimal.NewFromInt(270)
	require.NoError(t, f.svc.UpdatePurchase(context.Background(), &edited))
	assert.Equal(t, 3, edited.Version)
}

func TestDeletePurchase_RecomputesItsBatch(t *testing.T) {
	f := newServiceFixture()
	p := validPurchase()
	require.NoError(t, f.svc.RecordPurchase(context.Background(), p))
	f.statuses.recomputed = nil

	require.NoError(t, f.svc.DeletePurchase(context.Background(), p.ID))

	assert.Empty(t, f.repo.purchases)
	assert.Equal(t, 1, f.auditor.deletes)
	assert.Equal(t, []string{"200"}, f.statuses.recomputed)
}

func validReturn(lotID, unitID id.ID) *DyeingReturnEntry {
	return &DyeingReturnEntry{
		Base:          entity.NewBase(),
		LotID:         lotID,
		DyeingUnitID:  unitID,
		ReturnedDate:  time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		ReturnedKg:    decimal.NewFromInt(152),
		ReturnedRolls: 8,
	}
}

func TestRecordReturn_RequiresExistingLot(t *testing.T) {
	f := newServiceFixture()

	err := f.svc.RecordReturn(context.Background(), validReturn(id.New(), id.New()))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.repo.returns)
}

func TestRecordReturn_StoresAndRecomputesLotBatch(t *testing.T) {
	f := newServiceFixture()
	lot := f.registry.addLot("200/1", 160)

	require.NoError(t, f.svc.RecordReturn(context.Background(), validReturn(lot.ID, id.New())))

	assert.Len(t, f.repo.returns, 1)
	assert.Equal(t, 1, f.auditor.creates)
	assert.Equal(t, []string{"200"}, f.statuses.recomputed)
}

func TestUpdateReturn_RecomputesBothBatchesWhenLotMoves(t *testing.T) {
	f := newServiceFixture()
	oldLot := f.registry.addLot("200/1", 160)
	newLot := f.registry.addLot("300/1", 160)
	d := validReturn(oldLot.ID, id.New())
	require.NoError(t, f.svc.RecordReturn(context.Background(), d))
	f.statuses.recomputed = nil

	moved := *d
	moved.LotID = newLot.ID
	require.NoError(t, f.svc.UpdateReturn(context.Background(), &moved))

	assert.Equal(t, []string{"200", "300"}, f.statuses.recomputed)
	assert.Equal(t, 1, f.auditor.updates)
}

func TestUpdateReturn_SameLotRecomputesOnce(t *testing.T) {
	f := newServiceFixture()
	lot := f.registry.addLot("200/1", 160)
	d := validReturn(lot.ID, id.New())
	require.NoError(t, f.svc.RecordReturn(context.Background(), d))
	f.statuses.recomputed = nil

	edited := *d
	edited.ReturnedKg = decimal.NewFromInt(150)
	require.NoError(t, f.svc.UpdateReturn(context.Background(), &edited))

	assert.Equal(t, []string{"200"}, f.statuses.recomputed)
}

func TestUpdateReturn_SyncsVersionAfterWrite(t *testing.T) {
	f := newServiceFixture()
	lot := f.registry.addLot("200/1", 160)
	d := validReturn(lot.ID, id.New())
	require.NoError(t, f.svc.RecordReturn(context.Background(), d))

	edited := *d
	edited.ReturnedRolls = 7
	require.NoError(t, f.svc.UpdateReturn(context.Background(), &edited))

	assert.Equal(t, 2, edited.Version)
	assert.Equal(t, 2, f.repo.returns[d.ID].Version)
}

func TestDeleteReturn_SurvivesMissingLot(t *testing.T) {
	f := newServiceFixture()
	lot := f.registry.addLot("200/1", 160)
	d := validReturn(lot.ID, id.New())
	require.NoError(t, f.svc.RecordReturn(context.Background(), d))

	// The lot vanishes before the delete; the write must still succeed.
	delete(f.registry.lotsByID, lot.ID)

	require.NoError(t, f.svc.DeleteReturn(context.Background(), d.ID))
	assert.Empty(t, f.repo.returns)
}

func TestOutwardForHolder_FiltersDirection(t *testing.T) {
	f := newServiceFixture()

	inward := validPurchase()
	require.NoError(t, f.svc.RecordPurchase(context.Background(), inward))

	outward := validPurchase()
	outward.Base = entity.NewBase()
	outward.Supplier = "Shakti Knits"
	outward.DeliveredTo = "Rainbow Dyeing"
	require.NoError(t, f.svc.RecordPurchase(context.Background(), outward))

	rows, err := f.svc.OutwardForHolder(context.Background(), "Shakti Knits")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rainbow Dyeing", rows[0].DeliveredTo)
}
