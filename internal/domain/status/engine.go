// Package status derives batch and lot lifecycle states from the ledger.
//
// The lifecycle is Ordered -> Knitted -> Dyed -> Received, per lot:
//
//   - Ordered: some purchase references the lot (also the floor state)
//   - Knitted: a purchase for the lot was delivered to a knitting unit
//   - Dyed: returns exist but total less than the completion threshold
//   - Received: returned kg reached the completion threshold of the weight
//
// A batch is as far along as its least-advanced lot. Derivation is a pure
// read over the committed ledger; the only write-back is the cached status
// field on batches and lots.
package status

import (
	"context"
	"fmt"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/config"
	"loomledger/internal/core/id"
	"loomledger/internal/core/tx"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/pkg/logger"
)

// RegistryStore is the registry access the engine needs: lookups plus the
// cached-status write-back.
type RegistryStore interface {
	GetBatchByRef(ctx context.Context, batchRef string) (*registry.Batch, error)
	GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error)
	ListBatches(ctx context.Context) ([]registry.Batch, error)
	ListLotsByBatch(ctx context.Context, batchID id.ID) ([]registry.Lot, error)
	SetBatchStatus(ctx context.Context, batchID id.ID, status registry.Status) error
	SetLotStatus(ctx context.Context, lotID id.ID, status registry.Status) error
}

// LedgerReader is the read-only slice of the ledger the engine scans.
type LedgerReader interface {
	ListPurchasesByLotNo(ctx context.Context, lotNo string) ([]ledger.PurchaseEntry, error)
	ListReturnsByLot(ctx context.Context, lotID id.ID) ([]ledger.DyeingReturnEntry, error)
}

// RoleLookup resolves a party name to its role.
type RoleLookup interface {
	GetByName(ctx context.Context, name string) (*party.Party, error)
}

// Engine computes lifecycle statuses. It is stateless between calls and
// idempotent: two passes over unchanged ledger data yield identical results.
type Engine struct {
	registry  RegistryStore
	entries   LedgerReader
	parties   RoleLookup
	txManager tx.Manager
	cfg       config.Derivation
}

// NewEngine creates a status derivation engine.
func NewEngine(reg RegistryStore, entries LedgerReader, parties RoleLookup, txManager tx.Manager, cfg config.Derivation) *Engine {
	return &Engine{
		registry:  reg,
		entries:   entries,
		parties:   parties,
		txManager: txManager,
		cfg:       cfg,
	}
}

// LotStatus derives the current status of one lot, resolving the soft
// reference first. Never returns an error for ledger inconsistencies; those
// come back as diagnostics.
func (e *Engine) LotStatus(ctx context.Context, lotNo string) (registry.Status, []Diagnostic, error) {
	res, err := e.resolveLot(ctx, lotNo)
	if err != nil {
		return registry.StatusOrdered, nil, err
	}
	return e.deriveLot(ctx, res)
}

// BatchStatus derives the current status of a batch as the minimum of its
// lots' statuses. A batch with zero lots is Ordered; a batch reference the
// registry does not know is absorbed as Ordered plus a dangling diagnostic.
func (e *Engine) BatchStatus(ctx context.Context, batchRef string) (registry.Status, []Diagnostic, error) {
	b, err := e.registry.GetBatchByRef(ctx, batchRef)
	if err != nil {
		if apperror.IsNotFound(err) {
			return registry.StatusOrdered, []Diagnostic{danglingBatch(batchRef)}, nil
		}
		return registry.StatusOrdered, nil, err
	}

	status, _, diags, err := e.deriveBatch(ctx, b)
	return status, diags, err
}

// RecomputeBatch re-derives and persists the cached statuses of one batch and
// all of its lots in a single transaction. Must be called after every ledger
// mutation touching the batch; safe to call repeatedly.
func (e *Engine) RecomputeBatch(ctx context.Context, batchRef string) error {
	b, err := e.registry.GetBatchByRef(ctx, batchRef)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Ledger rows may reference a batch before it is registered;
			// there is nothing to cache yet.
			logger.Debug(ctx, "recompute skipped, batch not registered", "batch_ref", batchRef)
			return nil
		}
		return err
	}

	batchStatus, lotStatuses, diags, err := e.deriveBatch(ctx, b)
	if err != nil {
		return err
	}
	for _, d := range diags {
		logger.Warn(ctx, "derivation diagnostic",
			"code", d.Code,
			"ref", d.Ref,
			"detail", d.Message,
		)
	}

	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for lotID, st := range lotStatuses {
			if err := e.registry.SetLotStatus(ctx, lotID, st); err != nil {
				return fmt.Errorf("set lot status: %w", err)
			}
		}
		if err := e.registry.SetBatchStatus(ctx, b.ID, batchStatus); err != nil {
			return fmt.Errorf("set batch status: %w", err)
		}
		return nil
	})
}

// RecomputeAll re-derives every batch. Triggered by master-data changes that
// can shift role lookups, e.g. a party's role being edited.
func (e *Engine) RecomputeAll(ctx context.Context) error {
	batches, err := e.registry.ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	for _, b := range batches {
		if err := e.RecomputeBatch(ctx, b.BatchRef); err != nil {
			return fmt.Errorf("recompute %q: %w", b.BatchRef, err)
		}
	}
	return nil
}

// --- derivation core ---

func (e *Engine) resolveLot(ctx context.Context, lotNo string) (Resolution, error) {
	lot, err := e.registry.GetLotByNo(ctx, lotNo)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Unresolved(lotNo), nil
		}
		return Resolution{}, fmt.Errorf("resolve lot %q: %w", lotNo, err)
	}
	return Resolved(lot), nil
}

// deriveBatch computes the batch status and each lot's status.
func (e *Engine) deriveBatch(ctx context.Context, b *registry.Batch) (registry.Status, map[id.ID]registry.Status, []Diagnostic, error) {
	lots, err := e.registry.ListLotsByBatch(ctx, b.ID)
	if err != nil {
		return registry.StatusOrdered, nil, nil, fmt.Errorf("list lots: %w", err)
	}
	if len(lots) == 0 {
		return registry.StatusOrdered, nil, nil, nil
	}

	batchStatus := registry.StatusReceived
	lotStatuses := make(map[id.ID]registry.Status, len(lots))
	var diags []Diagnostic

	for i := range lots {
		lot := &lots[i]
		st, lotDiags, err := e.deriveLot(ctx, Resolved(lot))
		if err != nil {
			return registry.StatusOrdered, nil, nil, err
		}
		lotStatuses[lot.ID] = st
		diags = append(diags, lotDiags...)
		batchStatus = registry.MinStatus(batchStatus, st)
	}

	return batchStatus, lotStatuses, diags, nil
}

// deriveLot walks the lifecycle ladder for one lot.
func (e *Engine) deriveLot(ctx context.Context, res Resolution) (registry.Status, []Diagnostic, error) {
	if !res.Resolved() {
		return registry.StatusOrdered, []Diagnostic{danglingLot(res.RawRef)}, nil
	}
	lot := res.Lot

	returns, err := e.entries.ListReturnsByLot(ctx, lot.ID)
	if err != nil {
		return registry.StatusOrdered, nil, fmt.Errorf("list returns for %q: %w", lot.LotNo, err)
	}

	if len(returns) > 0 {
		if !lot.WeightKg.IsPositive() {
			// Returns against a lot whose weight was never captured: we
			// cannot judge completion, so stay at Dyed and flag it.
			return registry.StatusDyed, []Diagnostic{weightUnknown(lot.LotNo)}, nil
		}
		total := types.Zero()
		for _, r := range returns {
			total = total.Add(r.ReturnedKg)
		}
		required := lot.WeightKg.Mul(e.cfg.CompletionThreshold)
		if total.GreaterThanOrEqual(required) {
			return registry.StatusReceived, nil, nil
		}
		return registry.StatusDyed, nil, nil
	}

	purchases, err := e.entries.ListPurchasesByLotNo(ctx, lot.LotNo)
	if err != nil {
		return registry.StatusOrdered, nil, fmt.Errorf("list purchases for %q: %w", lot.LotNo, err)
	}

	var diags []Diagnostic
	for _, p := range purchases {
		holder, err := e.parties.GetByName(ctx, p.DeliveredTo)
		if err != nil {
			if apperror.IsNotFound(err) {
				diags = append(diags, unknownParty(p.DeliveredTo))
				continue
			}
			return registry.StatusOrdered, diags, fmt.Errorf("resolve party %q: %w", p.DeliveredTo, err)
		}
		if holder.Role == party.RoleKnittingUnit {
			return registry.StatusKnitted, diags, nil
		}
	}

	return registry.StatusOrdered, diags, nil
}
