package ledger

import (
	"context"
	"fmt"
	"time"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/core/tx"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/registry"
	"loomledger/pkg/logger"
)

// PartyDirectory resolves party names. Writes are validated against it so a
// purchase can never be recorded against an unknown holder.
type PartyDirectory interface {
	GetByName(ctx context.Context, name string) (*party.Party, error)
}

// RegistryAccess is the slice of the registry the ledger needs: resolving
// lots behind soft references and capturing lot weight from the first
// purchase.
type RegistryAccess interface {
	GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error)
	GetLotByID(ctx context.Context, lotID id.ID) (*registry.Lot, error)
	UpdateLotWeight(ctx context.Context, lotID id.ID, weightKg types.Kg) error
}

// StatusRecomputer re-derives cached statuses after ledger mutations.
type StatusRecomputer interface {
	RecomputeBatch(ctx context.Context, batchRef string) error
}

// Auditor records a change-log entry for every ledger mutation.
type Auditor interface {
	LogCreate(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error
	LogUpdate(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error
	LogDelete(ctx context.Context, entityType string, entityID id.ID, changes map[string]any) error
}

// Service provides validated write operations over the ledger. Every write is
// one transaction (row + audit + lot weight capture) followed by a status
// recompute for the affected batch.
type Service struct {
	repo      Repository
	parties   PartyDirectory
	registry  RegistryAccess
	statuses  StatusRecomputer
	auditor   Auditor
	txManager tx.Manager
}

// NewService creates a new ledger write service.
func NewService(
	repo Repository,
	parties PartyDirectory,
	reg RegistryAccess,
	statuses StatusRecomputer,
	auditor Auditor,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		parties:   parties,
		registry:  reg,
		statuses:  statuses,
		auditor:   auditor,
		txManager: txManager,
	}
}

// RecordPurchase validates and stores a purchase entry.
// The delivered-to party must resolve; the batch/lot references may dangle
// (the registry row may not exist yet) and are resolved lazily by the
// derivation layer.
func (s *Service) RecordPurchase(ctx context.Context, p *PurchaseEntry) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.resolveParty(ctx, p.DeliveredTo, "deliveredTo"); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreatePurchase(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		if err := s.captureLotWeight(ctx, p); err != nil {
			return err
		}
		return s.auditor.LogCreate(ctx, "PurchaseEntry", p.ID, purchaseChanges(p))
	})
	if err != nil {
		return err
	}

	return s.recomputeFor(ctx, p.BatchRef)
}

// UpdatePurchase stores changes to a purchase entry and re-derives both the
// old and the new batch when the reference moved.
func (s *Service) UpdatePurchase(ctx context.Context, p *PurchaseEntry) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.resolveParty(ctx, p.DeliveredTo, "deliveredTo"); err != nil {
		return err
	}

	prev, err := s.repo.GetPurchase(ctx, p.ID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdatePurchase(ctx, p); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		return s.auditor.LogUpdate(ctx, "PurchaseEntry", p.ID, purchaseChanges(p))
	})
	if err != nil {
		return err
	}
	p.Touch()

	if prev.BatchRef != p.BatchRef {
		if err := s.recomputeFor(ctx, prev.BatchRef); err != nil {
			return err
		}
	}
	return s.recomputeFor(ctx, p.BatchRef)
}

// DeletePurchase removes a purchase entry and re-derives its batch.
func (s *Service) DeletePurchase(ctx context.Context, purchaseID id.ID) error {
	p, err := s.repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeletePurchase(ctx, purchaseID); err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}
		return s.auditor.LogDelete(ctx, "PurchaseEntry", purchaseID, purchaseChanges(p))
	})
	if err != nil {
		return err
	}

	return s.recomputeFor(ctx, p.BatchRef)
}

// RecordReturn validates and stores a dyeing return. The lot is a hard
// reference here; unlike purchases, a return cannot be recorded against a lot
// that does not exist.
func (s *Service) RecordReturn(ctx context.Context, d *DyeingReturnEntry) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}

	lot, err := s.registry.GetLotByID(ctx, d.LotID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("lot does not exist").
				WithDetail("field", "lotId").
				WithDetail("value", d.LotID.String())
		}
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateReturn(ctx, d); err != nil {
			return fmt.Errorf("create return: %w", err)
		}
		return s.auditor.LogCreate(ctx, "DyeingReturnEntry", d.ID, returnChanges(d))
	})
	if err != nil {
		return err
	}

	batchRef, _ := registry.SplitLotNo(lot.LotNo)
	return s.recomputeFor(ctx, batchRef)
}

// UpdateReturn stores changes to a dyeing return and re-derives both the old
// and the new lot's batch when the return moved between lots.
func (s *Service) UpdateReturn(ctx context.Context, d *DyeingReturnEntry) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}

	lot, err := s.registry.GetLotByID(ctx, d.LotID)
	if err != nil {
		return err
	}

	prev, err := s.repo.GetReturn(ctx, d.ID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateReturn(ctx, d); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		return s.auditor.LogUpdate(ctx, "DyeingReturnEntry", d.ID, returnChanges(d))
	})
	if err != nil {
		return err
	}
	d.Touch()

	batchRef, _ := registry.SplitLotNo(lot.LotNo)
	if prev.LotID != d.LotID {
		if prevLot, err := s.registry.GetLotByID(ctx, prev.LotID); err == nil {
			prevRef, _ := registry.SplitLotNo(prevLot.LotNo)
			if prevRef != batchRef {
				if err := s.recomputeFor(ctx, prevRef); err != nil {
					return err
				}
			}
		} else {
			logger.Warn(ctx, "previous lot lookup failed after return update",
				"lot_id", prev.LotID,
				"error", err,
			)
		}
	}
	return s.recomputeFor(ctx, batchRef)
}

// DeleteReturn removes a dyeing return and re-derives the lot's batch.
func (s *Service) DeleteReturn(ctx context.Context, returnID id.ID) error {
	d, err := s.repo.GetReturn(ctx, returnID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteReturn(ctx, returnID); err != nil {
			return fmt.Errorf("delete return: %w", err)
		}
		return s.auditor.LogDelete(ctx, "DyeingReturnEntry", returnID, returnChanges(d))
	})
	if err != nil {
		return err
	}

	lot, err := s.registry.GetLotByID(ctx, d.LotID)
	if err != nil {
		// The lot may have been removed since; the cached statuses will be
		// refreshed on the next write that touches the batch.
		logger.Warn(ctx, "lot lookup failed after return delete",
			"lot_id", d.LotID,
			"error", err,
		)
		return nil
	}
	batchRef, _ := registry.SplitLotNo(lot.LotNo)
	return s.recomputeFor(ctx, batchRef)
}

// --- Read operations (consumed by the excluded UI layer and reports) ---

// Purchase returns a single purchase row.
func (s *Service) Purchase(ctx context.Context, purchaseID id.ID) (*PurchaseEntry, error) {
	return s.repo.GetPurchase(ctx, purchaseID)
}

// Return returns a single dyeing return row.
func (s *Service) Return(ctx context.Context, returnID id.ID) (*DyeingReturnEntry, error) {
	return s.repo.GetReturn(ctx, returnID)
}

// PurchasesByBatch lists the purchase rows of a batch.
func (s *Service) PurchasesByBatch(ctx context.Context, batchRef string) ([]PurchaseEntry, error) {
	return s.repo.ListPurchasesByBatchRef(ctx, batchRef)
}

// PurchasesByLot lists the purchase rows of a lot.
func (s *Service) PurchasesByLot(ctx context.Context, lotNo string) ([]PurchaseEntry, error) {
	return s.repo.ListPurchasesByLotNo(ctx, lotNo)
}

// InwardForHolder lists rows delivered to the holder.
func (s *Service) InwardForHolder(ctx context.Context, holder string) ([]PurchaseEntry, error) {
	return s.repo.ListPurchasesDeliveredTo(ctx, holder)
}

// OutwardForHolder lists rows the holder sent to someone else.
func (s *Service) OutwardForHolder(ctx context.Context, holder string) ([]PurchaseEntry, error) {
	rows, err := s.repo.ListPurchasesByHolder(ctx, holder)
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseEntry, 0, len(rows))
	for _, r := range rows {
		if r.Supplier == holder && r.DeliveredTo != holder {
			out = append(out, r)
		}
	}
	return out, nil
}

// PurchasesBetween lists purchase rows in a date window, inclusive.
func (s *Service) PurchasesBetween(ctx context.Context, from, to time.Time) ([]PurchaseEntry, error) {
	return s.repo.ListPurchasesBetween(ctx, from, to)
}

// ReturnsByLot lists the dyeing returns of a lot.
func (s *Service) ReturnsByLot(ctx context.Context, lotID id.ID) ([]DyeingReturnEntry, error) {
	return s.repo.ListReturnsByLot(ctx, lotID)
}

// --- internals ---

func (s *Service) resolveParty(ctx context.Context, name, field string) error {
	if name == "" {
		return apperror.NewValidation("party name is required").
			WithDetail("field", field)
	}
	_, err := s.parties.GetByName(ctx, name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("unknown party").
				WithDetail("field", field).
				WithDetail("value", name)
		}
		return fmt.Errorf("resolve party %q: %w", name, err)
	}
	return nil
}

// captureLotWeight sets the lot weight from the purchase that created it.
// A dangling lot reference is fine here; the status engine surfaces it as a
// diagnostic during recompute.
func (s *Service) captureLotWeight(ctx context.Context, p *PurchaseEntry) error {
	if p.LotNo == "" || !p.QtyKg.IsPositive() {
		return nil
	}
	lot, err := s.registry.GetLotByNo(ctx, p.LotNo)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("resolve lot %q: %w", p.LotNo, err)
	}
	if !lot.WeightKg.IsZero() {
		return nil
	}
	if err := s.registry.UpdateLotWeight(ctx, lot.ID, p.QtyKg); err != nil {
		return fmt.Errorf("capture lot weight: %w", err)
	}
	return nil
}

func (s *Service) recomputeFor(ctx context.Context, batchRef string) error {
	if batchRef == "" {
		return nil
	}
	if err := s.statuses.RecomputeBatch(ctx, batchRef); err != nil {
		return fmt.Errorf("recompute batch %q: %w", batchRef, err)
	}
	return nil
}

func purchaseChanges(p *PurchaseEntry) map[string]any {
	return map[string]any{
		"date":         p.Date.Format("2006-01-02"),
		"batch_ref":    p.BatchRef,
		"lot_no":       p.LotNo,
		"supplier":     p.Supplier,
		"yarn_type":    p.YarnType,
		"qty_kg":       p.QtyKg.String(),
		"qty_rolls":    p.QtyRolls,
		"unit_price":   p.UnitPrice.String(),
		"delivered_to": p.DeliveredTo,
	}
}

func returnChanges(d *DyeingReturnEntry) map[string]any {
	return map[string]any{
		"lot_id":         d.LotID.String(),
		"dyeing_unit_id": d.DyeingUnitID.String(),
		"returned_date":  d.ReturnedDate.Format("2006-01-02"),
		"returned_kg":    d.ReturnedKg.String(),
		"returned_rolls": d.ReturnedRolls,
	}
}
