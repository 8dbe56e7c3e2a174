package registry

import (
	"context"
	"fmt"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/core/tx"
	"loomledger/internal/core/types"
	"loomledger/pkg/logger"
)

// StatusRecomputer re-derives cached statuses for one batch.
type StatusRecomputer interface {
	RecomputeBatch(ctx context.Context, batchRef string) error
}

// Service provides business logic for the batch/lot registry.
type Service struct {
	repo      Repository
	txManager tx.Manager
	statuses  StatusRecomputer
}

// NewService creates a new registry service.
func NewService(repo Repository, txManager tx.Manager, statuses StatusRecomputer) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		statuses:  statuses,
	}
}

// CreateBatch creates a batch and its initial lots in one atomic unit.
// A duplicate batch reference is an invariant violation and is rejected
// before anything is written.
func (s *Service) CreateBatch(ctx context.Context, b *Batch, lotCount int) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	if lotCount < 0 {
		return apperror.NewValidation("lot count must not be negative").
			WithDetail("field", "lotCount")
	}

	existing, err := s.repo.GetBatchByRef(ctx, b.BatchRef)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check batch ref: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("batch", "batch_ref", b.BatchRef)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateBatch(ctx, b); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		for i := 1; i <= lotCount; i++ {
			lot := NewLot(b.ID, b.BatchRef, i)
			if err := s.repo.CreateLot(ctx, lot); err != nil {
				return fmt.Errorf("create lot %s: %w", lot.LotNo, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "batch created",
		"batch_ref", b.BatchRef,
		"lots", lotCount,
	)
	return nil
}

// AddLot appends a lot to an existing batch. The index is not forced to be
// contiguous, only unique.
func (s *Service) AddLot(ctx context.Context, batchRef string, index int) (*Lot, error) {
	b, err := s.repo.GetBatchByRef(ctx, batchRef)
	if err != nil {
		return nil, err
	}

	lot := NewLot(b.ID, b.BatchRef, index)
	if err := lot.Validate(ctx); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetLotByNo(ctx, lot.LotNo)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check lot no: %w", err)
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("lot", "lot_no", lot.LotNo)
	}

	if err := s.repo.CreateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("create lot: %w", err)
	}

	if err := s.statuses.RecomputeBatch(ctx, batchRef); err != nil {
		return nil, fmt.Errorf("recompute batch: %w", err)
	}

	return lot, nil
}

// UpdateLotWeight changes a lot's weight and re-derives the batch, since the
// completion threshold is relative to the weight.
func (s *Service) UpdateLotWeight(ctx context.Context, lotNo string, weightKg types.Kg) error {
	if weightKg.IsNegative() {
		return apperror.NewValidation("lot weight must not be negative").
			WithDetail("field", "weightKg")
	}

	lot, err := s.repo.GetLotByNo(ctx, lotNo)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateLotWeight(ctx, lot.ID, weightKg); err != nil {
		return fmt.Errorf("update lot weight: %w", err)
	}

	batchRef, _ := SplitLotNo(lotNo)
	return s.statuses.RecomputeBatch(ctx, batchRef)
}

// GetBatchByRef retrieves a batch by reference.
func (s *Service) GetBatchByRef(ctx context.Context, batchRef string) (*Batch, error) {
	return s.repo.GetBatchByRef(ctx, batchRef)
}

// GetLotByNo retrieves a lot by its number.
func (s *Service) GetLotByNo(ctx context.Context, lotNo string) (*Lot, error) {
	return s.repo.GetLotByNo(ctx, lotNo)
}

// ListBatches returns all batches.
func (s *Service) ListBatches(ctx context.Context) ([]Batch, error) {
	return s.repo.ListBatches(ctx)
}

// ListBatchesByFabricator returns the batches owned by a knitting unit.
func (s *Service) ListBatchesByFabricator(ctx context.Context, fabricatorID id.ID) ([]Batch, error) {
	return s.repo.ListBatchesByFabricator(ctx, fabricatorID)
}

// ListLots returns the lots of a batch.
func (s *Service) ListLots(ctx context.Context, batchRef string) ([]Lot, error) {
	b, err := s.repo.GetBatchByRef(ctx, batchRef)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLotsByBatch(ctx, b.ID)
}
