package registry

import (
	"context"

	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
)

// Repository defines persistence operations for batches and lots.
type Repository interface {
	// CreateBatch inserts a batch row. Callers wrap batch+lot creation in one
	// transaction so a crash cannot surface a half-created batch.
	CreateBatch(ctx context.Context, b *Batch) error
	CreateLot(ctx context.Context, l *Lot) error

	GetBatchByRef(ctx context.Context, batchRef string) (*Batch, error)
	GetLotByNo(ctx context.Context, lotNo string) (*Lot, error)
	GetLotByID(ctx context.Context, lotID id.ID) (*Lot, error)

	ListBatches(ctx context.Context) ([]Batch, error)
	ListBatchesByFabricator(ctx context.Context, fabricatorID id.ID) ([]Batch, error)
	ListLotsByBatch(ctx context.Context, batchID id.ID) ([]Lot, error)

	UpdateLotWeight(ctx context.Context, lotID id.ID, weightKg types.Kg) error

	// SetBatchStatus and SetLotStatus write back cached derived statuses.
	// The status engine is their only caller.
	SetBatchStatus(ctx context.Context, batchID id.ID, status Status) error
	SetLotStatus(ctx context.Context, lotID id.ID, status Status) error
}
