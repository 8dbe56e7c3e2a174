package ledger

import (
	"context"
	"time"

	"loomledger/internal/core/id"
)

// Repository defines persistence operations for ledger rows.
// All list methods are bounded scans over business-scale data; none mutate.
type Repository interface {
	// Purchases

	CreatePurchase(ctx context.Context, p *PurchaseEntry) error
	UpdatePurchase(ctx context.Context, p *PurchaseEntry) error
	DeletePurchase(ctx context.Context, purchaseID id.ID) error
	GetPurchase(ctx context.Context, purchaseID id.ID) (*PurchaseEntry, error)

	ListPurchasesByBatchRef(ctx context.Context, batchRef string) ([]PurchaseEntry, error)
	ListPurchasesByLotNo(ctx context.Context, lotNo string) ([]PurchaseEntry, error)
	// ListPurchasesByHolder returns rows where the holder appears as either
	// supplier or delivered-to party; the aggregator filters direction.
	ListPurchasesByHolder(ctx context.Context, holder string) ([]PurchaseEntry, error)
	ListPurchasesDeliveredTo(ctx context.Context, deliveredTo string) ([]PurchaseEntry, error)
	ListPurchasesBetween(ctx context.Context, from, to time.Time) ([]PurchaseEntry, error)

	// Dyeing returns

	CreateReturn(ctx context.Context, d *DyeingReturnEntry) error
	UpdateReturn(ctx context.Context, d *DyeingReturnEntry) error
	DeleteReturn(ctx context.Context, returnID id.ID) error
	GetReturn(ctx context.Context, returnID id.ID) (*DyeingReturnEntry, error)

	ListReturnsByLot(ctx context.Context, lotID id.ID) ([]DyeingReturnEntry, error)
	ListReturnsByLotAndUnit(ctx context.Context, lotID, dyeingUnitID id.ID) ([]DyeingReturnEntry, error)
	ListReturnsByLots(ctx context.Context, lotIDs []id.ID) ([]DyeingReturnEntry, error)
}
