// Package registry provides the Batch/Lot hierarchy: production orders and
// their numbered subdivisions that ledger rows reference by string.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
)

// Status is the derived lifecycle state of a lot or batch.
// The ordering Ordered < Knitted < Dyed < Received matters: a batch's status
// is the minimum of its lots' statuses.
type Status string

const (
	StatusOrdered  Status = "Ordered"
	StatusKnitted  Status = "Knitted"
	StatusDyed     Status = "Dyed"
	StatusReceived Status = "Received"
)

var statusRank = map[Status]int{
	StatusOrdered:  0,
	StatusKnitted:  1,
	StatusDyed:     2,
	StatusReceived: 3,
}

// Rank returns the position of s in the lifecycle ordering.
// Unknown values rank lowest.
func (s Status) Rank() int {
	return statusRank[s]
}

// MinStatus returns the earlier of two lifecycle states.
func MinStatus(a, b Status) Status {
	if b.Rank() < a.Rank() {
		return b
	}
	return a
}

// Batch represents one production order.
type Batch struct {
	entity.Base

	// BatchRef is the human-assigned reference, e.g. "200".
	// Globally unique, immutable once lots exist under it.
	BatchRef string `db:"batch_ref" json:"batchRef"`

	// FabricatorID is the owning knitting unit.
	FabricatorID id.ID `db:"fabricator_id" json:"fabricatorId"`

	ProductName  string `db:"product_name" json:"productName"`
	ExpectedLots int    `db:"expected_lots" json:"expectedLots"`
	Composition  string `db:"composition" json:"composition,omitempty"`

	// Status is the cached derived state; the status engine owns it.
	Status Status `db:"status" json:"status"`
}

// Lot is a numbered subdivision of a batch, the unit at which dyeing and
// return tracking happens.
type Lot struct {
	entity.Base

	BatchID id.ID `db:"batch_id" json:"batchId"`

	// LotNo is "{batch_ref}/{index}", unique across all batches.
	LotNo string `db:"lot_no" json:"lotNo"`

	// LotIndex is 1-based within the batch. Contiguity is a convention, not
	// an enforced invariant.
	LotIndex int `db:"lot_index" json:"lotIndex"`

	// WeightKg is set from the purchase that created the lot and may be
	// updated later.
	WeightKg types.Kg `db:"weight_kg" json:"weightKg"`

	// Status is the cached derived state; the status engine owns it.
	Status Status `db:"status" json:"status"`
}

// LotNumber reconstructs a lot number from its parts. Lot numbers must always
// round-trip through this format.
func LotNumber(batchRef string, index int) string {
	return fmt.Sprintf("%s/%d", batchRef, index)
}

// SplitLotNo breaks a lot number back into batch reference and index.
// The separator is the last slash, so batch references containing slashes
// still round-trip. A malformed lot number yields the whole string as the
// batch reference and index 0.
func SplitLotNo(lotNo string) (batchRef string, index int) {
	cut := strings.LastIndex(lotNo, "/")
	if cut < 0 {
		return lotNo, 0
	}
	idx, err := strconv.Atoi(lotNo[cut+1:])
	if err != nil {
		return lotNo, 0
	}
	return lotNo[:cut], idx
}

// NewBatch creates a batch in the initial state.
func NewBatch(batchRef string, fabricatorID id.ID, productName string, expectedLots int, composition string) *Batch {
	return &Batch{
		Base:         entity.NewBase(),
		BatchRef:     batchRef,
		FabricatorID: fabricatorID,
		ProductName:  productName,
		ExpectedLots: expectedLots,
		Composition:  composition,
		Status:       StatusOrdered,
	}
}

// NewLot creates a lot under a batch.
func NewLot(batchID id.ID, batchRef string, index int) *Lot {
	return &Lot{
		Base:     entity.NewBase(),
		BatchID:  batchID,
		LotNo:    LotNumber(batchRef, index),
		LotIndex: index,
		WeightKg: types.Zero(),
		Status:   StatusOrdered,
	}
}

// Validate implements entity.Validatable.
func (b *Batch) Validate(ctx context.Context) error {
	if b.BatchRef == "" {
		return apperror.NewValidation("batch reference is required").
			WithDetail("field", "batchRef")
	}
	if id.IsNil(b.FabricatorID) {
		return apperror.NewValidation("fabricator is required").
			WithDetail("field", "fabricatorId")
	}
	if b.ExpectedLots < 0 {
		return apperror.NewValidation("expected lot count must not be negative").
			WithDetail("field", "expectedLots")
	}
	return nil
}

// Validate implements entity.Validatable.
func (l *Lot) Validate(ctx context.Context) error {
	if id.IsNil(l.BatchID) {
		return apperror.NewValidation("batch is required").
			WithDetail("field", "batchId")
	}
	if l.LotIndex < 1 {
		return apperror.NewValidation("lot index must be 1-based").
			WithDetail("field", "lotIndex")
	}
	if l.WeightKg.IsNegative() {
		return apperror.NewValidation("lot weight must not be negative").
			WithDetail("field", "weightKg")
	}
	return nil
}
