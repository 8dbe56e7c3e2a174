// Package ledger provides the two append-mostly transaction tables the whole
// derivation core is computed from: yarn purchases (in/out movements) and
// dyeing returns.
package ledger

import (
	"context"
	"time"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
)

// PurchaseEntry is one movement of yarn: a supplier delivering to a party, or
// a party transferring stock onward. Batch and lot are referenced by string,
// not by foreign key, so a row may point at a batch/lot that does not exist
// yet. Derivation code must resolve these references explicitly.
type PurchaseEntry struct {
	entity.Base

	Date time.Time `db:"entry_date" json:"date"`

	// BatchRef and LotNo are soft references into the registry.
	BatchRef string `db:"batch_ref" json:"batchRef"`
	LotNo    string `db:"lot_no" json:"lotNo"`

	// Supplier is the party the goods came from; DeliveredTo is the party
	// now holding them. Both reference parties by name.
	Supplier    string `db:"supplier" json:"supplier"`
	DeliveredTo string `db:"delivered_to" json:"deliveredTo"`

	YarnType string `db:"yarn_type" json:"yarnType"`

	// QtyKg and QtyRolls are the two independent measures; at least one must
	// be positive.
	QtyKg    types.Kg `db:"qty_kg" json:"qtyKg"`
	QtyRolls int      `db:"qty_rolls" json:"qtyRolls"`

	// UnitPrice is the per-kg purchase price.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// DyeingReturnEntry records dyed output coming back for a lot. A lot may have
// zero, one, or many returns; the aggregate decides completion.
type DyeingReturnEntry struct {
	entity.Base

	LotID        id.ID `db:"lot_id" json:"lotId"`
	DyeingUnitID id.ID `db:"dyeing_unit_id" json:"dyeingUnitId"`

	ReturnedDate  time.Time `db:"returned_date" json:"returnedDate"`
	ReturnedKg    types.Kg  `db:"returned_kg" json:"returnedKg"`
	ReturnedRolls int       `db:"returned_rolls" json:"returnedRolls"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// Validate implements entity.Validatable.
func (p *PurchaseEntry) Validate(ctx context.Context) error {
	if p.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if p.DeliveredTo == "" {
		return apperror.NewValidation("delivered-to party is required").
			WithDetail("field", "deliveredTo")
	}
	if !p.QtyKg.IsPositive() && p.QtyRolls <= 0 {
		return apperror.NewValidation("at least one of kg or rolls must be positive").
			WithDetail("field", "qtyKg")
	}
	if p.QtyKg.IsNegative() {
		return apperror.NewValidation("kg quantity must not be negative").
			WithDetail("field", "qtyKg")
	}
	if p.QtyRolls < 0 {
		return apperror.NewValidation("roll quantity must not be negative").
			WithDetail("field", "qtyRolls")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}

// Validate implements entity.Validatable.
func (d *DyeingReturnEntry) Validate(ctx context.Context) error {
	if id.IsNil(d.LotID) {
		return apperror.NewValidation("lot is required").
			WithDetail("field", "lotId")
	}
	if id.IsNil(d.DyeingUnitID) {
		return apperror.NewValidation("dyeing unit is required").
			WithDetail("field", "dyeingUnitId")
	}
	if d.ReturnedDate.IsZero() {
		return apperror.NewValidation("returned date is required").
			WithDetail("field", "returnedDate")
	}
	if !d.ReturnedKg.IsPositive() && d.ReturnedRolls <= 0 {
		return apperror.NewValidation("at least one of kg or rolls must be positive").
			WithDetail("field", "returnedKg")
	}
	if d.ReturnedKg.IsNegative() {
		return apperror.NewValidation("returned kg must not be negative").
			WithDetail("field", "returnedKg")
	}
	if d.ReturnedRolls < 0 {
		return apperror.NewValidation("returned rolls must not be negative").
			WithDetail("field", "returnedRolls")
	}
	return nil
}
