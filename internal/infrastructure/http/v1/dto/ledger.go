package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/ledger"
)

const dateLayout = "2006-01-02"

func parseDate(s, field string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperror.NewValidation("unparsable date").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return d, nil
}

// --- Purchase DTOs ---

// PurchaseRequest is the request body for recording or updating a purchase.
type PurchaseRequest struct {
	Date        string          `json:"date" binding:"required"`
	BatchRef    string          `json:"batchRef"`
	LotNo       string          `json:"lotNo"`
	Supplier    string          `json:"supplier"`
	DeliveredTo string          `json:"deliveredTo" binding:"required"`
	YarnType    string          `json:"yarnType"`
	QtyKg       decimal.Decimal `json:"qtyKg"`
	QtyRolls    int             `json:"qtyRolls"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Notes       string          `json:"notes"`
}

// ToEntity converts DTO to a new domain entity.
func (r *PurchaseRequest) ToEntity() (*ledger.PurchaseEntry, error) {
	d, err := parseDate(r.Date, "date")
	if err != nil {
		return nil, err
	}
	return &ledger.PurchaseEntry{
		Base:        entity.NewBase(),
		Date:        d,
		BatchRef:    r.BatchRef,
		LotNo:       r.LotNo,
		Supplier:    r.Supplier,
		DeliveredTo: r.DeliveredTo,
		YarnType:    r.YarnType,
		QtyKg:       r.QtyKg,
		QtyRolls:    r.QtyRolls,
		UnitPrice:   r.UnitPrice,
		Notes:       r.Notes,
	}, nil
}

// Apply overwrites an existing entry with the request fields, keeping
// identity and version intact.
func (r *PurchaseRequest) Apply(p *ledger.PurchaseEntry) error {
	d, err := parseDate(r.Date, "date")
	if err != nil {
		return err
	}
	p.Date = d
	p.BatchRef = r.BatchRef
	p.LotNo = r.LotNo
	p.Supplier = r.Supplier
	p.DeliveredTo = r.DeliveredTo
	p.YarnType = r.YarnType
	p.QtyKg = r.QtyKg
	p.QtyRolls = r.QtyRolls
	p.UnitPrice = r.UnitPrice
	p.Notes = r.Notes
	return nil
}

// PurchaseResponse is the API shape of a purchase row.
type PurchaseResponse struct {
	BaseResponse
	Date        string          `json:"date"`
	BatchRef    string          `json:"batchRef,omitempty"`
	LotNo       string          `json:"lotNo,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	DeliveredTo string          `json:"deliveredTo"`
	YarnType    string          `json:"yarnType,omitempty"`
	QtyKg       decimal.Decimal `json:"qtyKg"`
	QtyRolls    int             `json:"qtyRolls"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Notes       string          `json:"notes,omitempty"`
}

// FromPurchase creates PurchaseResponse from the domain entity.
func FromPurchase(p *ledger.PurchaseEntry) PurchaseResponse {
	return PurchaseResponse{
		BaseResponse: BaseResponse{
			ID:        p.ID.String(),
			Version:   p.Version,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		Date:        p.Date.Format(dateLayout),
		BatchRef:    p.BatchRef,
		LotNo:       p.LotNo,
		Supplier:    p.Supplier,
		DeliveredTo: p.DeliveredTo,
		YarnType:    p.YarnType,
		QtyKg:       types.Round2(p.QtyKg),
		QtyRolls:    p.QtyRolls,
		UnitPrice:   types.Round2(p.UnitPrice),
		Notes:       p.Notes,
	}
}

// FromPurchases maps a slice of entries.
func FromPurchases(items []ledger.PurchaseEntry) []PurchaseResponse {
	out := make([]PurchaseResponse, len(items))
	for i := range items {
		out[i] = FromPurchase(&items[i])
	}
	return out
}

// --- Dyeing return DTOs ---

// DyeingReturnRequest is the request body for recording or updating a return.
type DyeingReturnRequest struct {
	LotNo         string          `json:"lotNo" binding:"required"`
	DyeingUnitID  string          `json:"dyeingUnitId" binding:"required"`
	ReturnedDate  string          `json:"returnedDate" binding:"required"`
	ReturnedKg    decimal.Decimal `json:"returnedKg"`
	ReturnedRolls int             `json:"returnedRolls"`
	Notes         string          `json:"notes"`
}

// ToEntity converts DTO to a new domain entity. The lot number is resolved to
// a lot ID by the service, so it is returned separately.
func (r *DyeingReturnRequest) ToEntity() (*ledger.DyeingReturnEntry, string, error) {
	d, err := parseDate(r.ReturnedDate, "returnedDate")
	if err != nil {
		return nil, "", err
	}
	unitID, err := id.Parse(r.DyeingUnitID)
	if err != nil {
		return nil, "", apperror.NewValidation("invalid dyeing unit id").
			WithDetail("value", r.DyeingUnitID)
	}
	return &ledger.DyeingReturnEntry{
		Base:          entity.NewBase(),
		DyeingUnitID:  unitID,
		ReturnedDate:  d,
		ReturnedKg:    r.ReturnedKg,
		ReturnedRolls: r.ReturnedRolls,
		Notes:         r.Notes,
	}, r.LotNo, nil
}

// Apply overwrites an existing entry with the request fields, keeping
// identity and version intact. The lot number is returned for resolution.
func (r *DyeingReturnRequest) Apply(d *ledger.DyeingReturnEntry) (string, error) {
	date, err := parseDate(r.ReturnedDate, "returnedDate")
	if err != nil {
		return "", err
	}
	unitID, err := id.Parse(r.DyeingUnitID)
	if err != nil {
		return "", apperror.NewValidation("invalid dyeing unit id").
			WithDetail("value", r.DyeingUnitID)
	}
	d.DyeingUnitID = unitID
	d.ReturnedDate = date
	d.ReturnedKg = r.ReturnedKg
	d.ReturnedRolls = r.ReturnedRolls
	d.Notes = r.Notes
	return r.LotNo, nil
}

// DyeingReturnResponse is the API shape of a dyeing return row.
type DyeingReturnResponse struct {
	BaseResponse
	LotID         string          `json:"lotId"`
	DyeingUnitID  string          `json:"dyeingUnitId"`
	ReturnedDate  string          `json:"returnedDate"`
	ReturnedKg    decimal.Decimal `json:"returnedKg"`
	ReturnedRolls int             `json:"returnedRolls"`
	Notes         string          `json:"notes,omitempty"`
}

// FromDyeingReturn creates DyeingReturnResponse from the domain entity.
func FromDyeingReturn(d *ledger.DyeingReturnEntry) DyeingReturnResponse {
	return DyeingReturnResponse{
		BaseResponse: BaseResponse{
			ID:        d.ID.String(),
			Version:   d.Version,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		LotID:         d.LotID.String(),
		DyeingUnitID:  d.DyeingUnitID.String(),
		ReturnedDate:  d.ReturnedDate.Format(dateLayout),
		ReturnedKg:    types.Round2(d.ReturnedKg),
		ReturnedRolls: d.ReturnedRolls,
		Notes:         d.Notes,
	}
}

// FromDyeingReturns maps a slice of entries.
func FromDyeingReturns(items []ledger.DyeingReturnEntry) []DyeingReturnResponse {
	out := make([]DyeingReturnResponse, len(items))
	for i := range items {
		out[i] = FromDyeingReturn(&items[i])
	}
	return out
}
