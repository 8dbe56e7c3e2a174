package dto

import (
	"github.com/shopspring/decimal"

	"loomledger/internal/core/types"
	"loomledger/internal/domain/registry"
)

// CreateBatchRequest is the request body for creating a batch with its lots.
type CreateBatchRequest struct {
	BatchRef     string `json:"batchRef" binding:"required"`
	FabricatorID string `json:"fabricatorId" binding:"required"`
	ProductName  string `json:"productName"`
	ExpectedLots int    `json:"expectedLots" binding:"min=0"`
	Composition  string `json:"composition"`
}

// AddLotRequest is the request body for adding a lot to an existing batch.
type AddLotRequest struct {
	Index int `json:"index" binding:"required,min=1"`
}

// UpdateLotWeightRequest sets a lot's ordered weight.
type UpdateLotWeightRequest struct {
	WeightKg decimal.Decimal `json:"weightKg" binding:"required"`
}

// BatchResponse is the API shape of a batch.
type BatchResponse struct {
	BaseResponse
	BatchRef     string          `json:"batchRef"`
	FabricatorID string          `json:"fabricatorId"`
	ProductName  string          `json:"productName,omitempty"`
	ExpectedLots int             `json:"expectedLots"`
	Composition  string          `json:"composition,omitempty"`
	Status       registry.Status `json:"status"`
}

// FromBatch creates BatchResponse from the domain entity.
func FromBatch(b *registry.Batch) BatchResponse {
	return BatchResponse{
		BaseResponse: BaseResponse{
			ID:        b.ID.String(),
			Version:   b.Version,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		},
		BatchRef:     b.BatchRef,
		FabricatorID: b.FabricatorID.String(),
		ProductName:  b.ProductName,
		ExpectedLots: b.ExpectedLots,
		Composition:  b.Composition,
		Status:       b.Status,
	}
}

// LotResponse is the API shape of a lot.
type LotResponse struct {
	BaseResponse
	BatchID  string          `json:"batchId"`
	LotNo    string          `json:"lotNo"`
	LotIndex int             `json:"lotIndex"`
	WeightKg decimal.Decimal `json:"weightKg"`
	Status   registry.Status `json:"status"`
}

// FromLot creates LotResponse from the domain entity.
func FromLot(l *registry.Lot) LotResponse {
	return LotResponse{
		BaseResponse: BaseResponse{
			ID:        l.ID.String(),
			Version:   l.Version,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		BatchID:  l.BatchID.String(),
		LotNo:    l.LotNo,
		LotIndex: l.LotIndex,
		WeightKg: types.Round2(l.WeightKg),
		Status:   l.Status,
	}
}
