package dto

import (
	"github.com/shopspring/decimal"

	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/catalogs/yarn"
)

// --- Party DTOs ---

// CreatePartyRequest is the request body for creating a party.
type CreatePartyRequest struct {
	Name      string           `json:"name" binding:"required"`
	Role      party.Role       `json:"role" binding:"required"`
	ColorCode string           `json:"colorCode"`
	RatePerKg *decimal.Decimal `json:"ratePerKg"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartyRequest) ToEntity() *party.Party {
	p := party.New(r.Name, r.Role)
	p.ColorCode = r.ColorCode
	p.RatePerKg = r.RatePerKg
	return p
}

// UpdatePartyRequest is the request body for updating a party.
type UpdatePartyRequest struct {
	Name      string           `json:"name" binding:"required"`
	Role      party.Role       `json:"role" binding:"required"`
	ColorCode string           `json:"colorCode"`
	RatePerKg *decimal.Decimal `json:"ratePerKg"`
	Version   int              `json:"version" binding:"required,min=1"`
}

// PartyResponse is the API shape of a party.
type PartyResponse struct {
	BaseResponse
	Name      string           `json:"name"`
	Role      party.Role       `json:"role"`
	ColorCode string           `json:"colorCode,omitempty"`
	RatePerKg *decimal.Decimal `json:"ratePerKg,omitempty"`
}

// FromParty creates PartyResponse from the domain entity.
func FromParty(p *party.Party) PartyResponse {
	return PartyResponse{
		BaseResponse: BaseResponse{
			ID:        p.ID.String(),
			Version:   p.Version,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		Name:      p.Name,
		Role:      p.Role,
		ColorCode: p.ColorCode,
		RatePerKg: p.RatePerKg,
	}
}

// --- Yarn type DTOs ---

// CreateYarnTypeRequest is the request body for creating a yarn type.
type CreateYarnTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

// YarnTypeResponse is the API shape of a yarn type.
type YarnTypeResponse struct {
	BaseResponse
	Name string `json:"name"`
}

// FromYarnType creates YarnTypeResponse from the domain entity.
func FromYarnType(t *yarn.Type) YarnTypeResponse {
	return YarnTypeResponse{
		BaseResponse: BaseResponse{
			ID:        t.ID.String(),
			Version:   t.Version,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
		Name: t.Name,
	}
}
