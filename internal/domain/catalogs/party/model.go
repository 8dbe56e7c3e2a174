// Package party provides the Party master: every named supplier, knitting
// unit or dyeing unit the ledger refers to.
package party

import (
	"context"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
	"loomledger/internal/core/types"
)

// Role tags what a party does in the pipeline. Cost and status rules resolve
// parties by role, never by name matching.
type Role string

const (
	RoleYarnSupplier Role = "yarn_supplier"
	RoleKnittingUnit Role = "knitting_unit"
	RoleDyeingUnit   Role = "dyeing_unit"
)

// Party represents a pipeline participant.
type Party struct {
	entity.Base

	// Name is the unique display name; ledger rows reference parties by it.
	Name string `db:"name" json:"name"`

	// Role determines how derivation logic treats the party.
	Role Role `db:"role" json:"role"`

	// ColorCode is a display hint for the excluded UI layer.
	ColorCode string `db:"color_code" json:"colorCode,omitempty"`

	// RatePerKg is the processing charge for knitting or dyeing units.
	// Nil means the configured default rate applies.
	RatePerKg *types.Money `db:"rate_per_kg" json:"ratePerKg,omitempty"`
}

// New creates a Party with required fields.
func New(name string, role Role) *Party {
	return &Party{
		Base: entity.NewBase(),
		Name: name,
		Role: role,
	}
}

// Validate implements entity.Validatable.
func (p *Party) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if !isValidRole(p.Role) {
		return apperror.NewValidation("invalid party role").
			WithDetail("field", "role").
			WithDetail("value", string(p.Role))
	}
	if p.RatePerKg != nil && p.RatePerKg.IsNegative() {
		return apperror.NewValidation("rate per kg must not be negative").
			WithDetail("field", "ratePerKg")
	}
	return nil
}

// IsProcessor reports whether the party performs paid per-kg work.
func (p *Party) IsProcessor() bool {
	return p.Role == RoleKnittingUnit || p.Role == RoleDyeingUnit
}

func isValidRole(r Role) bool {
	switch r {
	case RoleYarnSupplier, RoleKnittingUnit, RoleDyeingUnit:
		return true
	}
	return false
}
