// Package yarn provides the yarn type master.
package yarn

import (
	"context"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/entity"
)

// Type is a named yarn variety, e.g. "Cotton 30s".
type Type struct {
	entity.Base

	Name string `db:"name" json:"name"`
}

// New creates a yarn type.
func New(name string) *Type {
	return &Type{
		Base: entity.NewBase(),
		Name: name,
	}
}

// Validate implements entity.Validatable.
func (t *Type) Validate(ctx context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
