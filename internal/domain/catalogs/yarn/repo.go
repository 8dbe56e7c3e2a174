package yarn

import (
	"context"

	"loomledger/internal/core/id"
)

// Repository defines persistence operations for yarn types.
type Repository interface {
	Create(ctx context.Context, t *Type) error
	Delete(ctx context.Context, typeID id.ID) error
	GetByName(ctx context.Context, name string) (*Type, error)
	List(ctx context.Context) ([]Type, error)
}
