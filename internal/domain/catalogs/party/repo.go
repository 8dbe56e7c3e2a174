package party

import (
	"context"

	"loomledger/internal/core/id"
)

// Repository defines persistence operations for the Party master.
type Repository interface {
	Create(ctx context.Context, p *Party) error
	Update(ctx context.Context, p *Party) error
	Delete(ctx context.Context, partyID id.ID) error

	GetByID(ctx context.Context, partyID id.ID) (*Party, error)
	GetByName(ctx context.Context, name string) (*Party, error)
	List(ctx context.Context) ([]Party, error)
	ListByRole(ctx context.Context, role Role) ([]Party, error)

	// CountReferences returns how many ledger rows and batches point at the
	// party. Deletion is allowed only when it returns zero.
	CountReferences(ctx context.Context, p *Party) (int, error)
}
