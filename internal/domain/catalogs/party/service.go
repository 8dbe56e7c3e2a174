package party

import (
	"context"
	"fmt"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/pkg/logger"
)

// StatusRecomputer re-derives cached batch/lot statuses. Role edits change
// how the status engine classifies lots, so they must trigger a full
// recompute.
type StatusRecomputer interface {
	RecomputeAll(ctx context.Context) error
}

// Service provides business logic for the Party master.
type Service struct {
	repo     Repository
	statuses StatusRecomputer
}

// NewService creates a new Party service.
func NewService(repo Repository, statuses StatusRecomputer) *Service {
	return &Service{repo: repo, statuses: statuses}
}

// Create validates and stores a new party.
func (s *Service) Create(ctx context.Context, p *Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByName(ctx, p.Name)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check party name: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("party", "name", p.Name)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create party: %w", err)
	}

	logger.Info(ctx, "party created", "name", p.Name, "role", p.Role)
	return nil
}

// Update stores changes to a party. A role change invalidates every cached
// status that depended on the old role, so the whole registry is recomputed.
func (s *Service) Update(ctx context.Context, p *Party) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	roleChanged := current.Role != p.Role

	if err := s.repo.Update(ctx, p); err != nil {
		return fmt.Errorf("update party: %w", err)
	}
	p.Touch()

	if roleChanged {
		logger.Info(ctx, "party role changed, recomputing statuses",
			"name", p.Name,
			"old_role", current.Role,
			"new_role", p.Role,
		)
		if err := s.statuses.RecomputeAll(ctx); err != nil {
			return fmt.Errorf("recompute statuses: %w", err)
		}
	}

	return nil
}

// Delete removes a party if nothing references it.
func (s *Service) Delete(ctx context.Context, partyID id.ID) error {
	p, err := s.repo.GetByID(ctx, partyID)
	if err != nil {
		return err
	}

	refs, err := s.repo.CountReferences(ctx, p)
	if err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	if refs > 0 {
		return apperror.NewReferenced("party", p.Name).
			WithDetail("references", refs)
	}

	if err := s.repo.Delete(ctx, partyID); err != nil {
		return fmt.Errorf("delete party: %w", err)
	}

	logger.Info(ctx, "party deleted", "name", p.Name)
	return nil
}

// GetByID retrieves a party by id.
func (s *Service) GetByID(ctx context.Context, partyID id.ID) (*Party, error) {
	return s.repo.GetByID(ctx, partyID)
}

// GetByName retrieves a party by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*Party, error) {
	return s.repo.GetByName(ctx, name)
}

// List returns all parties ordered by name.
func (s *Service) List(ctx context.Context) ([]Party, error) {
	return s.repo.List(ctx)
}

// ListByRole returns parties with the given role.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]Party, error) {
	return s.repo.ListByRole(ctx, role)
}
