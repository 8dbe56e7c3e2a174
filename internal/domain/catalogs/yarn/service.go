package yarn

import (
	"context"
	"fmt"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
)

// Service provides business logic for the yarn type master.
type Service struct {
	repo Repository
}

// NewService creates a new yarn type service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new yarn type.
func (s *Service) Create(ctx context.Context, t *Type) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByName(ctx, t.Name)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check yarn type name: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("yarn type", "name", t.Name)
	}

	return s.repo.Create(ctx, t)
}

// Delete removes a yarn type.
func (s *Service) Delete(ctx context.Context, typeID id.ID) error {
	return s.repo.Delete(ctx, typeID)
}

// List returns all yarn types ordered by name.
func (s *Service) List(ctx context.Context) ([]Type, error) {
	return s.repo.List(ctx)
}
