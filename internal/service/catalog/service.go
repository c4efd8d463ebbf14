package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
)

// Service manages the test catalog. Writes are staff-only; the public
// surface reads active entries.
type Service struct {
	repo repository.TestRepository
}

func NewService(repo repository.TestRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTest(ctx context.Context, test *model.Test) error {
	if err := s.validateTest(test); err != nil {
		return fmt.Errorf("invalid test data: %w", err)
	}

	test.ID = uuid.New()
	test.Active = true
	test.CreatedAt = time.Now()
	test.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, test); err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	return s.repo.Get(ctx, id)
}

// GetActiveTest returns the test only when it is bookable.
func (s *Service) GetActiveTest(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !test.Active {
		return nil, repository.ErrNotFound
	}
	return test, nil
}

func (s *Service) UpdateTest(ctx context.Context, id uuid.UUID, req *model.UpdateTestRequest) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		test.Name = *req.Name
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.Price != nil {
		test.Price = *req.Price
	}
	if req.DurationHours != nil {
		test.DurationHours = *req.DurationHours
	}
	if req.Active != nil {
		test.Active = *req.Active
	}

	if err := s.validateTest(test); err != nil {
		return nil, fmt.Errorf("invalid test data: %w", err)
	}

	if err := s.repo.Update(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to update test: %w", err)
	}
	return test, nil
}

func (s *Service) DeleteTest(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, activeOnly bool) ([]*model.Test, error) {
	tests, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

func (s *Service) validateTest(test *model.Test) error {
	test.Name = strings.TrimSpace(test.Name)
	if test.Name == "" {
		return fmt.Errorf("name is required")
	}
	if test.Price <= 0 {
		return fmt.Errorf("price must be greater than zero")
	}
	if test.DurationHours < 1 || test.DurationHours > 24 {
		return fmt.Errorf("duration must be between 1 and 24 hours")
	}
	return nil
}
