package service

import (
	"context"
	"fmt"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

type resourceService struct {
	resourceRepo repository.ResourceRepository
}

func NewResourceService(resourceRepo repository.ResourceRepository) ResourceService {
	return &resourceService{resourceRepo: resourceRepo}
}

func (s *resourceService) CreateResource(ctx context.Context, res *domain.Resource) error {
	if err := res.Validate(); err != nil {
		return err
	}
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		return err
	}
	logger.Info("Resource created", "resourceID", res.ID, "name", res.Name, "access", res.PriorityAccess.String())
	return nil
}

// UpdateResource changes catalog fields. Existing slots keep the capacity they were generated with.
func (s *resourceService) UpdateResource(ctx context.Context, res *domain.Resource) error {
	if res.ID <= 0 {
		return domain.NewValidationError("id", "is required")
	}
	if err := res.Validate(); err != nil {
		return err
	}
	if err := s.resourceRepo.Update(ctx, res); err != nil {
		return err
	}
	logger.Info("Resource updated", "resourceID", res.ID, "status", res.Status)
	return nil
}

func (s *resourceService) GetResource(ctx context.Context, id int32) (*domain.Resource, error) {
	return s.resourceRepo.GetByID(ctx, id)
}

func (s *resourceService) ListResources(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.resourceRepo.List(ctx, status)
}
