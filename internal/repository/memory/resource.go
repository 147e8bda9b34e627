package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"water-scheduler-backend/internal/domain"
)

type resourceRepository struct {
	*state
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	res.ID = r.id()
	res.CreatedOn, res.UpdatedOn = now, now
	stored := *res
	r.resources[res.ID] = &stored
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id int32) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: resource %d", domain.ErrNotFound, id)
	}
	out := *res
	return &out, nil
}

func (r *resourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.resources[res.ID]
	if !ok {
		return fmt.Errorf("%w: resource %d", domain.ErrNotFound, res.ID)
	}
	res.CreatedOn = existing.CreatedOn
	res.UpdatedOn = time.Now()
	stored := *res
	r.resources[res.ID] = &stored
	return nil
}

func (r *resourceRepository) List(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Resource
	for _, res := range r.resources {
		if status == "" || res.Status == status {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
