package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"water-scheduler-backend/internal/domain"
)

type slotRepository struct {
	*state
}

func (r *slotRepository) InsertIfAbsent(ctx context.Context, resourceID int32, date string, windows []domain.SlotWindow, maxUnits int32) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[resourceID]
	if !ok {
		return 0, fmt.Errorf("%w: resource %d", domain.ErrNotFound, resourceID)
	}
	inserted := 0
	now := time.Now()
	for _, w := range windows {
		key := slotKey{resourceID: resourceID, date: date, start: w.Start, end: w.End}
		if _, exists := r.slotIndex[key]; exists {
			continue
		}
		s := &domain.Slot{
			ID:           r.id(),
			ResourceID:   resourceID,
			ResourceName: res.Name,
			Date:         date,
			StartTime:    w.Start,
			EndTime:      w.End,
			MaxUnits:     maxUnits,
			Status:       domain.SlotStatusAvailable,
			CreatedOn:    now,
		}
		r.slots[s.ID] = s
		r.slotIndex[key] = s.ID
		inserted++
	}
	return inserted, nil
}

func (r *slotRepository) GetByID(ctx context.Context, id int32) (*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return nil, err
	}
	out := *s
	return &out, nil
}

// slot returns the stored slot with its current resource name. Callers hold mu.
func (s *state) slot(id int32) (*domain.Slot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: slot %d", domain.ErrNotFound, id)
	}
	if res, ok := s.resources[slot.ResourceID]; ok {
		slot.ResourceName = res.Name
	}
	return slot, nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Slot{}
	for id, s := range r.slots {
		if s.Date != date {
			continue
		}
		slot, _ := r.slot(id)
		res := r.resources[slot.ResourceID]
		if domain.CheckOfferable(slot, res, tier) != nil {
			continue
		}
		out = append(out, *slot)
	}
	// byte order, matching COLLATE "C" in the postgres query
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ResourceName != b.ResourceName {
			return a.ResourceName < b.ResourceName
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *slotRepository) ListByResource(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Slot{}
	for id, s := range r.slots {
		if s.ResourceID != resourceID || s.Date != date {
			continue
		}
		slot, _ := r.slot(id)
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *slotRepository) UpdateStatus(ctx context.Context, id int32, status domain.SlotStatus) (*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return nil, err
	}
	if status == domain.SlotStatusAvailable && !s.HasCapacity() {
		status = domain.SlotStatusFull
	}
	s.Status = status
	out := *s
	return &out, nil
}
