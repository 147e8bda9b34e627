package service

import (
	"context"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/repository"
)

type slotService struct {
	slotRepo     repository.SlotRepository
	resourceRepo repository.ResourceRepository
	metrics      *metrics.Metrics
}

func NewSlotService(slotRepo repository.SlotRepository, resourceRepo repository.ResourceRepository, m *metrics.Metrics) SlotService {
	return &slotService{slotRepo: slotRepo, resourceRepo: resourceRepo, metrics: m}
}

func (s *slotService) GenerateSlots(ctx context.Context, resourceID int32, date string) (int, error) {
	logger.EnterMethod("slotService.GenerateSlots", "resourceID", resourceID, "date", date)

	day, err := domain.ParseDate(date)
	if err != nil {
		logger.ExitMethodWithError("slotService.GenerateSlots", err, "reason", "invalid date")
		return 0, err
	}
	res, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		logger.ExitMethodWithError("slotService.GenerateSlots", err, "resourceID", resourceID)
		return 0, err
	}
	windows, err := domain.PartitionWindow(res.OpenTime, res.CloseTime, domain.SlotLength)
	if err != nil {
		return 0, err
	}
	if len(windows) == 0 {
		logger.ExitMethod("slotService.GenerateSlots", "inserted", 0, "reason", "operating window shorter than one slot")
		return 0, nil
	}

	n, err := s.slotRepo.InsertIfAbsent(ctx, res.ID, day.Format(domain.DateLayout), windows, res.CapacityPerHour)
	if err != nil {
		logger.ExitMethodWithError("slotService.GenerateSlots", err, "resourceID", resourceID)
		return 0, err
	}
	s.metrics.SlotsGenerated(n)
	if n > 0 {
		logger.Info("Slots generated", "resource", res.Name, "date", date, "count", n)
	}
	logger.ExitMethod("slotService.GenerateSlots", "inserted", n)
	return n, nil
}

func (s *slotService) GenerateUpcoming(ctx context.Context, from time.Time, days int) (int, error) {
	resources, err := s.resourceRepo.List(ctx, domain.ResourceStatusActive)
	if err != nil {
		return 0, err
	}
	total := 0
	var failures int
	for d := 0; d < days; d++ {
		date := from.AddDate(0, 0, d).Format(domain.DateLayout)
		for _, res := range resources {
			n, err := s.GenerateSlots(ctx, res.ID, date)
			if err != nil {
				failures++
				logger.Error("Slot generation failed", "resourceID", res.ID, "date", date, "error", err)
				continue
			}
			total += n
		}
	}
	if failures > 0 {
		return total, fmt.Errorf("slot generation failed for %d resource-days", failures)
	}
	return total, nil
}

func (s *slotService) ListAvailableSlots(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := domain.ParsePriorityTier(string(tier)); err != nil {
		return nil, err
	}
	return s.slotRepo.ListAvailable(ctx, day.Format(domain.DateLayout), tier)
}

func (s *slotService) ListResourceSlots(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.slotRepo.ListByResource(ctx, resourceID, day.Format(domain.DateLayout))
}

// UpdateSlotStatus lets a coordinator take a slot out of service or put it back. Full is
// derived from capacity and cannot be set directly.
func (s *slotService) UpdateSlotStatus(ctx context.Context, slotID int32, status domain.SlotStatus) (*domain.Slot, error) {
	if !status.Valid() || status == domain.SlotStatusFull {
		return nil, domain.NewValidationError("status", fmt.Sprintf("cannot set slot status %q", status))
	}
	slot, err := s.slotRepo.UpdateStatus(ctx, slotID, status)
	if err != nil {
		return nil, err
	}
	logger.Info("Slot status updated", "slotID", slotID, "status", slot.Status)
	return slot, nil
}
