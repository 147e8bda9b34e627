package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/repository"
	"water-scheduler-backend/internal/retry"
)

type bookingService struct {
	bookingRepo   repository.BookingRepository
	slotRepo      repository.SlotRepository
	householdRepo repository.HouseholdRepository
	receiptRepo   repository.ReceiptRepository
	notifier      Notifier
	policy        retry.Policy
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	slotRepo repository.SlotRepository,
	householdRepo repository.HouseholdRepository,
	receiptRepo repository.ReceiptRepository,
	notifier Notifier,
	policy retry.Policy,
	m *metrics.Metrics,
) BookingService {
	return &bookingService{
		bookingRepo:   bookingRepo,
		slotRepo:      slotRepo,
		householdRepo: householdRepo,
		receiptRepo:   receiptRepo,
		notifier:      notifier,
		policy:        policy,
		metrics:       m,
		now:           time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, householdID, slotID, quantity int32, method domain.PaymentMethod) (b *domain.Booking, err error) {
	logger.EnterMethod("bookingService.CreateBooking", "householdID", householdID, "slotID", slotID, "quantity", quantity, "method", method)
	defer s.observe("create", s.now(), &err)

	req := domain.BookingRequest{HouseholdID: householdID, SlotID: slotID, Quantity: quantity, PaymentMethod: method}
	if err = req.Validate(); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "reason", "validation")
		return nil, err
	}
	b, err = retry.Do(ctx, s.policy, "create booking", s.onRetry("create"), func(ctx context.Context) (*domain.Booking, error) {
		req.ReceiptNumber = domain.NewReceiptNumber(s.now())
		return s.bookingRepo.CreatePending(ctx, req)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "householdID", householdID, "slotID", slotID)
		return nil, err
	}
	logger.Info("Booking requested", "bookingID", b.ID, "householdID", householdID, "slotID", slotID, "amount", b.Amount.StringFixed(2))

	s.notifyHousehold(ctx, b, domain.NotificationBookingRequested, "Booking Requested",
		fmt.Sprintf("Your request for %d units (%s) is waiting for approval.", b.Quantity, b.Amount.StringFixed(2)))

	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID)
	return b, nil
}

func (s *bookingService) ApproveBooking(ctx context.Context, bookingID int32) (b *domain.Booking, rc *domain.Receipt, err error) {
	logger.EnterMethod("bookingService.ApproveBooking", "bookingID", bookingID)
	defer s.observe("approve", s.now(), &err)

	if bookingID <= 0 {
		return nil, nil, domain.NewValidationError("booking_id", "is required")
	}
	result, err := retry.Do(ctx, s.policy, "approve booking", s.onRetry("approve"), func(ctx context.Context) (*repository.ApprovalResult, error) {
		return s.bookingRepo.Approve(ctx, bookingID)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ApproveBooking", err, "bookingID", bookingID)
		return nil, nil, err
	}
	if result.AlreadyApproved {
		logger.Info("Booking already approved", "bookingID", bookingID)
		logger.ExitMethod("bookingService.ApproveBooking", "bookingID", bookingID, "noop", true)
		return result.Booking, result.Receipt, nil
	}

	b = result.Booking
	logger.Info("Booking approved", "bookingID", b.ID, "householdID", b.HouseholdID, "receipt", result.Receipt.ReceiptNumber)
	s.notifyHousehold(ctx, b, domain.NotificationBookingApproved, "Booking Approved",
		fmt.Sprintf("Your booking was approved. Receipt %s, amount %s (%s).", result.Receipt.ReceiptNumber, b.Amount.StringFixed(2), b.PaymentMethod))

	logger.ExitMethod("bookingService.ApproveBooking", "bookingID", b.ID)
	return b, result.Receipt, nil
}

func (s *bookingService) DenyBooking(ctx context.Context, bookingID int32) (b *domain.Booking, err error) {
	defer s.observe("deny", s.now(), &err)

	if bookingID <= 0 {
		return nil, domain.NewValidationError("booking_id", "is required")
	}
	type denial struct {
		booking *domain.Booking
		changed bool
	}
	res, err := retry.Do(ctx, s.policy, "deny booking", s.onRetry("deny"), func(ctx context.Context) (denial, error) {
		b, changed, err := s.bookingRepo.Deny(ctx, bookingID)
		return denial{b, changed}, err
	})
	if err != nil {
		logger.Error("Failed to deny booking", "bookingID", bookingID, "error", err)
		return nil, err
	}
	if res.changed {
		logger.Info("Booking denied", "bookingID", bookingID)
		s.notifyHousehold(ctx, res.booking, domain.NotificationBookingDenied, "Booking Denied",
			"Your booking request was denied by the coordinator.")
	}
	return res.booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, householdID int32) (b *domain.Booking, err error) {
	logger.EnterMethod("bookingService.CancelBooking", "bookingID", bookingID, "householdID", householdID)
	defer s.observe("cancel", s.now(), &err)

	if bookingID <= 0 {
		return nil, domain.NewValidationError("booking_id", "is required")
	}
	result, err := retry.Do(ctx, s.policy, "cancel booking", s.onRetry("cancel"), func(ctx context.Context) (*repository.CancellationResult, error) {
		return s.bookingRepo.Cancel(ctx, bookingID, householdID)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}

	b = result.Booking
	msg := "Your booking was cancelled."
	if result.Refund != nil {
		msg = fmt.Sprintf("Your booking was cancelled and %s was refunded to your balance.", result.Refund.Amount.StringFixed(2))
	}
	logger.Info("Booking cancelled", "bookingID", b.ID, "released", result.Released, "refunded", result.Refund != nil)
	s.notifyHousehold(ctx, b, domain.NotificationBookingCancelled, "Booking Cancelled", msg)

	logger.ExitMethod("bookingService.CancelBooking", "bookingID", b.ID)
	return b, nil
}

func (s *bookingService) MarkCollection(ctx context.Context, bookingID int32, status domain.CollectionStatus) (b *domain.Booking, err error) {
	defer s.observe("collection", s.now(), &err)

	if status != domain.CollectionStatusCompleted && status != domain.CollectionStatusMissed {
		return nil, domain.NewValidationError("collection_status", fmt.Sprintf("cannot set %q", status))
	}
	b, err = retry.Do(ctx, s.policy, "mark collection", s.onRetry("collection"), func(ctx context.Context) (*domain.Booking, error) {
		return s.bookingRepo.SetCollectionStatus(ctx, bookingID, status)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Collection recorded", "bookingID", bookingID, "collectionStatus", status)
	if status == domain.CollectionStatusMissed {
		s.notifyMissed(ctx, b)
	}
	return b, nil
}

func (s *bookingService) MarkMissedCollections(ctx context.Context, cutoff time.Time) (n int, err error) {
	defer s.observe("mark_missed", s.now(), &err)

	missed, err := s.bookingRepo.MarkMissedCollections(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for i := range missed {
		s.notifyMissed(ctx, &missed[i])
	}
	if len(missed) > 0 {
		logger.Info("Marked missed collections", "count", len(missed), "cutoff", cutoff)
	}
	return len(missed), nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID int32) (*domain.Booking, *domain.Receipt, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.Status == domain.BookingStatusPending || b.Status == domain.BookingStatusDenied {
		return b, nil, nil
	}
	// a booking cancelled while pending never had a receipt
	rc, err := s.receiptRepo.GetByBookingID(ctx, b.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return b, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return b, rc, nil
}

func (s *bookingService) ListHouseholdBookings(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	return s.bookingRepo.ListByHousehold(ctx, householdID, status)
}

func (s *bookingService) ListBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	if status == "" {
		status = domain.BookingStatusPending
	}
	return s.bookingRepo.ListByStatus(ctx, status)
}

func (s *bookingService) observe(op string, started time.Time, errp *error) {
	s.metrics.ObserveOperation(op, started, *errp)
}

func (s *bookingService) onRetry(op string) func(error) {
	return func(error) { s.metrics.Retry(op) }
}

func (s *bookingService) notifyMissed(ctx context.Context, b *domain.Booking) {
	s.notifyHousehold(ctx, b, domain.NotificationCollectionMissed, "Collection Missed",
		fmt.Sprintf("Booking %d was not collected before the slot ended.", b.ID))
}

// notifyHousehold runs after the atomic unit has committed.
func (s *bookingService) notifyHousehold(ctx context.Context, b *domain.Booking, typ domain.NotificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	h, err := s.householdRepo.GetByID(ctx, b.HouseholdID)
	if err != nil {
		logger.Warn("Skipping notification, household lookup failed", "bookingID", b.ID, "householdID", b.HouseholdID, "error", err)
		return
	}
	attrs := map[string]string{
		"booking_id":     fmt.Sprintf("%d", b.ID),
		"slot_id":        fmt.Sprintf("%d", b.SlotID),
		"receipt_number": b.ReceiptNumber,
	}
	if slot, err := s.slotRepo.GetByID(ctx, b.SlotID); err == nil {
		attrs["resource"] = slot.ResourceName
		attrs["slot"] = fmt.Sprintf("%s %s-%s", slot.Date, slot.StartTime, slot.EndTime)
		message = fmt.Sprintf("%s %s, %s.", message, slot.ResourceName, attrs["slot"])
	}
	s.notifier.Notify(ctx, &domain.Notification{
		UserID:     h.UserID,
		Email:      h.Email,
		Title:      title,
		Message:    message,
		Type:       typ,
		Attributes: attrs,
	})
}
