package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository"
)

type bookingRepository struct {
	*state
}

func (r *bookingRepository) CreatePending(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, err := r.slot(req.SlotID)
	if err != nil {
		return nil, err
	}
	res, ok := r.resources[slot.ResourceID]
	if !ok {
		return nil, fmt.Errorf("%w: resource %d", domain.ErrNotFound, slot.ResourceID)
	}
	h, ok := r.households[req.HouseholdID]
	if !ok {
		return nil, fmt.Errorf("%w: household %d", domain.ErrNotFound, req.HouseholdID)
	}
	if !h.IsActive() {
		return nil, fmt.Errorf("%w: household %d is %s", domain.ErrHouseholdInactive, h.ID, h.Status)
	}
	if err := domain.CheckOfferable(slot, res, h.PriorityTier); err != nil {
		return nil, err
	}
	key := pairKey{householdID: req.HouseholdID, slotID: req.SlotID}
	if _, exists := r.activeBooking[key]; exists {
		return nil, fmt.Errorf("%w: household %d, slot %d", domain.ErrDuplicateBooking, req.HouseholdID, req.SlotID)
	}

	b := domain.NewPendingBooking(req, res.PricePer100, time.Now())
	b.ID = r.id()
	r.bookings[b.ID] = b
	r.activeBooking[key] = b.ID
	out := *b
	return &out, nil
}

func (r *bookingRepository) booking(id int32) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return b, nil
}

// ensureReceipt issues the receipt for b unless one exists. Callers hold mu.
func (r *bookingRepository) ensureReceipt(b *domain.Booking, now time.Time) *domain.Receipt {
	rc, ok := r.receipts[b.ID]
	if !ok {
		rc = domain.ReceiptFor(b, now)
		rc.ID = r.id()
		r.receipts[b.ID] = rc
	}
	out := *rc
	return &out
}

func (r *bookingRepository) Approve(ctx context.Context, id int32) (*repository.ApprovalResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.booking(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if stored.Status == domain.BookingStatusApproved {
		out := *stored
		return &repository.ApprovalResult{Booking: &out, Receipt: r.ensureReceipt(stored, now), AlreadyApproved: true}, nil
	}

	b := *stored
	if err := b.Approve(now); err != nil {
		return nil, err
	}
	storedSlot, err := r.slot(b.SlotID)
	if err != nil {
		return nil, err
	}
	slot := *storedSlot
	if err := slot.CheckOpen(); err != nil {
		return nil, err
	}
	if err := slot.Reserve(); err != nil {
		return nil, err
	}
	storedHousehold, ok := r.households[b.HouseholdID]
	if !ok {
		return nil, fmt.Errorf("%w: household %d", domain.ErrNotFound, b.HouseholdID)
	}
	h := *storedHousehold
	if b.IsDebited() {
		if err := h.Debit(b.Amount); err != nil {
			return nil, err
		}
		h.UpdatedOn = now
		bookingID := b.ID
		r.transactions = append(r.transactions, domain.BalanceTransaction{
			ID:               r.id(),
			HouseholdID:      h.ID,
			Amount:           b.Amount.Neg(),
			Type:             domain.TransactionTypeBookingDebit,
			RelatedBookingID: &bookingID,
			Description:      fmt.Sprintf("Booking %d approved", b.ID),
			CreatedOn:        now,
		})
	}

	*stored = b
	*storedSlot = slot
	*storedHousehold = h
	out, household := b, h
	return &repository.ApprovalResult{Booking: &out, Receipt: r.ensureReceipt(stored, now), Household: &household}, nil
}

func (r *bookingRepository) Deny(ctx context.Context, id int32) (*domain.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.booking(id)
	if err != nil {
		return nil, false, err
	}
	if stored.Status == domain.BookingStatusDenied {
		out := *stored
		return &out, false, nil
	}
	b := *stored
	if err := b.Deny(time.Now()); err != nil {
		return nil, false, err
	}
	*stored = b
	return &b, true, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id, householdID int32) (*repository.CancellationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.booking(id)
	if err != nil {
		return nil, err
	}
	wasApproved := stored.Status == domain.BookingStatusApproved
	now := time.Now()
	b := *stored
	if err := b.Cancel(householdID, now); err != nil {
		return nil, err
	}
	result := &repository.CancellationResult{}

	if wasApproved {
		slot, err := r.slot(b.SlotID)
		if err != nil {
			return nil, err
		}
		slot.Release()
		result.Released = true

		if b.IsDebited() {
			h, ok := r.households[b.HouseholdID]
			if !ok {
				return nil, fmt.Errorf("%w: household %d", domain.ErrNotFound, b.HouseholdID)
			}
			if err := h.Credit(b.Amount); err != nil {
				return nil, err
			}
			h.UpdatedOn = now
			bookingID := b.ID
			refund := domain.BalanceTransaction{
				ID:               r.id(),
				HouseholdID:      h.ID,
				Amount:           b.Amount,
				Type:             domain.TransactionTypeBookingRefund,
				RelatedBookingID: &bookingID,
				Description:      fmt.Sprintf("Booking %d cancelled", b.ID),
				CreatedOn:        now,
			}
			r.transactions = append(r.transactions, refund)
			result.Refund = &refund
		}
	}

	*stored = b
	delete(r.activeBooking, pairKey{householdID: b.HouseholdID, slotID: b.SlotID})
	result.Booking = &b
	return result, nil
}

func (r *bookingRepository) SetCollectionStatus(ctx context.Context, id int32, status domain.CollectionStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.booking(id)
	if err != nil {
		return nil, err
	}
	b := *stored
	if err := b.MarkCollection(status, time.Now()); err != nil {
		return nil, err
	}
	*stored = b
	return &b, nil
}

func (r *bookingRepository) MarkMissedCollections(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	missed := []domain.Booking{}
	for _, b := range r.bookings {
		if b.Status != domain.BookingStatusApproved || b.CollectionStatus != domain.CollectionStatusPending {
			continue
		}
		slot, ok := r.slots[b.SlotID]
		if !ok {
			continue
		}
		end, err := slot.EndsAt(cutoff.Location())
		if err != nil || !end.Before(cutoff) {
			continue
		}
		if err := b.MarkCollection(domain.CollectionStatusMissed, now); err != nil {
			return nil, err
		}
		missed = append(missed, *b)
	}
	sortBookings(missed, true)
	return missed, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.booking(id)
	if err != nil {
		return nil, err
	}
	out := *b
	return &out, nil
}

func (r *bookingRepository) ListByHousehold(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Booking{}
	for _, b := range r.bookings {
		if b.HouseholdID == householdID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	sortBookings(out, false)
	return out, nil
}

func (r *bookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Booking{}
	for _, b := range r.bookings {
		if b.Status == status {
			out = append(out, *b)
		}
	}
	sortBookings(out, true)
	return out, nil
}

// sortBookings orders by id, which follows creation order.
func sortBookings(bookings []domain.Booking, ascending bool) {
	sort.Slice(bookings, func(i, j int) bool {
		if ascending {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].ID > bookings[j].ID
	})
}
