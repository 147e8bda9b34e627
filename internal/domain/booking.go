package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusDenied    BookingStatus = "denied"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusApproved, BookingStatusDenied, BookingStatusCancelled},
	BookingStatusApproved: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type CollectionStatus string

const (
	CollectionStatusPending   CollectionStatus = "pending"
	CollectionStatusCompleted CollectionStatus = "completed"
	CollectionStatusMissed    CollectionStatus = "missed"
)

type PaymentMethod string

const (
	PaymentMethodMobile PaymentMethod = "mobile"
	PaymentMethodCash   PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodMobile || m == PaymentMethodCash
}

type Booking struct {
	ID               int32            `json:"id"`
	HouseholdID      int32            `json:"household_id"`
	SlotID           int32            `json:"slot_id"`
	Quantity         int32            `json:"quantity"`
	Amount           decimal.Decimal  `json:"amount"`
	Status           BookingStatus    `json:"booking_status"`
	CollectionStatus CollectionStatus `json:"collection_status"`
	PaymentMethod    PaymentMethod    `json:"payment_method"`
	ReceiptNumber    string           `json:"receipt_number"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CreatedOn        time.Time        `json:"created_on"`
	UpdatedOn        time.Time        `json:"updated_on"`
}

// IsDebited reports whether approving this booking moved money out of the household balance.
func (b *Booking) IsDebited() bool {
	return b.PaymentMethod == PaymentMethodMobile && b.Amount.IsPositive()
}

func (b *Booking) transition(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: booking %d is %s, cannot become %s", ErrInvalidTransition, b.ID, b.Status, next)
	}
	b.Status = next
	return nil
}

// Approve records the coordinator's approval. Slot and balance effects are applied by the caller
// inside the same atomic unit.
func (b *Booking) Approve(now time.Time) error {
	if err := b.transition(BookingStatusApproved); err != nil {
		return err
	}
	b.ApprovedAt = &now
	b.UpdatedOn = now
	return nil
}

func (b *Booking) Deny(now time.Time) error {
	if err := b.transition(BookingStatusDenied); err != nil {
		return err
	}
	b.ApprovedAt = &now
	b.UpdatedOn = now
	return nil
}

// Cancel is only permitted to the owning household, and only before a collection outcome
// is recorded.
func (b *Booking) Cancel(householdID int32, now time.Time) error {
	if b.HouseholdID != householdID {
		return fmt.Errorf("%w: booking %d belongs to another household", ErrForbidden, b.ID)
	}
	if b.CollectionStatus == CollectionStatusCompleted || b.CollectionStatus == CollectionStatusMissed {
		return fmt.Errorf("%w: booking %d collection is already %s", ErrInvalidTransition, b.ID, b.CollectionStatus)
	}
	if err := b.transition(BookingStatusCancelled); err != nil {
		return err
	}
	b.CancelledAt = &now
	b.UpdatedOn = now
	return nil
}

// MarkCollection settles the collection outcome of an approved booking.
func (b *Booking) MarkCollection(status CollectionStatus, now time.Time) error {
	if status != CollectionStatusCompleted && status != CollectionStatusMissed {
		return NewValidationError("collection_status", fmt.Sprintf("cannot set %q", status))
	}
	if b.Status != BookingStatusApproved || b.CollectionStatus != CollectionStatusPending {
		return fmt.Errorf("%w: booking %d is %s with collection %s", ErrInvalidTransition, b.ID, b.Status, b.CollectionStatus)
	}
	if status == CollectionStatusCompleted {
		if err := b.transition(BookingStatusCompleted); err != nil {
			return err
		}
	}
	b.CollectionStatus = status
	b.UpdatedOn = now
	return nil
}

// BookingRequest is a household's request for a slot.
type BookingRequest struct {
	HouseholdID   int32         `json:"household_id"`
	SlotID        int32         `json:"slot_id"`
	Quantity      int32         `json:"quantity"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ReceiptNumber string        `json:"-"`
}

func (r BookingRequest) Validate() error {
	if r.HouseholdID <= 0 {
		return NewValidationError("household_id", "is required")
	}
	if r.SlotID <= 0 {
		return NewValidationError("slot_id", "is required")
	}
	if r.Quantity <= 0 {
		return NewValidationError("quantity", "must be positive")
	}
	if !r.PaymentMethod.Valid() {
		return NewValidationError("payment_method", fmt.Sprintf("unknown method %q", r.PaymentMethod))
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

// ComputeCharge prices a request: quantity / 100 * price per 100 units, rounded to cents.
func ComputeCharge(quantity int32, pricePer100 decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt32(quantity).Div(hundred).Mul(pricePer100).Round(2)
}

// NewPendingBooking builds the row inserted by a successful create.
func NewPendingBooking(req BookingRequest, pricePer100 decimal.Decimal, now time.Time) *Booking {
	return &Booking{
		HouseholdID:      req.HouseholdID,
		SlotID:           req.SlotID,
		Quantity:         req.Quantity,
		Amount:           ComputeCharge(req.Quantity, pricePer100),
		Status:           BookingStatusPending,
		CollectionStatus: CollectionStatusPending,
		PaymentMethod:    req.PaymentMethod,
		ReceiptNumber:    req.ReceiptNumber,
		CreatedOn:        now,
		UpdatedOn:        now,
	}
}
