package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
)

type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	GetByID(ctx context.Context, id int32) (*domain.Resource, error)
	Update(ctx context.Context, res *domain.Resource) error
	List(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error)
}

type SlotRepository interface {
	// InsertIfAbsent inserts the windows for (resourceID, date) that do not exist yet and
	// returns how many rows were created.
	InsertIfAbsent(ctx context.Context, resourceID int32, date string, windows []domain.SlotWindow, maxUnits int32) (int, error)
	GetByID(ctx context.Context, id int32) (*domain.Slot, error)
	ListAvailable(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error)
	ListByResource(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error)
	UpdateStatus(ctx context.Context, id int32, status domain.SlotStatus) (*domain.Slot, error)
}

// ApprovalResult is the outcome of one approval unit.
type ApprovalResult struct {
	Booking   *domain.Booking
	Receipt   *domain.Receipt
	Household *domain.Household
	// AlreadyApproved is set when the booking was approved before this call and nothing
	// besides the receipt check was applied.
	AlreadyApproved bool
}

// CancellationResult is the outcome of one cancellation unit.
type CancellationResult struct {
	Booking  *domain.Booking
	Refund   *domain.BalanceTransaction
	Released bool
}

// BookingRepository owns every booking mutation. Each method is one atomic unit.
type BookingRepository interface {
	CreatePending(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
	Approve(ctx context.Context, id int32) (*ApprovalResult, error)
	// Deny reports changed=false when the booking was already denied.
	Deny(ctx context.Context, id int32) (*domain.Booking, bool, error)
	Cancel(ctx context.Context, id, householdID int32) (*CancellationResult, error)
	SetCollectionStatus(ctx context.Context, id int32, status domain.CollectionStatus) (*domain.Booking, error)
	// MarkMissedCollections flags approved bookings whose slot ended before the cutoff and
	// were never collected.
	MarkMissedCollections(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	ListByHousehold(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
}

type HouseholdRepository interface {
	Create(ctx context.Context, h *domain.Household) error
	GetByID(ctx context.Context, id int32) (*domain.Household, error)
	Deposit(ctx context.Context, id int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error)
	ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error)
}

type ReceiptRepository interface {
	GetByBookingID(ctx context.Context, bookingID int32) (*domain.Receipt, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

// Store bundles the repositories of one backend.
type Store struct {
	ResourceRepository
	SlotRepository
	BookingRepository
	HouseholdRepository
	ReceiptRepository
	NotificationRepository
}
