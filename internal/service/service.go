package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
)

type ResourceService interface {
	CreateResource(ctx context.Context, res *domain.Resource) error
	UpdateResource(ctx context.Context, res *domain.Resource) error
	GetResource(ctx context.Context, id int32) (*domain.Resource, error)
	ListResources(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error)
}

type SlotService interface {
	GenerateSlots(ctx context.Context, resourceID int32, date string) (int, error)
	// GenerateUpcoming runs GenerateSlots for every active resource on each of the next days.
	GenerateUpcoming(ctx context.Context, from time.Time, days int) (int, error)
	ListAvailableSlots(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error)
	ListResourceSlots(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error)
	UpdateSlotStatus(ctx context.Context, slotID int32, status domain.SlotStatus) (*domain.Slot, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, householdID, slotID, quantity int32, method domain.PaymentMethod) (*domain.Booking, error)
	ApproveBooking(ctx context.Context, bookingID int32) (*domain.Booking, *domain.Receipt, error)
	DenyBooking(ctx context.Context, bookingID int32) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, householdID int32) (*domain.Booking, error)
	MarkCollection(ctx context.Context, bookingID int32, status domain.CollectionStatus) (*domain.Booking, error)
	// MarkMissedCollections flags uncollected approved bookings whose slot ended before cutoff.
	MarkMissedCollections(ctx context.Context, cutoff time.Time) (int, error)
	GetBooking(ctx context.Context, bookingID int32) (*domain.Booking, *domain.Receipt, error)
	ListHouseholdBookings(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error)
	ListBookingsByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
}

type AccountService interface {
	RegisterHousehold(ctx context.Context, h *domain.Household) error
	GetHousehold(ctx context.Context, householdID int32) (*domain.Household, error)
	Deposit(ctx context.Context, householdID int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error)
	GetBalance(ctx context.Context, householdID int32) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// Notifier delivers a notification to a household. Delivery failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, note *domain.Notification)
}

type EmailService interface {
	SendNotification(ctx context.Context, to, subject, body string) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}
