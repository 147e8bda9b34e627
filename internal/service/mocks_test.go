package service_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository"
)

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreatePending(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) Approve(ctx context.Context, id int32) (*repository.ApprovalResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ApprovalResult), args.Error(1)
}
func (m *MockBookingRepo) Deny(ctx context.Context, id int32) (*domain.Booking, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Booking), args.Bool(1), args.Error(2)
}
func (m *MockBookingRepo) Cancel(ctx context.Context, id, householdID int32) (*repository.CancellationResult, error) {
	args := m.Called(ctx, id, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CancellationResult), args.Error(1)
}
func (m *MockBookingRepo) SetCollectionStatus(ctx context.Context, id int32, status domain.CollectionStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) MarkMissedCollections(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListByHousehold(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, householdID, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockSlotRepo
type MockSlotRepo struct {
	mock.Mock
}

func (m *MockSlotRepo) InsertIfAbsent(ctx context.Context, resourceID int32, date string, windows []domain.SlotWindow, maxUnits int32) (int, error) {
	args := m.Called(ctx, resourceID, date, windows, maxUnits)
	return args.Int(0), args.Error(1)
}
func (m *MockSlotRepo) GetByID(ctx context.Context, id int32) (*domain.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}
func (m *MockSlotRepo) ListAvailable(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error) {
	args := m.Called(ctx, date, tier)
	return args.Get(0).([]domain.Slot), args.Error(1)
}
func (m *MockSlotRepo) ListByResource(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error) {
	args := m.Called(ctx, resourceID, date)
	return args.Get(0).([]domain.Slot), args.Error(1)
}
func (m *MockSlotRepo) UpdateStatus(ctx context.Context, id int32, status domain.SlotStatus) (*domain.Slot, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

// MockResourceRepo
type MockResourceRepo struct {
	mock.Mock
}

func (m *MockResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
func (m *MockResourceRepo) GetByID(ctx context.Context, id int32) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}
func (m *MockResourceRepo) Update(ctx context.Context, res *domain.Resource) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
func (m *MockResourceRepo) List(ctx context.Context, status domain.ResourceStatus) ([]domain.Resource, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Resource), args.Error(1)
}

// MockHouseholdRepo
type MockHouseholdRepo struct {
	mock.Mock
}

func (m *MockHouseholdRepo) Create(ctx context.Context, h *domain.Household) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}
func (m *MockHouseholdRepo) GetByID(ctx context.Context, id int32) (*domain.Household, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Household), args.Error(1)
}
func (m *MockHouseholdRepo) Deposit(ctx context.Context, id int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error) {
	args := m.Called(ctx, id, amount, description)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*domain.BalanceTransaction), args.Get(1).(decimal.Decimal), args.Error(2)
}
func (m *MockHouseholdRepo) ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error) {
	args := m.Called(ctx, householdID, page, pageSize)
	return args.Get(0).([]domain.BalanceTransaction), args.Get(1).(int32), args.Error(2)
}

// MockReceiptRepo
type MockReceiptRepo struct {
	mock.Mock
}

func (m *MockReceiptRepo) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Receipt, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, note *domain.Notification) {
	m.Called(ctx, note)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendNotification(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	args := m.Called(ctx, key, v)
	return args.Error(0)
}
