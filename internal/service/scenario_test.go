package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository"
	"water-scheduler-backend/internal/repository/memory"
	"water-scheduler-backend/internal/service"
)

const scenarioDate = "2026-11-02"

// engine wires the real services over the in-process store.
type engine struct {
	store      *repository.Store
	resources  service.ResourceService
	slots      service.SlotService
	bookings   service.BookingService
	accounts   service.AccountService
	dispatcher *service.NotificationDispatcher
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := memory.NewStore()
	dispatcher := service.NewNotificationDispatcher(store.NotificationRepository, nil, nil, nil)
	return &engine{
		store:      store,
		resources:  service.NewResourceService(store.ResourceRepository),
		slots:      service.NewSlotService(store.SlotRepository, store.ResourceRepository, nil),
		bookings:   service.NewBookingService(store.BookingRepository, store.SlotRepository, store.HouseholdRepository, store.ReceiptRepository, dispatcher, fastPolicy(), nil),
		accounts:   service.NewAccountService(store.HouseholdRepository),
		dispatcher: dispatcher,
	}
}

func (e *engine) resource(t *testing.T, name string, capacity int32, open, close string, access domain.PriorityAccess) *domain.Resource {
	t.Helper()
	res := &domain.Resource{
		Name:            name,
		CapacityPerHour: capacity,
		OpenTime:        domain.MustParseTimeOfDay(open),
		CloseTime:       domain.MustParseTimeOfDay(close),
		PricePer100:     decimal.RequireFromString("0.05"),
		PriorityAccess:  access,
	}
	require.NoError(t, e.resources.CreateResource(context.Background(), res))
	return res
}

func (e *engine) household(t *testing.T, userID int32, tier domain.PriorityTier, balance string) *domain.Household {
	t.Helper()
	h := &domain.Household{UserID: userID, Name: "Household", PriorityTier: tier, Balance: decimal.RequireFromString(balance)}
	require.NoError(t, e.accounts.RegisterHousehold(context.Background(), h))
	return h
}

func TestScenario_WellABookingLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well A", 3, "06:00", "09:00", domain.PriorityAccessAll())
	h := e.household(t, 10, domain.PriorityNormal, "50.00")

	n, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	assert.Zero(t, n, "second generation inserts nothing")

	available, err := e.slots.ListAvailableSlots(ctx, scenarioDate, domain.PriorityNormal)
	require.NoError(t, err)
	require.Len(t, available, 3)
	first := available[0]
	assert.Equal(t, "06:00", first.StartTime.String())
	assert.Equal(t, "07:00", first.EndTime.String())

	b, err := e.bookings.CreateBooking(ctx, h.ID, first.ID, 200, domain.PaymentMethodMobile)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.True(t, b.Amount.Equal(decimal.RequireFromString("0.10")))

	approved, receipt, err := e.bookings.ApproveBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusApproved, approved.Status)
	require.NotNil(t, receipt)
	assert.Regexp(t, `^RCP-\d{8}-[0-9A-F]{16}$`, receipt.ReceiptNumber)

	balance, err := e.accounts.GetBalance(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("49.90")), balance.String())

	slot, err := e.store.SlotRepository.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), slot.BookedUnits)

	// approving again changes nothing
	_, again, err := e.bookings.ApproveBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ReceiptNumber, again.ReceiptNumber)
	balance, _ = e.accounts.GetBalance(ctx, h.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("49.90")))
	slot, _ = e.store.SlotRepository.GetByID(ctx, first.ID)
	assert.Equal(t, int32(1), slot.BookedUnits)

	notes, total, err := e.store.NotificationRepository.List(ctx, h.UserID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	types := []domain.NotificationType{notes[0].Type, notes[1].Type}
	assert.ElementsMatch(t, []domain.NotificationType{domain.NotificationBookingRequested, domain.NotificationBookingApproved}, types)
}

func TestScenario_CapacityExceeded(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well B", 1, "06:00", "07:00", domain.PriorityAccessAll())
	h1 := e.household(t, 11, domain.PriorityNormal, "10.00")
	h2 := e.household(t, 12, domain.PriorityNormal, "10.00")

	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, err := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	b1, err := e.bookings.CreateBooking(ctx, h1.ID, slots[0].ID, 100, domain.PaymentMethodCash)
	require.NoError(t, err)
	b2, err := e.bookings.CreateBooking(ctx, h2.ID, slots[0].ID, 100, domain.PaymentMethodCash)
	require.NoError(t, err)

	_, _, err = e.bookings.ApproveBooking(ctx, b1.ID)
	require.NoError(t, err)
	_, _, err = e.bookings.ApproveBooking(ctx, b2.ID)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	still, _, err := e.bookings.GetBooking(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, still.Status)

	available, err := e.slots.ListAvailableSlots(ctx, scenarioDate, domain.PriorityNormal)
	require.NoError(t, err)
	assert.Empty(t, available, "full slot is no longer offered")

	// cancelling the approved booking frees the unit again
	_, err = e.bookings.CancelBooking(ctx, b1.ID, h1.ID)
	require.NoError(t, err)
	_, _, err = e.bookings.ApproveBooking(ctx, b2.ID)
	assert.NoError(t, err)
}

func TestScenario_PriorityRestriction(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	reserved := e.resource(t, "Clinic Tap", 2, "08:00", "10:00", domain.PriorityAccessFor(domain.PriorityHigh))
	open := e.resource(t, "Village Tap", 2, "08:00", "09:00", domain.PriorityAccessAll())
	normal := e.household(t, 20, domain.PriorityNormal, "5.00")

	total, err := e.slots.GenerateUpcoming(ctx, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	forNormal, err := e.slots.ListAvailableSlots(ctx, scenarioDate, domain.PriorityNormal)
	require.NoError(t, err)
	require.Len(t, forNormal, 1)
	assert.Equal(t, open.ID, forNormal[0].ResourceID)

	forHigh, err := e.slots.ListAvailableSlots(ctx, scenarioDate, domain.PriorityHigh)
	require.NoError(t, err)
	assert.Len(t, forHigh, 3)

	restricted, err := e.slots.ListResourceSlots(ctx, reserved.ID, scenarioDate)
	require.NoError(t, err)
	_, err = e.bookings.CreateBooking(ctx, normal.ID, restricted[0].ID, 50, domain.PaymentMethodCash)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestScenario_DenyHasNoEffect(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well C", 2, "06:00", "07:00", domain.PriorityAccessAll())
	h := e.household(t, 30, domain.PriorityNormal, "1.00")
	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, _ := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)

	b, err := e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 100, domain.PaymentMethodMobile)
	require.NoError(t, err)

	denied, err := e.bookings.DenyBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusDenied, denied.Status)
	_, err = e.bookings.DenyBooking(ctx, b.ID)
	require.NoError(t, err, "denying twice is a no-op")

	balance, _ := e.accounts.GetBalance(ctx, h.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("1.00")))
	slot, _ := e.store.SlotRepository.GetByID(ctx, slots[0].ID)
	assert.Zero(t, slot.BookedUnits)

	_, _, err = e.bookings.ApproveBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// a denied booking still holds the household-slot pair
	_, err = e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 100, domain.PaymentMethodCash)
	assert.ErrorIs(t, err, domain.ErrDuplicateBooking)
}

func TestScenario_ConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well D", 3, "06:00", "07:00", domain.PriorityAccessAll())
	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, _ := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)

	var ids []int32
	for i := int32(0); i < 8; i++ {
		h := e.household(t, 40+i, domain.PriorityNormal, "10.00")
		b, err := e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 100, domain.PaymentMethodMobile)
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			if _, _, err := e.bookings.ApproveBooking(ctx, id); err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, approved)
	slot, _ := e.store.SlotRepository.GetByID(ctx, slots[0].ID)
	assert.Equal(t, int32(3), slot.BookedUnits)
	assert.Equal(t, domain.SlotStatusFull, slot.Status)
}

func TestScenario_MarkMissedCollections(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well E", 2, "06:00", "07:00", domain.PriorityAccessAll())
	h := e.household(t, 60, domain.PriorityNormal, "0")
	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, _ := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)

	b, err := e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 100, domain.PaymentMethodCash)
	require.NoError(t, err)
	_, _, err = e.bookings.ApproveBooking(ctx, b.ID)
	require.NoError(t, err)

	n, err := e.bookings.MarkMissedCollections(ctx, time.Date(2026, 11, 2, 6, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n, "slot has not ended")

	n, err = e.bookings.MarkMissedCollections(ctx, time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err := e.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionStatusMissed, got.CollectionStatus)
}

func TestScenario_ApproveOnCancelledSlot(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well F", 2, "06:00", "07:00", domain.PriorityAccessAll())
	h := e.household(t, 70, domain.PriorityNormal, "5.00")
	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, _ := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)

	b, err := e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 200, domain.PaymentMethodMobile)
	require.NoError(t, err)
	_, err = e.slots.UpdateSlotStatus(ctx, slots[0].ID, domain.SlotStatusCancelled)
	require.NoError(t, err)

	_, _, err = e.bookings.ApproveBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	balance, _ := e.accounts.GetBalance(ctx, h.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("5.00")), balance.String())
	slot, _ := e.store.SlotRepository.GetByID(ctx, slots[0].ID)
	assert.Zero(t, slot.BookedUnits)
	got, receipt, err := e.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, got.Status)
	assert.Nil(t, receipt)
}

func TestScenario_CancelAfterMissedCollectionKeepsDebit(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	well := e.resource(t, "Well G", 2, "06:00", "07:00", domain.PriorityAccessAll())
	h := e.household(t, 80, domain.PriorityNormal, "5.00")
	_, err := e.slots.GenerateSlots(ctx, well.ID, scenarioDate)
	require.NoError(t, err)
	slots, _ := e.slots.ListResourceSlots(ctx, well.ID, scenarioDate)

	b, err := e.bookings.CreateBooking(ctx, h.ID, slots[0].ID, 200, domain.PaymentMethodMobile)
	require.NoError(t, err)
	_, _, err = e.bookings.ApproveBooking(ctx, b.ID)
	require.NoError(t, err)
	n, err := e.bookings.MarkMissedCollections(ctx, time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = e.bookings.CancelBooking(ctx, b.ID, h.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	balance, _ := e.accounts.GetBalance(ctx, h.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("4.90")), balance.String())
	got, _, _ := e.bookings.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.BookingStatusApproved, got.Status)
}

func TestScenario_OpeningBalanceMatchesLedger(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	h := e.household(t, 90, domain.PriorityNormal, "12.50")

	txs, total, err := e.accounts.ListTransactions(ctx, h.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, domain.TransactionTypeDeposit, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(h.Balance))
}
