// Package memory is an in-process repository backend. One mutex serialises every
// mutation, which gives each repository call the same all-or-nothing behaviour as a
// Postgres transaction.
package memory

import (
	"sync"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository"
)

type slotKey struct {
	resourceID int32
	date       string
	start      domain.TimeOfDay
	end        domain.TimeOfDay
}

type pairKey struct {
	householdID int32
	slotID      int32
}

type state struct {
	mu sync.Mutex

	nextID int32

	resources     map[int32]*domain.Resource
	slots         map[int32]*domain.Slot
	slotIndex     map[slotKey]int32
	households    map[int32]*domain.Household
	bookings      map[int32]*domain.Booking
	activeBooking map[pairKey]int32
	receipts      map[int32]*domain.Receipt // by booking id
	transactions  []domain.BalanceTransaction
	notifications []domain.Notification
}

func (s *state) id() int32 {
	s.nextID++
	return s.nextID
}

// NewStore returns an empty store.
func NewStore() *repository.Store {
	st := &state{
		resources:     make(map[int32]*domain.Resource),
		slots:         make(map[int32]*domain.Slot),
		slotIndex:     make(map[slotKey]int32),
		households:    make(map[int32]*domain.Household),
		bookings:      make(map[int32]*domain.Booking),
		activeBooking: make(map[pairKey]int32),
		receipts:      make(map[int32]*domain.Receipt),
	}
	return &repository.Store{
		ResourceRepository:     &resourceRepository{st},
		SlotRepository:         &slotRepository{st},
		BookingRepository:      &bookingRepository{st},
		HouseholdRepository:    &householdRepository{st},
		ReceiptRepository:      &receiptRepository{st},
		NotificationRepository: &notificationRepository{st},
	}
}
