package domain

import (
	"fmt"
	"time"
)

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusFull        SlotStatus = "full"
	SlotStatusMaintenance SlotStatus = "maintenance"
	SlotStatusCancelled   SlotStatus = "cancelled"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusFull, SlotStatusMaintenance, SlotStatusCancelled:
		return true
	}
	return false
}

// SlotLength is the fixed duration of every generated slot.
const SlotLength = time.Hour

type Slot struct {
	ID           int32      `json:"id"`
	ResourceID   int32      `json:"resource_id"`
	ResourceName string     `json:"resource_name,omitempty"`
	Date         string     `json:"date"`
	StartTime    TimeOfDay  `json:"start_time"`
	EndTime      TimeOfDay  `json:"end_time"`
	MaxUnits     int32      `json:"max_units"`
	BookedUnits  int32      `json:"booked_units"`
	Status       SlotStatus `json:"status"`
	CreatedOn    time.Time  `json:"created_on"`
}

func (s *Slot) HasCapacity() bool {
	return s.BookedUnits < s.MaxUnits
}

// CheckOpen refuses a slot a coordinator took out of service. A full slot is still open.
func (s *Slot) CheckOpen() error {
	if s.Status == SlotStatusCancelled || s.Status == SlotStatusMaintenance {
		return fmt.Errorf("%w: slot %d is %s", ErrSlotUnavailable, s.ID, s.Status)
	}
	return nil
}

// Reserve consumes one unit of capacity. The slot flips to full when the last unit is taken.
func (s *Slot) Reserve() error {
	if s.BookedUnits+1 > s.MaxUnits {
		return fmt.Errorf("%w: slot %d has %d of %d units booked", ErrCapacityExceeded, s.ID, s.BookedUnits, s.MaxUnits)
	}
	s.BookedUnits++
	if s.BookedUnits == s.MaxUnits && s.Status == SlotStatusAvailable {
		s.Status = SlotStatusFull
	}
	return nil
}

// Release gives back one unit of capacity taken by Reserve.
func (s *Slot) Release() {
	if s.BookedUnits > 0 {
		s.BookedUnits--
	}
	if s.Status == SlotStatusFull && s.BookedUnits < s.MaxUnits {
		s.Status = SlotStatusAvailable
	}
}

// EndsAt is the instant the slot closes, interpreted in loc.
func (s *Slot) EndsAt(loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return s.EndTime.On(d), nil
}

type SlotWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// PartitionWindow tiles [open, close) with windows of the given length. A trailing
// remainder shorter than length is dropped.
func PartitionWindow(open, close TimeOfDay, length time.Duration) ([]SlotWindow, error) {
	step := TimeOfDay(length / time.Minute)
	if step <= 0 {
		return nil, NewValidationError("slot_length", "must be at least one minute")
	}
	if close <= open {
		return nil, NewValidationError("operating_window", "close time must be after open time")
	}
	var windows []SlotWindow
	for start := open; start+step <= close; start += step {
		windows = append(windows, SlotWindow{Start: start, End: start + step})
	}
	return windows, nil
}

// CheckOfferable applies the availability rules to one slot for a requester tier.
func CheckOfferable(slot *Slot, res *Resource, tier PriorityTier) error {
	switch {
	case slot.Status != SlotStatusAvailable:
		return fmt.Errorf("%w: slot status is %s", ErrSlotUnavailable, slot.Status)
	case !slot.HasCapacity():
		return fmt.Errorf("%w: slot is at capacity", ErrSlotUnavailable)
	case res.Status != ResourceStatusActive:
		return fmt.Errorf("%w: resource status is %s", ErrSlotUnavailable, res.Status)
	case !res.PriorityAccess.Admits(tier):
		return fmt.Errorf("%w: resource is restricted to %s", ErrSlotUnavailable, res.PriorityAccess)
	}
	return nil
}
