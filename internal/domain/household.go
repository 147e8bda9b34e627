package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type HouseholdStatus string

const (
	HouseholdStatusActive    HouseholdStatus = "active"
	HouseholdStatusInactive  HouseholdStatus = "inactive"
	HouseholdStatusSuspended HouseholdStatus = "suspended"
)

type Household struct {
	ID           int32           `json:"id"`
	UserID       int32           `json:"user_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PriorityTier PriorityTier    `json:"priority_tier"`
	Status       HouseholdStatus `json:"status"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedOn    time.Time       `json:"created_on"`
	UpdatedOn    time.Time       `json:"updated_on"`
}

func (h *Household) IsActive() bool {
	return h.Status == HouseholdStatusActive
}

// Credit adds funds. Deposits must be positive.
func (h *Household) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	h.Balance = h.Balance.Add(amount)
	return nil
}

// Debit removes funds. The balance may not go below zero.
func (h *Household) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	if h.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, charge %s", ErrInsufficientFunds, h.Balance.StringFixed(2), amount.StringFixed(2))
	}
	h.Balance = h.Balance.Sub(amount)
	return nil
}
