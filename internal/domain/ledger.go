package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "DEPOSIT"
	TransactionTypeBookingDebit  TransactionType = "BOOKING_DEBIT"
	TransactionTypeBookingRefund TransactionType = "BOOKING_REFUND"
)

type BalanceTransaction struct {
	ID               int32           `json:"id"`
	HouseholdID      int32           `json:"household_id"`
	Amount           decimal.Decimal `json:"amount"` // positive for credit, negative for debit
	Type             TransactionType `json:"type"`
	RelatedBookingID *int32          `json:"related_booking_id,omitempty"`
	Description      string          `json:"description"`
	CreatedOn        time.Time       `json:"created_on"`
}

// OpeningDeposit is the ledger row for the balance a household is registered with.
func OpeningDeposit(householdID int32, amount decimal.Decimal) *BalanceTransaction {
	return &BalanceTransaction{
		HouseholdID: householdID,
		Amount:      amount,
		Type:        TransactionTypeDeposit,
		Description: "Opening balance",
	}
}
