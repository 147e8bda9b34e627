package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the immutable proof of charge for an approved booking.
type Receipt struct {
	ID            int32           `json:"id"`
	BookingID     int32           `json:"booking_id"`
	HouseholdID   int32           `json:"household_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Quantity      int32           `json:"quantity"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	IssuedOn      time.Time       `json:"issued_on"`
}

// NewReceiptNumber reserves a receipt identifier of the form RCP-YYYYMMDD-XXXXXXXXXXXXXXXX.
func NewReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	return fmt.Sprintf("RCP-%s-%s", now.Format("20060102"), suffix)
}

func ReceiptFor(b *Booking, issuedOn time.Time) *Receipt {
	return &Receipt{
		BookingID:     b.ID,
		HouseholdID:   b.HouseholdID,
		ReceiptNumber: b.ReceiptNumber,
		Amount:        b.Amount,
		Quantity:      b.Quantity,
		PaymentMethod: b.PaymentMethod,
		IssuedOn:      issuedOn,
	}
}
