package postgres

import (
	"context"
	"database/sql"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/repository"
)

type receiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) repository.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Receipt, error) {
	query := `SELECT id, booking_id, household_id, receipt_number, amount, quantity, payment_method, issued_on FROM receipts WHERE booking_id = $1`
	rc, err := scanReceipt(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		return nil, notFound(err, "receipt for booking %d", bookingID)
	}
	return rc, nil
}

func scanReceipt(row rowScanner) (*domain.Receipt, error) {
	rc := &domain.Receipt{}
	err := row.Scan(&rc.ID, &rc.BookingID, &rc.HouseholdID, &rc.ReceiptNumber, &rc.Amount, &rc.Quantity, &rc.PaymentMethod, &rc.IssuedOn)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// ensureReceipt inserts the receipt for b unless one exists and returns the stored row.
func ensureReceipt(ctx context.Context, tx *sql.Tx, b *domain.Booking) (*domain.Receipt, error) {
	rc := domain.ReceiptFor(b, time.Now())
	insert := `INSERT INTO receipts (booking_id, household_id, receipt_number, amount, quantity, payment_method, issued_on)
	           VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (booking_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, rc.BookingID, rc.HouseholdID, rc.ReceiptNumber, rc.Amount, rc.Quantity, rc.PaymentMethod, rc.IssuedOn); err != nil {
		return nil, err
	}
	query := `SELECT id, booking_id, household_id, receipt_number, amount, quantity, payment_method, issued_on FROM receipts WHERE booking_id = $1`
	return scanReceipt(tx.QueryRowContext(ctx, query, b.ID))
}
