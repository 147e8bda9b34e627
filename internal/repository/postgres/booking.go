package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

const bookingColumns = `id, household_id, slot_id, quantity, amount, booking_status, collection_status, payment_method, receipt_number, approved_at, cancelled_at, created_on, updated_on`

type bookingRepository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewBookingRepository(db *sql.DB, lockTimeout time.Duration) repository.BookingRepository {
	return &bookingRepository{db: db, lockTimeout: lockTimeout}
}

func scanBooking(row rowScanner, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.HouseholdID, &b.SlotID, &b.Quantity, &b.Amount, &b.Status, &b.CollectionStatus, &b.PaymentMethod, &b.ReceiptNumber, &b.ApprovedAt, &b.CancelledAt, &b.CreatedOn, &b.UpdatedOn)
}

func (r *bookingRepository) CreatePending(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingRepository.CreatePending", "householdID", req.HouseholdID, "slotID", req.SlotID)

	var booking *domain.Booking
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		slot, err := lockSlot(ctx, tx, req.SlotID)
		if err != nil {
			return err
		}
		res := &domain.Resource{}
		if err := scanResource(tx.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, slot.ResourceID), res); err != nil {
			return notFound(err, "resource %d", slot.ResourceID)
		}
		h := &domain.Household{}
		if err := scanHousehold(tx.QueryRowContext(ctx, `SELECT `+householdColumns+` FROM households WHERE id = $1`, req.HouseholdID), h); err != nil {
			return notFound(err, "household %d", req.HouseholdID)
		}
		if !h.IsActive() {
			return fmt.Errorf("%w: household %d is %s", domain.ErrHouseholdInactive, h.ID, h.Status)
		}
		if err := domain.CheckOfferable(slot, res, h.PriorityTier); err != nil {
			return err
		}

		var exists bool
		dupQuery := `SELECT EXISTS (SELECT 1 FROM bookings WHERE household_id = $1 AND slot_id = $2 AND booking_status <> 'cancelled')`
		if err := tx.QueryRowContext(ctx, dupQuery, req.HouseholdID, req.SlotID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: household %d, slot %d", domain.ErrDuplicateBooking, req.HouseholdID, req.SlotID)
		}

		b := domain.NewPendingBooking(req, res.PricePer100, time.Now())
		insert := `INSERT INTO bookings (household_id, slot_id, quantity, amount, booking_status, collection_status, payment_method, receipt_number, created_on, updated_on)
		           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
		logger.DatabaseCall("INSERT", "bookings", "householdID", b.HouseholdID, "slotID", b.SlotID)
		if err := tx.QueryRowContext(ctx, insert, b.HouseholdID, b.SlotID, b.Quantity, b.Amount, b.Status, b.CollectionStatus, b.PaymentMethod, b.ReceiptNumber, b.CreatedOn, b.UpdatedOn).Scan(&b.ID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.CreatePending", err, "householdID", req.HouseholdID, "slotID", req.SlotID)
		return nil, err
	}
	logger.ExitMethod("bookingRepository.CreatePending", "bookingID", booking.ID)
	return booking, nil
}

func (r *bookingRepository) Approve(ctx context.Context, id int32) (*repository.ApprovalResult, error) {
	logger.EnterMethod("bookingRepository.Approve", "bookingID", id)

	var result *repository.ApprovalResult
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingStatusApproved {
			rc, err := ensureReceipt(ctx, tx, b)
			if err != nil {
				return err
			}
			result = &repository.ApprovalResult{Booking: b, Receipt: rc, AlreadyApproved: true}
			return nil
		}

		now := time.Now()
		if err := b.Approve(now); err != nil {
			return err
		}
		slot, err := lockSlot(ctx, tx, b.SlotID)
		if err != nil {
			return err
		}
		if err := slot.CheckOpen(); err != nil {
			return err
		}
		if err := slot.Reserve(); err != nil {
			return err
		}
		if err := saveSlotUsage(ctx, tx, slot); err != nil {
			return err
		}

		h, err := lockHousehold(ctx, tx, b.HouseholdID)
		if err != nil {
			return err
		}
		if b.IsDebited() {
			if err := h.Debit(b.Amount); err != nil {
				return err
			}
			if err := saveBalance(ctx, tx, h); err != nil {
				return err
			}
			bookingID := b.ID
			debit := &domain.BalanceTransaction{
				HouseholdID:      h.ID,
				Amount:           b.Amount.Neg(),
				Type:             domain.TransactionTypeBookingDebit,
				RelatedBookingID: &bookingID,
				Description:      fmt.Sprintf("Booking %d approved", b.ID),
			}
			if err := insertTransaction(ctx, tx, debit); err != nil {
				return err
			}
		}

		if err := updateBooking(ctx, tx, b); err != nil {
			return err
		}
		rc, err := ensureReceipt(ctx, tx, b)
		if err != nil {
			return err
		}
		result = &repository.ApprovalResult{Booking: b, Receipt: rc, Household: h}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Approve", err, "bookingID", id)
		return nil, err
	}
	logger.ExitMethod("bookingRepository.Approve", "bookingID", id, "alreadyApproved", result.AlreadyApproved)
	return result, nil
}

func (r *bookingRepository) Deny(ctx context.Context, id int32) (*domain.Booking, bool, error) {
	var booking *domain.Booking
	changed := false
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		booking = b
		if b.Status == domain.BookingStatusDenied {
			return nil
		}
		if err := b.Deny(time.Now()); err != nil {
			return err
		}
		changed = true
		return updateBooking(ctx, tx, b)
	})
	if err != nil {
		return nil, false, err
	}
	return booking, changed, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id, householdID int32) (*repository.CancellationResult, error) {
	logger.EnterMethod("bookingRepository.Cancel", "bookingID", id, "householdID", householdID)

	var result *repository.CancellationResult
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		wasApproved := b.Status == domain.BookingStatusApproved
		if err := b.Cancel(householdID, time.Now()); err != nil {
			return err
		}
		result = &repository.CancellationResult{Booking: b}

		if wasApproved {
			slot, err := lockSlot(ctx, tx, b.SlotID)
			if err != nil {
				return err
			}
			slot.Release()
			if err := saveSlotUsage(ctx, tx, slot); err != nil {
				return err
			}
			result.Released = true

			if b.IsDebited() {
				h, err := lockHousehold(ctx, tx, b.HouseholdID)
				if err != nil {
					return err
				}
				if err := h.Credit(b.Amount); err != nil {
					return err
				}
				if err := saveBalance(ctx, tx, h); err != nil {
					return err
				}
				bookingID := b.ID
				refund := &domain.BalanceTransaction{
					HouseholdID:      h.ID,
					Amount:           b.Amount,
					Type:             domain.TransactionTypeBookingRefund,
					RelatedBookingID: &bookingID,
					Description:      fmt.Sprintf("Booking %d cancelled", b.ID),
				}
				if err := insertTransaction(ctx, tx, refund); err != nil {
					return err
				}
				result.Refund = refund
			}
		}
		return updateBooking(ctx, tx, b)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Cancel", err, "bookingID", id)
		return nil, err
	}
	logger.ExitMethod("bookingRepository.Cancel", "bookingID", id, "released", result.Released)
	return result, nil
}

func (r *bookingRepository) SetCollectionStatus(ctx context.Context, id int32, status domain.CollectionStatus) (*domain.Booking, error) {
	var booking *domain.Booking
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := b.MarkCollection(status, time.Now()); err != nil {
			return err
		}
		booking = b
		return updateBooking(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// MarkMissedCollections compares the cutoff against slot end times as wall-clock values.
func (r *bookingRepository) MarkMissedCollections(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	query := `UPDATE bookings b SET collection_status = 'missed', updated_on = $2
	          FROM slots s
	          WHERE s.id = b.slot_id
	            AND b.booking_status = 'approved'
	            AND b.collection_status = 'pending'
	            AND (s.slot_date + s.end_time) < $1::timestamp
	          RETURNING b.id, b.household_id, b.slot_id, b.quantity, b.amount, b.booking_status, b.collection_status, b.payment_method, b.receipt_number, b.approved_at, b.cancelled_at, b.created_on, b.updated_on`
	logger.DatabaseCall("UPDATE", "bookings", "cutoff", cutoff)
	rows, err := r.db.QueryContext(ctx, query, cutoff.Format("2006-01-02 15:04:05"), time.Now())
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, classifyError(err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	logger.DatabaseResult("UPDATE", int64(len(bookings)), err)
	return bookings, err
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := scanBooking(r.db.QueryRowContext(ctx, query, id), b); err != nil {
		return nil, notFound(err, "booking %d", id)
	}
	return b, nil
}

func (r *bookingRepository) ListByHousehold(ctx context.Context, householdID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE household_id = $1`
	args := []any{householdID}
	if status != "" {
		query += ` AND booking_status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_on DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_status = $1 ORDER BY created_on, id`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]domain.Booking, error) {
	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// lockBooking reads a booking and holds its row lock for the rest of tx.
func lockBooking(ctx context.Context, tx *sql.Tx, id int32) (*domain.Booking, error) {
	b := &domain.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "bookings", "bookingID", id)
	if err := scanBooking(tx.QueryRowContext(ctx, query, id), b); err != nil {
		return nil, notFound(err, "booking %d", id)
	}
	return b, nil
}

func updateBooking(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	query := `UPDATE bookings SET booking_status = $1, collection_status = $2, approved_at = $3, cancelled_at = $4, updated_on = $5 WHERE id = $6`
	_, err := tx.ExecContext(ctx, query, b.Status, b.CollectionStatus, b.ApprovedAt, b.CancelledAt, b.UpdatedOn, b.ID)
	return err
}
