package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/lib/pq"

	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

//go:embed schema.sql
var schemaSQL string

// NewStore builds every repository on top of db. lockTimeout bounds how long a transaction
// waits for a row lock before failing with a retryable contention error.
func NewStore(db *sql.DB, lockTimeout time.Duration) *repository.Store {
	return &repository.Store{
		ResourceRepository:     NewResourceRepository(db),
		SlotRepository:         NewSlotRepository(db, lockTimeout),
		BookingRepository:      NewBookingRepository(db, lockTimeout),
		HouseholdRepository:    NewHouseholdRepository(db, lockTimeout),
		ReceiptRepository:      NewReceiptRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("DDL", "schema.sql")
	_, err := db.ExecContext(ctx, schemaSQL)
	logger.DatabaseResult("DDL", 0, err)
	return err
}
