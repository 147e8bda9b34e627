package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-scheduler-backend/internal/domain"
)

func TestSlotRepository_InsertIfAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewSlotRepository(db, 0)
	windows, err := domain.PartitionWindow(domain.MustParseTimeOfDay("08:00"), domain.MustParseTimeOfDay("10:00"), domain.SlotLength)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO slots").
		WithArgs(int32(1), "2025-03-01", domain.MustParseTimeOfDay("08:00"), domain.MustParseTimeOfDay("09:00"), int32(5), "available", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO slots").
		WithArgs(int32(1), "2025-03-01", domain.MustParseTimeOfDay("09:00"), domain.MustParseTimeOfDay("10:00"), int32(5), "available", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := repo.InsertIfAbsent(context.Background(), 1, "2025-03-01", windows, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_ListAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewSlotRepository(db, 0)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(slotCols).
			AddRow(10, 1, "Well-A", "2025-03-01", "08:00:00", "09:00:00", 5, 0, "available", time.Now()).
			AddRow(11, 1, "Well-A", "2025-03-01", "09:00:00", "10:00:00", 5, 2, "available", time.Now())
		mock.ExpectQuery(`ORDER BY r.name COLLATE "C", s.start_time, s.id`).WithArgs("2025-03-01", "normal").WillReturnRows(rows)

		slots, err := repo.ListAvailable(context.Background(), "2025-03-01", domain.PriorityNormal)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, "Well-A", slots[0].ResourceName)
		assert.Equal(t, "09:00", slots[1].StartTime.String())
		assert.Equal(t, int32(2), slots[1].BookedUnits)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY r.name COLLATE "C", s.start_time, s.id`).WillReturnRows(sqlmock.NewRows(slotCols))

		slots, err := repo.ListAvailable(context.Background(), "2025-03-02", domain.PriorityLow)
		require.NoError(t, err)
		assert.Empty(t, slots)
		assert.NotNil(t, slots)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewSlotRepository(db, 0)

	t.Run("Available on a full slot stays full", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE OF s").WithArgs(int32(10)).WillReturnRows(slotRows(1, 1, "maintenance"))
		mock.ExpectExec("UPDATE slots SET status").WithArgs("full", int32(10)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		s, err := repo.UpdateStatus(context.Background(), 10, domain.SlotStatusAvailable)
		require.NoError(t, err)
		assert.Equal(t, domain.SlotStatusFull, s.Status)
	})

	t.Run("Unknown slot", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE OF s").WithArgs(int32(99)).WillReturnRows(sqlmock.NewRows(slotCols))
		mock.ExpectRollback()

		_, err := repo.UpdateStatus(context.Background(), 99, domain.SlotStatusMaintenance)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
