package postgres

import (
	"context"
	"database/sql"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

const slotColumns = `s.id, s.resource_id, r.name, to_char(s.slot_date, 'YYYY-MM-DD'), s.start_time, s.end_time, s.max_units, s.booked_units, s.status, s.created_on`

type slotRepository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewSlotRepository(db *sql.DB, lockTimeout time.Duration) repository.SlotRepository {
	return &slotRepository{db: db, lockTimeout: lockTimeout}
}

func scanSlot(row rowScanner, s *domain.Slot) error {
	return row.Scan(&s.ID, &s.ResourceID, &s.ResourceName, &s.Date, &s.StartTime, &s.EndTime, &s.MaxUnits, &s.BookedUnits, &s.Status, &s.CreatedOn)
}

func (r *slotRepository) InsertIfAbsent(ctx context.Context, resourceID int32, date string, windows []domain.SlotWindow, maxUnits int32) (int, error) {
	logger.EnterMethod("slotRepository.InsertIfAbsent", "resourceID", resourceID, "date", date, "windows", len(windows))

	query := `INSERT INTO slots (resource_id, slot_date, start_time, end_time, max_units, booked_units, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
	          ON CONFLICT (resource_id, slot_date, start_time, end_time) DO NOTHING`

	inserted := 0
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		now := time.Now()
		for _, w := range windows {
			logger.DatabaseCall("INSERT", "slots", "start", w.Start.String())
			result, err := tx.ExecContext(ctx, query, resourceID, date, w.Start, w.End, maxUnits, domain.SlotStatusAvailable, now)
			if err != nil {
				return err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			logger.DatabaseResult("INSERT", n, nil)
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("slotRepository.InsertIfAbsent", err, "resourceID", resourceID)
		return 0, err
	}
	logger.ExitMethod("slotRepository.InsertIfAbsent", "inserted", inserted)
	return inserted, nil
}

func (r *slotRepository) GetByID(ctx context.Context, id int32) (*domain.Slot, error) {
	s := &domain.Slot{}
	query := `SELECT ` + slotColumns + ` FROM slots s JOIN resources r ON r.id = s.resource_id WHERE s.id = $1`
	if err := scanSlot(r.db.QueryRowContext(ctx, query, id), s); err != nil {
		return nil, notFound(err, "slot %d", id)
	}
	return s, nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, date string, tier domain.PriorityTier) ([]domain.Slot, error) {
	query := `SELECT ` + slotColumns + `
	          FROM slots s JOIN resources r ON r.id = s.resource_id
	          WHERE s.slot_date = $1
	            AND s.status = 'available'
	            AND s.booked_units < s.max_units
	            AND r.status = 'active'
	            AND (r.priority_access = 'all' OR $2 = ANY(string_to_array(r.priority_access, ',')))
	          ORDER BY r.name COLLATE "C", s.start_time, s.id`
	return r.list(ctx, query, date, tier)
}

func (r *slotRepository) ListByResource(ctx context.Context, resourceID int32, date string) ([]domain.Slot, error) {
	query := `SELECT ` + slotColumns + `
	          FROM slots s JOIN resources r ON r.id = s.resource_id
	          WHERE s.resource_id = $1 AND s.slot_date = $2
	          ORDER BY s.start_time, s.id`
	return r.list(ctx, query, resourceID, date)
}

func (r *slotRepository) list(ctx context.Context, query string, args ...any) ([]domain.Slot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []domain.Slot{}
	for rows.Next() {
		var s domain.Slot
		if err := scanSlot(rows, &s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// UpdateStatus overrides a slot's status. Setting available on a slot with no free unit
// leaves it full.
func (r *slotRepository) UpdateStatus(ctx context.Context, id int32, status domain.SlotStatus) (*domain.Slot, error) {
	var slot *domain.Slot
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		s, err := lockSlot(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == domain.SlotStatusAvailable && !s.HasCapacity() {
			status = domain.SlotStatusFull
		}
		s.Status = status
		if _, err := tx.ExecContext(ctx, `UPDATE slots SET status = $1 WHERE id = $2`, s.Status, s.ID); err != nil {
			return err
		}
		slot = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// lockSlot reads a slot and holds its row lock for the rest of tx.
func lockSlot(ctx context.Context, tx *sql.Tx, id int32) (*domain.Slot, error) {
	s := &domain.Slot{}
	query := `SELECT ` + slotColumns + ` FROM slots s JOIN resources r ON r.id = s.resource_id WHERE s.id = $1 FOR UPDATE OF s`
	logger.DatabaseCall("SELECT FOR UPDATE", "slots", "slotID", id)
	if err := scanSlot(tx.QueryRowContext(ctx, query, id), s); err != nil {
		return nil, notFound(err, "slot %d", id)
	}
	return s, nil
}

func saveSlotUsage(ctx context.Context, tx *sql.Tx, s *domain.Slot) error {
	_, err := tx.ExecContext(ctx, `UPDATE slots SET booked_units = $1, status = $2 WHERE id = $3`, s.BookedUnits, s.Status, s.ID)
	return err
}
