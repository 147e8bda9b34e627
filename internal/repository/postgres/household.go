package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

const householdColumns = `id, user_id, name, email, priority_tier, status, balance, created_on, updated_on`

type householdRepository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewHouseholdRepository(db *sql.DB, lockTimeout time.Duration) repository.HouseholdRepository {
	return &householdRepository{db: db, lockTimeout: lockTimeout}
}

func scanHousehold(row rowScanner, h *domain.Household) error {
	return row.Scan(&h.ID, &h.UserID, &h.Name, &h.Email, &h.PriorityTier, &h.Status, &h.Balance, &h.CreatedOn, &h.UpdatedOn)
}

// Create inserts the household. A non-zero opening balance is recorded as a DEPOSIT row in
// the same transaction so the ledger always sums to the balance.
func (r *householdRepository) Create(ctx context.Context, h *domain.Household) error {
	query := `INSERT INTO households (user_id, name, email, priority_tier, status, balance, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		logger.DatabaseCall("INSERT", "households", "userID", h.UserID)
		if err := tx.QueryRowContext(ctx, query, h.UserID, h.Name, h.Email, h.PriorityTier, h.Status, h.Balance, now, now).Scan(&h.ID); err != nil {
			return err
		}
		if !h.Balance.IsPositive() {
			return nil
		}
		return insertTransaction(ctx, tx, domain.OpeningDeposit(h.ID, h.Balance))
	})
	logger.DatabaseResult("INSERT", 1, err, "householdID", h.ID)
	if err != nil {
		return err
	}
	h.CreatedOn, h.UpdatedOn = now, now
	return nil
}

func (r *householdRepository) GetByID(ctx context.Context, id int32) (*domain.Household, error) {
	h := &domain.Household{}
	query := `SELECT ` + householdColumns + ` FROM households WHERE id = $1`
	if err := scanHousehold(r.db.QueryRowContext(ctx, query, id), h); err != nil {
		return nil, notFound(err, "household %d", id)
	}
	return h, nil
}

func (r *householdRepository) Deposit(ctx context.Context, id int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error) {
	logger.EnterMethod("householdRepository.Deposit", "householdID", id, "amount", amount.String())

	var entry *domain.BalanceTransaction
	var balance decimal.Decimal
	err := withTx(ctx, r.db, r.lockTimeout, func(tx *sql.Tx) error {
		h, err := lockHousehold(ctx, tx, id)
		if err != nil {
			return err
		}
		if !h.IsActive() {
			return fmt.Errorf("%w: household %d is %s", domain.ErrHouseholdInactive, h.ID, h.Status)
		}
		if err := h.Credit(amount); err != nil {
			return err
		}
		if err := saveBalance(ctx, tx, h); err != nil {
			return err
		}
		entry = &domain.BalanceTransaction{
			HouseholdID: h.ID,
			Amount:      amount,
			Type:        domain.TransactionTypeDeposit,
			Description: description,
		}
		if err := insertTransaction(ctx, tx, entry); err != nil {
			return err
		}
		balance = h.Balance
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("householdRepository.Deposit", err, "householdID", id)
		return nil, decimal.Zero, err
	}
	logger.ExitMethod("householdRepository.Deposit", "householdID", id, "balance", balance.String())
	return entry, balance, nil
}

func (r *householdRepository) ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, household_id, amount, type, related_booking_id, description, created_on
	          FROM balance_transactions WHERE household_id = $1 ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, householdID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.BalanceTransaction
	for rows.Next() {
		var t domain.BalanceTransaction
		var related sql.NullInt32
		if err := rows.Scan(&t.ID, &t.HouseholdID, &t.Amount, &t.Type, &related, &t.Description, &t.CreatedOn); err != nil {
			return nil, 0, err
		}
		if related.Valid {
			id := related.Int32
			t.RelatedBookingID = &id
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM balance_transactions WHERE household_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, householdID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

// lockHousehold reads a household and holds its row lock for the rest of tx.
func lockHousehold(ctx context.Context, tx *sql.Tx, id int32) (*domain.Household, error) {
	h := &domain.Household{}
	query := `SELECT ` + householdColumns + ` FROM households WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "households", "householdID", id)
	if err := scanHousehold(tx.QueryRowContext(ctx, query, id), h); err != nil {
		return nil, notFound(err, "household %d", id)
	}
	return h, nil
}

func saveBalance(ctx context.Context, tx *sql.Tx, h *domain.Household) error {
	h.UpdatedOn = time.Now()
	_, err := tx.ExecContext(ctx, `UPDATE households SET balance = $1, updated_on = $2 WHERE id = $3`, h.Balance, h.UpdatedOn, h.ID)
	return err
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *domain.BalanceTransaction) error {
	query := `INSERT INTO balance_transactions (household_id, amount, type, related_booking_id, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	t.CreatedOn = time.Now()
	return tx.QueryRowContext(ctx, query, t.HouseholdID, t.Amount, t.Type, t.RelatedBookingID, t.Description, t.CreatedOn).Scan(&t.ID)
}
