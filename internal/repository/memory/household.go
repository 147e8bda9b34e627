package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
)

type householdRepository struct {
	*state
}

func (r *householdRepository) Create(ctx context.Context, h *domain.Household) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	h.ID = r.id()
	h.CreatedOn, h.UpdatedOn = now, now
	if h.Balance.IsPositive() {
		entry := domain.OpeningDeposit(h.ID, h.Balance)
		entry.ID = r.id()
		entry.CreatedOn = now
		r.transactions = append(r.transactions, *entry)
	}
	stored := *h
	r.households[h.ID] = &stored
	return nil
}

func (r *householdRepository) GetByID(ctx context.Context, id int32) (*domain.Household, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.households[id]
	if !ok {
		return nil, fmt.Errorf("%w: household %d", domain.ErrNotFound, id)
	}
	out := *h
	return &out, nil
}

func (r *householdRepository) Deposit(ctx context.Context, id int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.households[id]
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("%w: household %d", domain.ErrNotFound, id)
	}
	if !h.IsActive() {
		return nil, decimal.Zero, fmt.Errorf("%w: household %d is %s", domain.ErrHouseholdInactive, h.ID, h.Status)
	}
	if err := h.Credit(amount); err != nil {
		return nil, decimal.Zero, err
	}
	now := time.Now()
	h.UpdatedOn = now
	entry := domain.BalanceTransaction{
		ID:          r.id(),
		HouseholdID: id,
		Amount:      amount,
		Type:        domain.TransactionTypeDeposit,
		Description: description,
		CreatedOn:   now,
	}
	r.transactions = append(r.transactions, entry)
	return &entry, h.Balance, nil
}

func (r *householdRepository) ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.BalanceTransaction
	for _, t := range r.transactions {
		if t.HouseholdID == householdID {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	count := int32(len(all))
	start := (page - 1) * pageSize
	if start >= count {
		return nil, count, nil
	}
	end := start + pageSize
	if end > count {
		end = count
	}
	return all[start:end], count, nil
}
