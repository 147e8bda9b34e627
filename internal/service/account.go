package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type accountService struct {
	householdRepo repository.HouseholdRepository
}

func NewAccountService(householdRepo repository.HouseholdRepository) AccountService {
	return &accountService{householdRepo: householdRepo}
}

func (s *accountService) RegisterHousehold(ctx context.Context, h *domain.Household) error {
	if h.UserID <= 0 {
		return domain.NewValidationError("user_id", "is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if h.PriorityTier == "" {
		h.PriorityTier = domain.PriorityNormal
	}
	tier, err := domain.ParsePriorityTier(string(h.PriorityTier))
	if err != nil {
		return err
	}
	h.PriorityTier = tier
	if h.Status == "" {
		h.Status = domain.HouseholdStatusActive
	}
	if h.Balance.IsNegative() {
		return domain.NewValidationError("balance", "must not be negative")
	}
	if err := s.householdRepo.Create(ctx, h); err != nil {
		return err
	}
	logger.Info("Household registered", "householdID", h.ID, "userID", h.UserID, "tier", h.PriorityTier)
	return nil
}

func (s *accountService) GetHousehold(ctx context.Context, householdID int32) (*domain.Household, error) {
	return s.householdRepo.GetByID(ctx, householdID)
}

func (s *accountService) Deposit(ctx context.Context, householdID int32, amount decimal.Decimal, description string) (*domain.BalanceTransaction, decimal.Decimal, error) {
	logger.EnterMethod("accountService.Deposit", "householdID", householdID, "amount", amount.String())

	if !amount.IsPositive() {
		err := domain.NewValidationError("amount", "must be positive")
		logger.ExitMethodWithError("accountService.Deposit", err)
		return nil, decimal.Zero, err
	}
	if !amount.Equal(amount.Round(2)) {
		err := domain.NewValidationError("amount", "must not have more than two decimal places")
		logger.ExitMethodWithError("accountService.Deposit", err)
		return nil, decimal.Zero, err
	}
	if description == "" {
		description = fmt.Sprintf("Deposit of %s", amount.StringFixed(2))
	}
	entry, balance, err := s.householdRepo.Deposit(ctx, householdID, amount, description)
	if err != nil {
		logger.ExitMethodWithError("accountService.Deposit", err, "householdID", householdID)
		return nil, decimal.Zero, err
	}
	logger.Info("Deposit recorded", "householdID", householdID, "amount", amount.StringFixed(2), "balance", balance.StringFixed(2))
	logger.ExitMethod("accountService.Deposit", "transactionID", entry.ID)
	return entry, balance, nil
}

func (s *accountService) GetBalance(ctx context.Context, householdID int32) (decimal.Decimal, error) {
	h, err := s.householdRepo.GetByID(ctx, householdID)
	if err != nil {
		return decimal.Zero, err
	}
	return h.Balance, nil
}

func (s *accountService) ListTransactions(ctx context.Context, householdID int32, page, pageSize int32) ([]domain.BalanceTransaction, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.householdRepo.ListTransactions(ctx, householdID, page, pageSize)
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
