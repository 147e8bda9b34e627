package memory

import (
	"context"
	"fmt"

	"water-scheduler-backend/internal/domain"
)

type receiptRepository struct {
	*state
}

func (r *receiptRepository) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := r.receipts[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: receipt for booking %d", domain.ErrNotFound, bookingID)
	}
	out := *rc
	return &out, nil
}
