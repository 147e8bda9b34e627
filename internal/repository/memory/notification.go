package memory

import (
	"context"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
)

type notificationRepository struct {
	*state
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = r.id()
	n.CreatedOn = time.Now()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			mine = append(mine, r.notifications[i])
		}
	}
	count := int32(len(mine))
	if offset >= count {
		return nil, count, nil
	}
	end := offset + limit
	if end > count {
		end = count
	}
	return mine[offset:end], count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification %d for user %d", domain.ErrNotFound, id, userID)
}
