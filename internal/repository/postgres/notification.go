package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	var attrs []byte
	if len(n.Attributes) > 0 {
		var err error
		if attrs, err = json.Marshal(n.Attributes); err != nil {
			return fmt.Errorf("encode attributes: %w", err)
		}
	}

	n.CreatedOn = time.Now()
	query := `INSERT INTO notifications (user_id, title, message, type, attributes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Title, n.Message, n.Type, attrs, n.CreatedOn).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)
	return err
}

// List returns one page, newest first, with the user's total in the same round trip.
func (r *notificationRepository) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	query := `SELECT id, user_id, title, message, type, is_read, attributes, created_on, count(*) OVER ()
	          FROM notifications WHERE user_id = $1
	          ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notes := []domain.Notification{}
	var total int32
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &attrs, &n.CreatedOn, &total); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, fmt.Errorf("decode attributes of notification %d: %w", n.ID, err)
			}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// past the last page the window count is unavailable
	if len(notes) == 0 && offset > 0 {
		if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return notes, total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: notification %d for user %d", domain.ErrNotFound, id, userID)
	}
	return nil
}
