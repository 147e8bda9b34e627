package domain

import "time"

type NotificationType string

const (
	NotificationBookingRequested NotificationType = "BOOKING_REQUESTED"
	NotificationBookingApproved  NotificationType = "BOOKING_APPROVED"
	NotificationBookingDenied    NotificationType = "BOOKING_DENIED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationCollectionMissed NotificationType = "COLLECTION_MISSED"
)

type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	Email      string            `json:"-"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Type       NotificationType  `json:"type"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}
