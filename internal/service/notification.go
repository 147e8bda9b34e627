package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"water-scheduler-backend/internal/domain"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

// NotificationDispatcher persists each notification and fans it out to email and the
// event exchange in the background.
type NotificationDispatcher struct {
	noteRepo  repository.NotificationRepository
	emailSvc  EmailService
	publisher EventPublisher
	metrics   *metrics.Metrics
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewNotificationDispatcher accepts nil emailSvc or publisher when that sink is not configured.
func NewNotificationDispatcher(noteRepo repository.NotificationRepository, emailSvc EmailService, publisher EventPublisher, m *metrics.Metrics) *NotificationDispatcher {
	return &NotificationDispatcher{
		noteRepo:  noteRepo,
		emailSvc:  emailSvc,
		publisher: publisher,
		metrics:   m,
		timeout:   10 * time.Second,
	}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, note *domain.Notification) {
	if err := d.noteRepo.Create(ctx, note); err != nil {
		logger.Warn("Failed to persist notification", "userID", note.UserID, "type", note.Type, "error", err)
	}
	if d.emailSvc == nil && d.publisher == nil {
		return
	}

	n := *note
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if d.emailSvc != nil && n.Email != "" {
			err := d.emailSvc.SendNotification(ctx, n.Email, n.Title, n.Message)
			d.metrics.NotificationDelivered("email", err)
			if err != nil {
				logger.Warn("Email notification failed", "userID", n.UserID, "type", n.Type, "error", err)
			}
		}
		if d.publisher != nil {
			err := d.publisher.PublishJSON(ctx, routingKey(n.Type), n)
			d.metrics.NotificationDelivered("amqp", err)
			if err != nil {
				logger.Warn("Event publish failed", "userID", n.UserID, "type", n.Type, "error", err)
			}
		}
	}()
}

// Wait blocks until background deliveries finish.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

// routingKey turns BOOKING_APPROVED into notification.booking.approved.
func routingKey(t domain.NotificationType) string {
	return "notification." + strings.ReplaceAll(strings.ToLower(string(t)), "_", ".")
}
