package services

import (
	"context"
	"errors"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService persists notifications and pushes them to connected
// clients. The push is best-effort: a user without an open connection simply
// sees the notification on next fetch.
type NotificationService struct {
	db     *gorm.DB
	hub    *NotificationHub
	logger *logrus.Logger
}

func NewNotificationService(db *gorm.DB, hub *NotificationHub, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{db: db, hub: hub, logger: logger}
}

// Send stores the notification and pushes it to the target user.
func (s *NotificationService) Send(ctx context.Context, orgID, userID, title, message, severity, link string) error {
	if orgID == "" || userID == "" || title == "" {
		return errors.New("organization, user and title required")
	}
	n := &models.Notification{
		OrganizationID: orgID,
		UserID:         userID,
		Title:          title,
		Message:        message,
		Severity:       severity,
		Link:           link,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Push(userID, n)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, orgID, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notifications []models.Notification
	if err := q.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, orgID, userID, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("organization_id = ? AND user_id = ? AND id = ?", orgID, userID, id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
