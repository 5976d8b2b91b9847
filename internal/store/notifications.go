package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm/clause"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

const defaultHistoryLimit = 50

// CreateNotification validates and persists one notification record. It
// returns only after the row is committed. The target user is not looked up
// here; that is the dispatcher's job.
func (s *gormStore) CreateNotification(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error) {
	if !typ.Valid() {
		return model.Notification{}, apperr.Validation("unknown notification type %q", typ)
	}
	if userID <= 0 {
		return model.Notification{}, apperr.Validation("user is required")
	}
	if strings.TrimSpace(title) == "" {
		return model.Notification{}, apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > model.MaxNotificationTitleLen {
		return model.Notification{}, apperr.Validation("title must be at most %d characters", model.MaxNotificationTitleLen)
	}

	n := model.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&n).Error; err != nil {
		return model.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns the newest notifications of a user first.
func (s *gormStore) ListNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var out []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
