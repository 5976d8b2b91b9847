package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

// SaveSubscription creates or replaces a push subscription keyed by endpoint.
// An endpoint already registered to another user is rejected.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.Endpoint == "" || sub.P256DH == "" || sub.Auth == "" {
		return apperr.Validation("endpoint, p256dh and auth are required")
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PushSubscription
		err := tx.Select("user_id").Where("endpoint = ?", sub.Endpoint).Take(&existing).Error
		switch {
		case err == nil && existing.UserID != sub.UserID:
			return apperr.Forbidden("endpoint is registered to another user")
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return model.PushSubscription{}, notFound(err, "subscription", endpoint)
	}
	return sub, nil
}

func (s *gormStore) ListSubscriptions(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
