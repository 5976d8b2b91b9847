package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

// Usernames must be matchable by an @mention token.
var usernameRe = regexp.MustCompile(`^\w{1,150}$`)

func (s *gormStore) CreateUser(ctx context.Context, username, password string) (model.User, error) {
	if !usernameRe.MatchString(username) {
		return model.User{}, apperr.Validation("username must be 1-150 letters, digits or underscores")
	}
	if password == "" {
		return model.User{}, apperr.Validation("password is required")
	}

	user := model.User{Username: username}
	if err := user.SetPassword(password); errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.User{}, apperr.Validation("password must be at most 72 bytes")
	} else if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validation("username %q is already taken", username)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *gormStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return model.User{}, notFound(err, "user", id)
	}
	return user, nil
}

func (s *gormStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return model.User{}, notFound(err, "user", username)
	}
	return user, nil
}

func (s *gormStore) UsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := s.db.WithContext(ctx).Where("username IN ?", usernames).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetOrCreateToken returns the user's live token, replacing an expired one.
// ttl <= 0 issues a token that never expires.
func (s *gormStore) GetOrCreateToken(ctx context.Context, userID int64, ttl time.Duration) (model.AuthToken, error) {
	now := s.now()
	var token model.AuthToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&token).Error
		switch {
		case err == nil && !token.Expired(now):
			return nil
		case err == nil:
			if err := tx.Delete(&model.AuthToken{}, "\"key\" = ?", token.Key).Error; err != nil {
				return fmt.Errorf("failed to delete expired token: %w", err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		key, err := newTokenKey()
		if err != nil {
			return err
		}
		token = model.AuthToken{Key: key, UserID: userID, CreatedAt: now}
		if ttl > 0 {
			expires := now.Add(ttl)
			token.ExpiresAt = &expires
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		return model.AuthToken{}, err
	}
	return token, nil
}

// LookupToken loads a token with its user. Expiry is left to the caller.
func (s *gormStore) LookupToken(ctx context.Context, key string) (model.AuthToken, error) {
	var token model.AuthToken
	if err := s.db.WithContext(ctx).Preload("User").Where("\"key\" = ?", key).First(&token).Error; err != nil {
		return model.AuthToken{}, notFound(err, "token", "")
	}
	if token.User == nil {
		return model.AuthToken{}, apperr.NotFound("user", token.UserID)
	}
	return token, nil
}

// newTokenKey returns 40 hex characters of randomness.
func newTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
