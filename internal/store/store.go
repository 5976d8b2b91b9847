package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// Users and credentials
	CreateUser(ctx context.Context, username, password string) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	UsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
	GetOrCreateToken(ctx context.Context, userID int64, ttl time.Duration) (model.AuthToken, error)
	LookupToken(ctx context.Context, key string) (model.AuthToken, error)

	// Teams
	CreateTeam(ctx context.Context, name string, creatorID int64, memberIDs []int64) (model.Team, error)
	ListTeamsForUser(ctx context.Context, userID int64) ([]model.Team, error)
	IsTeamMember(ctx context.Context, userID, teamID int64) (bool, error)

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id int64) (model.Task, error)
	ListTasksForUser(ctx context.Context, userID int64) ([]model.Task, error)
	ListAllTasks(ctx context.Context) ([]model.Task, error)
	SetAssignee(ctx context.Context, taskID, userID int64) error
	AddTaggedUsers(ctx context.Context, taskID int64, users []model.User) error

	// Notifications
	CreateNotification(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error)
	ListNotifications(ctx context.Context, userID int64, limit int) ([]model.Notification, error)

	// Web push subscriptions
	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// notFound maps gorm's missing-row error onto the shared taxonomy.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}
