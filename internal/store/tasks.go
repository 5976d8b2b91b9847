package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

// CreateTask validates and inserts a task. Associations on the struct are ignored;
// they are loaded again by GetTask.
func (s *gormStore) CreateTask(ctx context.Context, task *model.Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func validateTask(task *model.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	switch {
	case task.Title == "":
		return apperr.Validation("title is required")
	case utf8.RuneCountInString(task.Title) > model.MaxTaskTitleLen:
		return apperr.Validation("title must be at most %d characters", model.MaxTaskTitleLen)
	case utf8.RuneCountInString(task.Description) > model.MaxTaskDescriptionLen:
		return apperr.Validation("description must be at most %d characters", model.MaxTaskDescriptionLen)
	case !task.Priority.Valid():
		return apperr.Validation("priority must be one of low, medium, high")
	case task.DueDate.IsZero():
		return apperr.Validation("due_date is required")
	case task.TeamID == 0:
		return apperr.Validation("team is required")
	}
	return nil
}

func (s *gormStore) preloadTask(db *gorm.DB) *gorm.DB {
	return db.Preload("Creator").Preload("Assignee").Preload("TaggedUsers").Preload("Team")
}

func (s *gormStore) GetTask(ctx context.Context, id int64) (model.Task, error) {
	var task model.Task
	if err := s.preloadTask(s.db.WithContext(ctx)).First(&task, id).Error; err != nil {
		return model.Task{}, notFound(err, "task", id)
	}
	return task, nil
}

// ListTasksForUser returns the tasks of every team the user belongs to.
func (s *gormStore) ListTasksForUser(ctx context.Context, userID int64) ([]model.Task, error) {
	var tasks []model.Task
	err := s.preloadTask(s.db.WithContext(ctx)).
		Joins("JOIN team_members tm ON tm.team_id = tasks.team_id").
		Where("tm.user_id = ?", userID).
		Order("tasks.id").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAllTasks loads every task without associations, for the overdue sweep.
func (s *gormStore) ListAllTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.WithContext(ctx).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *gormStore) SetAssignee(ctx context.Context, taskID, userID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).Update("assignee_id", userID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign task %d: %w", taskID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("task", taskID)
	}
	return nil
}

// AddTaggedUsers links users to the task. Already tagged users are left as is.
func (s *gormStore) AddTaggedUsers(ctx context.Context, taskID int64, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]any{"task_id": taskID, "user_id": u.ID})
	}
	err := s.db.WithContext(ctx).
		Table("task_tagged_users").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
	if err != nil {
		return fmt.Errorf("failed to tag users on task %d: %w", taskID, err)
	}
	return nil
}
