package api

import (
	"time"

	"teamtasks-backend/internal/model"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type teamResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Members   []userResponse `json:"members"`
	CreatedAt time.Time      `json:"created_at"`
}

type taskResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     time.Time      `json:"due_date"`
	Priority    model.Priority `json:"priority"`
	TeamID      int64          `json:"team_id"`
	CreatorID   int64          `json:"creator_id"`
	AssigneeID  *int64         `json:"assignee_id"`
	TaggedUsers []userResponse `json:"tagged_users"`
	CreatedAt   time.Time      `json:"created_at"`
}

type notificationResponse struct {
	ID        int64                  `json:"id"`
	Type      model.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	TaskID    *int64                 `json:"task_id"`
	CreatedAt time.Time              `json:"created_at"`
}

func toUser(u model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username}
}

func toUsers(users []*model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		if u != nil {
			out = append(out, toUser(*u))
		}
	}
	return out
}

func toTeam(t model.Team) teamResponse {
	return teamResponse{ID: t.ID, Name: t.Name, Members: toUsers(t.Members), CreatedAt: t.CreatedAt}
}

func toTask(t model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.UTC(),
		Priority:    t.Priority,
		TeamID:      t.TeamID,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		TaggedUsers: toUsers(t.TaggedUsers),
		CreatedAt:   t.CreatedAt,
	}
}

func toNotification(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		TaskID:    n.TaskID,
		CreatedAt: n.CreatedAt,
	}
}
