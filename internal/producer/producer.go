// Package producer turns task events into notifications.
package producer

import (
	"context"
	"fmt"
	"log"

	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/parse"
)

// Notifier is implemented by notification.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error)
}

// Store is what the producers read and write.
type Store interface {
	UsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
	IsTeamMember(ctx context.Context, userID, teamID int64) (bool, error)
	AddTaggedUsers(ctx context.Context, taskID int64, users []model.User) error
}

const (
	assignmentTitle = "New task"
	mentionTitle    = "You were mentioned"
)

type Producer struct {
	store    Store
	notifier Notifier
}

func New(s Store, n Notifier) *Producer {
	return &Producer{store: s, notifier: n}
}

// TaskAssigned notifies the task's assignee. Unassigned tasks are ignored.
func (p *Producer) TaskAssigned(ctx context.Context, task model.Task) error {
	if task.AssigneeID == nil {
		return nil
	}
	_, err := p.notifier.Notify(ctx, *task.AssigneeID, model.NotificationAssignment,
		assignmentTitle, fmt.Sprintf("Task '%s' assigned to you", task.Title), &task.ID)
	return err
}

// TaskMentioned tags and notifies every @username in text that names a member
// of the task's team. Unknown names and non-members are dropped silently. A
// failed notification is logged and the rest are still sent. The tagged users
// are returned in mention order.
func (p *Producer) TaskMentioned(ctx context.Context, task model.Task, text string) ([]model.User, error) {
	names := parse.Mentions(text)
	if len(names) == 0 {
		return nil, nil
	}

	found, err := p.store.UsersByUsernames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mentioned users: %w", err)
	}
	byName := make(map[string]model.User, len(found))
	for _, u := range found {
		byName[u.Username] = u
	}

	var tagged []model.User
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			continue
		}
		member, err := p.store.IsTeamMember(ctx, u.ID, task.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership of %s: %w", name, err)
		}
		if member {
			tagged = append(tagged, u)
		}
	}
	if len(tagged) == 0 {
		return nil, nil
	}

	if err := p.store.AddTaggedUsers(ctx, task.ID, tagged); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("You were mentioned in task '%s'", task.Title)
	for _, u := range tagged {
		if _, err := p.notifier.Notify(ctx, u.ID, model.NotificationMention, mentionTitle, message, &task.ID); err != nil {
			log.Printf("failed to notify %s of mention in task %d: %v", u.Username, task.ID, err)
		}
	}
	return tagged, nil
}
