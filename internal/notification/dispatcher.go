// Package notification persists notifications and pushes them to users.
package notification

import (
	"context"
	"encoding/json"
	"log"

	"teamtasks-backend/internal/metrics"
	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/realtime"
)

// Store is the persistence the dispatcher depends on.
type Store interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	CreateNotification(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error)
}

// Offline receives notifications that reached no live connection.
type Offline interface {
	Enqueue(n model.Notification)
}

// Dispatcher stores a notification and then pushes it to the user's group.
type Dispatcher struct {
	store   Store
	fanout  realtime.Fanout
	policy  realtime.TargetPolicy
	offline Offline
}

// NewDispatcher wires a dispatcher. offline may be nil.
func NewDispatcher(s Store, fanout realtime.Fanout, policy realtime.TargetPolicy, offline Offline) *Dispatcher {
	return &Dispatcher{store: s, fanout: fanout, policy: policy, offline: offline}
}

// Dispatch validates the target, persists the notification and pushes it.
// The record is returned once stored, whether or not anyone was connected.
// Push failures are logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error) {
	if _, err := d.store.GetUser(ctx, userID); err != nil {
		return model.Notification{}, err
	}
	if taskID != nil {
		if _, err := d.store.GetTask(ctx, *taskID); err != nil {
			return model.Notification{}, err
		}
	}

	n, err := d.store.CreateNotification(ctx, userID, typ, title, message, taskID)
	if err != nil {
		return model.Notification{}, err
	}
	metrics.Dispatches.WithLabelValues(string(n.Type)).Inc()

	d.push(ctx, n)
	return n, nil
}

// Notify is the entry point used by event producers.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error) {
	return d.Dispatch(ctx, userID, typ, title, message, taskID)
}

func (d *Dispatcher) push(ctx context.Context, n model.Notification) {
	payload, err := json.Marshal(realtime.Frame{Type: string(n.Type), Title: n.Title, Message: n.Message})
	if err != nil {
		log.Printf("failed to encode notification %d: %v", n.ID, err)
		return
	}

	group := d.policy.GroupForUser(n.UserID)
	delivered, err := d.fanout.Publish(ctx, group, payload)
	if err != nil {
		log.Printf("failed to push notification %d to %s: %v", n.ID, group, err)
		delivered = 0
	}
	if delivered == 0 && d.offline != nil {
		d.offline.Enqueue(n)
	}
}
