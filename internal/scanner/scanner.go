// Package scanner periodically notifies users about overdue tasks.
package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"teamtasks-backend/config"
	"teamtasks-backend/internal/metrics"
	"teamtasks-backend/internal/model"
)

// Notifier is implemented by notification.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error)
}

// Store lists the tasks a sweep inspects.
type Store interface {
	ListAllTasks(ctx context.Context) ([]model.Task, error)
}

const overdueTitle = "Task overdue"

// Service runs overdue sweeps. There is no record of which tasks were
// already reported, so every sweep notifies every task that is still overdue.
type Service struct {
	cfg      *config.ScannerConfig
	store    Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewService(cfg *config.ScannerConfig, s Store, n Notifier) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scanner timezone %q: %w", cfg.Timezone, err)
	}
	return &Service{cfg: cfg, store: s, notifier: n, loc: loc, now: time.Now}, nil
}

// Location is the zone due dates are rendered in.
func (s *Service) Location() *time.Location { return s.loc }

// Run sweeps once immediately and then every configured interval until ctx
// is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Overdue scanner is disabled. Not starting.")
		return
	}
	log.Printf("Starting overdue scanner, interval %s", s.cfg.Interval)

	s.ScanOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Overdue scanner shutting down.")
			return
		case <-timer.C:
			s.ScanOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// ScanOnce notifies the assignee of every task whose due date has passed,
// or the configured default user when a task is unassigned. Failures are
// logged per task. It returns the number of notifications sent.
func (s *Service) ScanOnce(ctx context.Context) int {
	start := time.Now()
	defer func() {
		metrics.OverdueSweeps.Inc()
		metrics.OverdueSweepDuration.Observe(time.Since(start).Seconds())
	}()

	tasks, err := s.store.ListAllTasks(ctx)
	if err != nil {
		log.Printf("Overdue sweep aborted, failed to load tasks: %v", err)
		return 0
	}

	now := s.now()
	sent := 0
	for _, task := range tasks {
		if !task.DueDate.Before(now) {
			continue
		}
		target := s.cfg.DefaultUserID
		if task.AssigneeID != nil {
			target = *task.AssigneeID
		}

		message := fmt.Sprintf("Task '%s' is past its due date.", task.Title)
		if _, err := s.notifier.Notify(ctx, target, model.NotificationOverdue, overdueTitle, message, &task.ID); err != nil {
			log.Printf("Failed to notify user %d about overdue task %d (due %s): %v",
				target, task.ID, task.DueDate.In(s.loc).Format(time.RFC3339), err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("Overdue sweep sent %d notifications", sent)
	}
	return sent
}
