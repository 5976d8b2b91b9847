package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks-backend/config"
	"teamtasks-backend/internal/model"
)

type fakeStore struct {
	tasks []model.Task
	err   error
}

func (f *fakeStore) ListAllTasks(context.Context) ([]model.Task, error) { return f.tasks, f.err }

type sent struct {
	userID int64
	taskID int64
	title  string
	msg    string
}

type recordingNotifier struct {
	mu     sync.Mutex
	calls  []sent
	failOn map[int64]bool
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if typ != model.NotificationOverdue {
		return model.Notification{}, errors.New("unexpected type")
	}
	r.calls = append(r.calls, sent{userID: userID, taskID: *taskID, title: title, msg: message})
	if r.failOn[userID] {
		return model.Notification{}, errors.New("user gone")
	}
	return model.Notification{ID: int64(len(r.calls))}, nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, tasks []model.Task, n *recordingNotifier) *Service {
	t.Helper()
	cfg := &config.ScannerConfig{Enabled: true, Interval: 10 * time.Millisecond, Timezone: "UTC", DefaultUserID: 1}
	svc, err := NewService(cfg, &fakeStore{tasks: tasks}, n)
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func assignee(id int64) *int64 { return &id }

func TestScanOnce_NotifiesOverdueTasks(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(t, []model.Task{
		{ID: 1, Title: "Late report", DueDate: now.Add(-time.Hour), AssigneeID: assignee(7)},
		{ID: 2, Title: "Future work", DueDate: now.Add(time.Hour), AssigneeID: assignee(7)},
		{ID: 3, Title: "Orphan", DueDate: now.Add(-24 * time.Hour)},
		{ID: 4, Title: "Due right now", DueDate: now, AssigneeID: assignee(7)},
	}, n)

	assert.Equal(t, 2, svc.ScanOnce(context.Background()))
	assert.Equal(t, []sent{
		{userID: 7, taskID: 1, title: "Task overdue", msg: "Task 'Late report' is past its due date."},
		{userID: 1, taskID: 3, title: "Task overdue", msg: "Task 'Orphan' is past its due date."},
	}, n.calls)
}

func TestScanOnce_RenotifiesEverySweep(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(t, []model.Task{
		{ID: 1, Title: "Late report", DueDate: now.Add(-time.Hour), AssigneeID: assignee(7)},
	}, n)

	svc.ScanOnce(context.Background())
	svc.ScanOnce(context.Background())
	assert.Equal(t, 2, n.count())
}

func TestScanOnce_ContinuesAfterFailure(t *testing.T) {
	n := &recordingNotifier{failOn: map[int64]bool{1: true}}
	svc := newService(t, []model.Task{
		{ID: 1, Title: "Orphan", DueDate: now.Add(-time.Hour)},
		{ID: 2, Title: "Late report", DueDate: now.Add(-time.Hour), AssigneeID: assignee(7)},
	}, n)

	assert.Equal(t, 1, svc.ScanOnce(context.Background()))
	assert.Equal(t, 2, n.count())
}

func TestScanOnce_StoreError(t *testing.T) {
	n := &recordingNotifier{}
	cfg := &config.ScannerConfig{Timezone: "UTC", DefaultUserID: 1}
	svc, err := NewService(cfg, &fakeStore{err: errors.New("db down")}, n)
	require.NoError(t, err)

	assert.Zero(t, svc.ScanOnce(context.Background()))
	assert.Zero(t, n.count())
}

func TestNewService_BadTimezone(t *testing.T) {
	svc, err := NewService(&config.ScannerConfig{Timezone: "Mars/Olympus"}, &fakeStore{}, &recordingNotifier{})
	assert.Error(t, err)
	assert.Nil(t, svc)
}

func TestNewService_Location(t *testing.T) {
	svc, err := NewService(&config.ScannerConfig{Timezone: "UTC"}, &fakeStore{}, &recordingNotifier{})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, svc.Location())
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(t, []model.Task{
		{ID: 1, Title: "Late report", DueDate: now.Add(-time.Hour), AssigneeID: assignee(7)},
	}, n)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return n.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}

func TestRun_Disabled(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(t, []model.Task{{ID: 1, DueDate: now.Add(-time.Hour)}}, n)
	svc.cfg.Enabled = false

	svc.Run(context.Background())
	assert.Zero(t, n.count())
}
