package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/store"
	"teamtasks-backend/internal/testutil"
)

type call struct {
	userID  int64
	typ     model.NotificationType
	title   string
	message string
	taskID  int64
}

type recordingNotifier struct {
	calls  []call
	failOn map[int64]bool
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, typ model.NotificationType, title, message string, taskID *int64) (model.Notification, error) {
	r.calls = append(r.calls, call{userID: userID, typ: typ, title: title, message: message, taskID: *taskID})
	if r.failOn[userID] {
		return model.Notification{}, errors.New("boom")
	}
	return model.Notification{ID: int64(len(r.calls)), UserID: userID, Type: typ}, nil
}

type fixture struct {
	store    store.Store
	notifier *recordingNotifier
	p        *Producer
	alice    model.User
	bob      model.User
	carol    model.User
	task     model.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := testutil.NewTestDB(t)
	s := store.NewGormStore(gormDB)
	alice := testutil.MustCreateUser(t, gormDB, "alice")
	bob := testutil.MustCreateUser(t, gormDB, "bob")
	carol := testutil.MustCreateUser(t, gormDB, "carol")
	team := testutil.MustCreateTeam(t, gormDB, "core", alice, carol)

	task := model.Task{Title: "Ship it", Priority: model.PriorityHigh, DueDate: time.Now().Add(time.Hour), CreatorID: carol.ID, TeamID: team.ID}
	require.NoError(t, s.CreateTask(context.Background(), &task))

	n := &recordingNotifier{failOn: map[int64]bool{}}
	return &fixture{store: s, notifier: n, p: New(s, n), alice: alice, bob: bob, carol: carol, task: task}
}

func TestTaskAssigned(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.p.TaskAssigned(context.Background(), f.task))
	assert.Empty(t, f.notifier.calls, "unassigned tasks notify nobody")

	f.task.AssigneeID = &f.alice.ID
	require.NoError(t, f.p.TaskAssigned(context.Background(), f.task))
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, call{
		userID:  f.alice.ID,
		typ:     model.NotificationAssignment,
		title:   "New task",
		message: "Task 'Ship it' assigned to you",
		taskID:  f.task.ID,
	}, f.notifier.calls[0])
}

func TestTaskMentioned_OnlyTeamMembers(t *testing.T) {
	f := newFixture(t)

	tagged, err := f.p.TaskMentioned(context.Background(), f.task, "please check @alice @bob")
	require.NoError(t, err)

	require.Len(t, tagged, 1)
	assert.Equal(t, "alice", tagged[0].Username)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, call{
		userID:  f.alice.ID,
		typ:     model.NotificationMention,
		title:   "You were mentioned",
		message: "You were mentioned in task 'Ship it'",
		taskID:  f.task.ID,
	}, f.notifier.calls[0])

	task, err := f.store.GetTask(context.Background(), f.task.ID)
	require.NoError(t, err)
	require.Len(t, task.TaggedUsers, 1)
	assert.Equal(t, f.alice.ID, task.TaggedUsers[0].ID)
}

func TestTaskMentioned_DropsUnknownAndDuplicates(t *testing.T) {
	f := newFixture(t)

	tagged, err := f.p.TaskMentioned(context.Background(), f.task, "@carol @ghost @alice @carol")
	require.NoError(t, err)
	require.Len(t, tagged, 2)
	assert.Equal(t, "carol", tagged[0].Username)
	assert.Equal(t, "alice", tagged[1].Username)
	assert.Len(t, f.notifier.calls, 2)
}

func TestTaskMentioned_NoMentions(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"", "no mentions here", "@ghost only", "@bob is not on the team"} {
		tagged, err := f.p.TaskMentioned(context.Background(), f.task, text)
		require.NoError(t, err)
		assert.Empty(t, tagged, text)
	}
	assert.Empty(t, f.notifier.calls)
}

func TestTaskMentioned_FailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	f.notifier.failOn[f.alice.ID] = true

	tagged, err := f.p.TaskMentioned(context.Background(), f.task, "@alice and @carol")
	require.NoError(t, err)
	assert.Len(t, tagged, 2)
	require.Len(t, f.notifier.calls, 2)
	assert.Equal(t, f.carol.ID, f.notifier.calls[1].userID)
}

func TestTaskMentioned_RepeatTagIsHarmless(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.TaskMentioned(context.Background(), f.task, "@alice")
	require.NoError(t, err)
	_, err = f.p.TaskMentioned(context.Background(), f.task, "@alice again")
	require.NoError(t, err)

	task, err := f.store.GetTask(context.Background(), f.task.ID)
	require.NoError(t, err)
	assert.Len(t, task.TaggedUsers, 1)
}
