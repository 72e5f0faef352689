package task

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/task"
	"github.com/worktally/worktally-backend/internal/service/file"
)

var clock = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
)

type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTasks struct {
	task.Repository
	byID     map[string]*task.Task
	seq      int
	reminded []string
}

func newFakeTasks(tasks ...task.Task) *fakeTasks {
	f := &fakeTasks{byID: map[string]*task.Task{}}
	for i := range tasks {
		t := tasks[i]
		f.byID[t.ID] = &t
	}
	return f
}

func (f *fakeTasks) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeTasks) Create(_ context.Context, t task.Task) (task.Task, error) {
	t.ID = f.nextID("t")
	f.byID[t.ID] = &t
	return t, nil
}

func (f *fakeTasks) GetByID(_ context.Context, projectID, id string) (task.Task, error) {
	t, ok := f.byID[id]
	if !ok || t.ProjectID != projectID {
		return task.Task{}, task.ErrTaskNotFound
	}
	return *t, nil
}

func (f *fakeTasks) Update(_ context.Context, t task.Task) (task.Task, error) {
	f.byID[t.ID] = &t
	return t, nil
}

func (f *fakeTasks) Delete(_ context.Context, _, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeTasks) List(_ context.Context, projectID string, filter task.TaskFilter, _ time.Time) ([]task.Task, int64, error) {
	var out []task.Task
	for _, t := range f.byID {
		if t.ProjectID != projectID {
			continue
		}
		if filter.AssigneeID != "" && (t.AssigneeID == nil || *t.AssigneeID != filter.AssigneeID) {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTasks) ListDueWithin(_ context.Context, from, to time.Time) ([]task.Task, error) {
	var out []task.Task
	for _, t := range f.byID {
		if t.Deadline != nil && !t.Deadline.Before(from) && t.Deadline.Before(to) && t.ReminderSentAt == nil && t.Status != task.StatusDone {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTasks) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	f.byID[id].ReminderSentAt = &at
	f.reminded = append(f.reminded, id)
	return nil
}

func (f *fakeTasks) AddChecklistItem(_ context.Context, item task.ChecklistItem) (task.ChecklistItem, error) {
	item.ID = f.nextID("c")
	t := f.byID[item.TaskID]
	t.Checklist = append(t.Checklist, item)
	return item, nil
}

func (f *fakeTasks) GetChecklistItem(_ context.Context, taskID, itemID string) (task.ChecklistItem, error) {
	for _, item := range f.byID[taskID].Checklist {
		if item.ID == itemID {
			return item, nil
		}
	}
	return task.ChecklistItem{}, task.ErrChecklistItemNotFound
}

func (f *fakeTasks) UpdateChecklistItem(_ context.Context, item task.ChecklistItem) (task.ChecklistItem, error) {
	t := f.byID[item.TaskID]
	for i := range t.Checklist {
		if t.Checklist[i].ID == item.ID {
			t.Checklist[i] = item
		}
	}
	return item, nil
}

func (f *fakeTasks) AddAttachment(_ context.Context, a task.Attachment) (task.Attachment, error) {
	a.ID = f.nextID("a")
	a.CreatedAt = clock
	t := f.byID[a.TaskID]
	t.Attachments = append(t.Attachments, a)
	return a, nil
}

func (f *fakeTasks) GetAttachment(_ context.Context, taskID, attachmentID string) (task.Attachment, error) {
	for _, a := range f.byID[taskID].Attachments {
		if a.ID == attachmentID {
			return a, nil
		}
	}
	return task.Attachment{}, task.ErrAttachmentNotFound
}

func (f *fakeTasks) DeleteAttachment(_ context.Context, taskID, attachmentID string) error {
	t := f.byID[taskID]
	kept := t.Attachments[:0]
	for _, a := range t.Attachments {
		if a.ID != attachmentID {
			kept = append(kept, a)
		}
	}
	t.Attachments = kept
	return nil
}

type fakeMembers struct {
	project.MemberRepository
	ids map[string]bool
}

func (f fakeMembers) Get(_ context.Context, projectID, userID string) (project.Member, error) {
	if !f.ids[userID] {
		return project.Member{}, project.ErrMemberNotFound
	}
	return project.Member{ProjectID: projectID, UserID: userID}, nil
}

type fakeFiles struct {
	deleted []string
}

func (f *fakeFiles) UploadTaskAttachment(_ context.Context, projectID, taskID string, r io.Reader, filename string) (file.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return file.StoredFile{}, err
	}
	return file.StoredFile{
		Path:        "attachments/" + projectID + "/" + taskID + "/x.txt",
		FileName:    filename,
		ContentType: "text/plain",
		Size:        int64(len(data)),
	}, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFiles) URL(path string) string {
	return "/uploads/" + path
}

type fakeNotifier struct {
	sent []notification.CreateNotificationRequest
}

func (f *fakeNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func newTestService(repo *fakeTasks, files *fakeFiles, notifier Notifier) *TaskServiceImpl {
	members := fakeMembers{ids: map[string]bool{"mgr": true, "u-1": true, "u-2": true, alice: true, bob: true}}
	svc := NewTaskService(fakeTx{}, repo, members, files, notifier)
	svc.now = func() time.Time { return clock }
	return svc
}

func actor(id string, role project.Role) project.Actor {
	return project.Actor{UserID: id, Email: id + "@worktally.io", ProjectID: "p-1", Role: role}
}

func strPtr(s string) *string { return &s }

func TestCreate_AssignsAndNotifies(t *testing.T) {
	repo := newFakeTasks()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeFiles{}, notifier)

	resp, err := svc.Create(context.Background(), actor("mgr", project.RoleManager), task.CreateTaskRequest{
		Title:      "Prepare sprint review",
		AssigneeID: strPtr(alice),
		Checklist:  []string{"slides", "demo"},
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, resp.Status)
	assert.Equal(t, task.ChecklistProgress{Done: 0, Total: 2}, resp.Progress)
	assert.Equal(t, 1, resp.Checklist[1].Position)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.TypeTaskAssigned, notifier.sent[0].Type)
	assert.Equal(t, alice, notifier.sent[0].RecipientID)
}

func TestCreate_AssigneeRules(t *testing.T) {
	svc := newTestService(newFakeTasks(), &fakeFiles{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, actor(alice, project.RoleEmployee), task.CreateTaskRequest{Title: "x", AssigneeID: strPtr(bob)})
	assert.ErrorIs(t, err, project.ErrInsufficientRole)

	_, err = svc.Create(ctx, actor(alice, project.RoleEmployee), task.CreateTaskRequest{Title: "x", AssigneeID: strPtr(alice)})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, actor("mgr", project.RoleManager), task.CreateTaskRequest{
		Title:      "x",
		AssigneeID: strPtr("00000000-0000-4000-8000-000000000000"),
	})
	assert.ErrorIs(t, err, task.ErrAssigneeNotMember)
}

func TestUpdate_CompletionNotifiesCreator(t *testing.T) {
	repo := newFakeTasks(task.Task{ID: "t-1", ProjectID: "p-1", Title: "Fix login", Status: task.StatusInProgress, CreatedBy: "mgr", AssigneeID: strPtr("u-1")})
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeFiles{}, notifier)

	done := task.StatusDone
	resp, err := svc.Update(context.Background(), actor("u-1", project.RoleEmployee), "t-1", task.UpdateTaskRequest{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, resp.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.TypeTaskCompleted, notifier.sent[0].Type)
	assert.Equal(t, "mgr", notifier.sent[0].RecipientID)
}

func TestUpdate_ReassignResetsReminder(t *testing.T) {
	deadline := clock.Add(5 * time.Hour)
	sent := clock.Add(-time.Hour)
	repo := newFakeTasks(task.Task{
		ID: "t-1", ProjectID: "p-1", Title: "Invoice", Status: task.StatusTodo, CreatedBy: "mgr",
		Deadline: &deadline, AssigneeID: strPtr("u-1"), ReminderSentAt: &sent,
	})
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeFiles{}, notifier)

	_, err := svc.Update(context.Background(), actor("mgr", project.RoleManager), "t-1", task.UpdateTaskRequest{AssigneeID: strPtr(bob)})
	require.NoError(t, err)
	assert.Nil(t, repo.byID["t-1"].ReminderSentAt)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, bob, notifier.sent[0].RecipientID)
}

func TestUpdate_AccessDenied(t *testing.T) {
	repo := newFakeTasks(task.Task{ID: "t-1", ProjectID: "p-1", Title: "Fix login", Status: task.StatusTodo, CreatedBy: "mgr"})
	svc := newTestService(repo, &fakeFiles{}, nil)

	title := "Renamed"
	_, err := svc.Update(context.Background(), actor("u-2", project.RoleEmployee), "t-1", task.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, task.ErrTaskAccessDenied)

	_, err = svc.Update(context.Background(), actor("u-2", project.RoleEmployee), "missing", task.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestChecklistToggle(t *testing.T) {
	repo := newFakeTasks(task.Task{ID: "t-1", ProjectID: "p-1", Title: "Release", Status: task.StatusTodo, CreatedBy: "u-1"})
	svc := newTestService(repo, &fakeFiles{}, nil)
	ctx := context.Background()
	owner := actor("u-1", project.RoleEmployee)

	item, err := svc.AddChecklistItem(ctx, owner, "t-1", task.ChecklistItemRequest{Title: "tag"})
	require.NoError(t, err)
	assert.Equal(t, 0, item.Position)

	yes := true
	item, err = svc.UpdateChecklistItem(ctx, owner, "t-1", item.ID, task.UpdateChecklistItemRequest{IsDone: &yes})
	require.NoError(t, err)
	assert.True(t, item.IsDone)

	resp, err := svc.Get(ctx, owner, "t-1")
	require.NoError(t, err)
	assert.Equal(t, task.ChecklistProgress{Done: 1, Total: 1}, resp.Progress)
}

func TestAttachments(t *testing.T) {
	repo := newFakeTasks(task.Task{ID: "t-1", ProjectID: "p-1", Title: "Docs", Status: task.StatusTodo, CreatedBy: "u-1"})
	files := &fakeFiles{}
	svc := newTestService(repo, files, nil)
	ctx := context.Background()
	owner := actor("u-1", project.RoleEmployee)

	a, err := svc.UploadAttachment(ctx, owner, "t-1", strings.NewReader("hello"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Size)
	assert.Equal(t, "/uploads/attachments/p-1/t-1/x.txt", a.URL)

	require.NoError(t, svc.DeleteAttachment(ctx, owner, "t-1", a.ID))
	assert.Equal(t, []string{"attachments/p-1/t-1/x.txt"}, files.deleted)
	assert.ErrorIs(t, svc.DeleteAttachment(ctx, owner, "t-1", a.ID), task.ErrAttachmentNotFound)
}

func TestDelete_OnlyCreatorOrManager(t *testing.T) {
	repo := newFakeTasks(task.Task{
		ID: "t-1", ProjectID: "p-1", Title: "Docs", Status: task.StatusTodo, CreatedBy: "u-1", AssigneeID: strPtr("u-2"),
		Attachments: []task.Attachment{{ID: "a-1", FilePath: "attachments/p-1/t-1/a.pdf"}},
	})
	files := &fakeFiles{}
	svc := newTestService(repo, files, nil)

	err := svc.Delete(context.Background(), actor("u-2", project.RoleEmployee), "t-1")
	assert.ErrorIs(t, err, task.ErrTaskAccessDenied)

	require.NoError(t, svc.Delete(context.Background(), actor("mgr", project.RoleManager), "t-1"))
	assert.Empty(t, repo.byID)
	assert.Equal(t, []string{"attachments/p-1/t-1/a.pdf"}, files.deleted)
}

func TestList_AssigneeMe(t *testing.T) {
	repo := newFakeTasks(
		task.Task{ID: "t-1", ProjectID: "p-1", Title: "a", Status: task.StatusTodo, AssigneeID: strPtr("u-1")},
		task.Task{ID: "t-2", ProjectID: "p-1", Title: "b", Status: task.StatusTodo, AssigneeID: strPtr("u-2")},
		task.Task{ID: "t-3", ProjectID: "p-2", Title: "c", Status: task.StatusTodo, AssigneeID: strPtr("u-1")},
	)
	svc := newTestService(repo, &fakeFiles{}, nil)

	resp, err := svc.List(context.Background(), actor("u-1", project.RoleEmployee), task.TaskFilter{AssigneeID: "me"})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "t-1", resp.Tasks[0].ID)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestSendDeadlineReminders_Once(t *testing.T) {
	soon := clock.Add(3 * time.Hour)
	later := clock.Add(72 * time.Hour)
	repo := newFakeTasks(
		task.Task{ID: "due", ProjectID: "p-1", Title: "Invoice", Status: task.StatusTodo, Deadline: &soon, AssigneeID: strPtr("u-1")},
		task.Task{ID: "later", ProjectID: "p-1", Title: "Plan", Status: task.StatusTodo, Deadline: &later, AssigneeID: strPtr("u-1")},
		task.Task{ID: "done", ProjectID: "p-1", Title: "Old", Status: task.StatusDone, Deadline: &soon, AssigneeID: strPtr("u-1")},
	)
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeFiles{}, notifier)

	n, err := svc.SendDeadlineReminders(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"due"}, repo.reminded)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.TypeTaskDeadline, notifier.sent[0].Type)

	n, err = svc.SendDeadlineReminders(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
