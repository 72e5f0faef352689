package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

func strPtr(s string) *string { return &s }

func TestCreateTaskRequest_Validate(t *testing.T) {
	req := CreateTaskRequest{Title: "  Ship release  ", Deadline: strPtr("2026-03-10T17:00:00Z")}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ship release", req.Title)
	assert.Equal(t, StatusTodo, req.Status)
	require.NotNil(t, req.DeadlineTime())
	assert.Equal(t, time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), req.DeadlineTime().UTC())

	bad := CreateTaskRequest{Status: "BLOCKED", Deadline: strPtr("friday"), AssigneeID: strPtr("bob")}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &verrs)
	m := verrs.ToMap()
	for _, field := range []string{"title", "status", "deadline", "assignee_id"} {
		assert.Contains(t, m, field)
	}
}

func TestUpdateTaskRequest_ApplyClears(t *testing.T) {
	deadline := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sent := deadline.Add(-time.Hour)
	task := Task{Title: "a", Deadline: &deadline, AssigneeID: strPtr("u-1"), ReminderSentAt: &sent}

	done := StatusDone
	req := UpdateTaskRequest{Status: &done, Deadline: strPtr(""), AssigneeID: strPtr("")}
	require.NoError(t, req.Validate())
	req.Apply(&task)

	assert.Equal(t, StatusDone, task.Status)
	assert.Nil(t, task.Deadline)
	assert.Nil(t, task.AssigneeID)
	assert.Nil(t, task.ReminderSentAt)
	assert.Equal(t, "a", task.Title)
}

func TestTaskFilter_Validate(t *testing.T) {
	f := TaskFilter{DueBefore: "2026-03-31", AssigneeID: "me", Page: 3, Limit: 10}
	require.NoError(t, f.Validate())
	require.NotNil(t, f.DueBeforeTime())
	assert.Equal(t, 20, f.Offset())

	bad := TaskFilter{Status: "done", Limit: 101}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "status")
	assert.Contains(t, verrs.ToMap(), "limit")

	far := TaskFilter{Page: validator.MaxPage + 1}
	require.ErrorAs(t, far.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "page")
}

func TestNewTaskResponse(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	task := Task{
		ID:       "t-1",
		Status:   StatusInProgress,
		Deadline: &past,
		Checklist: []ChecklistItem{
			{ID: "c-1", Title: "draft", IsDone: true},
			{ID: "c-2", Title: "review"},
		},
		Attachments: []Attachment{{ID: "a-1", FilePath: "attachments/p/t/x.pdf", FileName: "brief.pdf"}},
	}

	resp := NewTaskResponse(task, now, func(p string) string { return "/uploads/" + p })
	assert.True(t, resp.IsOverdue)
	assert.Equal(t, ChecklistProgress{Done: 1, Total: 2}, resp.Progress)
	assert.Equal(t, "/uploads/attachments/p/t/x.pdf", resp.Attachments[0].URL)

	task.Status = StatusDone
	assert.False(t, NewTaskResponse(task, now, func(p string) string { return p }).IsOverdue)
}
