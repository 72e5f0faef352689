package task

import "time"

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID             string
	ProjectID      string
	Title          string
	Description    *string
	Status         Status
	Deadline       *time.Time
	AssigneeID     *string
	CreatedBy      string
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Checklist   []ChecklistItem
	Attachments []Attachment
}

// IsOverdue reports whether the deadline has passed on an unfinished task.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Status != StatusDone && t.Deadline.Before(now)
}

type ChecklistItem struct {
	ID        string
	TaskID    string
	Title     string
	IsDone    bool
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Attachment struct {
	ID          string
	TaskID      string
	FilePath    string
	FileName    string
	ContentType string
	Size        int64
	UploadedBy  string
	CreatedAt   time.Time
}
