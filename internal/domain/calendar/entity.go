package calendar

import "time"

type Source string

const (
	SourceManual   Source = "manual"
	SourceExternal Source = "external"
)

type Entry struct {
	ID          string
	ProjectID   string
	UserID      string
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       time.Time
	AllDay      bool
	Source      Source
	ExternalID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e Entry) IsExternal() bool {
	return e.Source == SourceExternal
}
