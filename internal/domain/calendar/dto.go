package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

const maxImportEvents = 500

type EntryRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartAt     string  `json:"start_at"`
	EndAt       string  `json:"end_at"`
	AllDay      bool    `json:"all_day"`

	start time.Time
	end   time.Time
}

func (r *EntryRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Title = strings.TrimSpace(r.Title)
	r.start, r.end = validateEvent(&errs, "", r.Title, r.Description, r.StartAt, r.EndAt)
	return errs.Err()
}

// Times returns the parsed bounds. Call Validate first.
func (r *EntryRequest) Times() (start, end time.Time) {
	return r.start, r.end
}

// ExternalEvent is one event pushed by the calendar sync collaborator.
type ExternalEvent struct {
	ExternalID  string  `json:"external_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartAt     string  `json:"start_at"`
	EndAt       string  `json:"end_at"`
	AllDay      bool    `json:"all_day"`
}

type ImportRequest struct {
	Events []ExternalEvent `json:"events"`

	entries []Entry
}

func (r *ImportRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Events) == 0 {
		errs.Add("events", "at least one event is required")
	}
	if len(r.Events) > maxImportEvents {
		errs.Add("events", "at most 500 events per import")
	}

	seen := make(map[string]bool, len(r.Events))
	entries := make([]Entry, 0, len(r.Events))
	for i, ev := range r.Events {
		field := "events[" + strconv.Itoa(i) + "]"
		id := strings.TrimSpace(ev.ExternalID)
		if id == "" || len(id) > 255 {
			errs.Add(field+".external_id", "external_id must be 1-255 characters")
			continue
		}
		if seen[id] {
			errs.Add(field+".external_id", "duplicate external_id in batch")
			continue
		}
		seen[id] = true

		title := strings.TrimSpace(ev.Title)
		start, end := validateEvent(&errs, field+".", title, ev.Description, ev.StartAt, ev.EndAt)
		entries = append(entries, Entry{
			Title:       title,
			Description: ev.Description,
			StartAt:     start,
			EndAt:       end,
			AllDay:      ev.AllDay,
			Source:      SourceExternal,
			ExternalID:  &id,
		})
	}

	if err := errs.Err(); err != nil {
		return err
	}
	r.entries = entries
	return nil
}

// Entries returns the validated events as external entries without owner fields.
func (r *ImportRequest) Entries() []Entry {
	return r.entries
}

type ViewFilter struct {
	UserID    string `json:"user_id,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	dateRange balance.DateRange
}

func (f *ViewFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.UserID != "" && !validator.IsValidUUID(f.UserID) {
		errs.Add("user_id", "user_id must be a valid UUID")
	}
	start, okStart := validator.IsValidDate(f.StartDate)
	if !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(f.EndDate)
	if !okEnd {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if okStart && okEnd {
		f.dateRange = balance.NewDateRange(start, end)
		if end.Before(start) {
			errs.Add("end_date", "end_date must not be before start_date")
		} else if f.dateRange.Days() > balance.MaxRangeDays {
			errs.Add("end_date", balance.ErrRangeTooLong.Error())
		}
	}

	return errs.Err()
}

// Range is the validated date range. Call Validate first.
func (f *ViewFilter) Range() balance.DateRange {
	return f.dateRange
}

type EntryResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartAt     string  `json:"start_at"`
	EndAt       string  `json:"end_at"`
	AllDay      bool    `json:"all_day"`
	Source      Source  `json:"source"`
	ExternalID  *string `json:"external_id,omitempty"`
	ReadOnly    bool    `json:"read_only"`
}

func NewEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Description: e.Description,
		StartAt:     e.StartAt.Format(time.RFC3339),
		EndAt:       e.EndAt.Format(time.RFC3339),
		AllDay:      e.AllDay,
		Source:      e.Source,
		ExternalID:  e.ExternalID,
		ReadOnly:    e.IsExternal(),
	}
}

// CalendarResponse is the calendar view: entries plus the worked-hours overlay.
type CalendarResponse struct {
	UserID    string                       `json:"user_id"`
	StartDate string                       `json:"start_date"`
	EndDate   string                       `json:"end_date"`
	Timezone  string                       `json:"timezone"`
	Entries   []EntryResponse              `json:"entries"`
	Days      []balance.DayBalanceResponse `json:"days"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

func validateEvent(errs *validator.ValidationErrors, prefix, title string, description *string, startAt, endAt string) (time.Time, time.Time) {
	if title == "" {
		errs.Add(prefix+"title", "title is required")
	} else if len(title) > 255 {
		errs.Add(prefix+"title", "title must not exceed 255 characters")
	}
	if description != nil && len(*description) > 5000 {
		errs.Add(prefix+"description", "description must not exceed 5000 characters")
	}

	start, okStart := validator.IsValidDateTime(startAt)
	if !okStart {
		errs.Add(prefix+"start_at", "start_at must be an RFC 3339 timestamp")
	}
	end, okEnd := validator.IsValidDateTime(endAt)
	if !okEnd {
		errs.Add(prefix+"end_at", "end_at must be an RFC 3339 timestamp")
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add(prefix+"end_at", "end_at must not be before start_at")
	}
	return start, end
}
