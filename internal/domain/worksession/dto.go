package worksession

import (
	"fmt"
	"math"
	"time"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

const MaxSessionLength = 24 * time.Hour

type ClockInRequest struct {
	Description *string `json:"description,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Description != nil && len(*r.Description) > 1000 {
		errs.Add("description", "description must not exceed 1000 characters")
	}
	return errs.Err()
}

type BreakInput struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

// SessionRequest creates a manual session or replaces a finished session's times and breaks.
type SessionRequest struct {
	StartAt     string       `json:"start_at"`
	EndAt       string       `json:"end_at"`
	Description *string      `json:"description,omitempty"`
	Breaks      []BreakInput `json:"breaks"`

	start  time.Time
	end    time.Time
	breaks []Break
}

func (r *SessionRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDateTime(r.StartAt)
	if !okStart {
		errs.Add("start_at", "start_at must be an RFC 3339 timestamp")
	}
	end, okEnd := validator.IsValidDateTime(r.EndAt)
	if !okEnd {
		errs.Add("end_at", "end_at must be an RFC 3339 timestamp")
	}
	if okStart && okEnd {
		switch {
		case !end.After(start):
			errs.Add("end_at", "end_at must be after start_at")
		case end.Sub(start) > MaxSessionLength:
			errs.Add("end_at", "a session must not exceed 24 hours")
		}
	}
	if r.Description != nil && len(*r.Description) > 1000 {
		errs.Add("description", "description must not exceed 1000 characters")
	}

	breaks := make([]Break, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		bs, ok1 := validator.IsValidDateTime(b.StartAt)
		be, ok2 := validator.IsValidDateTime(b.EndAt)
		if !ok1 || !ok2 {
			errs.Add("breaks", "break start_at and end_at must be RFC 3339 timestamps")
			break
		}
		if !be.After(bs) {
			errs.Add("breaks", "break end_at must be after start_at")
			break
		}
		if okStart && okEnd && (bs.Before(start) || be.After(end)) {
			errs.Add("breaks", "breaks must fall within the session")
			break
		}
		if overlapsAny(breaks, bs, be) {
			errs.Add("breaks", "breaks must not overlap")
			break
		}
		breaks = append(breaks, Break{StartAt: bs, EndAt: &be})
	}

	if err := errs.Err(); err != nil {
		return err
	}
	r.start, r.end, r.breaks = start, end, breaks
	return nil
}

func overlapsAny(breaks []Break, start, end time.Time) bool {
	for _, b := range breaks {
		if start.Before(*b.EndAt) && b.StartAt.Before(end) {
			return true
		}
	}
	return false
}

// Parsed returns the validated times. Call Validate first.
func (r *SessionRequest) Parsed() (start, end time.Time, breaks []Break) {
	return r.start, r.end, r.breaks
}

type SessionFilter struct {
	UserID    string `json:"-"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string `json:"end_date"`   // YYYY-MM-DD, inclusive
	IsManual  *bool  `json:"is_manual,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`

	from *time.Time
	to   *time.Time
}

func (f *SessionFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page > validator.MaxPage {
		errs.Add("page", fmt.Sprintf("page must not exceed %d", validator.MaxPage))
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	if f.StartDate != "" {
		if d, ok := validator.IsValidDate(f.StartDate); ok {
			f.from = &d
		} else {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != "" {
		if d, ok := validator.IsValidDate(f.EndDate); ok {
			f.to = &d
		} else {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if f.from != nil && f.to != nil && f.to.Before(*f.from) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	return errs.Err()
}

// Bounds converts the date filter to [from, to) instants in loc.
func (f *SessionFilter) Bounds(loc *time.Location) (from, to *time.Time) {
	if f.from != nil {
		v := time.Date(f.from.Year(), f.from.Month(), f.from.Day(), 0, 0, 0, 0, loc)
		from = &v
	}
	if f.to != nil {
		v := time.Date(f.to.Year(), f.to.Month(), f.to.Day()+1, 0, 0, 0, 0, loc)
		to = &v
	}
	return from, to
}

type BreakResponse struct {
	ID      string  `json:"id"`
	StartAt string  `json:"start_at"`
	EndAt   *string `json:"end_at"`
}

type SessionResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	StartAt     string          `json:"start_at"`
	EndAt       *string         `json:"end_at"`
	Description *string         `json:"description,omitempty"`
	IsManual    bool            `json:"is_manual"`
	IsActive    bool            `json:"is_active"`
	Breaks      []BreakResponse `json:"breaks"`
	WorkedHours float64         `json:"worked_hours"`
	BreakHours  float64         `json:"break_hours"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// NewSessionResponse renders s with durations measured at now.
func NewSessionResponse(s WorkSession, now time.Time) SessionResponse {
	breaks := make([]BreakResponse, 0, len(s.Breaks))
	for _, b := range s.Breaks {
		breaks = append(breaks, BreakResponse{
			ID:      b.ID,
			StartAt: b.StartAt.Format(time.RFC3339),
			EndAt:   formatOptional(b.EndAt),
		})
	}
	return SessionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		StartAt:     s.StartAt.Format(time.RFC3339),
		EndAt:       formatOptional(s.EndAt),
		Description: s.Description,
		IsManual:    s.IsManual,
		IsActive:    s.IsOpen(),
		Breaks:      breaks,
		WorkedHours: Hours(s.Net(now)),
		BreakHours:  Hours(s.BreakDuration(now)),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

type ListSessionsResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Sessions   []SessionResponse `json:"sessions"`
}

type StatusResponse struct {
	Active         bool             `json:"active"`
	OnBreak        bool             `json:"on_break"`
	Session        *SessionResponse `json:"session,omitempty"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
}

// Hours converts d to hours rounded to two decimals.
func Hours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
