package balance

import (
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

// MaxRangeDays caps how many days a single report may span.
const MaxRangeDays = 366

// ReportRequest selects either a month or an explicit date range.
type ReportRequest struct {
	UserID    string `json:"user_id,omitempty"`
	Month     string `json:"month,omitempty"`      // YYYY-MM
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // YYYY-MM-DD

	dateRange DateRange
}

func (r *ReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UserID != "" && !validator.IsValidUUID(r.UserID) {
		errs.Add("user_id", "user_id must be a valid UUID")
	}

	switch {
	case r.Month != "" && (r.StartDate != "" || r.EndDate != ""):
		errs.Add("month", "use either month or start_date/end_date, not both")
	case r.Month != "":
		m, ok := validator.IsValidMonth(r.Month)
		if !ok {
			errs.Add("month", "month must be in YYYY-MM format")
			break
		}
		r.dateRange = MonthRange(m.Year(), m.Month())
	case r.StartDate != "" || r.EndDate != "":
		start, okStart := validator.IsValidDate(r.StartDate)
		if !okStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
		end, okEnd := validator.IsValidDate(r.EndDate)
		if !okEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
		if okStart && okEnd {
			r.dateRange = NewDateRange(start, end)
			if end.Before(start) {
				errs.Add("end_date", "end_date must not be before start_date")
			} else if r.dateRange.Days() > MaxRangeDays {
				errs.Add("end_date", ErrRangeTooLong.Error())
			}
		}
	default:
		errs.Add("month", "month or start_date/end_date is required")
	}

	return errs.Err()
}

// Range is the validated date range. Call Validate first.
func (r *ReportRequest) Range() DateRange {
	return r.dateRange
}

type DayBalanceResponse struct {
	Date         string  `json:"date"`
	Weekday      string  `json:"weekday"`
	IsWorkDay    bool    `json:"is_work_day"`
	WorkedHours  float64 `json:"worked_hours"`
	BreakHours   float64 `json:"break_hours"`
	TargetHours  float64 `json:"target_hours"`
	BalanceHours float64 `json:"balance_hours"`
	Sessions     int     `json:"sessions"`
}

func NewDayBalanceResponse(d DayBalance, isWorkDay bool) DayBalanceResponse {
	return DayBalanceResponse{
		Date:         d.Date,
		Weekday:      d.Weekday.String(),
		IsWorkDay:    isWorkDay,
		WorkedHours:  worksession.Hours(d.Worked),
		BreakHours:   worksession.Hours(d.Break),
		TargetHours:  worksession.Hours(d.Target),
		BalanceHours: worksession.Hours(d.Balance()),
		Sessions:     d.Sessions,
	}
}

type SummaryResponse struct {
	WorkedHours  float64 `json:"worked_hours"`
	BreakHours   float64 `json:"break_hours"`
	TargetHours  float64 `json:"target_hours"`
	BalanceHours float64 `json:"balance_hours"`
	DaysWorked   int     `json:"days_worked"`
}

func NewSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		WorkedHours:  worksession.Hours(s.Worked),
		BreakHours:   worksession.Hours(s.Break),
		TargetHours:  worksession.Hours(s.Target),
		BalanceHours: worksession.Hours(s.Balance()),
		DaysWorked:   s.DaysWorked,
	}
}

// TodayResponse feeds the dashboard widget.
type TodayResponse struct {
	UserID          string          `json:"user_id"`
	Date            string          `json:"date"`
	Timezone        string          `json:"timezone"`
	WorkedHours     float64         `json:"worked_hours"`
	TargetHours     float64         `json:"target_hours"`
	BalanceHours    float64         `json:"balance_hours"`
	CurrentlyActive bool            `json:"currently_active"`
	ActiveSessionID *string         `json:"active_session_id,omitempty"`
	MonthToDate     SummaryResponse `json:"month_to_date"`
	CalculatedAt    string          `json:"calculated_at"`
}

type ReportResponse struct {
	UserID    string                `json:"user_id"`
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Timezone  string                `json:"timezone"`
	Schedule  user.ScheduleResponse `json:"schedule"`
	Days      []DayBalanceResponse  `json:"days"`
	Summary   SummaryResponse       `json:"summary"`
}
