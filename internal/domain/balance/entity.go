package balance

import (
	"time"

	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
)

const DateLayout = "2006-01-02"

// DayBalance holds the figures for one calendar day.
type DayBalance struct {
	Date     string
	Weekday  time.Weekday
	Worked   time.Duration
	Break    time.Duration
	Target   time.Duration
	Sessions int
}

func (d DayBalance) Balance() time.Duration {
	return d.Worked - d.Target
}

type Summary struct {
	Worked     time.Duration
	Break      time.Duration
	Target     time.Duration
	DaysWorked int
}

func (s Summary) Balance() time.Duration {
	return s.Worked - s.Target
}

// Input is everything one calculation needs. Location decides which calendar day a
// session belongs to; nil means Now's location.
type Input struct {
	Sessions []worksession.WorkSession
	Schedule user.ScheduleConfig
	Now      time.Time
	Range    *DateRange
	Location *time.Location
}

type Result struct {
	// Days is ordered by date. With a range it holds every date of the range,
	// otherwise only dates that have sessions.
	Days            []DayBalance
	Summary         Summary
	Today           string
	TodayWorked     time.Duration
	CurrentlyActive bool
}

func (r Result) Day(date string) (DayBalance, bool) {
	for _, d := range r.Days {
		if d.Date == date {
			return d, true
		}
	}
	return DayBalance{}, false
}

// DateRange is an inclusive span of calendar dates, stored as UTC midnights.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDateRange keeps only the calendar dates of start and end.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: civil(start), End: civil(end)}
}

func MonthRange(year int, month time.Month) DateRange {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: first, End: first.AddDate(0, 1, -1)}
}

// Days is the number of dates in the range, zero when End precedes Start.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start)/(24*time.Hour)) + 1
}

// Dates calls fn for each date in order.
func (r DateRange) Dates(fn func(date time.Time)) {
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Bounds returns [first midnight, midnight after the last date) in loc.
func (r DateRange) Bounds(loc *time.Location) (from, to time.Time) {
	from = time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	to = time.Date(r.End.Year(), r.End.Month(), r.End.Day()+1, 0, 0, 0, 0, loc)
	return from, to
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
