package balance

import (
	"sort"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/balance"
)

// Calculator turns raw work sessions into per-day and summary balances.
// It is stateless and safe for concurrent use.
type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate never fails: malformed sessions and breaks are clamped to zero.
// Each session counts toward the calendar date of its start in the input location,
// including sessions that run past midnight.
func (c *Calculator) Calculate(in balance.Input) balance.Result {
	loc := in.Location
	if loc == nil {
		loc = in.Now.Location()
	}

	result := balance.Result{Today: dateKey(in.Now.In(loc))}
	days := make(map[string]*balance.DayBalance)

	if in.Range != nil {
		in.Range.Dates(func(d time.Time) {
			key := dateKey(d)
			days[key] = &balance.DayBalance{
				Date:    key,
				Weekday: d.Weekday(),
				Target:  in.Schedule.TargetFor(d.Weekday()),
			}
		})
	}

	for _, s := range in.Sessions {
		if s.IsOpen() {
			result.CurrentlyActive = true
		}

		start := s.StartAt.In(loc)
		key := dateKey(start)
		net := s.Net(in.Now)

		if key == result.Today {
			result.TodayWorked += net
		}

		day, ok := days[key]
		if !ok {
			if in.Range != nil {
				continue
			}
			day = &balance.DayBalance{
				Date:    key,
				Weekday: start.Weekday(),
				Target:  in.Schedule.TargetFor(start.Weekday()),
			}
			days[key] = day
		}
		day.Worked += net
		day.Break += s.BreakDuration(in.Now)
		day.Sessions++
	}

	result.Days = make([]balance.DayBalance, 0, len(days))
	for _, d := range days {
		result.Days = append(result.Days, *d)
	}
	sort.Slice(result.Days, func(i, j int) bool {
		return result.Days[i].Date < result.Days[j].Date
	})

	for _, d := range result.Days {
		result.Summary.Worked += d.Worked
		result.Summary.Break += d.Break
		result.Summary.Target += d.Target
		if d.Sessions > 0 {
			result.Summary.DaysWorked++
		}
	}

	return result
}

func dateKey(t time.Time) string {
	return t.Format(balance.DateLayout)
}
