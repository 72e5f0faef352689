package balance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// 2026-03-02 is a Monday.
func ts(day, h, m int) time.Time {
	return time.Date(2026, 3, day, h, m, 0, 0, time.UTC)
}

func tp(t time.Time) *time.Time { return &t }

func closed(start, end time.Time, breaks ...worksession.Break) worksession.WorkSession {
	return worksession.WorkSession{StartAt: start, EndAt: tp(end), Breaks: breaks}
}

func brk(start, end time.Time) worksession.Break {
	return worksession.Break{StartAt: start, EndAt: tp(end)}
}

func TestCalculate_ConcreteDay(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(2, 9, 0), ts(2, 17, 30), brk(ts(2, 12, 0), ts(2, 12, 30))),
		},
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(4, 10, 0),
	})

	day, ok := res.Day("2026-03-02")
	require.True(t, ok)
	assert.Equal(t, time.Monday, day.Weekday)
	assert.Equal(t, 7*time.Hour+30*time.Minute, day.Worked)
	assert.Equal(t, 30*time.Minute, day.Break)
	assert.Equal(t, 8*time.Hour, day.Target)
	assert.Equal(t, -30*time.Minute, day.Balance())
	assert.Equal(t, 1, day.Sessions)

	assert.Equal(t, -30*time.Minute, res.Summary.Balance())
	assert.False(t, res.CurrentlyActive)
	assert.Zero(t, res.TodayWorked)
}

func TestCalculate_OpenSessionToday(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{{StartAt: ts(2, 9, 0)}},
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(2, 11, 15),
	})

	assert.Equal(t, "2026-03-02", res.Today)
	assert.Equal(t, 2*time.Hour+15*time.Minute, res.TodayWorked)
	assert.Equal(t, 2.25, worksession.Hours(res.TodayWorked))
	assert.True(t, res.CurrentlyActive)
}

func TestCalculate_OpenSessionGrowsWithNow(t *testing.T) {
	calc := NewCalculator()
	sessions := []worksession.WorkSession{
		closed(ts(2, 7, 0), ts(2, 8, 0)),
		{StartAt: ts(2, 9, 0), Breaks: []worksession.Break{brk(ts(2, 10, 0), ts(2, 10, 20))}},
	}
	in := balance.Input{
		Sessions: sessions,
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(2, 12, 0),
	}

	before := calc.Calculate(in)
	in.Now = in.Now.Add(time.Hour)
	after := calc.Calculate(in)

	assert.Equal(t, time.Hour, after.TodayWorked-before.TodayWorked)
	assert.Equal(t, time.Hour, after.Summary.Worked-before.Summary.Worked)
}

func TestCalculate_OpenBreakStopsGrowth(t *testing.T) {
	calc := NewCalculator()
	in := balance.Input{
		Sessions: []worksession.WorkSession{{
			StartAt: ts(2, 9, 0),
			Breaks:  []worksession.Break{{StartAt: ts(2, 11, 0)}},
		}},
		Now: ts(2, 11, 30),
	}

	before := calc.Calculate(in)
	in.Now = in.Now.Add(time.Hour)
	after := calc.Calculate(in)

	assert.Equal(t, 2*time.Hour, before.TodayWorked)
	assert.Equal(t, before.TodayWorked, after.TodayWorked)
}

func TestCalculate_BreakEqualToSession(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(2, 9, 0), ts(2, 10, 0), brk(ts(2, 9, 0), ts(2, 10, 0))),
			closed(ts(2, 11, 0), ts(2, 12, 0), brk(ts(2, 10, 0), ts(2, 13, 0)), brk(ts(2, 11, 0), ts(2, 12, 0))),
		},
		Now: ts(2, 18, 0),
	})

	day, ok := res.Day("2026-03-02")
	require.True(t, ok)
	assert.Zero(t, day.Worked)
	assert.GreaterOrEqual(t, res.Summary.Worked, time.Duration(0))
}

func TestCalculate_ZeroSessionsInRange(t *testing.T) {
	calc := NewCalculator()
	r := balance.NewDateRange(ts(2, 0, 0), ts(15, 0, 0)) // two full weeks

	res := calc.Calculate(balance.Input{
		Schedule: user.ScheduleConfig{DailyTargetHours: 7.5, WorkDays: weekdays},
		Now:      ts(20, 12, 0),
		Range:    &r,
	})

	require.Len(t, res.Days, 14)
	assert.Zero(t, res.Summary.Worked)
	assert.Equal(t, 10*(7*time.Hour+30*time.Minute), res.Summary.Target)
	assert.Equal(t, -res.Summary.Target, res.Summary.Balance())
	assert.Zero(t, res.Summary.DaysWorked)
	assert.False(t, res.CurrentlyActive)

	for _, d := range res.Days {
		assert.Zero(t, d.Worked, d.Date)
	}
	assert.Equal(t, "2026-03-02", res.Days[0].Date)
	assert.Equal(t, "2026-03-15", res.Days[13].Date)
}

func TestCalculate_EmptyInput(t *testing.T) {
	res := NewCalculator().Calculate(balance.Input{Now: ts(2, 9, 0)})

	assert.Empty(t, res.Days)
	assert.Zero(t, res.Summary)
	assert.Zero(t, res.TodayWorked)
	assert.False(t, res.CurrentlyActive)
}

func TestCalculate_EmptyWorkDays(t *testing.T) {
	calc := NewCalculator()
	r := balance.NewDateRange(ts(1, 0, 0), ts(8, 0, 0))

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(2, 9, 0), ts(2, 12, 0)),
			closed(ts(7, 10, 0), ts(7, 11, 0)),
			{StartAt: ts(8, 8, 0)},
		},
		Schedule: user.ScheduleConfig{DailyTargetHours: 8},
		Now:      ts(8, 9, 0),
		Range:    &r,
	})

	for _, d := range res.Days {
		assert.Zero(t, d.Target, d.Date)
		assert.Equal(t, d.Worked, d.Balance(), d.Date)
	}
	assert.Equal(t, res.Summary.Worked, res.Summary.Balance())
	assert.Equal(t, 5*time.Hour, res.Summary.Worked)
}

func TestCalculate_SummaryIsWorkedMinusTarget(t *testing.T) {
	calc := NewCalculator()
	r := balance.MonthRange(2026, time.March)
	sessions := []worksession.WorkSession{
		closed(ts(2, 8, 3), ts(2, 16, 47), brk(ts(2, 12, 0), ts(2, 12, 41))),
		closed(ts(3, 9, 0), ts(3, 19, 13)),
		closed(ts(7, 10, 0), ts(7, 10, 1)),
		closed(ts(31, 22, 0), ts(31, 23, 59)),
		{StartAt: ts(18, 9, 17)},
	}

	res := calc.Calculate(balance.Input{
		Sessions: sessions,
		Schedule: user.ScheduleConfig{DailyTargetHours: 7.6, WorkDays: weekdays},
		Now:      ts(18, 17, 2),
		Range:    &r,
	})

	require.Len(t, res.Days, 31)

	var sumBalance, sumWorked, sumTarget time.Duration
	for _, d := range res.Days {
		sumBalance += d.Balance()
		sumWorked += d.Worked
		sumTarget += d.Target
	}
	assert.Equal(t, res.Summary.Worked-res.Summary.Target, res.Summary.Balance())
	assert.Equal(t, sumBalance, res.Summary.Balance())
	assert.Equal(t, sumWorked, res.Summary.Worked)
	assert.Equal(t, sumTarget, res.Summary.Target)
	assert.Equal(t, 5, res.Summary.DaysWorked)
	assert.True(t, res.CurrentlyActive)
}

func TestCalculate_RangeExcludesOutsideSessions(t *testing.T) {
	calc := NewCalculator()
	r := balance.NewDateRange(ts(3, 0, 0), ts(3, 0, 0))

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(2, 9, 0), ts(2, 17, 0)),
			closed(ts(3, 9, 0), ts(3, 10, 0)),
			{StartAt: ts(4, 9, 0)},
		},
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(4, 10, 0),
		Range:    &r,
	})

	require.Len(t, res.Days, 1)
	assert.Equal(t, time.Hour, res.Summary.Worked)
	assert.Equal(t, time.Hour, res.TodayWorked, "today is computed from every session")
	assert.True(t, res.CurrentlyActive, "activity is computed from every session")
}

func TestCalculate_CrossMidnightCreditedToStartDate(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{closed(ts(6, 22, 0), ts(7, 2, 0))},
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(7, 12, 0),
	})

	require.Len(t, res.Days, 1)
	assert.Equal(t, "2026-03-06", res.Days[0].Date)
	assert.Equal(t, 4*time.Hour, res.Days[0].Worked)
	assert.Zero(t, res.TodayWorked)
}

func TestCalculate_UsesLocationForDayBuckets(t *testing.T) {
	calc := NewCalculator()
	jakarta, err := time.LoadLocation("Asia/Jakarta") // UTC+7
	require.NoError(t, err)

	session := closed(ts(2, 20, 0), ts(2, 22, 0)) // Monday 20:00 UTC = Tuesday 03:00 in Jakarta

	utcRes := calc.Calculate(balance.Input{Sessions: []worksession.WorkSession{session}, Now: ts(3, 0, 0)})
	jktRes := calc.Calculate(balance.Input{Sessions: []worksession.WorkSession{session}, Now: ts(3, 0, 0), Location: jakarta})

	assert.Equal(t, "2026-03-02", utcRes.Days[0].Date)
	assert.Equal(t, "2026-03-03", jktRes.Days[0].Date)
	assert.Equal(t, time.Tuesday, jktRes.Days[0].Weekday)
	assert.Equal(t, "2026-03-03", jktRes.Today)
	assert.Equal(t, 2*time.Hour, jktRes.TodayWorked)
}

func TestCalculate_OverlappingSessionsAreSummed(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(2, 9, 0), ts(2, 12, 0)),
			closed(ts(2, 10, 0), ts(2, 11, 0)),
		},
		Now: ts(2, 18, 0),
	})

	assert.Equal(t, 4*time.Hour, res.Summary.Worked)
	assert.Equal(t, 2, res.Days[0].Sessions)
}

func TestCalculate_WeekendWorkHasNoTarget(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{closed(ts(7, 9, 0), ts(7, 12, 0))}, // Saturday
		Schedule: user.ScheduleConfig{DailyTargetHours: 8, WorkDays: weekdays},
		Now:      ts(8, 9, 0),
	})

	day, ok := res.Day("2026-03-07")
	require.True(t, ok)
	assert.Zero(t, day.Target)
	assert.Equal(t, 3*time.Hour, day.Balance())
}

func TestCalculate_UnorderedInputGivesOrderedDays(t *testing.T) {
	calc := NewCalculator()

	res := calc.Calculate(balance.Input{
		Sessions: []worksession.WorkSession{
			closed(ts(5, 9, 0), ts(5, 10, 0)),
			closed(ts(2, 9, 0), ts(2, 10, 0)),
			closed(ts(3, 9, 0), ts(3, 10, 0)),
		},
		Now: ts(6, 9, 0),
	})

	require.Len(t, res.Days, 3)
	assert.Equal(t, "2026-03-02", res.Days[0].Date)
	assert.Equal(t, "2026-03-03", res.Days[1].Date)
	assert.Equal(t, "2026-03-05", res.Days[2].Date)
}
