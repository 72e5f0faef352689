package user

import (
	"math"
	"time"
)

type User struct {
	ID              string
	Email           string
	PasswordHash    *string
	FullName        string
	AvatarURL       *string
	OAuthProvider   *string
	OAuthProviderID *string
	Timezone        string
	Schedule        ScheduleConfig
	LastProjectID   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Location returns the user's timezone, falling back to UTC when it cannot be loaded.
func (u User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScheduleConfig is a user's daily hour target and the weekdays it applies to.
type ScheduleConfig struct {
	DailyTargetHours float64
	WorkDays         []time.Weekday
}

// DefaultSchedule is 8 hours, Monday to Friday.
func DefaultSchedule() ScheduleConfig {
	return ScheduleConfig{
		DailyTargetHours: 8,
		WorkDays:         []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
}

// DailyTarget converts the hour target to a duration, rounded to the second.
func (s ScheduleConfig) DailyTarget() time.Duration {
	if s.DailyTargetHours <= 0 {
		return 0
	}
	return time.Duration(math.Round(s.DailyTargetHours*3600)) * time.Second
}

func (s ScheduleConfig) IsWorkDay(d time.Weekday) bool {
	for _, w := range s.WorkDays {
		if w == d {
			return true
		}
	}
	return false
}

// TargetFor is the daily target on work days and zero otherwise.
func (s ScheduleConfig) TargetFor(d time.Weekday) time.Duration {
	if !s.IsWorkDay(d) {
		return 0
	}
	return s.DailyTarget()
}
