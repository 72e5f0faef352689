package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

func TestScheduleConfig_TargetFor(t *testing.T) {
	s := DefaultSchedule()

	assert.Equal(t, 8*time.Hour, s.TargetFor(time.Monday))
	assert.Equal(t, 8*time.Hour, s.TargetFor(time.Friday))
	assert.Zero(t, s.TargetFor(time.Saturday))
	assert.Zero(t, s.TargetFor(time.Sunday))
}

func TestScheduleConfig_DailyTarget(t *testing.T) {
	assert.Equal(t, 7*time.Hour+30*time.Minute, ScheduleConfig{DailyTargetHours: 7.5}.DailyTarget())
	assert.Equal(t, 7*time.Hour+36*time.Minute, ScheduleConfig{DailyTargetHours: 7.6}.DailyTarget())
	assert.Zero(t, ScheduleConfig{DailyTargetHours: 0}.DailyTarget())
	assert.Zero(t, ScheduleConfig{DailyTargetHours: -1}.DailyTarget())
}

func TestScheduleConfig_EmptyWorkDays(t *testing.T) {
	s := ScheduleConfig{DailyTargetHours: 8}
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.Zero(t, s.TargetFor(d))
	}
}

func TestUser_Location(t *testing.T) {
	assert.Equal(t, time.UTC, User{}.Location())
	assert.Equal(t, time.UTC, User{Timezone: "Nowhere/Land"}.Location())
	assert.Equal(t, "Asia/Jakarta", User{Timezone: "Asia/Jakarta"}.Location().String())
}

func floatPtr(f float64) *float64 { return &f }

func TestUpdateScheduleRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     UpdateScheduleRequest
		wantErr string
	}{
		{"valid", UpdateScheduleRequest{DailyTargetHours: floatPtr(8), WorkDays: []int{1, 2, 3, 4, 5}}, ""},
		{"zero target, no days", UpdateScheduleRequest{DailyTargetHours: floatPtr(0), WorkDays: []int{}}, ""},
		{"negative target", UpdateScheduleRequest{DailyTargetHours: floatPtr(-1), WorkDays: []int{1}}, "daily_target_hours"},
		{"target above 24", UpdateScheduleRequest{DailyTargetHours: floatPtr(25), WorkDays: []int{1}}, "daily_target_hours"},
		{"missing target", UpdateScheduleRequest{WorkDays: []int{1}}, "daily_target_hours"},
		{"missing days", UpdateScheduleRequest{DailyTargetHours: floatPtr(8)}, "work_days"},
		{"bad weekday", UpdateScheduleRequest{DailyTargetHours: floatPtr(8), WorkDays: []int{1, 7}}, "work_days"},
		{"duplicate weekday", UpdateScheduleRequest{DailyTargetHours: floatPtr(8), WorkDays: []int{1, 1}}, "work_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.wantErr)
		})
	}
}

func TestUpdateScheduleRequest_ToScheduleConfig(t *testing.T) {
	req := UpdateScheduleRequest{DailyTargetHours: floatPtr(6), WorkDays: []int{0, 6}}
	s := req.ToScheduleConfig()

	assert.Equal(t, 6.0, s.DailyTargetHours)
	assert.True(t, s.IsWorkDay(time.Sunday))
	assert.True(t, s.IsWorkDay(time.Saturday))
	assert.False(t, s.IsWorkDay(time.Monday))
}

func TestNewScheduleResponse_SortsDays(t *testing.T) {
	resp := NewScheduleResponse(ScheduleConfig{DailyTargetHours: 8, WorkDays: []time.Weekday{time.Friday, time.Monday}})
	assert.Equal(t, []int{1, 5}, resp.WorkDays)
}

func TestUpdateProfileRequest_Validate(t *testing.T) {
	tz := "Mars/Base"
	req := UpdateProfileRequest{Timezone: &tz}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, req.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "timezone")

	empty := UpdateProfileRequest{}
	require.Error(t, empty.Validate())

	name := "Ada Lovelace"
	ok := UpdateProfileRequest{FullName: &name}
	assert.NoError(t, ok.Validate())
}
