package user

import (
	"sort"
	"time"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

type ScheduleResponse struct {
	DailyTargetHours float64 `json:"daily_target_hours"`
	WorkDays         []int   `json:"work_days"`
}

func NewScheduleResponse(s ScheduleConfig) ScheduleResponse {
	days := make([]int, 0, len(s.WorkDays))
	for _, d := range s.WorkDays {
		days = append(days, int(d))
	}
	sort.Ints(days)
	return ScheduleResponse{DailyTargetHours: s.DailyTargetHours, WorkDays: days}
}

type UserResponse struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	FullName      string           `json:"full_name"`
	AvatarURL     *string          `json:"avatar_url,omitempty"`
	OAuthProvider *string          `json:"oauth_provider,omitempty"`
	Timezone      string           `json:"timezone"`
	Schedule      ScheduleResponse `json:"schedule"`
	LastProjectID *string          `json:"last_project_id,omitempty"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		OAuthProvider: u.OAuthProvider,
		Timezone:      u.Timezone,
		Schedule:      NewScheduleResponse(u.Schedule),
		LastProjectID: u.LastProjectID,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     u.UpdatedAt.Format(time.RFC3339),
	}
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FullName != nil {
		if validator.IsEmpty(*r.FullName) {
			errs.Add("full_name", "full_name must not be empty")
		} else if len(*r.FullName) > 255 {
			errs.Add("full_name", "full_name must not exceed 255 characters")
		}
	}
	if r.Timezone != nil && !validator.IsValidTimezone(*r.Timezone) {
		errs.Add("timezone", "timezone must be a valid IANA timezone, e.g. Europe/Berlin")
	}
	if r.FullName == nil && r.Timezone == nil {
		errs.Add("body", "at least one field must be provided")
	}

	return errs.Err()
}

// UpdateScheduleRequest replaces the user's schedule config.
type UpdateScheduleRequest struct {
	DailyTargetHours *float64 `json:"daily_target_hours"`
	WorkDays         []int    `json:"work_days"`
}

func (r *UpdateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.DailyTargetHours == nil {
		errs.Add("daily_target_hours", "daily_target_hours is required")
	} else if *r.DailyTargetHours < 0 {
		errs.Add("daily_target_hours", "daily_target_hours must not be negative")
	} else if *r.DailyTargetHours > 24 {
		errs.Add("daily_target_hours", "daily_target_hours must not exceed 24")
	}

	if r.WorkDays == nil {
		errs.Add("work_days", "work_days is required (use [] for no work days)")
	}
	seen := make(map[int]bool, len(r.WorkDays))
	for _, d := range r.WorkDays {
		if !validator.IsValidWeekday(d) {
			errs.Add("work_days", "work_days must contain values from 0 (Sunday) to 6 (Saturday)")
			break
		}
		if seen[d] {
			errs.Add("work_days", "work_days must not contain duplicates")
			break
		}
		seen[d] = true
	}

	return errs.Err()
}

// ToScheduleConfig assumes Validate has passed.
func (r *UpdateScheduleRequest) ToScheduleConfig() ScheduleConfig {
	days := make([]time.Weekday, 0, len(r.WorkDays))
	for _, d := range r.WorkDays {
		days = append(days, time.Weekday(d))
	}
	return ScheduleConfig{DailyTargetHours: *r.DailyTargetHours, WorkDays: days}
}
