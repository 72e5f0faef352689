package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

const userColumns = `id, email, password_hash, full_name, avatar_url, oauth_provider, oauth_provider_id,
		timezone, daily_target_hours, work_days, last_project_id, created_at, updated_at`

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var workDays []int16
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.AvatarURL,
		&u.OAuthProvider,
		&u.OAuthProviderID,
		&u.Timezone,
		&u.Schedule.DailyTargetHours,
		&workDays,
		&u.LastProjectID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	u.Schedule.WorkDays = make([]time.Weekday, 0, len(workDays))
	for _, d := range workDays {
		u.Schedule.WorkDays = append(u.Schedule.WorkDays, time.Weekday(d))
	}
	return u, nil
}

func weekdaysToSmallints(days []time.Weekday) []int16 {
	out := make([]int16, 0, len(days))
	for _, d := range days {
		out = append(out, int16(d))
	}
	return out
}

func (r *userRepositoryImpl) getOne(ctx context.Context, where string, arg interface{}) (user.User, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetByOAuth implements user.UserRepository.
func (r *userRepositoryImpl) GetByOAuth(ctx context.Context, provider, providerID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + userColumns + ` FROM users WHERE oauth_provider = $1 AND oauth_provider_id = $2`

	u, err := scanUser(q.QueryRow(ctx, query, provider, providerID))
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by oauth: %w", err)
	}
	return u, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (
			email, password_hash, full_name, avatar_url, oauth_provider, oauth_provider_id,
			timezone, daily_target_hours, work_days
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		newUser.Email,
		newUser.PasswordHash,
		newUser.FullName,
		newUser.AvatarURL,
		newUser.OAuthProvider,
		newUser.OAuthProviderID,
		newUser.Timezone,
		newUser.Schedule.DailyTargetHours,
		weekdaysToSmallints(newUser.Schedule.WorkDays),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserEmailExists
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// LinkGoogleAccount implements user.UserRepository.
func (r *userRepositoryImpl) LinkGoogleAccount(ctx context.Context, userID, googleID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET oauth_provider = 'google', oauth_provider_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	tag, err := q.Exec(ctx, query, googleID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrOAuthProviderIDExists
		}
		return fmt.Errorf("failed to link google account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// UpdateProfile implements user.UserRepository.
func (r *userRepositoryImpl) UpdateProfile(ctx context.Context, userID string, req user.UpdateProfileRequest) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET full_name = COALESCE($1, full_name),
			timezone = COALESCE($2, timezone),
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	updated, err := scanUser(q.QueryRow(ctx, query, req.FullName, req.Timezone, userID))
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return updated, nil
}

// UpdateSchedule implements user.UserRepository.
func (r *userRepositoryImpl) UpdateSchedule(ctx context.Context, userID string, schedule user.ScheduleConfig) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET daily_target_hours = $1, work_days = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	updated, err := scanUser(q.QueryRow(ctx, query, schedule.DailyTargetHours, weekdaysToSmallints(schedule.WorkDays), userID))
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to update schedule: %w", err)
	}
	return updated, nil
}

// UpdateAvatar implements user.UserRepository.
func (r *userRepositoryImpl) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2`, avatarURL, userID)
}

// UpdateLastProject implements user.UserRepository.
func (r *userRepositoryImpl) UpdateLastProject(ctx context.Context, userID, projectID string) error {
	return r.exec(ctx, `UPDATE users SET last_project_id = $1, updated_at = NOW() WHERE id = $2`, projectID, userID)
}

func (r *userRepositoryImpl) exec(ctx context.Context, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
