package user

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/storage"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
	"github.com/worktally/worktally-backend/internal/service/file"
)

type fakeUsers struct {
	user.UserRepository
	u        user.User
	schedule *user.ScheduleConfig
	avatar   string
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	if id != f.u.ID {
		return user.User{}, user.ErrUserNotFound
	}
	return f.u, nil
}

func (f *fakeUsers) UpdateSchedule(_ context.Context, _ string, s user.ScheduleConfig) (user.User, error) {
	f.schedule = &s
	f.u.Schedule = s
	return f.u, nil
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, _ string, url string) error {
	f.avatar = url
	return nil
}

// memFile satisfies multipart.File over an in-memory buffer.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func TestUpdateSchedule_RejectsNegativeTarget(t *testing.T) {
	users := &fakeUsers{u: user.User{ID: "u-1"}}
	svc := NewUserService(users, nil)

	negative := -1.0
	_, err := svc.UpdateSchedule(context.Background(), "u-1", user.UpdateScheduleRequest{DailyTargetHours: &negative, WorkDays: []int{1}})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "daily_target_hours")
	assert.Nil(t, users.schedule)
}

func TestUpdateSchedule(t *testing.T) {
	users := &fakeUsers{u: user.User{ID: "u-1"}}
	svc := NewUserService(users, nil)

	hours := 7.5
	resp, err := svc.UpdateSchedule(context.Background(), "u-1", user.UpdateScheduleRequest{DailyTargetHours: &hours, WorkDays: []int{5, 1, 3}})
	require.NoError(t, err)
	assert.Equal(t, 7.5, resp.Schedule.DailyTargetHours)
	assert.Equal(t, []int{1, 3, 5}, resp.Schedule.WorkDays)
}

func TestUploadAvatar_ReplacesOwnPreviousAvatar(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	files := file.NewFileService(local)

	_, err = local.Upload(context.Background(), bytes.NewReader([]byte("old")), "avatars/u-1/old.jpg")
	require.NoError(t, err)
	previous := local.URL("avatars/u-1/old.jpg")

	users := &fakeUsers{u: user.User{ID: "u-1", AvatarURL: &previous}}
	svc := NewUserService(users, files)

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 20, 20))))
	header := &multipart.FileHeader{Filename: "me.png", Size: int64(buf.Len())}

	resp, err := svc.UploadAvatar(context.Background(), "u-1", memFile{bytes.NewReader(buf.Bytes())}, header)
	require.NoError(t, err)
	require.NotNil(t, resp.AvatarURL)
	assert.Equal(t, users.avatar, *resp.AvatarURL)

	exists, err := local.Exists(context.Background(), "avatars/u-1/old.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadAvatar_TooLarge(t *testing.T) {
	svc := NewUserService(&fakeUsers{u: user.User{ID: "u-1"}}, nil)

	header := &multipart.FileHeader{Filename: "me.png", Size: file.MaxAvatarSize + 1}
	_, err := svc.UploadAvatar(context.Background(), "u-1", memFile{bytes.NewReader(nil)}, header)
	assert.ErrorIs(t, err, user.ErrAvatarTooLarge)
}
