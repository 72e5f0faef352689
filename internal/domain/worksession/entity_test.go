package worksession

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestWorkSession_Net(t *testing.T) {
	s := WorkSession{
		StartAt: at(9, 0),
		EndAt:   ptr(at(17, 30)),
		Breaks:  []Break{{StartAt: at(12, 0), EndAt: ptr(at(12, 30))}},
	}

	now := at(20, 0)
	assert.Equal(t, 8*time.Hour+30*time.Minute, s.Gross(now))
	assert.Equal(t, 30*time.Minute, s.BreakDuration(now))
	assert.Equal(t, 8*time.Hour, s.Net(now))
}

func TestWorkSession_OpenSessionAndBreak(t *testing.T) {
	s := WorkSession{
		StartAt: at(9, 0),
		Breaks:  []Break{{StartAt: at(10, 0)}},
	}

	now := at(10, 45)
	assert.True(t, s.IsOpen())
	assert.Equal(t, 45*time.Minute, s.BreakDuration(now))
	assert.Equal(t, time.Hour, s.Net(now))
	require.NotNil(t, s.OpenBreak())
	assert.True(t, s.OpenBreak().IsOpen())
}

func TestWorkSession_BreakClampedToSession(t *testing.T) {
	s := WorkSession{
		StartAt: at(9, 0),
		EndAt:   ptr(at(10, 0)),
		Breaks: []Break{
			{StartAt: at(8, 0), EndAt: ptr(at(9, 30))},  // 30m inside
			{StartAt: at(9, 45), EndAt: ptr(at(11, 0))}, // 15m inside
			{StartAt: at(12, 0), EndAt: ptr(at(13, 0))}, // outside
			{StartAt: at(9, 50), EndAt: ptr(at(9, 40))}, // inverted
		},
	}

	assert.Equal(t, 45*time.Minute, s.BreakDuration(at(18, 0)))
	assert.Equal(t, 15*time.Minute, s.Net(at(18, 0)))
}

func TestWorkSession_BreakEqualToSessionIsZero(t *testing.T) {
	s := WorkSession{
		StartAt: at(9, 0),
		EndAt:   ptr(at(10, 0)),
		Breaks:  []Break{{StartAt: at(9, 0), EndAt: ptr(at(10, 0))}, {StartAt: at(9, 0), EndAt: ptr(at(10, 0))}},
	}

	assert.Zero(t, s.Net(at(12, 0)))
}

func TestWorkSession_EndBeforeStart(t *testing.T) {
	s := WorkSession{StartAt: at(10, 0), EndAt: ptr(at(9, 0))}
	assert.Zero(t, s.Gross(at(12, 0)))
	assert.Zero(t, s.Net(at(12, 0)))

	open := WorkSession{StartAt: at(10, 0)}
	assert.Zero(t, open.Net(at(9, 0)), "now before start")
}

func TestHours(t *testing.T) {
	assert.Equal(t, 7.5, Hours(7*time.Hour+30*time.Minute))
	assert.Equal(t, 2.25, Hours(2*time.Hour+15*time.Minute))
	assert.Equal(t, -0.5, Hours(-30*time.Minute))
	assert.Equal(t, 0.33, Hours(20*time.Minute))
}

func TestSessionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SessionRequest
		wantErr string
	}{
		{
			name: "valid with break",
			req: SessionRequest{
				StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T17:00:00Z",
				Breaks: []BreakInput{{StartAt: "2026-03-02T12:00:00Z", EndAt: "2026-03-02T12:30:00Z"}},
			},
		},
		{name: "end before start", req: SessionRequest{StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T08:00:00Z"}, wantErr: "end_at"},
		{name: "too long", req: SessionRequest{StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-03T09:00:01Z"}, wantErr: "end_at"},
		{name: "bad timestamp", req: SessionRequest{StartAt: "yesterday", EndAt: "2026-03-02T08:00:00Z"}, wantErr: "start_at"},
		{
			name: "break outside",
			req: SessionRequest{
				StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T17:00:00Z",
				Breaks: []BreakInput{{StartAt: "2026-03-02T08:00:00Z", EndAt: "2026-03-02T09:30:00Z"}},
			},
			wantErr: "breaks",
		},
		{
			name: "overlapping breaks",
			req: SessionRequest{
				StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T17:00:00Z",
				Breaks: []BreakInput{
					{StartAt: "2026-03-02T12:00:00Z", EndAt: "2026-03-02T13:00:00Z"},
					{StartAt: "2026-03-02T12:30:00Z", EndAt: "2026-03-02T13:30:00Z"},
				},
			},
			wantErr: "breaks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				start, end, breaks := tt.req.Parsed()
				assert.Equal(t, 8*time.Hour, end.Sub(start))
				assert.Len(t, breaks, 1)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.wantErr)
		})
	}
}

func TestSessionFilter_Defaults(t *testing.T) {
	f := SessionFilter{StartDate: "2026-03-01", EndDate: "2026-03-31"}
	require.NoError(t, f.Validate())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)

	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	from, to := f.Bounds(loc)
	require.NotNil(t, from)
	require.NotNil(t, to)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), *from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), *to)

	bad := SessionFilter{StartDate: "2026-03-31", EndDate: "2026-03-01", Limit: 500}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "end_date")
	assert.Contains(t, verrs.ToMap(), "limit")

	huge := SessionFilter{Page: math.MaxInt / 2}
	require.ErrorAs(t, huge.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "page")

	last := SessionFilter{Page: validator.MaxPage, Limit: 100}
	assert.NoError(t, last.Validate())
}
