package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

func TestEntryRequest_Validate(t *testing.T) {
	req := EntryRequest{Title: " Standup ", StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T09:15:00Z"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Standup", req.Title)
	start, end := req.Times()
	assert.Equal(t, 15.0, end.Sub(start).Minutes())

	bad := EntryRequest{StartAt: "2026-03-02T09:00:00Z", EndAt: "2026-03-02T08:00:00Z"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "title")
	assert.Contains(t, verrs.ToMap(), "end_at")
}

func TestImportRequest_Validate(t *testing.T) {
	req := ImportRequest{Events: []ExternalEvent{
		{ExternalID: "evt-1", Title: "Planning", StartAt: "2026-03-02T10:00:00Z", EndAt: "2026-03-02T11:00:00Z"},
		{ExternalID: "evt-2", Title: "Holiday", StartAt: "2026-03-06T00:00:00Z", EndAt: "2026-03-06T23:59:59Z", AllDay: true},
	}}
	require.NoError(t, req.Validate())
	require.Len(t, req.Entries(), 2)
	assert.Equal(t, SourceExternal, req.Entries()[0].Source)
	assert.Equal(t, "evt-2", *req.Entries()[1].ExternalID)

	dup := ImportRequest{Events: []ExternalEvent{
		{ExternalID: "evt-1", Title: "a", StartAt: "2026-03-02T10:00:00Z", EndAt: "2026-03-02T11:00:00Z"},
		{ExternalID: "evt-1", Title: "b", StartAt: "2026-03-02T10:00:00Z", EndAt: "2026-03-02T11:00:00Z"},
	}}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, dup.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "events[1].external_id")

	empty := ImportRequest{}
	assert.Error(t, empty.Validate())
}

func TestViewFilter_Validate(t *testing.T) {
	f := ViewFilter{StartDate: "2026-03-01", EndDate: "2026-03-31"}
	require.NoError(t, f.Validate())
	assert.Equal(t, 31, f.Range().Days())

	tooLong := ViewFilter{StartDate: "2025-01-01", EndDate: "2026-03-31"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, tooLong.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "end_date")
}
