package project

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateManagerAssignment(t *testing.T) {
	// ceo <- vp <- lead <- dev
	m := ManagerMap{"vp": "ceo", "lead": "vp", "dev": "lead"}

	tests := []struct {
		name    string
		user    string
		manager string
		want    error
	}{
		{"self", "dev", "dev", ErrSelfManagement},
		{"fresh member under leaf", "intern", "dev", nil},
		{"reassign within tree", "dev", "vp", nil},
		{"direct cycle", "lead", "dev", ErrCircularReference},
		{"indirect cycle", "ceo", "dev", ErrCircularReference},
		{"manager without manager", "dev", "ceo", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateManagerAssignment(m, tt.user, tt.manager), tt.want)
		})
	}
}

func TestValidateManagerAssignment_TerminatesOnExistingCycle(t *testing.T) {
	// a <-> b already cyclic; c is unrelated
	m := ManagerMap{"a": "b", "b": "a"}

	assert.NoError(t, ValidateManagerAssignment(m, "c", "a"))
	assert.ErrorIs(t, ValidateManagerAssignment(m, "b", "a"), ErrCircularReference)
}

func TestValidateManagerAssignment_DeepChain(t *testing.T) {
	m := ManagerMap{}
	for i := 1; i < 5000; i++ {
		m[fmt.Sprintf("u%d", i)] = fmt.Sprintf("u%d", i-1)
	}

	assert.ErrorIs(t, ValidateManagerAssignment(m, "u0", "u4999"), ErrCircularReference)
	assert.NoError(t, ValidateManagerAssignment(m, "new", "u4999"))
}

func TestManagerChain(t *testing.T) {
	m := ManagerMap{"vp": "ceo", "lead": "vp", "dev": "lead", "x": "y", "y": "x", "blank": ""}

	assert.Equal(t, []string{"lead", "vp", "ceo"}, ManagerChain(m, "dev"))
	assert.Empty(t, ManagerChain(m, "ceo"))
	assert.Empty(t, ManagerChain(m, "blank"))
	assert.Equal(t, []string{"y"}, ManagerChain(m, "x"))
}

func TestIsInReportingLine(t *testing.T) {
	m := ManagerMap{"vp": "ceo", "lead": "vp", "dev": "lead"}

	assert.True(t, IsInReportingLine(m, "ceo", "dev"))
	assert.True(t, IsInReportingLine(m, "lead", "dev"))
	assert.False(t, IsInReportingLine(m, "dev", "lead"))
	assert.False(t, IsInReportingLine(m, "dev", "dev"))
}

func TestNewManagerMap(t *testing.T) {
	lead := "lead"
	m := NewManagerMap([]Member{{UserID: "dev", ManagerID: &lead}, {UserID: "lead"}})

	got, ok := m.ManagerOf("dev")
	assert.True(t, ok)
	assert.Equal(t, "lead", got)

	_, ok = m.ManagerOf("lead")
	assert.False(t, ok)
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermissionSubscriptionManage))
	assert.True(t, HasPermission(RoleManager, PermissionHierarchyEdit))
	assert.False(t, HasPermission(RoleManager, PermissionMemberManage))
	assert.True(t, HasPermission(RoleEmployee, PermissionAttendanceTrackOwn))
	assert.False(t, HasPermission(RoleEmployee, PermissionAttendanceViewAll))
	assert.False(t, HasPermission(Role("GUEST"), PermissionMemberView))

	assert.True(t, Actor{Role: RoleAdmin}.Can(PermissionProjectManage))
}
