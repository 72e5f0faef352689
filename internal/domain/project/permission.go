package project

type Permission string

const (
	PermissionAttendanceTrackOwn Permission = "attendance.track_own"
	PermissionAttendanceViewAll  Permission = "attendance.view_all"
	PermissionAttendanceEditAll  Permission = "attendance.edit_all"

	PermissionTaskViewAll Permission = "task.view_all"
	PermissionTaskManage  Permission = "task.manage"

	PermissionMemberView    Permission = "member.view"
	PermissionMemberManage  Permission = "member.manage"
	PermissionHierarchyEdit Permission = "hierarchy.edit"

	PermissionProjectManage      Permission = "project.manage"
	PermissionSubscriptionManage Permission = "subscription.manage"

	PermissionReportsView Permission = "reports.view"
)

var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceTrackOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceEditAll,
		PermissionTaskViewAll,
		PermissionTaskManage,
		PermissionMemberView,
		PermissionMemberManage,
		PermissionHierarchyEdit,
		PermissionProjectManage,
		PermissionSubscriptionManage,
		PermissionReportsView,
	},
	RoleManager: {
		PermissionAttendanceTrackOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceEditAll,
		PermissionTaskViewAll,
		PermissionTaskManage,
		PermissionMemberView,
		PermissionHierarchyEdit,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionAttendanceTrackOwn,
		PermissionTaskViewAll,
		PermissionMemberView,
	},
}

func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
