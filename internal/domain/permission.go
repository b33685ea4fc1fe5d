package domain

type Permission string

const (
	PermissionManageUsers       Permission = "manage_users"
	PermissionCreateTasks       Permission = "create_tasks"
	PermissionEditTasks         Permission = "edit_tasks"
	PermissionDeleteTasks       Permission = "delete_tasks"
	PermissionViewTasks         Permission = "view_tasks"
	PermissionManageMeetings    Permission = "manage_meetings"
	PermissionCreateReports     Permission = "create_reports"
	PermissionViewReports       Permission = "view_reports"
	PermissionManagePermissions Permission = "manage_permissions"
	PermissionViewAnalytics     Permission = "view_analytics"
)

var AllPermissions = []Permission{
	PermissionManageUsers,
	PermissionCreateTasks,
	PermissionEditTasks,
	PermissionDeleteTasks,
	PermissionViewTasks,
	PermissionManageMeetings,
	PermissionCreateReports,
	PermissionViewReports,
	PermissionManagePermissions,
	PermissionViewAnalytics,
}

func IsKnownPermission(raw string) bool {
	for _, p := range AllPermissions {
		if string(p) == raw {
			return true
		}
	}
	return false
}
