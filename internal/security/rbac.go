package security

import "errors"

var ErrAccessDenied = errors.New("access denied")

// Permission names follow resource:action. Handlers guard routes with
// RequireRole in the middleware layer; this table is the single source of
// truth for what each role may do and which navigation entries it sees.
const (
	PermProjectsRead   = "projects:read"
	PermProjectsWrite  = "projects:write"
	PermPartnersRead   = "partners:read"
	PermPartnersWrite  = "partners:write"
	PermCatalogRead    = "catalog:read"
	PermCatalogWrite   = "catalog:write"
	PermPurchasesRead  = "purchases:read"
	PermPurchasesWrite = "purchases:write"
	PermStockRead      = "stock:read"
	PermAllocRequest   = "allocations:request"
	PermAllocDecide    = "allocations:decide"
	PermAttendanceRead = "attendance:read"
	PermAttendanceMark = "attendance:mark"
	PermPayrollRead    = "payroll:read"
	PermPayrollRun     = "payroll:run"
	PermWorkersRead    = "workers:read"
	PermWorkersWrite   = "workers:write"
	PermTasksRead      = "tasks:read"
	PermTasksWrite     = "tasks:write"
	PermUsersManage    = "users:manage"
	PermReportsExport  = "reports:export"
)

var rolePermissions = map[string][]string{
	"admin": {
		PermProjectsRead, PermProjectsWrite,
		PermPartnersRead, PermPartnersWrite,
		PermCatalogRead, PermCatalogWrite,
		PermPurchasesRead, PermPurchasesWrite,
		PermStockRead,
		PermAllocRequest, PermAllocDecide,
		PermAttendanceRead, PermAttendanceMark,
		PermPayrollRead, PermPayrollRun,
		PermWorkersRead, PermWorkersWrite,
		PermTasksRead, PermTasksWrite,
		PermUsersManage,
		PermReportsExport,
	},
	"manager": {
		PermProjectsRead, PermProjectsWrite,
		PermPartnersRead, PermPartnersWrite,
		PermCatalogRead,
		PermPurchasesRead,
		PermStockRead,
		PermAllocRequest, PermAllocDecide,
		PermAttendanceRead,
		PermPayrollRead,
		PermWorkersRead, PermWorkersWrite,
		PermTasksRead, PermTasksWrite,
		PermReportsExport,
	},
	"site_engineer": {
		PermProjectsRead,
		PermCatalogRead,
		PermStockRead,
		PermAllocRequest,
		PermAttendanceRead, PermAttendanceMark,
		PermWorkersRead,
		PermTasksRead, PermTasksWrite,
	},
	"storekeeper": {
		PermCatalogRead, PermCatalogWrite,
		PermPurchasesRead, PermPurchasesWrite,
		PermPartnersRead,
		PermStockRead,
		PermTasksRead,
		PermReportsExport,
	},
	"accountant": {
		PermProjectsRead,
		PermPartnersRead,
		PermPurchasesRead,
		PermStockRead,
		PermAttendanceRead,
		PermPayrollRead, PermPayrollRun,
		PermWorkersRead,
		PermReportsExport,
	},
}

// RoleHasPermission reports whether the role grants the permission. Unknown
// roles have no permissions.
func RoleHasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RolePermissions returns a copy of the role's permission set.
func RolePermissions(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// NavItem is one entry in the navigation a client renders for a user.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// navigation pairs each entry with the permission that unlocks it. Order
// here is the order clients display.
var navigation = []struct {
	item NavItem
	perm string
}{
	{NavItem{Label: "Projects", Path: "/projects"}, PermProjectsRead},
	{NavItem{Label: "Customers", Path: "/customers"}, PermPartnersRead},
	{NavItem{Label: "Suppliers", Path: "/suppliers"}, PermPartnersRead},
	{NavItem{Label: "Materials", Path: "/materials"}, PermCatalogRead},
	{NavItem{Label: "Godowns", Path: "/godowns"}, PermStockRead},
	{NavItem{Label: "Purchases", Path: "/purchases"}, PermPurchasesRead},
	{NavItem{Label: "Allocations", Path: "/allocations"}, PermAllocRequest},
	{NavItem{Label: "Workers", Path: "/workers"}, PermWorkersRead},
	{NavItem{Label: "Attendance", Path: "/attendance"}, PermAttendanceRead},
	{NavItem{Label: "Payroll", Path: "/payroll"}, PermPayrollRead},
	{NavItem{Label: "Tasks", Path: "/tasks"}, PermTasksRead},
	{NavItem{Label: "Reports", Path: "/reports"}, PermReportsExport},
	{NavItem{Label: "Users", Path: "/users"}, PermUsersManage},
}

// NavigationFor returns the navigation entries a role is allowed to see.
func NavigationFor(role string) []NavItem {
	var items []NavItem
	for _, n := range navigation {
		if RoleHasPermission(role, n.perm) {
			items = append(items, n.item)
		}
	}
	return items
}
