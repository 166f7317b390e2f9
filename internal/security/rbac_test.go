package security

import "testing"

func TestRoleHasPermission(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{"admin", PermUsersManage, true},
		{"admin", PermAllocDecide, true},
		{"manager", PermAllocDecide, true},
		{"manager", PermUsersManage, false},
		{"site_engineer", PermAllocRequest, true},
		{"site_engineer", PermAllocDecide, false},
		{"site_engineer", PermAttendanceMark, true},
		{"site_engineer", PermPayrollRead, false},
		{"storekeeper", PermPurchasesWrite, true},
		{"storekeeper", PermProjectsRead, false},
		{"accountant", PermPayrollRun, true},
		{"accountant", PermCatalogWrite, false},
		{"", PermProjectsRead, false},
		{"intern", PermProjectsRead, false},
	}
	for _, c := range cases {
		if got := RoleHasPermission(c.role, c.perm); got != c.want {
			t.Errorf("RoleHasPermission(%q, %q) = %v, want %v", c.role, c.perm, got, c.want)
		}
	}
}

func TestRolePermissionsReturnsCopy(t *testing.T) {
	perms := RolePermissions("accountant")
	if len(perms) == 0 {
		t.Fatal("accountant has no permissions")
	}
	perms[0] = "tampered"
	if RolePermissions("accountant")[0] == "tampered" {
		t.Fatal("RolePermissions exposes internal slice")
	}
}

func TestNavigationForAdminSeesEverything(t *testing.T) {
	items := NavigationFor("admin")
	if len(items) != len(navigation) {
		t.Fatalf("admin sees %d entries, want %d", len(items), len(navigation))
	}
}

func TestNavigationForSiteEngineer(t *testing.T) {
	items := NavigationFor("site_engineer")
	seen := map[string]bool{}
	for _, it := range items {
		seen[it.Path] = true
	}
	for _, path := range []string{"/projects", "/allocations", "/attendance", "/tasks"} {
		if !seen[path] {
			t.Errorf("site engineer missing %s", path)
		}
	}
	for _, path := range []string{"/users", "/payroll", "/reports"} {
		if seen[path] {
			t.Errorf("site engineer should not see %s", path)
		}
	}
}

func TestNavigationForUnknownRole(t *testing.T) {
	if items := NavigationFor("ghost"); len(items) != 0 {
		t.Fatalf("unknown role sees %d entries, want 0", len(items))
	}
}
