package permission

import "go-bms/internal/features/role"

// Set is a permission set keyed for membership checks.
type Set map[Permission]struct{}

func setOf(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(p Permission) bool {
	_, ok := s[p]
	return ok
}

// catalog is the static role -> permission mapping for built-in roles. It is
// fixed at process start and never read from the database; custom roles are
// resolved separately against their stored permission lists.
var catalog = map[role.RoleType]Set{
	role.RoleSuperAdmin: setOf(All()...),
	role.RoleAdmin:      setOf(All()...),

	role.RoleCompanyAdmin: setOf(
		ViewCompanies, EditCompanies,
		ViewEmployees, CreateEmployees, EditEmployees, DeleteEmployees, ExportEmployees,
		ViewTrainers, CreateTrainers, EditTrainers, DeleteTrainers,
		ViewCourses, CreateCourses, EditCourses, DeleteCourses,
		ViewReports, ExportReports,
		RoleManagement,
	),

	role.RoleHRManager: setOf(
		ViewCompanies,
		ViewEmployees, CreateEmployees, EditEmployees, ExportEmployees,
		ViewTrainers,
		ViewCourses,
		ViewReports, ExportReports,
	),

	role.RoleDepartmentManager: setOf(
		ViewEmployees, EditEmployees,
		ViewTrainers,
		ViewCourses,
		ViewReports,
	),

	// Read-oriented roles.
	role.RoleTrainer: setOf(
		ViewEmployees,
		ViewTrainers,
		ViewCourses,
	),

	role.RoleEmployee: setOf(
		ViewTrainers,
		ViewCourses,
	),
}

// RolePermissions returns the catalog set for a built-in role type. Custom
// role types have no catalog entry and get an empty set.
func RolePermissions(rt role.RoleType) Set {
	return catalog[rt]
}

// CatalogContains reports whether the built-in role grants the permission.
func CatalogContains(rt role.RoleType, p Permission) bool {
	return catalog[rt].Contains(p)
}
