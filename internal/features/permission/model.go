package permission

import "strings"

// Permission is a closed identifier of the form ACTION_RESOURCE, plus a
// small set of historical aliases kept verbatim. Unknown strings are not
// permissions; Lookup rejects them instead of letting a typo evaluate as an
// unknown grant.
type Permission string

const (
	ViewCompanies   Permission = "VIEW_COMPANIES"
	CreateCompanies Permission = "CREATE_COMPANIES"
	EditCompanies   Permission = "EDIT_COMPANIES"
	DeleteCompanies Permission = "DELETE_COMPANIES"
	ExportCompanies Permission = "EXPORT_COMPANIES"

	ViewEmployees   Permission = "VIEW_EMPLOYEES"
	CreateEmployees Permission = "CREATE_EMPLOYEES"
	EditEmployees   Permission = "EDIT_EMPLOYEES"
	DeleteEmployees Permission = "DELETE_EMPLOYEES"
	ExportEmployees Permission = "EXPORT_EMPLOYEES"

	ViewTrainers   Permission = "VIEW_TRAINERS"
	CreateTrainers Permission = "CREATE_TRAINERS"
	EditTrainers   Permission = "EDIT_TRAINERS"
	DeleteTrainers Permission = "DELETE_TRAINERS"
	ExportTrainers Permission = "EXPORT_TRAINERS"

	ViewCourses   Permission = "VIEW_COURSES"
	CreateCourses Permission = "CREATE_COURSES"
	EditCourses   Permission = "EDIT_COURSES"
	DeleteCourses Permission = "DELETE_COURSES"
	ExportCourses Permission = "EXPORT_COURSES"

	ViewReports   Permission = "VIEW_REPORTS"
	ExportReports Permission = "EXPORT_REPORTS"

	// Historical aliases. They predate the ACTION_RESOURCE shape and are
	// preserved verbatim for backward compatibility.
	RoleManagement Permission = "ROLE_MANAGEMENT"
	AdminPanel     Permission = "ADMIN_PANEL"
)

var all = []Permission{
	ViewCompanies, CreateCompanies, EditCompanies, DeleteCompanies, ExportCompanies,
	ViewEmployees, CreateEmployees, EditEmployees, DeleteEmployees, ExportEmployees,
	ViewTrainers, CreateTrainers, EditTrainers, DeleteTrainers, ExportTrainers,
	ViewCourses, CreateCourses, EditCourses, DeleteCourses, ExportCourses,
	ViewReports, ExportReports,
	RoleManagement, AdminPanel,
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(all))
	for _, p := range all {
		m[p] = struct{}{}
	}
	return m
}()

// All returns every defined permission.
func All() []Permission {
	out := make([]Permission, len(all))
	copy(out, all)
	return out
}

// Lookup maps a raw string to a defined permission. It is the only way in;
// strings outside the enumeration never become a Permission.
func Lookup(s string) (Permission, bool) {
	p := Permission(strings.ToUpper(s))
	_, ok := known[p]
	return p, ok
}

// Parts splits the identifier at the first underscore into a lower-cased
// (action, resource) pair, the shape advanced permission rows match on.
func (p Permission) Parts() (action, resource string) {
	s := strings.ToLower(string(p))
	idx := strings.Index(s, "_")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// FromActionResource rebuilds the ACTION_RESOURCE identifier from a pair.
func FromActionResource(action, resource string) string {
	return strings.ToUpper(action) + "_" + strings.ToUpper(resource)
}
