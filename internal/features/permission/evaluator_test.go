package permission

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/role"
	"go-bms/pkg/condition"
)

type fakeRoleStore struct {
	assignments []role.RoleAssignment
	err         error
}

func (f *fakeRoleStore) AssignRole(context.Context, string, role.AssignInput) (*role.RoleAssignment, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRoleStore) RemoveRole(context.Context, string, string, role.RoleType, *string) error {
	return errors.New("not implemented")
}

func (f *fakeRoleStore) GetUserRoles(context.Context, string, string) ([]role.RoleAssignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assignments, nil
}

func (f *fakeRoleStore) CleanupExpiredRoles(context.Context) (int64, error) { return 0, nil }

type fakeCustomRoles struct {
	roles map[string]*role.CustomRole
	err   error
}

func (f *fakeCustomRoles) Create(_ context.Context, r *role.CustomRole) (*role.CustomRole, error) {
	return r, nil
}

func (f *fakeCustomRoles) FindByID(_ context.Context, id string) (*role.CustomRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roles[id], nil
}

func (f *fakeCustomRoles) FindByTenant(context.Context, primitive.ObjectID) ([]role.CustomRole, error) {
	return nil, nil
}

func (f *fakeCustomRoles) Update(_ context.Context, _ string, r *role.CustomRole) (*role.CustomRole, error) {
	return r, nil
}

func (f *fakeCustomRoles) SoftDelete(context.Context, string) error { return nil }

// staticConditions answers from a canned result instead of hitting a store.
type staticConditions struct {
	result bool
}

func (s *staticConditions) Evaluate(_ context.Context, c condition.Conditions, personID, resourceID string) bool {
	if c.IsEmpty() {
		return true
	}
	if c.OwnedBy == condition.OwnedBySelf && resourceID == personID {
		return true
	}
	return s.result
}

type nopAudit struct{}

func (nopAudit) LogChange(context.Context, common_models.AuditAction, string, string, map[string]common_models.Change) error {
	return nil
}

func (nopAudit) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newEvaluator(store *fakeRoleStore, custom *fakeCustomRoles, cond ConditionEvaluator) Evaluator {
	if custom == nil {
		custom = &fakeCustomRoles{}
	}
	if cond == nil {
		cond = &staticConditions{}
	}
	return NewEvaluator(store, custom, cond, nopAudit{}, zap.NewNop())
}

func tenantAssignment(tenantID primitive.ObjectID, rt role.RoleType) role.RoleAssignment {
	return role.RoleAssignment{
		ID:         primitive.NewObjectID(),
		PersonID:   primitive.NewObjectID(),
		TenantID:   tenantID,
		RoleType:   rt,
		Scope:      role.ScopeTenant,
		AssignedAt: time.Now(),
		IsActive:   true,
	}
}

func TestHasPermissionFailsClosedOnDataError(t *testing.T) {
	store := &fakeRoleStore{err: errors.New("connection reset")}
	e := newEvaluator(store, nil, nil)

	if e.HasPermission(context.Background(), "p1", "VIEW_COMPANIES", Context{TenantID: "t1"}) {
		t.Error("data-layer error must deny, not grant")
	}
}

func TestHasPermissionGlobalAdminBypass(t *testing.T) {
	tenantID := primitive.NewObjectID()
	store := &fakeRoleStore{assignments: []role.RoleAssignment{
		tenantAssignment(tenantID, role.RoleAdmin),
	}}
	e := newEvaluator(store, nil, nil)

	// Even a permission outside the enumeration is granted to an admin.
	if !e.HasPermission(context.Background(), "p1", "ANYTHING_AT_ALL", Context{TenantID: tenantID.Hex()}) {
		t.Error("admin bypass failed")
	}
}

func TestHasPermissionCatalogScopeMatching(t *testing.T) {
	tenantID := primitive.NewObjectID()
	otherTenant := primitive.NewObjectID()
	companyID := primitive.NewObjectID()

	companyScoped := tenantAssignment(tenantID, role.RoleCompanyAdmin)
	companyScoped.Scope = role.ScopeCompany
	companyScoped.CompanyID = &companyID

	tests := []struct {
		name       string
		assignment role.RoleAssignment
		permission string
		ec         Context
		want       bool
	}{
		{
			"tenant role in its tenant",
			tenantAssignment(tenantID, role.RoleHRManager),
			"VIEW_EMPLOYEES",
			Context{TenantID: tenantID.Hex()},
			true,
		},
		{
			"tenant role outside its tenant",
			tenantAssignment(tenantID, role.RoleHRManager),
			"VIEW_EMPLOYEES",
			Context{TenantID: otherTenant.Hex()},
			false,
		},
		{
			"catalog does not hold the permission",
			tenantAssignment(tenantID, role.RoleEmployee),
			"DELETE_EMPLOYEES",
			Context{TenantID: tenantID.Hex()},
			false,
		},
		{
			"company role with matching company",
			companyScoped,
			"VIEW_EMPLOYEES",
			Context{TenantID: tenantID.Hex(), CompanyID: companyID.Hex()},
			true,
		},
		{
			"company role with wrong company",
			companyScoped,
			"VIEW_EMPLOYEES",
			Context{TenantID: tenantID.Hex(), CompanyID: primitive.NewObjectID().Hex()},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeRoleStore{assignments: []role.RoleAssignment{tt.assignment}}
			e := newEvaluator(store, nil, nil)
			if got := e.HasPermission(context.Background(), "p1", tt.permission, tt.ec); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasPermissionScopelessAssignmentGrants(t *testing.T) {
	tenantID := primitive.NewObjectID()
	a := tenantAssignment(tenantID, role.RoleHRManager)
	a.Scope = ""
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	e := newEvaluator(store, nil, nil)

	if !e.HasPermission(context.Background(), "p1", "VIEW_EMPLOYEES", Context{TenantID: tenantID.Hex()}) {
		t.Error("assignment without a recognized scope must grant")
	}
}

func TestHasPermissionDirectGrant(t *testing.T) {
	tenantID := primitive.NewObjectID()
	a := tenantAssignment(tenantID, role.RoleEmployee)
	a.Permissions = []role.RolePermission{
		{Permission: "EXPORT_REPORTS", IsGranted: true},
		{Permission: "DELETE_COURSES", IsGranted: false},
	}
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	e := newEvaluator(store, nil, nil)

	if !e.HasPermission(context.Background(), "p1", "EXPORT_REPORTS", Context{TenantID: tenantID.Hex()}) {
		t.Error("direct grant row ignored")
	}
	if e.HasPermission(context.Background(), "p1", "DELETE_COURSES", Context{TenantID: tenantID.Hex()}) {
		t.Error("ungranted row must not grant")
	}
}

func TestHasPermissionAdvancedOwnScope(t *testing.T) {
	tenantID := primitive.NewObjectID()
	personID := primitive.NewObjectID().Hex()

	a := tenantAssignment(tenantID, role.RoleEmployee)
	a.Advanced = []role.AdvancedPermission{{
		Resource:   "courses",
		Action:     "edit",
		Scope:      role.AdvOwn,
		Conditions: condition.Conditions{OwnedBy: condition.OwnedBySelf},
	}}
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	e := newEvaluator(store, nil, &staticConditions{result: false})

	own := Context{TenantID: tenantID.Hex(), ResourceID: personID}
	if !e.HasPermission(context.Background(), personID, "EDIT_COURSES", own) {
		t.Error("own-scope grant denied for the person's own resource")
	}

	foreign := Context{TenantID: tenantID.Hex(), ResourceID: primitive.NewObjectID().Hex()}
	if e.HasPermission(context.Background(), personID, "EDIT_COURSES", foreign) {
		t.Error("own-scope grant leaked to a foreign resource")
	}
}

func TestHasPermissionCustomRole(t *testing.T) {
	tenantID := primitive.NewObjectID()
	customID := primitive.NewObjectID()

	a := tenantAssignment(tenantID, role.CustomRoleType(customID))
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	custom := &fakeCustomRoles{roles: map[string]*role.CustomRole{
		customID.Hex(): {
			ID:          customID,
			TenantID:    tenantID,
			Name:        "Course Coordinator",
			Permissions: []role.CustomRolePermission{{Permission: "EDIT_COURSES"}},
		},
	}}
	e := newEvaluator(store, custom, nil)

	if !e.HasPermission(context.Background(), "p1", "EDIT_COURSES", Context{TenantID: tenantID.Hex()}) {
		t.Error("custom role permission denied")
	}
	if e.HasPermission(context.Background(), "p1", "DELETE_COURSES", Context{TenantID: tenantID.Hex()}) {
		t.Error("permission outside the custom role granted")
	}
}

func TestHasPermissionCustomRoleLookupErrorDenies(t *testing.T) {
	tenantID := primitive.NewObjectID()
	a := tenantAssignment(tenantID, role.CustomRoleType(primitive.NewObjectID()))
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	custom := &fakeCustomRoles{err: errors.New("primary stepped down")}
	e := newEvaluator(store, custom, nil)

	if e.HasPermission(context.Background(), "p1", "EDIT_COURSES", Context{TenantID: tenantID.Hex()}) {
		t.Error("custom role lookup error must deny")
	}
}

func TestHasPermissionTenantRowsConfinedToTenant(t *testing.T) {
	tenantID := primitive.NewObjectID()
	customID := primitive.NewObjectID()

	direct := tenantAssignment(tenantID, role.RoleEmployee)
	direct.Permissions = []role.RolePermission{{Permission: "ADMIN_PANEL", IsGranted: true}}

	advanced := tenantAssignment(tenantID, role.RoleEmployee)
	advanced.Advanced = []role.AdvancedPermission{
		{Resource: "companies", Action: "view", Scope: role.AdvTenant},
	}

	viaCustom := tenantAssignment(tenantID, role.CustomRoleType(customID))
	customRoles := &fakeCustomRoles{roles: map[string]*role.CustomRole{
		customID.Hex(): {
			ID:          customID,
			TenantID:    tenantID,
			Name:        "Panel Operator",
			Permissions: []role.CustomRolePermission{{Permission: "ADMIN_PANEL"}},
		},
	}}

	tests := []struct {
		name       string
		assignment role.RoleAssignment
		permission string
	}{
		{"direct row", direct, "ADMIN_PANEL"},
		{"advanced row", advanced, "VIEW_COMPANIES"},
		{"custom role", viaCustom, "ADMIN_PANEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeRoleStore{assignments: []role.RoleAssignment{tt.assignment}}
			e := newEvaluator(store, customRoles, nil)

			if e.HasPermission(context.Background(), "p1", tt.permission, Context{}) {
				t.Error("tenant-stored grant honored on a tenant-less request")
			}
			if e.HasPermission(context.Background(), "p1", tt.permission, Context{TenantID: primitive.NewObjectID().Hex()}) {
				t.Error("tenant-stored grant honored in a foreign tenant")
			}
			if !e.HasPermission(context.Background(), "p1", tt.permission, Context{TenantID: tenantID.Hex()}) {
				t.Error("grant denied in its own tenant")
			}
		})
	}
}

func TestHasPermissionForeignTenantCustomRoleIgnored(t *testing.T) {
	tenantID := primitive.NewObjectID()
	customID := primitive.NewObjectID()

	a := tenantAssignment(tenantID, role.CustomRoleType(customID))
	store := &fakeRoleStore{assignments: []role.RoleAssignment{a}}
	custom := &fakeCustomRoles{roles: map[string]*role.CustomRole{
		customID.Hex(): {
			ID:          customID,
			TenantID:    primitive.NewObjectID(),
			Permissions: []role.CustomRolePermission{{Permission: "EDIT_COURSES"}},
		},
	}}
	e := newEvaluator(store, custom, nil)

	if e.HasPermission(context.Background(), "p1", "EDIT_COURSES", Context{TenantID: tenantID.Hex()}) {
		t.Error("custom role owned by another tenant granted")
	}
}

type recordingAudit struct {
	actions []common_models.AuditAction
}

func (r *recordingAudit) LogChange(_ context.Context, action common_models.AuditAction, _ string, _ string, _ map[string]common_models.Change) error {
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAudit) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func TestHasPermissionAuditsBothOutcomes(t *testing.T) {
	tenantID := primitive.NewObjectID()
	store := &fakeRoleStore{assignments: []role.RoleAssignment{
		tenantAssignment(tenantID, role.RoleHRManager),
	}}
	aud := &recordingAudit{}
	e := NewEvaluator(store, &fakeCustomRoles{}, &staticConditions{}, aud, zap.NewNop())

	ec := Context{TenantID: tenantID.Hex()}
	if !e.HasPermission(context.Background(), "p1", "VIEW_EMPLOYEES", ec) {
		t.Fatal("catalog grant denied")
	}
	if e.HasPermission(context.Background(), "p1", "DELETE_EMPLOYEES", ec) {
		t.Fatal("permission outside the catalog granted")
	}

	want := []common_models.AuditAction{common_models.AuditActionGrant, common_models.AuditActionDeny}
	if len(aud.actions) != len(want) {
		t.Fatalf("expected %d audit entries, got %d", len(want), len(aud.actions))
	}
	for i, action := range want {
		if aud.actions[i] != action {
			t.Errorf("audit entry %d = %s, want %s", i, aud.actions[i], action)
		}
	}
}

func TestCanAccessResourceDegeneratesWithoutAdvancedRows(t *testing.T) {
	tenantID := primitive.NewObjectID()
	store := &fakeRoleStore{assignments: []role.RoleAssignment{
		tenantAssignment(tenantID, role.RoleHRManager),
	}}
	e := newEvaluator(store, nil, nil)

	if !e.CanAccessResource(context.Background(), "p1", "employees", "r1", "view", tenantID.Hex()) {
		t.Error("expected fallback to catalog grant")
	}
	if e.CanAccessResource(context.Background(), "p1", "employees", "r1", "delete", tenantID.Hex()) {
		t.Error("expected fallback to catalog deny")
	}
}

func TestGetUserPermissionsDeduplicatedUnion(t *testing.T) {
	tenantID := primitive.NewObjectID()

	hr := tenantAssignment(tenantID, role.RoleHRManager)
	hr.Permissions = []role.RolePermission{
		{Permission: "VIEW_EMPLOYEES", IsGranted: true}, // already in catalog
		{Permission: "DELETE_EMPLOYEES", IsGranted: true},
	}
	hr.Advanced = []role.AdvancedPermission{
		{Resource: "courses", Action: "edit", Scope: role.AdvOwn},
	}
	store := &fakeRoleStore{assignments: []role.RoleAssignment{hr}}
	e := newEvaluator(store, nil, nil)

	perms, err := e.GetUserPermissions(context.Background(), "p1", tenantID.Hex())
	if err != nil {
		t.Fatalf("GetUserPermissions: %v", err)
	}

	seen := make(map[string]int)
	for _, p := range perms {
		seen[p]++
	}
	for p, n := range seen {
		if n > 1 {
			t.Errorf("permission %s appears %d times", p, n)
		}
	}
	for _, want := range []string{"VIEW_EMPLOYEES", "DELETE_EMPLOYEES", "EDIT_COURSES"} {
		if seen[want] == 0 {
			t.Errorf("missing %s in %v", want, perms)
		}
	}
}
