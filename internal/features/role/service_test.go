package role

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/person"
)

type fakeAssignmentRepo struct {
	assignments []*RoleAssignment
}

func sameCompany(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeAssignmentRepo) activeMatch(a *RoleAssignment, personID, tenantID primitive.ObjectID, roleType RoleType, companyID *primitive.ObjectID) bool {
	return a.IsActive && a.PersonID == personID && a.TenantID == tenantID &&
		a.RoleType == roleType && sameCompany(a.CompanyID, companyID)
}

func (f *fakeAssignmentRepo) Upsert(_ context.Context, a *RoleAssignment) (*RoleAssignment, error) {
	for _, existing := range f.assignments {
		if f.activeMatch(existing, a.PersonID, a.TenantID, a.RoleType, a.CompanyID) {
			existing.Scope = a.Scope
			existing.AssignedBy = a.AssignedBy
			existing.AssignedAt = a.AssignedAt
			existing.ValidUntil = a.ValidUntil
			return existing, nil
		}
	}
	a.ID = primitive.NewObjectID()
	f.assignments = append(f.assignments, a)
	return a, nil
}

func (f *fakeAssignmentRepo) Deactivate(_ context.Context, personID, tenantID primitive.ObjectID, roleType RoleType, companyID *primitive.ObjectID) (int64, error) {
	var count int64
	for _, a := range f.assignments {
		if f.activeMatch(a, personID, tenantID, roleType, companyID) {
			a.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeAssignmentRepo) FindActiveByPerson(_ context.Context, personID primitive.ObjectID, tenantID *primitive.ObjectID) ([]RoleAssignment, error) {
	var out []RoleAssignment
	now := time.Now()
	for _, a := range f.assignments {
		if !a.IsActive || a.PersonID != personID || a.Expired(now) {
			continue
		}
		if tenantID != nil && a.TenantID != *tenantID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) DeactivateExpired(_ context.Context) (int64, error) {
	var count int64
	now := time.Now()
	for _, a := range f.assignments {
		if a.IsActive && a.Expired(now) {
			a.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f *fakeAssignmentRepo) EnsureIndexes(context.Context) error { return nil }

type fakeCustomRepo struct {
	roles map[string]*CustomRole
}

func (f *fakeCustomRepo) Create(_ context.Context, r *CustomRole) (*CustomRole, error) {
	r.ID = primitive.NewObjectID()
	if f.roles == nil {
		f.roles = make(map[string]*CustomRole)
	}
	f.roles[r.ID.Hex()] = r
	return r, nil
}

func (f *fakeCustomRepo) FindByID(_ context.Context, id string) (*CustomRole, error) {
	return f.roles[id], nil
}

func (f *fakeCustomRepo) FindByTenant(context.Context, primitive.ObjectID) ([]CustomRole, error) {
	return nil, nil
}

func (f *fakeCustomRepo) Update(_ context.Context, id string, r *CustomRole) (*CustomRole, error) {
	return f.roles[id], nil
}

func (f *fakeCustomRepo) SoftDelete(_ context.Context, id string) error {
	delete(f.roles, id)
	return nil
}

type fakePersonRepo struct {
	persons map[string]*person.Person
}

func (f *fakePersonRepo) Create(_ context.Context, p *person.Person) error {
	if f.persons == nil {
		f.persons = make(map[string]*person.Person)
	}
	f.persons[p.ID.Hex()] = p
	return nil
}

func (f *fakePersonRepo) FindByID(_ context.Context, id string) (*person.Person, error) {
	return f.persons[id], nil
}

func (f *fakePersonRepo) FindByIDs(_ context.Context, ids []string) ([]person.Person, error) {
	var out []person.Person
	for _, id := range ids {
		if p, ok := f.persons[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePersonRepo) BelongsToTenant(_ context.Context, personID, tenantID string) (bool, error) {
	p, ok := f.persons[personID]
	if !ok {
		return false, nil
	}
	if p.IsGlobal() {
		return true, nil
	}
	return p.TenantID.Hex() == tenantID, nil
}

type fakeAudit struct {
	entries []common_models.AuditAction
}

func (f *fakeAudit) LogChange(_ context.Context, action common_models.AuditAction, _ string, _ string, _ map[string]common_models.Change) error {
	f.entries = append(f.entries, action)
	return nil
}

func (f *fakeAudit) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestStore(assignRepo *fakeAssignmentRepo, personRepo *fakePersonRepo) (RoleStore, *fakeAudit) {
	aud := &fakeAudit{}
	store := NewRoleStore(assignRepo, &fakeCustomRepo{}, personRepo, aud, zap.NewNop())
	return store, aud
}

func seedPerson(repo *fakePersonRepo, tenantID primitive.ObjectID, globalRole string) *person.Person {
	p := &person.Person{
		ID:         primitive.NewObjectID(),
		TenantID:   tenantID,
		GlobalRole: globalRole,
		CreatedAt:  time.Now(),
	}
	_ = repo.Create(context.Background(), p)
	return p
}

func TestAssignRoleUpsertsExistingAssignment(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")
	store, aud := newTestStore(repo, personRepo)

	in := AssignInput{PersonID: p.ID.Hex(), RoleType: "HR_MANAGER"}
	first, err := store.AssignRole(context.Background(), tenantID.Hex(), in)
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	second, err := store.AssignRole(context.Background(), tenantID.Hex(), in)
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected upsert to reuse assignment, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if len(repo.assignments) != 1 {
		t.Errorf("expected 1 stored assignment, got %d", len(repo.assignments))
	}
	if len(aud.entries) != 2 {
		t.Errorf("expected 2 audit entries, got %d", len(aud.entries))
	}
}

func TestAssignRoleDistinctCompaniesCoexist(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")
	store, _ := newTestStore(repo, personRepo)

	companyA := primitive.NewObjectID().Hex()
	companyB := primitive.NewObjectID().Hex()

	for _, companyID := range []string{companyA, companyB} {
		id := companyID
		_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
			PersonID:  p.ID.Hex(),
			RoleType:  "COMPANY_ADMIN",
			CompanyID: &id,
		})
		if err != nil {
			t.Fatalf("assign for company %s: %v", companyID, err)
		}
	}

	roles, err := store.GetUserRoles(context.Background(), tenantID.Hex(), p.ID.Hex())
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(roles))
	}
	for _, r := range roles {
		if r.Scope != ScopeCompany {
			t.Errorf("expected COMPANY scope, got %s", r.Scope)
		}
	}
}

func TestAssignRoleRejectsUnknownType(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")
	store, _ := newTestStore(repo, personRepo)

	_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: "NOT_A_ROLE",
	})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAssignRoleCustomRoleMustBelongToTenant(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")

	ownID := primitive.NewObjectID()
	foreignID := primitive.NewObjectID()
	customRepo := &fakeCustomRepo{roles: map[string]*CustomRole{
		ownID.Hex():     {ID: ownID, TenantID: tenantID, Name: "Coordinator"},
		foreignID.Hex(): {ID: foreignID, TenantID: primitive.NewObjectID(), Name: "Coordinator"},
	}}
	store := NewRoleStore(repo, customRepo, personRepo, &fakeAudit{}, zap.NewNop())

	_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: string(CustomRoleType(foreignID)),
	})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole for another tenant's custom role, got %v", err)
	}

	if _, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: string(CustomRoleType(ownID)),
	}); err != nil {
		t.Errorf("own tenant's custom role rejected: %v", err)
	}
}

func TestAssignRoleRejectsForeignPerson(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	p := seedPerson(personRepo, primitive.NewObjectID(), "")
	store, _ := newTestStore(repo, personRepo)

	_, err := store.AssignRole(context.Background(), primitive.NewObjectID().Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: "EMPLOYEE",
	})
	if !errors.Is(err, ErrPersonNotInTenant) {
		t.Errorf("expected ErrPersonNotInTenant, got %v", err)
	}
}

func TestRemoveRoleDeactivates(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")
	store, _ := newTestStore(repo, personRepo)

	_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: "TRAINER",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := store.RemoveRole(context.Background(), tenantID.Hex(), p.ID.Hex(), RoleTrainer, nil); err != nil {
		t.Fatalf("remove: %v", err)
	}

	roles, err := store.GetUserRoles(context.Background(), tenantID.Hex(), p.ID.Hex())
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("expected no active roles, got %d", len(roles))
	}
	if len(repo.assignments) != 1 {
		t.Errorf("expected assignment kept for history, got %d stored", len(repo.assignments))
	}

	if err := store.RemoveRole(context.Background(), tenantID.Hex(), p.ID.Hex(), RoleTrainer, nil); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("expected ErrAssignmentNotFound on second remove, got %v", err)
	}
}

func TestGetUserRolesSynthesizesGlobalRole(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	p := seedPerson(personRepo, primitive.ObjectID{}, "SUPER_ADMIN")
	store, _ := newTestStore(repo, personRepo)

	roles, err := store.GetUserRoles(context.Background(), primitive.NewObjectID().Hex(), p.ID.Hex())
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected synthetic assignment, got %d roles", len(roles))
	}
	got := roles[0]
	if !got.Synthetic {
		t.Error("expected assignment marked synthetic")
	}
	if got.RoleType != RoleSuperAdmin || got.Scope != ScopeGlobal {
		t.Errorf("unexpected synthetic assignment: %s/%s", got.RoleType, got.Scope)
	}
}

func TestGetUserRolesSkipsSyntheticWhenStored(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "ADMIN")
	store, _ := newTestStore(repo, personRepo)

	_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID: p.ID.Hex(),
		RoleType: "ADMIN",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	roles, err := store.GetUserRoles(context.Background(), tenantID.Hex(), p.ID.Hex())
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected single assignment, got %d", len(roles))
	}
	if roles[0].Synthetic {
		t.Error("stored assignment must win over the synthetic one")
	}
}

func TestCleanupExpiredRoles(t *testing.T) {
	repo := &fakeAssignmentRepo{}
	personRepo := &fakePersonRepo{}
	tenantID := primitive.NewObjectID()
	p := seedPerson(personRepo, tenantID, "")
	store, aud := newTestStore(repo, personRepo)

	past := time.Now().Add(-time.Hour)
	_, err := store.AssignRole(context.Background(), tenantID.Hex(), AssignInput{
		PersonID:   p.ID.Hex(),
		RoleType:   "EMPLOYEE",
		ValidUntil: &past,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	count, err := store.CleanupExpiredRoles(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 deactivated, got %d", count)
	}

	count, err = store.CleanupExpiredRoles(context.Background())
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep should find nothing, got %d", count)
	}

	found := false
	for _, action := range aud.entries {
		if action == common_models.AuditActionSweep {
			found = true
		}
	}
	if !found {
		t.Error("expected sweep audit entry")
	}
}

func TestDeriveScope(t *testing.T) {
	companyID := primitive.NewObjectID()
	departmentID := primitive.NewObjectID()

	tests := []struct {
		name         string
		roleType     RoleType
		companyID    *primitive.ObjectID
		departmentID *primitive.ObjectID
		want         RoleScope
	}{
		{"super admin is global", RoleSuperAdmin, &companyID, nil, ScopeGlobal},
		{"plain tenant role", RoleHRManager, nil, nil, ScopeTenant},
		{"company anchored", RoleCompanyAdmin, &companyID, nil, ScopeCompany},
		{"department anchored", RoleDepartmentManager, nil, &departmentID, ScopeDepartment},
		{"company wins over department", RoleDepartmentManager, &companyID, &departmentID, ScopeCompany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveScope(tt.roleType, tt.companyID, tt.departmentID); got != tt.want {
				t.Errorf("DeriveScope() = %s, want %s", got, tt.want)
			}
		})
	}
}
