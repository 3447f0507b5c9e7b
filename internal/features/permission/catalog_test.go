package permission

import (
	"testing"

	"go-bms/internal/features/role"
)

func TestSuperAdminIsSupersetOfEveryRole(t *testing.T) {
	super := RolePermissions(role.RoleSuperAdmin)
	for rt, set := range catalog {
		for p := range set {
			if !super.Contains(p) {
				t.Errorf("SUPER_ADMIN missing %s held by %s", p, rt)
			}
		}
	}
}

func TestCatalogCoversEveryBuiltinRole(t *testing.T) {
	builtins := []role.RoleType{
		role.RoleSuperAdmin, role.RoleAdmin, role.RoleCompanyAdmin,
		role.RoleHRManager, role.RoleDepartmentManager,
		role.RoleTrainer, role.RoleEmployee,
	}
	for _, rt := range builtins {
		if len(RolePermissions(rt)) == 0 {
			t.Errorf("no catalog entry for %s", rt)
		}
	}
}

func TestTrainerIsReadOnly(t *testing.T) {
	for p := range RolePermissions(role.RoleTrainer) {
		if action, _ := p.Parts(); action != "view" {
			t.Errorf("TRAINER holds non-read permission %s", p)
		}
	}
}

func TestAliasesPreservedVerbatim(t *testing.T) {
	for _, raw := range []string{"ROLE_MANAGEMENT", "ADMIN_PANEL"} {
		if _, ok := Lookup(raw); !ok {
			t.Errorf("alias %s not in enumeration", raw)
		}
	}
}

func TestLookupRejectsUnknown(t *testing.T) {
	if _, ok := Lookup("VIEW_UNICORNS"); ok {
		t.Error("unknown permission accepted")
	}
}

func TestCustomRoleTypeHasNoCatalogEntry(t *testing.T) {
	rt := role.RoleType("CUSTOM_656f1f77bcf86cd799439011")
	if len(RolePermissions(rt)) != 0 {
		t.Errorf("custom role type unexpectedly present in catalog")
	}
}
