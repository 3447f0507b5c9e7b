package role

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-bms/pkg/condition"
)

// RoleType identifies a role. Built-in roles carry a fixed permission set;
// tenant-defined roles are referenced as CUSTOM_<id>.
type RoleType string

const (
	RoleSuperAdmin        RoleType = "SUPER_ADMIN"
	RoleAdmin             RoleType = "ADMIN"
	RoleCompanyAdmin      RoleType = "COMPANY_ADMIN"
	RoleHRManager         RoleType = "HR_MANAGER"
	RoleDepartmentManager RoleType = "DEPARTMENT_MANAGER"
	RoleTrainer           RoleType = "TRAINER"
	RoleEmployee          RoleType = "EMPLOYEE"
)

// CustomRolePrefix marks a RoleType that points at a tenant-defined role.
const CustomRolePrefix = "CUSTOM_"

// CustomRoleType builds the RoleType for a custom role id.
func CustomRoleType(id primitive.ObjectID) RoleType {
	return RoleType(CustomRolePrefix + id.Hex())
}

// CustomRoleID returns the referenced custom role id when the type carries
// the custom prefix.
func (rt RoleType) CustomRoleID() (string, bool) {
	if strings.HasPrefix(string(rt), CustomRolePrefix) {
		return strings.TrimPrefix(string(rt), CustomRolePrefix), true
	}
	return "", false
}

// IsBuiltin reports whether the type is one of the fixed roles.
func (rt RoleType) IsBuiltin() bool {
	switch rt {
	case RoleSuperAdmin, RoleAdmin, RoleCompanyAdmin, RoleHRManager,
		RoleDepartmentManager, RoleTrainer, RoleEmployee:
		return true
	}
	return false
}

// RoleScope is the reach of an assignment. It is derived at assign time,
// never supplied by the caller.
type RoleScope string

const (
	ScopeGlobal     RoleScope = "GLOBAL"
	ScopeTenant     RoleScope = "TENANT"
	ScopeCompany    RoleScope = "COMPANY"
	ScopeDepartment RoleScope = "DEPARTMENT"
)

// DeriveScope computes the scope of an assignment from its role type and
// anchors. SUPER_ADMIN is always global; with both anchors present the
// company anchor wins.
func DeriveScope(rt RoleType, companyID, departmentID *primitive.ObjectID) RoleScope {
	if rt == RoleSuperAdmin {
		return ScopeGlobal
	}
	if companyID != nil {
		return ScopeCompany
	}
	if departmentID != nil {
		return ScopeDepartment
	}
	return ScopeTenant
}

// AdvancedScope is the reach of a single advanced permission row.
type AdvancedScope string

const (
	AdvGlobal AdvancedScope = "global"
	AdvTenant AdvancedScope = "tenant"
	AdvOwn    AdvancedScope = "own"
)

// AdvancedPermission is a fine-grained grant embedded in an assignment:
// action on resource, at a scope, optionally restricted to a field subset
// and to rows matching its conditions.
type AdvancedPermission struct {
	Resource      string               `json:"resource" bson:"resource"`
	Action        string               `json:"action" bson:"action"`
	Scope         AdvancedScope        `json:"scope" bson:"scope"`
	AllowedFields []string             `json:"allowed_fields,omitempty" bson:"allowed_fields,omitempty"`
	Conditions    condition.Conditions `json:"conditions,omitempty" bson:"conditions,omitempty"`
}

// RolePermission is a direct named grant (or revocation) on an assignment,
// layered over the role type's catalog set.
type RolePermission struct {
	Permission string `json:"permission" bson:"permission"`
	IsGranted  bool   `json:"is_granted" bson:"is_granted"`
}

// RoleAssignment binds a person to a role within a tenant. At most one
// active assignment exists per (person, tenant, role type, company); assign
// is an upsert and remove is a soft deactivation.
type RoleAssignment struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	PersonID     primitive.ObjectID   `json:"person_id" bson:"person_id"`
	TenantID     primitive.ObjectID   `json:"tenant_id" bson:"tenant_id"`
	RoleType     RoleType             `json:"role_type" bson:"role_type"`
	Scope        RoleScope            `json:"scope" bson:"scope"`
	CompanyID    *primitive.ObjectID  `json:"company_id,omitempty" bson:"company_id,omitempty"`
	DepartmentID *primitive.ObjectID  `json:"department_id,omitempty" bson:"department_id,omitempty"`
	AssignedBy   string               `json:"assigned_by,omitempty" bson:"assigned_by,omitempty"`
	AssignedAt   time.Time            `json:"assigned_at" bson:"assigned_at"`
	ValidUntil   *time.Time           `json:"valid_until,omitempty" bson:"valid_until,omitempty"`
	IsActive     bool                 `json:"is_active" bson:"is_active"`
	Advanced     []AdvancedPermission `json:"advanced_permissions,omitempty" bson:"advanced_permissions,omitempty"`
	Permissions  []RolePermission     `json:"permissions,omitempty" bson:"permissions,omitempty"`

	// Synthetic marks an assignment materialized from a person's global
	// role. It is never persisted.
	Synthetic bool `json:"synthetic,omitempty" bson:"-"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Expired reports whether the assignment's validity window has passed.
func (a *RoleAssignment) Expired(now time.Time) bool {
	return a.ValidUntil != nil && !a.ValidUntil.After(now)
}

// CustomRole is a tenant-defined role: a named bundle of permissions that
// assignments reference through a CUSTOM_<id> role type.
type CustomRole struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	TenantID    primitive.ObjectID     `json:"tenant_id" bson:"tenant_id"`
	Name        string                 `json:"name" bson:"name"`
	Description string                 `json:"description,omitempty" bson:"description,omitempty"`
	Permissions []CustomRolePermission `json:"permissions" bson:"permissions"`
	DeletedAt   *time.Time             `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" bson:"updated_at"`
}

// CustomRolePermission is one named permission inside a custom role.
type CustomRolePermission struct {
	Permission string `json:"permission" bson:"permission"`
}
