package permission

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/audit"
	"go-bms/internal/features/role"
)

// Context carries the request-side anchors a decision is made against.
type Context struct {
	TenantID   string
	CompanyID  string
	ResourceID string
}

// Evaluator decides grant or deny. Deny is a normal return value; data-layer
// failures during evaluation are logged and converted to deny, never
// surfaced as success or as an error the caller might skip past.
type Evaluator interface {
	HasPermission(ctx context.Context, personID, permission string, ec Context) bool
	CanAccessResource(ctx context.Context, personID, resource, resourceID, action, tenantID string) bool
	GetUserPermissions(ctx context.Context, personID, tenantID string) ([]string, error)
	FilterDataByPermissions(ctx context.Context, personID, resource, action string, data interface{}, tenantID string) (interface{}, error)

	// Check adapts the evaluator to route middleware, reading the tenant
	// from the request context.
	Check(ctx context.Context, personID, permission string) bool
}

type EvaluatorImpl struct {
	Roles       role.RoleStore
	CustomRoles role.CustomRoleRepository
	Conditions  ConditionEvaluator
	Audit       audit.AuditService
	Logger      *zap.Logger
}

func NewEvaluator(roles role.RoleStore, customRoles role.CustomRoleRepository, conditions ConditionEvaluator, auditSvc audit.AuditService, logger *zap.Logger) Evaluator {
	return &EvaluatorImpl{
		Roles:       roles,
		CustomRoles: customRoles,
		Conditions:  conditions,
		Audit:       auditSvc,
		Logger:      logger,
	}
}

// HasPermission runs the decision pipeline and records the outcome in the
// audit trail, grant and deny alike.
func (e *EvaluatorImpl) HasPermission(ctx context.Context, personID, permission string, ec Context) bool {
	normalized := strings.ToUpper(permission)

	if e.evaluate(ctx, personID, normalized, ec) {
		_ = e.Audit.LogChange(ctx, common_models.AuditActionGrant, "permissions", ec.ResourceID, map[string]common_models.Change{
			"permission": {New: normalized},
		})
		return true
	}

	e.Logger.Info("permission denied",
		zap.String("person_id", personID),
		zap.String("permission", normalized),
		zap.String("tenant_id", ec.TenantID))
	_ = e.Audit.LogChange(ctx, common_models.AuditActionDeny, "permissions", ec.ResourceID, map[string]common_models.Change{
		"permission": {New: normalized},
	})
	return false
}

// evaluate is the decision pipeline; the first grant short-circuits.
//
//  1. SUPER_ADMIN or ADMIN assignment grants unconditionally.
//  2. Catalog membership for the role type, subject to assignment scope.
//  3. Direct permission rows on an assignment with is_granted.
//  4. Advanced rows matching the permission's (action, resource) pair.
//  5. Custom role permission lists for CUSTOM_ assignments.
//  6. Deny.
//
// Steps 3-5 honor tenant-stored assignments only inside their own tenant; a
// tenant-less request (the global-admin surface) sees global and synthetic
// assignments and nothing else.
func (e *EvaluatorImpl) evaluate(ctx context.Context, personID, normalized string, ec Context) bool {
	assignments, err := e.Roles.GetUserRoles(ctx, ec.TenantID, personID)
	if err != nil {
		e.Logger.Error("role lookup failed during evaluation, denying",
			zap.String("person_id", personID),
			zap.String("permission", normalized),
			zap.Error(err))
		return false
	}

	for _, a := range assignments {
		if a.RoleType == role.RoleSuperAdmin || a.RoleType == role.RoleAdmin {
			return true
		}
	}

	if perm, ok := Lookup(normalized); ok {
		for _, a := range assignments {
			if CatalogContains(a.RoleType, perm) && e.scopeMatches(&a, ec) {
				return true
			}
		}
	}

	for _, a := range assignments {
		if !tenantBound(&a, ec) {
			continue
		}
		for _, rp := range a.Permissions {
			if rp.IsGranted && strings.EqualFold(rp.Permission, normalized) {
				return true
			}
		}
	}

	if action, resource := splitActionResource(normalized); resource != "" {
		for _, a := range assignments {
			if !tenantBound(&a, ec) {
				continue
			}
			if e.advancedGrants(ctx, a.Advanced, personID, resource, action, ec) {
				return true
			}
		}
	}

	granted, err := e.customRoleGrants(ctx, assignments, normalized, ec)
	if err != nil {
		e.Logger.Error("custom role lookup failed during evaluation, denying",
			zap.String("person_id", personID),
			zap.String("permission", normalized),
			zap.Error(err))
		return false
	}
	return granted
}

// tenantBound reports whether a stored assignment may be honored for the
// request's tenant. Global and synthetic assignments always apply; anything
// tenant-stored applies only inside its own tenant, so a tenant-less request
// never picks up rows another tenant granted.
func tenantBound(a *role.RoleAssignment, ec Context) bool {
	if a.Synthetic || a.Scope == role.ScopeGlobal {
		return true
	}
	return ec.TenantID != "" && a.TenantID.Hex() == ec.TenantID
}

// scopeMatches checks the assignment's reach against the request anchors. An
// assignment with an unrecognized scope grants unconditionally; that is the
// stored-data behavior this replaces and is kept until the policy owners
// decide otherwise.
func (e *EvaluatorImpl) scopeMatches(a *role.RoleAssignment, ec Context) bool {
	switch a.Scope {
	case role.ScopeGlobal:
		return true
	case role.ScopeTenant:
		return ec.TenantID != "" && a.TenantID.Hex() == ec.TenantID
	case role.ScopeCompany, role.ScopeDepartment:
		return a.CompanyID != nil && ec.CompanyID == a.CompanyID.Hex()
	default:
		e.Logger.Warn("assignment with unrecognized scope treated as unconditional grant",
			zap.String("assignment_id", a.ID.Hex()),
			zap.String("scope", string(a.Scope)))
		return true
	}
}

func (e *EvaluatorImpl) advancedGrants(ctx context.Context, rows []role.AdvancedPermission, personID, resource, action string, ec Context) bool {
	for _, ap := range rows {
		if !strings.EqualFold(ap.Resource, resource) || !strings.EqualFold(ap.Action, action) {
			continue
		}
		switch ap.Scope {
		case role.AdvGlobal:
			return true
		case role.AdvTenant:
			if ec.TenantID != "" {
				return true
			}
		case role.AdvOwn:
			if e.Conditions.Evaluate(ctx, ap.Conditions, personID, ec.ResourceID) {
				return true
			}
		}
	}
	return false
}

func (e *EvaluatorImpl) customRoleGrants(ctx context.Context, assignments []role.RoleAssignment, normalized string, ec Context) (bool, error) {
	for _, a := range assignments {
		id, ok := a.RoleType.CustomRoleID()
		if !ok || !tenantBound(&a, ec) {
			continue
		}
		custom, err := e.CustomRoles.FindByID(ctx, id)
		if err != nil {
			return false, err
		}
		// Custom roles are tenant-scoped; a reference across tenants is dead.
		if custom == nil || custom.TenantID != a.TenantID {
			continue
		}
		for _, cp := range custom.Permissions {
			if strings.EqualFold(cp.Permission, normalized) {
				return true, nil
			}
		}
	}
	return false, nil
}

// CanAccessResource is the per-record convenience check. With no advanced
// rows for the resource and action it degenerates to a plain permission
// check; with rows, a global-scoped row or a satisfied condition grants.
func (e *EvaluatorImpl) CanAccessResource(ctx context.Context, personID, resource, resourceID, action, tenantID string) bool {
	rows, err := e.advancedFor(ctx, personID, tenantID, resource, action)
	if err != nil {
		e.Logger.Error("role lookup failed during resource check, denying",
			zap.String("person_id", personID),
			zap.String("resource", resource),
			zap.Error(err))
		return false
	}

	if len(rows) == 0 {
		return e.HasPermission(ctx, personID, FromActionResource(action, resource), Context{
			TenantID:   tenantID,
			ResourceID: resourceID,
		})
	}

	for _, ap := range rows {
		if ap.Scope == role.AdvGlobal {
			return true
		}
		if e.Conditions.Evaluate(ctx, ap.Conditions, personID, resourceID) {
			return true
		}
	}
	return false
}

// GetUserPermissions aggregates everything the person effectively holds in
// the tenant, deduplicated: catalog sets per role, direct grants, advanced
// rows re-encoded as ACTION_RESOURCE, and custom role permissions.
func (e *EvaluatorImpl) GetUserPermissions(ctx context.Context, personID, tenantID string) ([]string, error) {
	assignments, err := e.Roles.GetUserRoles(ctx, tenantID, personID)
	if err != nil {
		return nil, err
	}

	union := make(map[string]struct{})
	for _, a := range assignments {
		for p := range RolePermissions(a.RoleType) {
			union[string(p)] = struct{}{}
		}
		for _, rp := range a.Permissions {
			if rp.IsGranted {
				union[strings.ToUpper(rp.Permission)] = struct{}{}
			}
		}
		for _, ap := range a.Advanced {
			union[FromActionResource(ap.Action, ap.Resource)] = struct{}{}
		}
		if id, ok := a.RoleType.CustomRoleID(); ok {
			custom, err := e.CustomRoles.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if custom == nil || custom.TenantID != a.TenantID {
				continue
			}
			for _, cp := range custom.Permissions {
				union[strings.ToUpper(cp.Permission)] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (e *EvaluatorImpl) Check(ctx context.Context, personID, permission string) bool {
	tenantID, _ := ctx.Value(common_models.TenantIDKey).(string)
	return e.HasPermission(ctx, personID, permission, Context{TenantID: tenantID})
}

// advancedFor collects the person's advanced rows matching resource+action
// across active assignments.
func (e *EvaluatorImpl) advancedFor(ctx context.Context, personID, tenantID, resource, action string) ([]role.AdvancedPermission, error) {
	assignments, err := e.Roles.GetUserRoles(ctx, tenantID, personID)
	if err != nil {
		return nil, err
	}
	var rows []role.AdvancedPermission
	for _, a := range assignments {
		for _, ap := range a.Advanced {
			if strings.EqualFold(ap.Resource, resource) && strings.EqualFold(ap.Action, action) {
				rows = append(rows, ap)
			}
		}
	}
	return rows, nil
}

func splitActionResource(normalized string) (action, resource string) {
	s := strings.ToLower(normalized)
	idx := strings.Index(s, "_")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
