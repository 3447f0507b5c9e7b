package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/audit"
	"go-bms/internal/features/person"
)

var (
	ErrUnknownRole        = errors.New("unknown role type")
	ErrPersonNotInTenant  = errors.New("person does not belong to tenant")
	ErrAssignmentNotFound = errors.New("role assignment not found")
)

// AssignInput carries the caller-supplied parts of an assignment. Scope is
// derived, never accepted.
type AssignInput struct {
	PersonID     string     `json:"person_id" validate:"required"`
	RoleType     string     `json:"role_type" validate:"required"`
	CompanyID    *string    `json:"company_id,omitempty"`
	DepartmentID *string    `json:"department_id,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	AssignedBy   string     `json:"-"`

	Advanced    []AdvancedPermission `json:"advanced_permissions,omitempty"`
	Permissions []RolePermission     `json:"permissions,omitempty"`
}

type RoleStore interface {
	AssignRole(ctx context.Context, tenantID string, in AssignInput) (*RoleAssignment, error)
	RemoveRole(ctx context.Context, tenantID, personID string, roleType RoleType, companyID *string) error
	GetUserRoles(ctx context.Context, tenantID, personID string) ([]RoleAssignment, error)
	CleanupExpiredRoles(ctx context.Context) (int64, error)
}

type RoleStoreImpl struct {
	Repo       RoleAssignmentRepository
	CustomRepo CustomRoleRepository
	PersonRepo person.PersonRepository
	Audit      audit.AuditService
	Logger     *zap.Logger
}

func NewRoleStore(repo RoleAssignmentRepository, customRepo CustomRoleRepository, personRepo person.PersonRepository, auditSvc audit.AuditService, logger *zap.Logger) RoleStore {
	return &RoleStoreImpl{
		Repo:       repo,
		CustomRepo: customRepo,
		PersonRepo: personRepo,
		Audit:      auditSvc,
		Logger:     logger,
	}
}

// AssignRole grants a role to a person within the tenant. Assigning a role
// the person already holds for the same company refreshes the existing
// assignment instead of stacking a duplicate.
func (s *RoleStoreImpl) AssignRole(ctx context.Context, tenantID string, in AssignInput) (*RoleAssignment, error) {
	tenantOID, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id: %w", err)
	}
	personOID, err := primitive.ObjectIDFromHex(in.PersonID)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	roleType := RoleType(in.RoleType)
	if err := s.validateRoleType(ctx, roleType, tenantOID); err != nil {
		return nil, err
	}

	ok, err := s.PersonRepo.BelongsToTenant(ctx, in.PersonID, tenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPersonNotInTenant
	}

	var companyOID, departmentOID *primitive.ObjectID
	if in.CompanyID != nil {
		oid, err := primitive.ObjectIDFromHex(*in.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("invalid company id: %w", err)
		}
		companyOID = &oid
	}
	if in.DepartmentID != nil {
		oid, err := primitive.ObjectIDFromHex(*in.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid department id: %w", err)
		}
		departmentOID = &oid
	}

	assignment := &RoleAssignment{
		PersonID:     personOID,
		TenantID:     tenantOID,
		RoleType:     roleType,
		Scope:        DeriveScope(roleType, companyOID, departmentOID),
		CompanyID:    companyOID,
		DepartmentID: departmentOID,
		AssignedBy:   in.AssignedBy,
		AssignedAt:   time.Now().UTC(),
		ValidUntil:   in.ValidUntil,
		IsActive:     true,
		Advanced:     in.Advanced,
		Permissions:  in.Permissions,
	}

	saved, err := s.Repo.Upsert(ctx, assignment)
	if err != nil {
		return nil, err
	}

	_ = s.Audit.LogChange(ctx, common_models.AuditActionAssignRole, "roles", saved.ID.Hex(), map[string]common_models.Change{
		"role_type": {New: string(roleType)},
		"person_id": {New: in.PersonID},
	})

	s.Logger.Info("role assigned",
		zap.String("person_id", in.PersonID),
		zap.String("role_type", string(roleType)),
		zap.String("scope", string(saved.Scope)))

	return saved, nil
}

// RemoveRole deactivates the matching active assignment. The document stays
// behind for history.
func (s *RoleStoreImpl) RemoveRole(ctx context.Context, tenantID, personID string, roleType RoleType, companyID *string) error {
	tenantOID, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id: %w", err)
	}
	personOID, err := primitive.ObjectIDFromHex(personID)
	if err != nil {
		return fmt.Errorf("invalid person id: %w", err)
	}
	var companyOID *primitive.ObjectID
	if companyID != nil {
		oid, err := primitive.ObjectIDFromHex(*companyID)
		if err != nil {
			return fmt.Errorf("invalid company id: %w", err)
		}
		companyOID = &oid
	}

	count, err := s.Repo.Deactivate(ctx, personOID, tenantOID, roleType, companyOID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrAssignmentNotFound
	}

	_ = s.Audit.LogChange(ctx, common_models.AuditActionRemoveRole, "roles", personID, map[string]common_models.Change{
		"role_type": {Old: string(roleType)},
	})

	s.Logger.Info("role removed",
		zap.String("person_id", personID),
		zap.String("role_type", string(roleType)))

	return nil
}

// GetUserRoles returns the person's active assignments in the tenant. A
// person carrying a global role that has no stored assignment gets a
// synthetic one so callers see a single uniform list.
func (s *RoleStoreImpl) GetUserRoles(ctx context.Context, tenantID, personID string) ([]RoleAssignment, error) {
	personOID, err := primitive.ObjectIDFromHex(personID)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	var tenantOID *primitive.ObjectID
	if tenantID != "" {
		oid, err := primitive.ObjectIDFromHex(tenantID)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant id: %w", err)
		}
		tenantOID = &oid
	}

	assignments, err := s.Repo.FindActiveByPerson(ctx, personOID, tenantOID)
	if err != nil {
		return nil, err
	}

	p, err := s.PersonRepo.FindByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if p != nil && p.GlobalRole != "" {
		globalType := RoleType(p.GlobalRole)
		represented := false
		for _, a := range assignments {
			if a.RoleType == globalType {
				represented = true
				break
			}
		}
		if !represented {
			assignments = append(assignments, RoleAssignment{
				PersonID:   personOID,
				RoleType:   globalType,
				Scope:      ScopeGlobal,
				AssignedAt: p.CreatedAt,
				IsActive:   true,
				Synthetic:  true,
			})
		}
	}

	return assignments, nil
}

// CleanupExpiredRoles deactivates every assignment whose validity window has
// passed. Run periodically; queries already exclude expired assignments, so
// the sweep only settles stored state.
func (s *RoleStoreImpl) CleanupExpiredRoles(ctx context.Context) (int64, error) {
	count, err := s.Repo.DeactivateExpired(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		_ = s.Audit.LogChange(ctx, common_models.AuditActionSweep, "roles", "", map[string]common_models.Change{
			"deactivated": {New: count},
		})
		s.Logger.Info("expired role assignments deactivated", zap.Int64("count", count))
	}
	return count, nil
}

// validateRoleType accepts built-in types and custom roles belonging to the
// assigning tenant. A custom role from another tenant is as unknown as a
// missing one.
func (s *RoleStoreImpl) validateRoleType(ctx context.Context, rt RoleType, tenantOID primitive.ObjectID) error {
	if rt.IsBuiltin() {
		return nil
	}
	if id, ok := rt.CustomRoleID(); ok {
		custom, err := s.CustomRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if custom == nil || custom.TenantID != tenantOID {
			return ErrUnknownRole
		}
		return nil
	}
	return ErrUnknownRole
}

// CustomRoleService manages tenant-defined roles.
type CustomRoleService interface {
	Create(ctx context.Context, role *CustomRole) (*CustomRole, error)
	List(ctx context.Context) ([]CustomRole, error)
	Update(ctx context.Context, id string, role *CustomRole) (*CustomRole, error)
	Delete(ctx context.Context, id string) error
}

type CustomRoleServiceImpl struct {
	Repo  CustomRoleRepository
	Audit audit.AuditService
}

func NewCustomRoleService(repo CustomRoleRepository, auditSvc audit.AuditService) CustomRoleService {
	return &CustomRoleServiceImpl{Repo: repo, Audit: auditSvc}
}

func (s *CustomRoleServiceImpl) Create(ctx context.Context, role *CustomRole) (*CustomRole, error) {
	tenantID, _ := ctx.Value(common_models.TenantIDKey).(string)
	oid, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant context missing")
	}
	role.TenantID = oid

	saved, err := s.Repo.Create(ctx, role)
	if err != nil {
		return nil, err
	}
	_ = s.Audit.LogChange(ctx, common_models.AuditActionCreate, "custom_roles", saved.ID.Hex(), map[string]common_models.Change{
		"name": {New: saved.Name},
	})
	return saved, nil
}

func (s *CustomRoleServiceImpl) List(ctx context.Context) ([]CustomRole, error) {
	tenantID, _ := ctx.Value(common_models.TenantIDKey).(string)
	oid, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant context missing")
	}
	return s.Repo.FindByTenant(ctx, oid)
}

func (s *CustomRoleServiceImpl) Update(ctx context.Context, id string, role *CustomRole) (*CustomRole, error) {
	saved, err := s.Repo.Update(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, ErrUnknownRole
	}
	_ = s.Audit.LogChange(ctx, common_models.AuditActionUpdate, "custom_roles", id, map[string]common_models.Change{
		"name": {New: saved.Name},
	})
	return saved, nil
}

func (s *CustomRoleServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	_ = s.Audit.LogChange(ctx, common_models.AuditActionDelete, "custom_roles", id, nil)
	return nil
}
