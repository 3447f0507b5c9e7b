package role

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	common_models "go-bms/internal/common/models"
	"go-bms/pkg/utils"
)

type RoleController struct {
	Store     RoleStore
	Custom    CustomRoleService
	Validator *validator.Validate
}

func NewRoleController(store RoleStore, custom CustomRoleService) *RoleController {
	return &RoleController{
		Store:     store,
		Custom:    custom,
		Validator: validator.New(),
	}
}

func tenantIDFrom(c *fiber.Ctx) string {
	tenantID, _ := c.UserContext().Value(common_models.TenantIDKey).(string)
	return tenantID
}

// AssignRole godoc
// @Summary Assign a role to a person
// @Router /api/roles/assign [post]
func (ctrl *RoleController) AssignRole(c *fiber.Ctx) error {
	var in AssignInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if claims, ok := c.UserContext().Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		in.AssignedBy = claims.PersonID
	}

	assignment, err := ctrl.Store.AssignRole(c.UserContext(), tenantIDFrom(c), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownRole), errors.Is(err, ErrPersonNotInTenant):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// RemoveRole godoc
// @Summary Deactivate a role assignment
// @Router /api/roles/remove [post]
func (ctrl *RoleController) RemoveRole(c *fiber.Ctx) error {
	var in struct {
		PersonID  string  `json:"person_id" validate:"required"`
		RoleType  string  `json:"role_type" validate:"required"`
		CompanyID *string `json:"company_id,omitempty"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := ctrl.Store.RemoveRole(c.UserContext(), tenantIDFrom(c), in.PersonID, RoleType(in.RoleType), in.CompanyID)
	if err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"removed": true})
}

// GetPersonRoles godoc
// @Summary List a person's active role assignments
// @Router /api/roles/person/{id} [get]
func (ctrl *RoleController) GetPersonRoles(c *fiber.Ctx) error {
	assignments, err := ctrl.Store.GetUserRoles(c.UserContext(), tenantIDFrom(c), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(assignments)
}

// CleanupExpired godoc
// @Summary Deactivate expired role assignments now
// @Router /api/roles/cleanup [post]
func (ctrl *RoleController) CleanupExpired(c *fiber.Ctx) error {
	count, err := ctrl.Store.CleanupExpiredRoles(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deactivated": count})
}

type customRoleInput struct {
	Name        string                 `json:"name" validate:"required,min=2"`
	Description string                 `json:"description"`
	Permissions []CustomRolePermission `json:"permissions"`
}

// CreateCustomRole godoc
func (ctrl *RoleController) CreateCustomRole(c *fiber.Ctx) error {
	var in customRoleInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	saved, err := ctrl.Custom.Create(c.UserContext(), &CustomRole{
		Name:        in.Name,
		Description: in.Description,
		Permissions: in.Permissions,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// ListCustomRoles godoc
func (ctrl *RoleController) ListCustomRoles(c *fiber.Ctx) error {
	roles, err := ctrl.Custom.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(roles)
}

// UpdateCustomRole godoc
func (ctrl *RoleController) UpdateCustomRole(c *fiber.Ctx) error {
	var in customRoleInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	saved, err := ctrl.Custom.Update(c.UserContext(), c.Params("id"), &CustomRole{
		Name:        in.Name,
		Description: in.Description,
		Permissions: in.Permissions,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownRole) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Custom role not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(saved)
}

// DeleteCustomRole godoc
func (ctrl *RoleController) DeleteCustomRole(c *fiber.Ctx) error {
	if err := ctrl.Custom.Delete(c.UserContext(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
