package permission

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	common_models "go-bms/internal/common/models"
	"go-bms/pkg/utils"
)

type PermissionController struct {
	Evaluator Evaluator
	Validator *validator.Validate
}

func NewPermissionController(evaluator Evaluator) *PermissionController {
	return &PermissionController{
		Evaluator: evaluator,
		Validator: validator.New(),
	}
}

func claimsFrom(c *fiber.Ctx) *utils.UserClaims {
	claims, _ := c.UserContext().Value(utils.UserClaimsKey).(*utils.UserClaims)
	return claims
}

// MyPermissions godoc
// @Summary List the caller's effective permissions
// @Router /api/permissions/my [get]
func (ctrl *PermissionController) MyPermissions(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	tenantID, _ := c.UserContext().Value(common_models.TenantIDKey).(string)
	perms, err := ctrl.Evaluator.GetUserPermissions(c.UserContext(), claims.PersonID, tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	return c.JSON(fiber.Map{"permissions": perms})
}

// CheckPermission godoc
// @Summary Evaluate a permission for the caller
// @Router /api/permissions/check [post]
func (ctrl *PermissionController) CheckPermission(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var in struct {
		Permission string `json:"permission" validate:"required"`
		CompanyID  string `json:"company_id"`
		ResourceID string `json:"resource_id"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tenantID, _ := c.UserContext().Value(common_models.TenantIDKey).(string)
	granted := ctrl.Evaluator.HasPermission(c.UserContext(), claims.PersonID, in.Permission, Context{
		TenantID:   tenantID,
		CompanyID:  in.CompanyID,
		ResourceID: in.ResourceID,
	})

	return c.JSON(fiber.Map{"permission": in.Permission, "granted": granted})
}

// PersonPermissions godoc
// @Summary List another person's effective permissions
// @Router /api/permissions/person/{id} [get]
func (ctrl *PermissionController) PersonPermissions(c *fiber.Ctx) error {
	tenantID, _ := c.UserContext().Value(common_models.TenantIDKey).(string)
	perms, err := ctrl.Evaluator.GetUserPermissions(c.UserContext(), c.Params("id"), tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"permissions": perms})
}
