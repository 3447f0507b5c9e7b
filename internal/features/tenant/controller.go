package tenant

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type TenantController struct {
	TenantService TenantService
	Validator     *validator.Validate
}

func NewTenantController(tenantService TenantService) *TenantController {
	return &TenantController{
		TenantService: tenantService,
		Validator:     validator.New(),
	}
}

// GetCurrent godoc
// @Summary      Get the current tenant
// @Description  Returns the tenant the request was resolved to
// @Tags         tenants
// @Produce      json
// @Success      200  {object} Tenant
// @Failure      404  {string} string "Tenant not found or inactive"
// @Router       /api/tenants/current [get]
func (ctrl *TenantController) GetCurrent(c *fiber.Ctx) error {
	t, err := ctrl.TenantService.GetCurrent(c.UserContext())
	if err != nil {
		if err == ErrNoTenant {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Tenant not found or inactive",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(t)
}

// ListTenants godoc
// @Summary      List active tenants
// @Tags         tenants
// @Produce      json
// @Success      200  {array} Tenant
// @Router       /api/global-admin/tenants [get]
func (ctrl *TenantController) ListTenants(c *fiber.Ctx) error {
	tenants, err := ctrl.TenantService.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(tenants)
}

// CreateTenant godoc
// @Summary      Provision a new tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Success      201  {object} Tenant
// @Router       /api/global-admin/tenants [post]
func (ctrl *TenantController) CreateTenant(c *fiber.Ctx) error {
	var in struct {
		Name   string `json:"name" validate:"required,min=2"`
		Slug   string `json:"slug"`
		Domain string `json:"domain"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	t, err := ctrl.TenantService.Create(c.UserContext(), &Tenant{
		Name:   in.Name,
		Slug:   in.Slug,
		Domain: in.Domain,
	})
	if err != nil {
		if err == ErrSlugTaken {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}
