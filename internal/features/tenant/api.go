package tenant

import (
	"go-bms/internal/config"
	"go-bms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TenantApi struct {
	controller *TenantController
	config     *config.Config
	checker    middleware.PermissionChecker
}

func NewTenantApi(controller *TenantController, cfg *config.Config, checker middleware.PermissionChecker) *TenantApi {
	return &TenantApi{
		controller: controller,
		config:     cfg,
		checker:    checker,
	}
}

// Setup registers tenant routes
func (h *TenantApi) Setup(app *fiber.App) {
	tenants := app.Group("/api/tenants", middleware.AuthMiddleware(h.config.SkipAuth))
	tenants.Get("/current", h.controller.GetCurrent)

	// Global administration surface, bypasses tenant resolution.
	admin := app.Group("/api/global-admin", middleware.AuthMiddleware(h.config.SkipAuth))
	admin.Get("/tenants", middleware.RequirePermission(h.checker, "ADMIN_PANEL"), h.controller.ListTenants)
	admin.Post("/tenants", middleware.RequirePermission(h.checker, "ADMIN_PANEL"), h.controller.CreateTenant)
}
