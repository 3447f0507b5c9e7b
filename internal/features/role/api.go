package role

import (
	"github.com/gofiber/fiber/v2"

	"go-bms/internal/config"
	"go-bms/internal/middleware"
)

type RoleApi struct {
	controller *RoleController
	config     *config.Config
	checker    middleware.PermissionChecker
}

func NewRoleApi(controller *RoleController, cfg *config.Config, checker middleware.PermissionChecker) *RoleApi {
	return &RoleApi{
		controller: controller,
		config:     cfg,
		checker:    checker,
	}
}

// Setup registers role routes
func (h *RoleApi) Setup(app *fiber.App) {
	roles := app.Group("/api/roles", middleware.AuthMiddleware(h.config.SkipAuth))

	roles.Post("/assign", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.AssignRole)
	roles.Post("/remove", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.RemoveRole)
	roles.Get("/person/:id", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.GetPersonRoles)
	roles.Post("/cleanup", middleware.RequirePermission(h.checker, "ADMIN_PANEL"), h.controller.CleanupExpired)

	custom := roles.Group("/custom")
	custom.Get("/", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.ListCustomRoles)
	custom.Post("/", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.CreateCustomRole)
	custom.Put("/:id", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.UpdateCustomRole)
	custom.Delete("/:id", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.DeleteCustomRole)
}
