package permission

import (
	"github.com/gofiber/fiber/v2"

	"go-bms/internal/config"
	"go-bms/internal/middleware"
)

type PermissionApi struct {
	controller *PermissionController
	config     *config.Config
	checker    middleware.PermissionChecker
}

func NewPermissionApi(controller *PermissionController, cfg *config.Config, checker middleware.PermissionChecker) *PermissionApi {
	return &PermissionApi{
		controller: controller,
		config:     cfg,
		checker:    checker,
	}
}

// Setup registers permission routes
func (h *PermissionApi) Setup(app *fiber.App) {
	perms := app.Group("/api/permissions", middleware.AuthMiddleware(h.config.SkipAuth))

	perms.Get("/my", h.controller.MyPermissions)
	perms.Post("/check", h.controller.CheckPermission)
	perms.Get("/person/:id", middleware.RequirePermission(h.checker, "ROLE_MANAGEMENT"), h.controller.PersonPermissions)
}
