package audit

import (
	"github.com/gofiber/fiber/v2"

	"go-bms/internal/config"
	"go-bms/internal/middleware"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
	checker    middleware.PermissionChecker
}

func NewAuditApi(controller *AuditController, config *config.Config, checker middleware.PermissionChecker) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
		checker:    checker,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	audit.Get("/", middleware.RequirePermission(h.checker, "ADMIN_PANEL"), h.controller.ListLogs)
}
