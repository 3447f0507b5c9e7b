package record

import (
	"github.com/gofiber/fiber/v2"

	"go-bms/internal/config"
	"go-bms/internal/middleware"
)

type RecordApi struct {
	controller *RecordController
	config     *config.Config
}

func NewRecordApi(controller *RecordController, cfg *config.Config) *RecordApi {
	return &RecordApi{
		controller: controller,
		config:     cfg,
	}
}

// Setup registers record routes. Authorization happens in the service layer,
// which narrows results to the caller's reach instead of a flat route gate.
func (h *RecordApi) Setup(app *fiber.App) {
	records := app.Group("/api/records", middleware.AuthMiddleware(h.config.SkipAuth))

	records.Get("/:entity", h.controller.ListRecords)
	records.Get("/:entity/:id", h.controller.GetRecord)
}
