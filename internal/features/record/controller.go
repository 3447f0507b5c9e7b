package record

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go-bms/pkg/utils"
)

type RecordController struct {
	Service RecordService
}

func NewRecordController(service RecordService) *RecordController {
	return &RecordController{Service: service}
}

func personIDFrom(c *fiber.Ctx) string {
	if claims, ok := c.UserContext().Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims.PersonID
	}
	return ""
}

// ListRecords godoc
// @Summary List records of an entity visible to the caller
// @Router /api/records/{entity} [get]
func (ctrl *RecordController) ListRecords(c *fiber.Ctx) error {
	personID := personIDFrom(c)
	if personID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	records, err := ctrl.Service.ListRecords(c.UserContext(), personID, c.Params("entity"))
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      "Insufficient permissions",
				"permission": "VIEW_" + c.Params("entity"),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	return c.JSON(records)
}

// GetRecord godoc
// @Summary Fetch one record with field-level redaction applied
// @Router /api/records/{entity}/{id} [get]
func (ctrl *RecordController) GetRecord(c *fiber.Ctx) error {
	personID := personIDFrom(c)
	if personID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	data, err := ctrl.Service.GetRecord(c.UserContext(), personID, c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      "Insufficient permissions",
				"permission": "VIEW_" + c.Params("entity"),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	if data == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
	}

	return c.JSON(data)
}
