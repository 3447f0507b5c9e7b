package middleware

import (
	"context"

	"go-bms/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// PermissionChecker is the slice of the permission evaluator the middleware
// needs. Satisfied by permission.Evaluator via an adapter in main.
type PermissionChecker interface {
	Check(ctx context.Context, personID string, permission string) bool
}

// RequirePermission denies the request unless the authenticated person holds
// the named permission in the current tenant. The check is fail-closed: any
// evaluation problem reads as deny.
func RequirePermission(checker PermissionChecker, requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !checker.Check(c.UserContext(), claims.PersonID, requiredPermission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      "Insufficient permissions",
				"permission": requiredPermission,
			})
		}

		return c.Next()
	}
}
