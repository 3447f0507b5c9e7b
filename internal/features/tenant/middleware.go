package tenant

import (
	"context"

	"go-bms/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys readable by the route layer after successful resolution.
const (
	LocalTenant   = "current_tenant"
	LocalTenantID = "current_tenant_id"
)

// Middleware runs tenant resolution for every request and binds the result
// into both fiber Locals and the user context, so repositories downstream
// scope their queries to the resolved tenant. Requests that cannot be bound
// to a tenant are rejected before any handler runs.
func Middleware(resolver Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := resolver.Resolve(
			c.UserContext(),
			c.Hostname(),
			c.Get("X-Tenant-ID"),
			c.Query("tenantId"),
			c.Path(),
		)
		if err != nil {
			if err == ErrNoTenant {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Tenant not found or inactive",
					"host":  c.Hostname(),
					"path":  c.Path(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		}

		if t == nil {
			// Path is on the public allow-list; no tenant context needed.
			return c.Next()
		}

		c.Locals(LocalTenant, t)
		c.Locals(LocalTenantID, t.ID.Hex())

		ctx := context.WithValue(c.UserContext(), models.TenantIDKey, t.ID.Hex())
		ctx = context.WithValue(ctx, models.TenantKey, t)
		c.SetUserContext(ctx)

		return c.Next()
	}
}
