package middleware

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// IdentityUserIDKey and IdentityEmailKey are the Locals keys holding the
	// caller identity resolved from the auth headers.
	IdentityUserIDKey = "auth_user_id"
	IdentityEmailKey  = "auth_user_email"

	headerUserID = "X-User-ID"
	headerEmail  = "X-User-Email"
)

// Identity resolves the caller from the trusted auth headers set by the
// fronting auth layer. Absent headers leave the request anonymous; routes
// decide for themselves whether that is acceptable.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v := c.Get(headerUserID); v != "" {
			c.Locals(IdentityUserIDKey, v)
		}
		if v := c.Get(headerEmail); v != "" {
			c.Locals(IdentityEmailKey, v)
		}
		return c.Next()
	}
}
