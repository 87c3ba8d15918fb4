package middleware

import "github.com/gofiber/fiber/v2"

// Noop passes the request through untouched. It stands in for middlewares
// that are disabled by configuration so the chain shape stays the same.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
