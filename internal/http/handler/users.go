package handler

import (
	"github.com/gofiber/fiber/v2"

	"drivebox/internal/service"
)

// SearchUsers handles GET /api/users/search?q=. The share picker tolerates
// failures, so this always answers 200 with a list.
func SearchUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users := svc.Search(c.UserContext(), identityFromCtx(c), c.Query("q"))
		return c.JSON(users)
	}
}
