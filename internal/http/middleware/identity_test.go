package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(Identity())

	app.Get("/whoami", func(c *fiber.Ctx) error {
		userID, _ := c.Locals(IdentityUserIDKey).(string)
		email, _ := c.Locals(IdentityEmailKey).(string)
		return c.JSON(fiber.Map{"user_id": userID, "email": email})
	})

	t.Run("headers populate locals", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("X-User-Email", "owner@example.com")

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "user-1", body["user_id"])
		assert.Equal(t, "owner@example.com", body["email"])
	})

	t.Run("absent headers stay anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/whoami", nil)

		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Empty(t, body["user_id"])
		assert.Empty(t, body["email"])
	})
}
