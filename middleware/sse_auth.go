package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tutor-marketplace/services"
	"tutor-marketplace/utils"
)

// SSEAuthMiddleware authenticates EventSource clients, which cannot send headers, from
// the `token` and `device_id` query params through the auth service. Identity headers
// are ignored and replaced by the validated user.
//
// Usage:
//
//	app.Get("/me/notifications/stream", middleware.SSEAuthMiddleware(authClient), handler)
func SSEAuthMiddleware(authClient *services.AuthServiceClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(c.Query("token"))
		deviceID := strings.TrimSpace(c.Query("device_id"))
		if accessToken == "" || deviceID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token or device_id in query",
			})
		}
		if authClient == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "stream authentication unavailable"})
		}

		resp, err := authClient.ValidateToken(c.UserContext(), accessToken, deviceID)
		if err != nil {
			utils.Logger.Warn("[SSE_AUTH] validation failed", zap.String("device_id", deviceID), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		id, err := resp.ID()
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "cause": err.Error()})
		}

		c.Locals(LocalUserID, id)
		c.Locals(LocalUserRoles, resp.Roles)
		c.Locals(LocalLocale, utils.LocaleFromHeader(c.Get(fiber.HeaderAcceptLanguage)))
		return c.Next()
	}
}
