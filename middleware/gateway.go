package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tutor-marketplace/utils"
)

// GatewayAuthMiddleware accepts only requests carrying the gateway's service token,
// as "Bearer <token>" or the raw value.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			utils.Logger.Warn("[GATEWAY_AUTH] missing Authorization header", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			utils.Logger.Warn("[GATEWAY_AUTH] invalid token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}

// ServiceTokenMiddleware guards server-to-server callbacks. The caller must send
// X-Service-Token matching expectedToken and must not carry an end-user identity.
// An empty expectedToken rejects every request.
func ServiceTokenMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) != 0 || c.Get("X-User-ID") != "" {
			utils.Logger.Warn("[SERVICE_AUTH] user identity on service route", zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "service endpoint",
			})
		}

		token := c.Get("X-Service-Token")
		if expectedToken == "" || token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			utils.Logger.Warn("[SERVICE_AUTH] invalid service token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}
