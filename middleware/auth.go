package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tutor-marketplace/utils"
)

const (
	LocalUserID    = "user_id"
	LocalUserRoles = "user_roles"
	LocalLocale    = "locale"
)

// UserContextMiddleware reads the identity the gateway forwards in X-User-ID and
// X-User-Roles, and the request locale from Accept-Language.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalLocale, utils.LocaleFromHeader(c.Get(fiber.HeaderAcceptLanguage)))

		rawID := strings.TrimSpace(c.Get("X-User-ID"))
		if rawID == "" {
			return c.Next()
		}
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || id == 0 {
			utils.Logger.Warn("[USER_CTX] malformed X-User-ID", zap.String("value", rawID), zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid X-User-ID",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(LocalUserID, uint(id))
		c.Locals(LocalUserRoles, roles)
		return c.Next()
	}
}

// RequireUser rejects requests without a user identity.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through the gateway with auth context",
			})
		}
		return c.Next()
	}
}

// RequireRole lets the request through when the user holds any of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !HasRole(c, roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role",
				"cause": "requires one of: " + strings.Join(roles, ", "),
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

func Roles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(LocalUserRoles).([]string)
	return roles
}

func HasRole(c *fiber.Ctx, roles ...string) bool {
	for _, have := range Roles(c) {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func Locale(c *fiber.Ctx) string {
	if l, ok := c.Locals(LocalLocale).(string); ok && l != "" {
		return l
	}
	return utils.LocaleEn
}
