package auth

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
)

// Middleware validates the session token (cookie or bearer header) and
// stores the claims in request locals. This is a JSON API: failures get
// a 401 body, never a redirect.
func Middleware(db *sql.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies("token")
		if tokenStr == "" {
			if h := c.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
				tokenStr = h[7:]
			}
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		claims, err := ValidateToken(tokenStr, secret)
		if err != nil {
			c.ClearCookie("token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
		}
		if IsRevoked(db, claims.ID) {
			c.ClearCookie("token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session has been revoked"})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)
		c.Locals("jti", claims.ID)
		c.Locals("token_exp", claims.ExpiresAt.Time)
		return c.Next()
	}
}

// RequireAdmin gates administrative routes. Must run after Middleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals("role").(string); role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "administrator access required"})
		}
		return c.Next()
	}
}
