package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/user/cryptofolio/internal/auth"
	"github.com/user/cryptofolio/internal/models"
)

// Protected verifies the bearer token and stores the caller's identity in
// the request context.
func Protected(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "missing authorization header"})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid authorization header format"})
		}

		claims, err := auth.ValidateJWT(secret, parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid or expired token"})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireAdmin gates admin endpoints on the role claim. Must run after
// Protected.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok || role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "admin role required"})
		}
		return c.Next()
	}
}
