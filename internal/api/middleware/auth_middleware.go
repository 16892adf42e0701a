package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
)

const UserIDKey = "user_id"

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware requires a bearer access token and stores its subject in
// Locals under UserIDKey.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, strings.TrimSpace(tokenString), utils.TokenTypeAccess)
		if err != nil {
			slog.Info("token validation failed", "error", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(UserIDKey, claims.Subject)
		return c.Next()
	}
}
