package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/config"
	"github.com/example/gerai/internal/models"
	"github.com/example/gerai/internal/utils"
)

const userContextKey = "currentUserID"

// SessionKeyHeader carries the opaque guest session key used to own an
// anonymous cart.
const SessionKeyHeader = "X-Session-Key"

// AuthMiddleware validates JWT tokens and loads the authenticated user ID into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := userIDFromHeader(c, cfg)
		if err != nil {
			return err
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// OptionalAuthMiddleware loads the user ID when a valid token is present and
// lets the request through either way. Cart and checkout endpoints use it so
// guests and users share one code path.
func OptionalAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "" {
			if userID, err := userIDFromHeader(c, cfg); err == nil {
				c.Locals(userContextKey, userID)
			}
		}
		return c.Next()
	}
}

// AdminMiddleware requires the authenticated user to hold the admin role.
// It must run after AuthMiddleware.
func AdminMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		if !user.IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}

		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetSessionKey returns the guest session key supplied by the client.
func GetSessionKey(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(SessionKeyHeader))
}

func userIDFromHeader(c *fiber.Ctx, cfg *config.Config) (uuid.UUID, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	userID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	return userID, nil
}
