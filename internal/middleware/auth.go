package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/types"
)

// AuthUser validates the bearer token and stores the user id in context.
// The Authorizer client is initialized lazily on the first request so the
// service can start before the collaborator is up.
func AuthUser(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				return &types.CustomError{
					Status:  fiber.StatusServiceUnavailable,
					Code:    types.CodeResourceBusy,
					Message: "authorization service unavailable",
				}
			}
		}

		header := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header {
			return &types.CustomError{
				Status:  fiber.StatusUnauthorized,
				Code:    "UNAUTHORIZED",
				Message: "missing bearer token",
			}
		}

		userID, err := services.ValidateAccessToken(token)
		if err != nil {
			return &types.CustomError{
				Status:  fiber.StatusForbidden,
				Code:    "FORBIDDEN",
				Message: "invalid token",
			}
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id placed in context by AuthUser.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}
