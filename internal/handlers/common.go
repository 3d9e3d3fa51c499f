package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/middleware"
)

// parseTimeQuery reads an optional query parameter as either a calendar
// date or an RFC3339 timestamp in the given zone.
func parseTimeQuery(c *fiber.Ctx, name string, location *time.Location) (*time.Time, error) {
	raw := c.Query(name, "")
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, location); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid %s: %q, expected YYYY-MM-DD or RFC3339", name, raw)
}

// requireUserID pulls the authenticated user from the request context.
func requireUserID(c *fiber.Ctx) (string, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", fmt.Errorf("user not found in context")
	}
	return userID, nil
}
