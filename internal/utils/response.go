package utils

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse sends the standard error envelope.
func ErrorResponse(c *fiber.Ctx, status int, code, message string) error {
	body := fiber.Map{
		"success": false,
		"message": message,
		"status":  status,
	}
	if code != "" {
		body["code"] = code
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set("Retry-After", "5")
	}
	return c.Status(status).JSON(body)
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}
