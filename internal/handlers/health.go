package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"gorm.io/gorm"
)

// HealthHandler serves the public health probe.
type HealthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{DB: db, Cfg: cfg}
}

// Health handles GET /api/health
// @Summary Service health probe
// @Description Reports database and authorizer connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
		c.Set("Retry-After", "5")
	}
	return c.Status(status).JSON(result)
}
