package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/utils"
	"gorm.io/gorm"
)

// SummaryHandler serves the daily summary and correlation endpoints.
type SummaryHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(db *gorm.DB, cfg *config.Config) *SummaryHandler {
	return &SummaryHandler{DB: db, Cfg: cfg}
}

type processRequest struct {
	ForceReprocess bool `json:"forceReprocess"`
}

// GetSummaries handles GET /api/summary
// @Summary List daily summary indicators
// @Tags Summary
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD or RFC3339)"
// @Param endDate query string false "Window end (YYYY-MM-DD or RFC3339)"
// @Param limit query int false "Maximum rows returned"
// @Success 200 {array} models.SummaryIndicator
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /summary [get]
func (h *SummaryHandler) GetSummaries(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	from, err := parseTimeQuery(c, "startDate", h.Cfg.DayLocation)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", err.Error())
	}
	to, err := parseTimeQuery(c, "endDate", h.Cfg.DayLocation)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", err.Error())
	}

	indicators, err := services.ListSummaries(h.DB, userID, from, to, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(indicators)
}

// ProcessSummaries handles POST /api/summary/process
// @Summary Recompute daily summaries and correlation patterns
// @Description Aggregates every day with samples, then rebuilds correlation patterns
// @Tags Summary
// @Accept json
// @Produce json
// @Param body body processRequest false "Processing options"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /summary/process [post]
func (h *SummaryHandler) ProcessSummaries(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	var req processRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid JSON body")
		}
	}

	processed, dayErrors, err := services.ProcessSummaries(h.DB, userID, h.Cfg.DayLocation, req.ForceReprocess)
	if err != nil {
		return err
	}

	patterns, err := services.RecomputeCorrelations(h.DB, userID, h.Cfg.DayLocation)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"processedDays":  processed,
		"dayErrors":      dayErrors,
		"patternsActive": len(patterns),
	})
}

// GetCorrelations handles GET /api/summary/correlations
// @Summary List identified migraine correlation patterns
// @Tags Summary
// @Produce json
// @Success 200 {array} models.MigraineCorrelation
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /summary/correlations [get]
func (h *SummaryHandler) GetCorrelations(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	patterns, err := services.ActiveCorrelations(h.DB, userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(patterns)
}
