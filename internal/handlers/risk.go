package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/utils"
	"gorm.io/gorm"
)

// RiskHandler serves the risk-prediction prompt and analysis endpoints.
type RiskHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
	LLM *services.LLMClient
}

// NewRiskHandler creates a new risk prediction handler
func NewRiskHandler(db *gorm.DB, cfg *config.Config) *RiskHandler {
	return &RiskHandler{DB: db, Cfg: cfg, LLM: services.NewLLMClient(cfg)}
}

type promptRequest struct {
	SimulatedData map[string]float64 `json:"simulatedData"`
}

// GetPrompt handles GET /api/risk-prediction/prompt
// @Summary Assemble the risk prompt from stored data
// @Tags RiskPrediction
// @Produce json
// @Success 200 {object} services.PromptBundle
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /risk-prediction/prompt [get]
func (h *RiskHandler) GetPrompt(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	bundle, err := services.AssemblePrompt(h.DB, userID, nil, time.Now(), h.Cfg.DayLocation)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(bundle)
}

// PostPrompt handles POST /api/risk-prediction/prompt
// @Summary Assemble the risk prompt with simulated current values
// @Tags RiskPrediction
// @Accept json
// @Produce json
// @Param body body promptRequest true "Simulated channel values keyed by canonical field name"
// @Success 200 {object} services.PromptBundle
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /risk-prediction/prompt [post]
func (h *RiskHandler) PostPrompt(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	var req promptRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid JSON body")
	}

	bundle, err := services.AssemblePrompt(h.DB, userID, req.SimulatedData, time.Now(), h.Cfg.DayLocation)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(bundle)
}

// GetData handles GET /api/risk-prediction/data
// @Summary Raw bundle the risk prompt is built from
// @Tags RiskPrediction
// @Produce json
// @Success 200 {object} services.RiskData
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /risk-prediction/data [get]
func (h *RiskHandler) GetData(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	data, err := services.LoadRiskData(h.DB, userID, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(data)
}

// Analyze handles POST /api/risk-prediction/analyze
// @Summary Run the full risk analysis pipeline
// @Description Assembles the prompt, queries the model endpoint, and parses the structured assessment
// @Tags RiskPrediction
// @Accept json
// @Produce json
// @Param body body promptRequest false "Optional simulated channel values"
// @Success 200 {object} services.RiskAssessment
// @Failure 502 {object} utils.ErrorResponseStruct
// @Failure 504 {object} utils.ErrorResponseStruct
// @Router /risk-prediction/analyze [post]
func (h *RiskHandler) Analyze(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	var req promptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid JSON body")
		}
	}

	bundle, err := services.AssemblePrompt(h.DB, userID, req.SimulatedData, time.Now(), h.Cfg.DayLocation)
	if err != nil {
		return err
	}

	answer, err := h.LLM.Complete(c.Context(), bundle.Prompt)
	if err != nil {
		return err
	}

	assessment := services.ParseRiskResponse(answer)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"assessment": assessment,
		"metadata":   bundle.Metadata,
	})
}
