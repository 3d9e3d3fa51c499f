package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/utils"
	"gorm.io/gorm"
)

// WearableHandler serves the CSV upload and sample endpoints.
type WearableHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewWearableHandler creates a new wearable data handler
func NewWearableHandler(db *gorm.DB, cfg *config.Config) *WearableHandler {
	return &WearableHandler{DB: db, Cfg: cfg}
}

// UploadWearableData handles POST /api/wearable/upload
// @Summary Upload a wearable CSV export
// @Description Ingest a CSV export from a wearable platform; rows upsert on (user, timestamp)
// @Tags Wearable
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} models.UploadSession
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 413 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/upload [post]
func (h *WearableHandler) UploadWearableData(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "multipart field 'file' is required")
	}
	if fileHeader.Size > h.Cfg.MaxUploadBytes {
		return utils.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "",
			fmt.Sprintf("file exceeds the %d byte upload limit", h.Cfg.MaxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "unable to read uploaded file")
	}
	defer file.Close()

	session, err := services.IngestCSV(c.Context(), h.DB, userID, fileHeader.Filename, file, fileHeader.Size, h.Cfg.DayLocation)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(session)
}

// GetWearableData handles GET /api/wearable
// @Summary List wearable samples
// @Description List samples in a time window, oldest first
// @Tags Wearable
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD or RFC3339)"
// @Param endDate query string false "Window end (YYYY-MM-DD or RFC3339)"
// @Param limit query int false "Maximum rows returned"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable [get]
func (h *WearableHandler) GetWearableData(c *fiber.Ctx) error {
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
	limit := c.QueryInt("limit", 0)

	var fromStr, toStr *string
	if from != nil {
		s := from.Format("2006-01-02 15:04:05")
		fromStr = &s
	}
	if to != nil {
		s := to.Format("2006-01-02 15:04:05")
		toStr = &s
	}

	samples, total, err := services.ListSamples(h.DB, userID, fromStr, toStr, limit)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    samples,
	})
}

// GetStatistics handles GET /api/wearable/statistics
// @Summary Wearable sample statistics
// @Description Totals, channel averages, and date range over a sample window
// @Tags Wearable
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD or RFC3339)"
// @Param endDate query string false "Window end (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} services.WearableStatistics
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/statistics [get]
func (h *WearableHandler) GetStatistics(c *fiber.Ctx) error {
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

	stats, err := services.ComputeStatistics(h.DB, userID, from, to)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// GetUploadSessions handles GET /api/wearable/uploads
// @Summary List upload sessions
// @Tags Wearable
// @Produce json
// @Success 200 {array} models.UploadSession
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/uploads [get]
func (h *WearableHandler) GetUploadSessions(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	sessions, err := services.ListUploadSessions(h.DB, userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sessions)
}

// GetUploadSession handles GET /api/wearable/uploads/:id
// @Summary Get one upload session
// @Tags Wearable
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} models.UploadSession
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/uploads/{id} [get]
func (h *WearableHandler) GetUploadSession(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid session id")
	}

	session, err := services.GetUploadSession(h.DB, userID, sessionID)
	if err == gorm.ErrRecordNotFound {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("upload session %d not found", sessionID))
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(session)
}

// DeleteUploadSession handles DELETE /api/wearable/uploads/:id
// @Summary Delete an upload session and its samples
// @Tags Wearable
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/uploads/{id} [delete]
func (h *WearableHandler) DeleteUploadSession(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid session id")
	}

	deleted, err := services.DeleteUploadSession(h.DB, userID, sessionID)
	if err == gorm.ErrRecordNotFound {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("upload session %d not found", sessionID))
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"deletedSamples": deleted,
	})
}

// DeleteAllUploads handles DELETE /api/wearable/uploads
// @Summary Delete every upload session and sample for the user
// @Tags Wearable
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/uploads [delete]
func (h *WearableHandler) DeleteAllUploads(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	sessions, samples, err := services.DeleteAllUploads(h.DB, userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":         true,
		"deletedSessions": sessions,
		"deletedSamples":  samples,
	})
}

// CleanupOrphaned handles POST /api/wearable/cleanup-orphaned
// @Summary Delete samples with no owning upload session
// @Tags Wearable
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /wearable/cleanup-orphaned [post]
func (h *WearableHandler) CleanupOrphaned(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	deleted, err := services.CleanupOrphanedSamples(h.DB, userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"deletedSamples": deleted,
	})
}
