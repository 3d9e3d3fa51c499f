package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/utils"
	"gorm.io/gorm"
)

// CalendarHandler serves the month view and migraine-day markers.
type CalendarHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(db *gorm.DB, cfg *config.Config) *CalendarHandler {
	return &CalendarHandler{DB: db, Cfg: cfg}
}

type markerRequest struct {
	Date          string `json:"date"`
	IsMigraineDay *bool  `json:"isMigraineDay"`
	Severity      *int   `json:"severity,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// GetCalendar handles GET /api/calendar
// @Summary Month view of data coverage and migraine days
// @Tags Calendar
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {array} services.CalendarDay
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /calendar [get]
func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	year := c.QueryInt("year", 0)
	month := c.QueryInt("month", 0)
	if year < 1970 || month < 1 || month > 12 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "year and month query parameters are required")
	}

	days, err := services.MonthView(h.DB, userID, year, time.Month(month), h.Cfg.DayLocation)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(days)
}

// SetMigraineDay handles POST /api/calendar/migraine-day
// @Summary Create or replace an explicit migraine-day marker
// @Tags Calendar
// @Accept json
// @Produce json
// @Param body body markerRequest true "Marker"
// @Success 200 {object} models.MigraineDayMarker
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /calendar/migraine-day [post]
func (h *CalendarHandler) SetMigraineDay(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	var req markerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "invalid JSON body")
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, h.Cfg.DayLocation)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "date must be YYYY-MM-DD")
	}
	if req.Severity != nil && (*req.Severity < 1 || *req.Severity > 10) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "severity must be between 1 and 10")
	}

	isMigraineDay := true
	if req.IsMigraineDay != nil {
		isMigraineDay = *req.IsMigraineDay
	}

	if err := services.EnsureUser(h.DB, userID); err != nil {
		return err
	}
	marker, err := services.UpsertDayMarker(h.DB, userID, date, isMigraineDay, req.Severity, req.Notes, h.Cfg.DayLocation)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(marker)
}

// DeleteMigraineDay handles DELETE /api/calendar/migraine-day/:date
// @Summary Remove an explicit migraine-day marker
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /calendar/migraine-day/{date} [delete]
func (h *CalendarHandler) DeleteMigraineDay(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "", err.Error())
	}

	date, err := time.ParseInLocation("2006-01-02", c.Params("date"), h.Cfg.DayLocation)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "", "date must be YYYY-MM-DD")
	}

	if err := services.DeleteDayMarker(h.DB, userID, date, h.Cfg.DayLocation); err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "no marker on that date")
		}
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
