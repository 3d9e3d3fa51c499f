package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/handlers"
	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUser = "22222222-2222-2222-2222-222222222222"

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.MigraineEntry{},
		&models.MigraineDayMarker{},
		&models.UploadSession{},
		&models.WearableSample{},
		&models.SummaryIndicator{},
		&models.MigraineCorrelation{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		DayZone:        "UTC",
		DayLocation:    time.UTC,
		MaxUploadBytes: 20 << 20,
	}
}

// setupApp builds a Fiber app with the API routes and a stubbed
// authenticated user.
func setupApp(db *gorm.DB) *fiber.App {
	cfg := testConfig()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var custom *types.CustomError
			if errors.As(err, &custom) {
				return c.Status(custom.Status).JSON(fiber.Map{
					"success": false,
					"status":  custom.Status,
					"code":    custom.Code,
					"message": custom.Message,
				})
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", testUser)
		return c.Next()
	})

	wearable := handlers.NewWearableHandler(db, cfg)
	summary := handlers.NewSummaryHandler(db, cfg)
	calendar := handlers.NewCalendarHandler(db, cfg)

	app.Post("/api/wearable/upload", wearable.UploadWearableData)
	app.Get("/api/wearable/statistics", wearable.GetStatistics)
	app.Get("/api/wearable/uploads/:id", wearable.GetUploadSession)
	app.Delete("/api/wearable/uploads/:id", wearable.DeleteUploadSession)
	app.Get("/api/wearable/uploads", wearable.GetUploadSessions)
	app.Get("/api/wearable", wearable.GetWearableData)
	app.Post("/api/summary/process", summary.ProcessSummaries)
	app.Get("/api/summary", summary.GetSummaries)
	app.Get("/api/calendar", calendar.GetCalendar)
	app.Post("/api/calendar/migraine-day", calendar.SetMigraineDay)
	app.Delete("/api/calendar/migraine-day/:date", calendar.DeleteMigraineDay)

	return app
}

func uploadCSV(t *testing.T, app *fiber.App, csvData string) map[string]interface{} {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "export.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvData)); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/wearable/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return result
}

// TestUploadListRoundTrip uploads a CSV and reads it back through the
// sample listing.
func TestUploadListRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	result := uploadCSV(t, app, "timestamp,hrv,stress\n"+
		"2025-01-05T08:00:00Z,42,55\n"+
		"2025-01-05T16:00:00Z,38,60\n")

	if result["status"] != "completed" {
		t.Errorf("Expected completed session, got %v", result["status"])
	}

	req := httptest.NewRequest("GET", "/api/wearable", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var listing map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if listing["count"] != float64(2) {
		t.Errorf("Expected 2 samples, got %v", listing["count"])
	}
}

// TestUploadEmptyFileRejected verifies the envelope for an empty upload.
func TestUploadEmptyFileRejected(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if _, err := writer.CreateFormFile("file", "empty.csv"); err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/wearable/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["success"] != false {
		t.Error("Expected success=false in envelope")
	}
	if result["code"] != types.CodeEmptyFile {
		t.Errorf("Expected code %s, got %v", types.CodeEmptyFile, result["code"])
	}
}

// TestUploadSizeLimit verifies files over the configured byte limit are
// rejected with 413 before any ingest work happens.
func TestUploadSizeLimit(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	cfg.MaxUploadBytes = 16

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", testUser)
		return c.Next()
	})
	wearable := handlers.NewWearableHandler(db, cfg)
	app.Post("/api/wearable/upload", wearable.UploadWearableData)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "big.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("timestamp,hrv\n2025-01-05T08:00:00Z,42\n")); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/api/wearable/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status 413, got %d", resp.StatusCode)
	}

	var sessions int64
	db.Model(&models.UploadSession{}).Count(&sessions)
	if sessions != 0 {
		t.Errorf("Expected no session rows, got %d", sessions)
	}
}

// TestDeleteUploadCascades verifies deleting a session removes its samples.
func TestDeleteUploadCascades(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	result := uploadCSV(t, app, "timestamp,hrv\n2025-01-05T08:00:00Z,42\n")
	sessionID := int(result["id"].(float64))

	req := httptest.NewRequest("DELETE", "/api/wearable/uploads/"+strconv.Itoa(sessionID), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var samples int64
	db.Model(&models.WearableSample{}).Where("user_id = ?", testUser).Count(&samples)
	if samples != 0 {
		t.Errorf("Expected samples cascade-deleted, got %d", samples)
	}

	// Deleting again reports not found.
	req = httptest.NewRequest("DELETE", "/api/wearable/uploads/"+strconv.Itoa(sessionID), nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

// TestSummaryProcessFlow uploads data, processes summaries, and lists them.
func TestSummaryProcessFlow(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	uploadCSV(t, app, "timestamp,hrv\n"+
		"2025-01-05T00:00:00Z,30\n"+
		"2025-01-05T08:00:00Z,40\n"+
		"2025-01-05T16:00:00Z,50\n")

	req := httptest.NewRequest("POST", "/api/summary/process", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["processedDays"] != float64(1) {
		t.Errorf("Expected 1 processed day, got %v", result["processedDays"])
	}

	req = httptest.NewRequest("GET", "/api/summary", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	var summaries []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary row, got %d", len(summaries))
	}
	if summaries[0]["avgHrv"] != float64(40) {
		t.Errorf("Expected avgHrv 40, got %v", summaries[0]["avgHrv"])
	}
}

// TestCalendarMarkerFlow sets a marker, reads the month view, and deletes
// the marker.
func TestCalendarMarkerFlow(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	severity := 6
	body, _ := json.Marshal(map[string]interface{}{
		"date":          "2025-01-05",
		"isMigraineDay": true,
		"severity":      severity,
		"notes":         "afternoon attack",
	})
	req := httptest.NewRequest("POST", "/api/calendar/migraine-day", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/calendar?year=2025&month=1", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	var days []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&days); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(days) != 31 {
		t.Fatalf("Expected 31 days in January, got %d", len(days))
	}
	marked := days[4]
	if marked["date"] != "2025-01-05" || marked["isMigraineDay"] != true {
		t.Errorf("Expected 2025-01-05 marked, got %v", marked)
	}
	if marked["severity"] != float64(6) {
		t.Errorf("Expected severity 6, got %v", marked["severity"])
	}

	req = httptest.NewRequest("DELETE", "/api/calendar/migraine-day/2025-01-05", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var count int64
	db.Model(&models.MigraineDayMarker{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected marker deleted, got %d rows", count)
	}
}

// TestStatisticsEndpoint verifies totals and channel averages.
func TestStatisticsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(db)

	uploadCSV(t, app, "timestamp,hrv\n"+
		"2025-01-05T08:00:00Z,40\n"+
		"2025-01-05T16:00:00Z,44\n")

	req := httptest.NewRequest("GET", "/api/wearable/statistics", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats["totalSamples"] != float64(2) {
		t.Errorf("Expected 2 samples, got %v", stats["totalSamples"])
	}
	averages, ok := stats["channelAverages"].(map[string]interface{})
	if !ok || averages["hrv"] != float64(42) {
		t.Errorf("Expected hrv average 42, got %v", stats["channelAverages"])
	}
}
