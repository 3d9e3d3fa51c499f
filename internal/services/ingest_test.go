package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/services"
	"github.com/migralog/migralog/internal/types"
	"gorm.io/gorm"
)

const testUser = "11111111-1111-1111-1111-111111111111"

func ingest(t *testing.T, db *gorm.DB, csv string) *models.UploadSession {
	t.Helper()
	session, err := services.IngestCSV(context.Background(), db, testUser, "export.csv",
		strings.NewReader(csv), int64(len(csv)), time.UTC)
	if err != nil {
		t.Fatalf("IngestCSV failed: %v", err)
	}
	return session
}

// TestIngestOuraExport verifies a clean comma-delimited file ingests
// completely with the vendor detected from the headers.
func TestIngestOuraExport(t *testing.T) {
	db := setupTestDB(t)

	csvData := "timestamp,hrv_rmssd,stress_summary,recovery_index\n" +
		"2025-01-05T08:00:00Z,42,55,70\n" +
		"2025-01-05T16:00:00Z,38,60,65\n"
	session := ingest(t, db, csvData)

	if session.Status != models.UploadStatusCompleted {
		t.Errorf("Expected status completed, got %s", session.Status)
	}
	if session.InsertedRows != 2 || session.TotalRows != 2 {
		t.Errorf("Expected 2 inserted of 2 total, got %d of %d", session.InsertedRows, session.TotalRows)
	}
	if session.DetectedSource != models.SourceOura {
		t.Errorf("Expected source oura, got %s", session.DetectedSource)
	}

	var count int64
	db.Model(&models.WearableSample{}).Where("user_id = ?", testUser).Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 samples in store, got %d", count)
	}

	var sample models.WearableSample
	if err := db.Where("user_id = ?", testUser).Order("timestamp ASC").First(&sample).Error; err != nil {
		t.Fatalf("Failed to load sample: %v", err)
	}
	if floatValue(sample.Hrv) != 42 || floatValue(sample.StressValue) != 55 {
		t.Errorf("Unexpected sample values: hrv=%v stress=%v", sample.Hrv, sample.StressValue)
	}
	if sample.UploadSessionID == nil || *sample.UploadSessionID != session.SessionID {
		t.Error("Expected sample to reference its upload session")
	}
}

// TestIngestIdempotent verifies re-ingesting identical content changes
// nothing and reports every row skipped.
func TestIngestIdempotent(t *testing.T) {
	db := setupTestDB(t)

	csvData := "timestamp,hrv\n" +
		"2025-01-05T08:00:00Z,42\n" +
		"2025-01-05T16:00:00Z,38\n"
	ingest(t, db, csvData)
	second := ingest(t, db, csvData)

	if second.SkippedRows != 2 || second.InsertedRows != 0 || second.UpdatedRows != 0 {
		t.Errorf("Expected 2 skipped on re-ingest, got inserted=%d updated=%d skipped=%d",
			second.InsertedRows, second.UpdatedRows, second.SkippedRows)
	}

	var count int64
	db.Model(&models.WearableSample{}).Where("user_id = ?", testUser).Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 samples after re-ingest, got %d", count)
	}
}

// TestIngestPerFieldMerge verifies a later upload for the same instants
// fills new channels without erasing previously stored ones.
func TestIngestPerFieldMerge(t *testing.T) {
	db := setupTestDB(t)

	ingest(t, db, "timestamp,hrv\n2025-01-05T08:00:00Z,42\n")
	second := ingest(t, db, "timestamp,stress\n2025-01-05T08:00:00Z,80\n")

	if second.UpdatedRows != 1 {
		t.Errorf("Expected 1 updated row, got %d", second.UpdatedRows)
	}

	var sample models.WearableSample
	if err := db.Where("user_id = ?", testUser).First(&sample).Error; err != nil {
		t.Fatalf("Failed to load sample: %v", err)
	}
	if floatValue(sample.Hrv) != 42 {
		t.Errorf("Expected earlier hrv preserved, got %v", sample.Hrv)
	}
	if floatValue(sample.StressValue) != 80 {
		t.Errorf("Expected stress from later upload, got %v", sample.StressValue)
	}
	if sample.UploadSessionID == nil || *sample.UploadSessionID != second.SessionID {
		t.Error("Expected updated sample to reference the later session")
	}
}

// TestIngestSemicolonDelimiter verifies delimiter detection on the header.
func TestIngestSemicolonDelimiter(t *testing.T) {
	db := setupTestDB(t)

	session := ingest(t, db, "timestamp;hrv;stress\n2025-01-05T08:00:00Z;42;55\n")
	if session.InsertedRows != 1 {
		t.Errorf("Expected 1 inserted, got %d", session.InsertedRows)
	}
}

// TestIngestEmptyFile verifies an empty upload is rejected before any
// session is written.
func TestIngestEmptyFile(t *testing.T) {
	db := setupTestDB(t)

	_, err := services.IngestCSV(context.Background(), db, testUser, "empty.csv",
		strings.NewReader(""), 0, time.UTC)
	custom, ok := err.(*types.CustomError)
	if !ok {
		t.Fatalf("Expected CustomError, got %v", err)
	}
	if custom.Code != types.CodeEmptyFile {
		t.Errorf("Expected code %s, got %s", types.CodeEmptyFile, custom.Code)
	}

	var count int64
	db.Model(&models.UploadSession{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no session rows, got %d", count)
	}
}

// TestIngestHeaderOnly verifies a header-only file completes with zero rows.
func TestIngestHeaderOnly(t *testing.T) {
	db := setupTestDB(t)

	session := ingest(t, db, "timestamp,hrv\n")
	if session.Status != models.UploadStatusCompleted {
		t.Errorf("Expected status completed, got %s", session.Status)
	}
	if session.TotalRows != 0 {
		t.Errorf("Expected 0 total rows, got %d", session.TotalRows)
	}
}

// TestIngestNoTimestampColumn verifies schema rejection writes nothing.
func TestIngestNoTimestampColumn(t *testing.T) {
	db := setupTestDB(t)

	_, err := services.IngestCSV(context.Background(), db, testUser, "bad.csv",
		strings.NewReader("hrv,stress\n42,55\n"), 10, time.UTC)
	custom, ok := err.(*types.CustomError)
	if !ok {
		t.Fatalf("Expected CustomError, got %v", err)
	}
	if custom.Code != types.CodeInvalidSchema {
		t.Errorf("Expected code %s, got %s", types.CodeInvalidSchema, custom.Code)
	}

	var count int64
	db.Model(&models.WearableSample{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no samples, got %d", count)
	}
}

// TestIngestBadRowRecovered verifies one malformed row becomes a row error
// while the rest of the file lands, leaving the session partial.
func TestIngestBadRowRecovered(t *testing.T) {
	db := setupTestDB(t)

	csvData := "timestamp,hrv\n" +
		"2025-01-05T08:00:00Z,42\n" +
		"2025-01-05T12:00:00Z,not-a-number\n" +
		"2025-01-05T16:00:00Z,38\n"
	session := ingest(t, db, csvData)

	if session.Status != models.UploadStatusPartial {
		t.Errorf("Expected status partial, got %s", session.Status)
	}
	if session.InsertedRows != 2 || session.ErrorRows != 1 {
		t.Errorf("Expected 2 inserted and 1 error, got %d and %d", session.InsertedRows, session.ErrorRows)
	}
	if len(session.RowErrors.JSON) == 0 {
		t.Error("Expected row errors recorded on the session")
	}
}

// TestIngestAllRowsBad verifies a file where nothing lands ends failed.
func TestIngestAllRowsBad(t *testing.T) {
	db := setupTestDB(t)

	session := ingest(t, db, "timestamp,hrv\nnot-a-date,42\n")
	if session.Status != models.UploadStatusFailed {
		t.Errorf("Expected status failed, got %s", session.Status)
	}
}

// TestIngestUnrecognizedColumns verifies unmapped columns land in the
// extension bag and are reported on the session.
func TestIngestUnrecognizedColumns(t *testing.T) {
	db := setupTestDB(t)

	session := ingest(t, db, "timestamp,hrv,mood\n2025-01-05T08:00:00Z,42,great\n")
	if !strings.Contains(string(session.UnrecognizedFields.JSON), "mood") {
		t.Errorf("Expected mood reported unrecognized, got %s", session.UnrecognizedFields.JSON)
	}

	var sample models.WearableSample
	if err := db.Where("user_id = ?", testUser).First(&sample).Error; err != nil {
		t.Fatalf("Failed to load sample: %v", err)
	}
	if !strings.Contains(string(sample.AdditionalData.JSON), "great") {
		t.Errorf("Expected mood value in additional data, got %s", sample.AdditionalData.JSON)
	}
}

// TestIngestNaiveTimestampsFlagged verifies zone-naive timestamps are
// stored as UTC and flagged for reporting.
func TestIngestNaiveTimestampsFlagged(t *testing.T) {
	db := setupTestDB(t)

	session := ingest(t, db, "timestamp,hrv\n2025-01-05 08:00:00,42\n")
	if !strings.Contains(string(session.UnrecognizedFields.JSON), "__timezone_naive_timestamps") {
		t.Errorf("Expected naive timestamp flag, got %s", session.UnrecognizedFields.JSON)
	}

	var sample models.WearableSample
	if err := db.Where("user_id = ?", testUser).First(&sample).Error; err != nil {
		t.Fatalf("Failed to load sample: %v", err)
	}
	expected := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
	if !sample.Timestamp.UTC().Equal(expected) {
		t.Errorf("Expected %v stored, got %v", expected, sample.Timestamp.UTC())
	}
}

// TestIngestCancelledContext verifies cancellation keeps committed rows and
// ends the session partial.
func TestIngestCancelledContext(t *testing.T) {
	db := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	csvData := "timestamp,hrv\n2025-01-05T08:00:00Z,42\n"
	session, err := services.IngestCSV(ctx, db, testUser, "export.csv",
		strings.NewReader(csvData), int64(len(csvData)), time.UTC)
	if err != nil {
		t.Fatalf("IngestCSV failed: %v", err)
	}
	if session.Status != models.UploadStatusPartial {
		t.Errorf("Expected status partial after cancellation, got %s", session.Status)
	}
	if session.InsertedRows != 0 {
		t.Errorf("Expected no rows ingested, got %d", session.InsertedRows)
	}
}
