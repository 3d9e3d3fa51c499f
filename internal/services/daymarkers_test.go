package services_test

import (
	"testing"
	"time"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/services"
	"gorm.io/gorm"
)

// TestMigraineDaysResolution verifies the union of entry dates and positive
// markers minus negative markers.
func TestMigraineDaysResolution(t *testing.T) {
	db := setupTestDB(t)

	// Entry on Jan 5, positive marker on Jan 7, negative marker on Jan 5.
	db.Create(&models.MigraineEntry{
		UserID:    testUser,
		StartTime: time.Date(2025, 1, 5, 14, 30, 0, 0, time.UTC),
		Intensity: 7,
	})
	db.Create(&models.MigraineDayMarker{
		UserID:        testUser,
		Date:          time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		IsMigraineDay: true,
	})
	db.Create(&models.MigraineDayMarker{
		UserID:        testUser,
		Date:          time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		IsMigraineDay: false,
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	days, err := services.MigraineDays(db, testUser, from, to, time.UTC)
	if err != nil {
		t.Fatalf("MigraineDays failed: %v", err)
	}

	if days["2025-01-05"] {
		t.Error("Expected negative marker to override the entry on 2025-01-05")
	}
	if !days["2025-01-07"] {
		t.Error("Expected positive marker day 2025-01-07")
	}
	if len(days) != 1 {
		t.Errorf("Expected exactly 1 migraine day, got %v", days)
	}
}

// TestUpsertDayMarkerReplaces verifies a second upsert for the same date
// replaces the first instead of adding a row.
func TestUpsertDayMarkerReplaces(t *testing.T) {
	db := setupTestDB(t)
	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	severity := 4
	if _, err := services.UpsertDayMarker(db, testUser, date, true, &severity, "first", time.UTC); err != nil {
		t.Fatalf("UpsertDayMarker failed: %v", err)
	}
	marker, err := services.UpsertDayMarker(db, testUser, date, false, nil, "second", time.UTC)
	if err != nil {
		t.Fatalf("UpsertDayMarker failed: %v", err)
	}

	if marker.IsMigraineDay {
		t.Error("Expected replacement to be a negative marker")
	}
	if marker.Severity != nil {
		t.Error("Expected severity cleared on replacement")
	}
	if marker.Notes != "second" {
		t.Errorf("Expected notes replaced, got %q", marker.Notes)
	}

	var count int64
	db.Model(&models.MigraineDayMarker{}).Where("user_id = ?", testUser).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 marker row, got %d", count)
	}
}

// TestDeleteDayMarker verifies deletion and the missing-marker case.
func TestDeleteDayMarker(t *testing.T) {
	db := setupTestDB(t)
	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	if _, err := services.UpsertDayMarker(db, testUser, date, true, nil, "", time.UTC); err != nil {
		t.Fatalf("UpsertDayMarker failed: %v", err)
	}
	if err := services.DeleteDayMarker(db, testUser, date, time.UTC); err != nil {
		t.Fatalf("DeleteDayMarker failed: %v", err)
	}
	if err := services.DeleteDayMarker(db, testUser, date, time.UTC); err != gorm.ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound on second delete, got %v", err)
	}
}

// TestDayRange verifies day boundaries in a non-UTC zone.
func TestDayRange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}

	// 23:30 UTC on Jan 5 is already Jan 6 in Berlin.
	ts := time.Date(2025, 1, 5, 23, 30, 0, 0, time.UTC)
	if key := services.DayKey(ts, loc); key != "2025-01-06" {
		t.Errorf("Expected Berlin day 2025-01-06, got %s", key)
	}

	start, end := services.DayRange(ts, loc)
	if !start.Before(ts) || !end.After(ts) {
		t.Errorf("Expected %v inside [%v, %v)", ts, start, end)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("Expected 24h day, got %v", end.Sub(start))
	}
}
