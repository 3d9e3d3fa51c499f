package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/services"
)

// TestAssemblePromptDeterministic verifies the same inputs produce the
// byte-identical prompt.
func TestAssemblePromptDeterministic(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	db.Create(&models.UserProfile{
		UserID:           testUser,
		DiagnosedType:    "migraine with aura",
		MonthlyFrequency: 4,
		AuraPresent:      1,
		LightSensitivity: 1,
	})
	for i := 0; i < 3; i++ {
		db.Create(&models.WearableSample{
			UserID:      testUser,
			Timestamp:   now.Add(time.Duration(-20+i*6) * time.Hour),
			Hrv:         ptr(40 + float64(i)),
			StressValue: ptr(55),
		})
	}
	db.Create(&models.MigraineCorrelation{
		UserID:              testUser,
		PatternType:         "high_avgStress",
		PatternName:         "Elevated stress on migraine days",
		MetricName:          "avgStress",
		ComparisonOp:        ">",
		Threshold:           57.5,
		CorrelationStrength: 1,
		Confidence:          0.4,
		MigraineDayAvg:      77.5,
		NormalDayAvg:        37.5,
	})

	first, err := services.AssemblePrompt(db, testUser, nil, now, time.UTC)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}
	second, err := services.AssemblePrompt(db, testUser, nil, now, time.UTC)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}

	if first.Prompt != second.Prompt {
		t.Error("Expected identical prompts for identical inputs")
	}

	for _, section := range []string{
		"PATIENT PROFILE",
		"RECENT WEARABLE DATA (LAST 24 HOURS)",
		"IDENTIFIED MIGRAINE PATTERNS",
		"REQUESTED OUTPUT FORMAT",
	} {
		if !strings.Contains(first.Prompt, section) {
			t.Errorf("Expected section %q in prompt", section)
		}
	}

	if !strings.Contains(first.Prompt, "migraine with aura") {
		t.Error("Expected profile content in prompt")
	}
	if !strings.Contains(first.Prompt, "Elevated stress on migraine days") {
		t.Error("Expected pattern content in prompt")
	}

	if first.Metadata.DataPointsCount != 3 {
		t.Errorf("Expected 3 data points, got %d", first.Metadata.DataPointsCount)
	}
	if first.Metadata.PatternsCount != 1 {
		t.Errorf("Expected 1 pattern, got %d", first.Metadata.PatternsCount)
	}
	if !first.Metadata.HasProfile {
		t.Error("Expected hasProfile true")
	}
}

// TestAssemblePromptWindow verifies samples older than 24 hours are
// excluded.
func TestAssemblePromptWindow(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	db.Create(&models.WearableSample{
		UserID:    testUser,
		Timestamp: now.Add(-30 * time.Hour),
		Hrv:       ptr(40),
	})
	db.Create(&models.WearableSample{
		UserID:    testUser,
		Timestamp: now.Add(-2 * time.Hour),
		Hrv:       ptr(44),
	})

	bundle, err := services.AssemblePrompt(db, testUser, nil, now, time.UTC)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}
	if bundle.Metadata.DataPointsCount != 1 {
		t.Errorf("Expected 1 data point in window, got %d", bundle.Metadata.DataPointsCount)
	}
	if !strings.Contains(bundle.Prompt, "hrv=44") {
		t.Error("Expected recent sample in prompt")
	}
	if strings.Contains(bundle.Prompt, "hrv=40") {
		t.Error("Expected stale sample excluded from prompt")
	}
}

// TestAssemblePromptSimulatedOverride verifies the synthetic sample is
// appended and labeled.
func TestAssemblePromptSimulatedOverride(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	overrides := map[string]float64{
		services.FieldStressValue: 90,
		services.FieldHrv:         22,
	}
	bundle, err := services.AssemblePrompt(db, testUser, overrides, now, time.UTC)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}

	if !strings.Contains(bundle.Prompt, "[simulated now]") {
		t.Error("Expected simulated sample label in prompt")
	}
	if !strings.Contains(bundle.Prompt, "stress=90") || !strings.Contains(bundle.Prompt, "hrv=22") {
		t.Errorf("Expected override values in prompt")
	}
	if bundle.Metadata.DataPointsCount != 1 {
		t.Errorf("Expected the synthetic sample counted, got %d", bundle.Metadata.DataPointsCount)
	}
}

// TestAssemblePromptEmpty verifies the placeholder sections for a user
// with no data.
func TestAssemblePromptEmpty(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	bundle, err := services.AssemblePrompt(db, testUser, nil, now, time.UTC)
	if err != nil {
		t.Fatalf("AssemblePrompt failed: %v", err)
	}
	if !strings.Contains(bundle.Prompt, "No profile on record.") {
		t.Error("Expected profile placeholder")
	}
	if !strings.Contains(bundle.Prompt, "No samples in the last 24 hours.") {
		t.Error("Expected samples placeholder")
	}
	if !strings.Contains(bundle.Prompt, "No statistically identified patterns yet.") {
		t.Error("Expected patterns placeholder")
	}
}
