package services_test

import (
	"math"
	"testing"
	"time"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/services"
)

// TestRecomputeCorrelationsElevatedStress verifies an elevated-stress
// pattern emerges when migraine days carry clearly higher stress.
func TestRecomputeCorrelationsElevatedStress(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stressByDay := []float64{70, 75, 80, 85, 30, 35, 40, 45}
	migraine := []bool{true, true, true, true, false, false, false, false}

	for i, stress := range stressByDay {
		day := base.AddDate(0, 0, i)
		db.Create(&models.SummaryIndicator{
			UserID:      testUser,
			PeriodStart: day,
			PeriodEnd:   day.AddDate(0, 0, 1),
			AvgStress:   ptr(stress),
			SampleCount: 1,
			ProcessedAt: time.Now().UTC(),
		})
		if migraine[i] {
			db.Create(&models.MigraineDayMarker{
				UserID:        testUser,
				Date:          day,
				IsMigraineDay: true,
			})
		}
	}

	patterns, err := services.RecomputeCorrelations(db, testUser, time.UTC)
	if err != nil {
		t.Fatalf("RecomputeCorrelations failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(patterns))
	}

	p := patterns[0]
	if p.PatternType != "high_avgStress" {
		t.Errorf("Expected pattern type high_avgStress, got %s", p.PatternType)
	}
	if p.ComparisonOp != ">" {
		t.Errorf("Expected comparison >, got %s", p.ComparisonOp)
	}
	if math.Abs(p.MigraineDayAvg-77.5) > 1e-9 || math.Abs(p.NormalDayAvg-37.5) > 1e-9 {
		t.Errorf("Unexpected group means: %v vs %v", p.MigraineDayAvg, p.NormalDayAvg)
	}
	// threshold = normal mean + half the gap
	if math.Abs(p.Threshold-57.5) > 1e-9 {
		t.Errorf("Expected threshold 57.5, got %v", p.Threshold)
	}
	// Effect size is far above 1, so strength clamps.
	if p.CorrelationStrength != 1 {
		t.Errorf("Expected clamped strength 1, got %v", p.CorrelationStrength)
	}
	// confidence = (4/10)*(4/10)*min(1,|d|) = 0.16
	if math.Abs(p.Confidence-0.16) > 1e-9 {
		t.Errorf("Expected confidence 0.16, got %v", p.Confidence)
	}
	if p.MigraineDaysCount != 4 || p.TotalDaysAnalyzed != 8 {
		t.Errorf("Unexpected day counts: %d of %d", p.MigraineDaysCount, p.TotalDaysAnalyzed)
	}

	// Below the surfacing floor, so no top trigger yet.
	if trigger := services.TopTrigger(patterns); trigger != nil {
		t.Errorf("Expected no top trigger at confidence %v", p.Confidence)
	}
}

// TestRecomputeCorrelationsNoMigraineDays verifies recomputation yields
// nothing without both groups represented.
func TestRecomputeCorrelationsNoMigraineDays(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		day := base.AddDate(0, 0, i)
		db.Create(&models.SummaryIndicator{
			UserID:      testUser,
			PeriodStart: day,
			PeriodEnd:   day.AddDate(0, 0, 1),
			AvgStress:   ptr(50),
			SampleCount: 1,
			ProcessedAt: time.Now().UTC(),
		})
	}

	patterns, err := services.RecomputeCorrelations(db, testUser, time.UTC)
	if err != nil {
		t.Fatalf("RecomputeCorrelations failed: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("Expected no patterns, got %d", len(patterns))
	}
}

// TestRecomputeReplacesStalePatterns verifies recomputation deletes pattern
// types that no longer qualify.
func TestRecomputeReplacesStalePatterns(t *testing.T) {
	db := setupTestDB(t)

	db.Create(&models.MigraineCorrelation{
		UserID:              testUser,
		PatternType:         "low_avgHrv",
		PatternName:         "Reduced HRV on migraine days",
		MetricName:          "avgHrv",
		ComparisonOp:        "<",
		Threshold:           35,
		CorrelationStrength: -0.8,
		Confidence:          0.5,
	})

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stressByDay := []float64{70, 75, 80, 85, 30, 35, 40, 45}
	for i, stress := range stressByDay {
		day := base.AddDate(0, 0, i)
		db.Create(&models.SummaryIndicator{
			UserID:      testUser,
			PeriodStart: day,
			PeriodEnd:   day.AddDate(0, 0, 1),
			AvgStress:   ptr(stress),
			SampleCount: 1,
			ProcessedAt: time.Now().UTC(),
		})
		if i < 4 {
			db.Create(&models.MigraineDayMarker{UserID: testUser, Date: day, IsMigraineDay: true})
		}
	}

	if _, err := services.RecomputeCorrelations(db, testUser, time.UTC); err != nil {
		t.Fatalf("RecomputeCorrelations failed: %v", err)
	}

	var stale int64
	db.Model(&models.MigraineCorrelation{}).
		Where("user_id = ? AND pattern_type = ?", testUser, "low_avgHrv").
		Count(&stale)
	if stale != 0 {
		t.Error("Expected stale low_avgHrv pattern deleted")
	}
}

// TestTopTrigger verifies the strongest sufficiently-confident pattern wins.
func TestTopTrigger(t *testing.T) {
	patterns := []models.MigraineCorrelation{
		{PatternType: "high_avgStress", CorrelationStrength: 0.9, Confidence: 0.2},
		{PatternType: "low_avgHrv", CorrelationStrength: -0.7, Confidence: 0.6},
		{PatternType: "high_avgHeartRate", CorrelationStrength: 0.5, Confidence: 0.8},
	}

	trigger := services.TopTrigger(patterns)
	if trigger == nil {
		t.Fatal("Expected a top trigger")
	}
	if trigger.PatternType != "low_avgHrv" {
		t.Errorf("Expected low_avgHrv (strongest above the floor), got %s", trigger.PatternType)
	}
}
