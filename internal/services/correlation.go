package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// Patterns below this confidence are not persisted.
const minPatternConfidence = 0.1

// Confidence floor for surfacing a pattern as the top trigger.
const topTriggerConfidence = 0.3

// correlationFeature is one candidate metric drawn from daily summaries.
type correlationFeature struct {
	metric string
	label  string
	pick   func(models.SummaryIndicator) *float64
}

var correlationFeatures = []correlationFeature{
	{"avgStress", "stress", func(s models.SummaryIndicator) *float64 { return s.AvgStress }},
	{"avgRecovery", "recovery", func(s models.SummaryIndicator) *float64 { return s.AvgRecovery }},
	{"avgHrv", "HRV", func(s models.SummaryIndicator) *float64 { return s.AvgHrv }},
	{"avgHeartRate", "heart rate", func(s models.SummaryIndicator) *float64 { return s.AvgHeartRate }},
	{"sleepEfficiency", "sleep efficiency", func(s models.SummaryIndicator) *float64 { return s.AvgSleepEfficiency }},
	{"skinTempVariation", "skin temperature variation", func(s models.SummaryIndicator) *float64 { return s.SkinTempVariation }},
}

// RecomputeCorrelations rebuilds every correlation pattern for a user from
// the committed summary indicators and migraine-day set. Requires at least
// one migraine day and one non-migraine day in the summary window;
// otherwise it returns empty without error. Recomputation replaces the
// previous pattern set atomically.
func RecomputeCorrelations(db *gorm.DB, userID string, location *time.Location) ([]models.MigraineCorrelation, error) {
	var indicators []models.SummaryIndicator
	if err := db.Where("user_id = ?", userID).
		Order("period_start ASC").
		Find(&indicators).Error; err != nil {
		return nil, err
	}
	if len(indicators) == 0 {
		return []models.MigraineCorrelation{}, nil
	}

	windowStart := indicators[0].PeriodStart
	windowEnd := indicators[len(indicators)-1].PeriodEnd
	migraineDays, err := MigraineDays(db, userID, windowStart, windowEnd, location)
	if err != nil {
		return nil, err
	}

	migraineCount := 0
	for _, ind := range indicators {
		if migraineDays[DayKey(ind.PeriodStart, location)] {
			migraineCount++
		}
	}
	if migraineCount == 0 || migraineCount == len(indicators) {
		return []models.MigraineCorrelation{}, nil
	}

	var patterns []models.MigraineCorrelation
	for _, feature := range correlationFeatures {
		var onMigraine, onNormal []float64
		for _, ind := range indicators {
			value := feature.pick(ind)
			if value == nil {
				continue
			}
			if migraineDays[DayKey(ind.PeriodStart, location)] {
				onMigraine = append(onMigraine, *value)
			} else {
				onNormal = append(onNormal, *value)
			}
		}
		if len(onMigraine) == 0 || len(onNormal) == 0 {
			continue
		}

		d, ok := cohensD(onMigraine, onNormal)
		if !ok {
			continue
		}

		direction := "high"
		comparison := ">"
		if d < 0 {
			direction = "low"
			comparison = "<"
		}

		confidence := math.Min(1, float64(len(onMigraine))/10) *
			math.Min(1, float64(len(onNormal))/10) *
			math.Min(1, math.Abs(d))
		if confidence < minPatternConfidence {
			continue
		}

		muM := mean(onMigraine)
		muN := mean(onNormal)

		patterns = append(patterns, models.MigraineCorrelation{
			UserID:              userID,
			PatternType:         fmt.Sprintf("%s_%s", direction, feature.metric),
			PatternName:         patternName(direction, feature.label),
			MetricName:          feature.metric,
			ComparisonOp:        comparison,
			Threshold:           muN + 0.5*(muM-muN),
			CorrelationStrength: clamp(d, -1, 1),
			Confidence:          confidence,
			MigraineDayAvg:      muM,
			NormalDayAvg:        muN,
			MigraineDaysCount:   len(onMigraine),
			TotalDaysAnalyzed:   len(onMigraine) + len(onNormal),
		})
	}

	if err := replacePatterns(db, userID, patterns); err != nil {
		return nil, err
	}

	sort.Slice(patterns, func(i, j int) bool {
		return math.Abs(patterns[i].CorrelationStrength) > math.Abs(patterns[j].CorrelationStrength)
	})
	return patterns, nil
}

// replacePatterns swaps the user's stored pattern set for the recomputed
// one inside a single transaction.
func replacePatterns(db *gorm.DB, userID string, patterns []models.MigraineCorrelation) error {
	return db.Transaction(func(tx *gorm.DB) error {
		keep := make([]string, 0, len(patterns))
		for _, p := range patterns {
			keep = append(keep, p.PatternType)
		}

		stale := tx.Where("user_id = ?", userID)
		if len(keep) > 0 {
			stale = stale.Where("pattern_type NOT IN ?", keep)
		}
		if err := stale.Delete(&models.MigraineCorrelation{}).Error; err != nil {
			return err
		}

		for i := range patterns {
			var existing models.MigraineCorrelation
			err := tx.Where("user_id = ? AND pattern_type = ?", userID, patterns[i].PatternType).
				First(&existing).Error
			if err == nil {
				patterns[i].CorrelationID = existing.CorrelationID
				patterns[i].CreatedAt = existing.CreatedAt
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
			if err := tx.Save(&patterns[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ActiveCorrelations returns the stored patterns sorted by effect size.
func ActiveCorrelations(db *gorm.DB, userID string) ([]models.MigraineCorrelation, error) {
	var patterns []models.MigraineCorrelation
	if err := db.Where("user_id = ?", userID).Find(&patterns).Error; err != nil {
		return nil, err
	}
	sort.Slice(patterns, func(i, j int) bool {
		return math.Abs(patterns[i].CorrelationStrength) > math.Abs(patterns[j].CorrelationStrength)
	})
	return patterns, nil
}

// TopTrigger surfaces the strongest sufficiently-confident pattern, or nil.
func TopTrigger(patterns []models.MigraineCorrelation) *models.MigraineCorrelation {
	var best *models.MigraineCorrelation
	for i := range patterns {
		if patterns[i].Confidence < topTriggerConfidence {
			continue
		}
		if best == nil || math.Abs(patterns[i].CorrelationStrength) > math.Abs(best.CorrelationStrength) {
			best = &patterns[i]
		}
	}
	return best
}

// cohensD is the standardized mean difference between the two groups using
// the pooled unbiased standard deviation. Reports false when the pooled
// deviation is zero or undefined.
func cohensD(groupA, groupB []float64) (float64, bool) {
	nA, nB := float64(len(groupA)), float64(len(groupB))
	varA := sampleVariance(groupA)
	varB := sampleVariance(groupB)
	denom := nA + nB - 2
	if denom <= 0 {
		return 0, false
	}
	pooled := math.Sqrt(((nA-1)*varA + (nB-1)*varB) / denom)
	if pooled == 0 {
		return 0, false
	}
	return (mean(groupA) - mean(groupB)) / pooled, true
}

func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

func clamp(value, low, high float64) float64 {
	return math.Min(math.Max(value, low), high)
}

func patternName(direction, label string) string {
	if direction == "high" {
		return fmt.Sprintf("Elevated %s on migraine days", label)
	}
	return fmt.Sprintf("Reduced %s on migraine days", label)
}
