package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/types"
	"gorm.io/gorm"
)

// Trend slope thresholds per channel. A fitted slope inside the band counts
// as stable.
const (
	trendEpsilonStress   = 0.5
	trendEpsilonHrv      = 0.3
	trendEpsilonRecovery = 0.5
)

// Clinical thresholds for daily risk factors.
const (
	riskHrvLow         = 30.0
	riskHrvCritical    = 20.0
	riskStressHigh     = 60.0
	riskStressCritical = 80.0
	riskSleepEffLow    = 70.0
	riskSleepEffCrit   = 60.0
	riskRestingHRHigh  = 75.0
)

// Wellness score weights over normalized channel averages.
var wellnessWeights = map[string]float64{
	FieldStressValue:     0.30, // inverted: low stress scores high
	FieldRecoveryValue:   0.30,
	FieldHrv:             0.20,
	FieldSleepEfficiency: 0.20,
}

// riskFactor is one threshold crossing reported on a summary row.
type riskFactor struct {
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	Severity string  `json:"severity"`
}

// DayError is one recovered failure from the batch driver.
type DayError struct {
	Day     string `json:"day"`
	Message string `json:"message"`
}

// AggregateDay computes the summary indicator for one local calendar day.
// Idempotent: with force=false the cached row is returned when it was
// processed after the newest sample write for that day.
func AggregateDay(db *gorm.DB, userID string, day time.Time, location *time.Location, force bool) (*models.SummaryIndicator, error) {
	periodStart, periodEnd := DayRange(day, location)

	var existing models.SummaryIndicator
	haveExisting := db.Where("user_id = ? AND period_start = ? AND period_end = ?", userID, periodStart, periodEnd).
		First(&existing).Error == nil

	if haveExisting && !force {
		var latest time.Time
		row := db.Model(&models.WearableSample{}).
			Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, periodStart, periodEnd).
			Select("MAX(updated_at)").Row()
		if row.Scan(&latest) == nil && !existing.ProcessedAt.Before(latest) {
			return &existing, nil
		}
	}

	var samples []models.WearableSample
	if err := db.Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, periodStart, periodEnd).
		Order("timestamp ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, types.NewNotFound(fmt.Sprintf("no samples on %s", periodStart.Format(dayKeyFormat)))
	}

	indicator := buildIndicator(userID, periodStart, periodEnd, samples)
	if haveExisting {
		indicator.IndicatorID = existing.IndicatorID
		indicator.CreatedAt = existing.CreatedAt
	}
	if err := db.Save(indicator).Error; err != nil {
		return nil, err
	}
	return indicator, nil
}

// ProcessSummaries aggregates every day that has samples for the user.
// Failures on one day do not abort the batch; they accumulate into the
// returned error list.
func ProcessSummaries(db *gorm.DB, userID string, location *time.Location, force bool) (int, []DayError, error) {
	var timestamps []time.Time
	if err := db.Model(&models.WearableSample{}).
		Where("user_id = ?", userID).
		Order("timestamp ASC").
		Pluck("timestamp", &timestamps).Error; err != nil {
		return 0, nil, err
	}

	seen := make(map[string]time.Time)
	var order []string
	for _, ts := range timestamps {
		key := DayKey(ts, location)
		if _, ok := seen[key]; !ok {
			seen[key] = DateAtLocation(ts, location)
			order = append(order, key)
		}
	}

	processed := 0
	var dayErrors []DayError
	for _, key := range order {
		if _, err := AggregateDay(db, userID, seen[key], location, force); err != nil {
			dayErrors = append(dayErrors, DayError{Day: key, Message: err.Error()})
			continue
		}
		processed++
	}
	return processed, dayErrors, nil
}

// ListSummaries returns summary rows in a window, oldest first.
func ListSummaries(db *gorm.DB, userID string, from, to *time.Time, limit int) ([]models.SummaryIndicator, error) {
	query := db.Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("period_start >= ?", *from)
	}
	if to != nil {
		query = query.Where("period_start <= ?", *to)
	}
	query = query.Order("period_start ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var indicators []models.SummaryIndicator
	err := query.Find(&indicators).Error
	return indicators, err
}

// buildIndicator computes every aggregate metric from one day of samples.
func buildIndicator(userID string, periodStart, periodEnd time.Time, samples []models.WearableSample) *models.SummaryIndicator {
	stress := collect(samples, func(s models.WearableSample) *float64 { return s.StressValue })
	recovery := collect(samples, func(s models.WearableSample) *float64 { return s.RecoveryValue })
	heartRate := collect(samples, func(s models.WearableSample) *float64 { return s.HeartRate })
	hrv := collect(samples, func(s models.WearableSample) *float64 { return s.Hrv })
	sleepEff := collect(samples, func(s models.WearableSample) *float64 { return s.SleepEfficiency })
	sleepHR := collect(samples, func(s models.WearableSample) *float64 { return s.SleepHeartRate })
	skinTemp := collect(samples, func(s models.WearableSample) *float64 { return s.SkinTemperature })
	restless := collect(samples, func(s models.WearableSample) *float64 { return s.RestlessPeriods })

	indicator := &models.SummaryIndicator{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		SampleCount: len(samples),
		ProcessedAt: time.Now().UTC(),

		AvgStress:          meanPtr(stress),
		AvgRecovery:        meanPtr(recovery),
		MinRecovery:        minPtr(recovery),
		AvgHrv:             meanPtr(hrv),
		AvgHeartRate:       meanPtr(heartRate),
		MaxHeartRate:       maxPtr(heartRate),
		RestingHeartRate:   percentilePtr(heartRate, 0.10),
		AvgSleepEfficiency: meanPtr(sleepEff),
		AvgSleepHeartRate:  meanPtr(sleepHR),
		AvgSkinTemperature: meanPtr(skinTemp),
		SkinTempVariation:  stdDevPtr(skinTemp),
		AvgRestlessPeriods: meanPtr(restless),

		StressVolatility:   stdDevPtr(stress),
		HrvVolatility:      stdDevPtr(hrv),
		RecoveryVolatility: stdDevPtr(recovery),

		StressTrend:   trendLabel(stress, trendEpsilonStress),
		HrvTrend:      trendLabel(hrv, trendEpsilonHrv),
		RecoveryTrend: trendLabel(recovery, trendEpsilonRecovery),
	}

	indicator.WellnessScore = wellnessScore(indicator)
	if factors := riskFactors(indicator); len(factors) > 0 {
		indicator.RiskFactors = mustJSON(factors)
	}

	return indicator
}

// collect extracts the non-null values of one channel in sample order.
func collect(samples []models.WearableSample, pick func(models.WearableSample) *float64) []float64 {
	values := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if v := pick(sample); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := mean(values)
	return &m
}

func minPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return &m
}

func maxPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

// sampleStdDev is the n-1 denominator standard deviation; 0 for fewer than
// two values.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func stdDevPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sd := sampleStdDev(values)
	return &sd
}

// percentilePtr is the nearest-rank percentile of the values.
func percentilePtr(values []float64, p float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	v := sorted[rank]
	return &v
}

// fitSlope is the least-squares slope of values against sample index.
func fitSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// trendLabel classifies the fitted slope of one channel.
func trendLabel(values []float64, epsilon float64) string {
	slope := fitSlope(values)
	switch {
	case slope > epsilon:
		return models.TrendIncreasing
	case slope < -epsilon:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// wellnessScore is the weighted sum of normalized channel averages, scaled
// to 0..100. Missing channels drop out and the remaining weights
// renormalize. Stress contributes inverted so low stress scores high.
func wellnessScore(ind *models.SummaryIndicator) *float64 {
	type contribution struct {
		value  *float64
		weight float64
		invert bool
	}
	contributions := []contribution{
		{ind.AvgStress, wellnessWeights[FieldStressValue], true},
		{ind.AvgRecovery, wellnessWeights[FieldRecoveryValue], false},
		{ind.AvgHrv, wellnessWeights[FieldHrv], false},
		{ind.AvgSleepEfficiency, wellnessWeights[FieldSleepEfficiency], false},
	}

	weightSum := 0.0
	score := 0.0
	for _, c := range contributions {
		if c.value == nil {
			continue
		}
		normalized := math.Min(math.Max(*c.value/100.0, 0), 1)
		if c.invert {
			normalized = 1 - normalized
		}
		score += c.weight * normalized
		weightSum += c.weight
	}
	if weightSum == 0 {
		return nil
	}

	scaled := score / weightSum * 100.0
	scaled = math.Min(math.Max(scaled, 0), 100)
	return &scaled
}

// riskFactors reports fixed clinical threshold crossings on the day's
// averages.
func riskFactors(ind *models.SummaryIndicator) []riskFactor {
	var factors []riskFactor

	if ind.AvgHrv != nil && *ind.AvgHrv < riskHrvLow {
		severity := models.SeverityMedium
		if *ind.AvgHrv < riskHrvCritical {
			severity = models.SeverityHigh
		}
		factors = append(factors, riskFactor{Type: "low_hrv", Value: *ind.AvgHrv, Severity: severity})
	}
	if ind.AvgStress != nil && *ind.AvgStress > riskStressHigh {
		severity := models.SeverityMedium
		if *ind.AvgStress > riskStressCritical {
			severity = models.SeverityHigh
		}
		factors = append(factors, riskFactor{Type: "high_stress", Value: *ind.AvgStress, Severity: severity})
	}
	if ind.AvgSleepEfficiency != nil && *ind.AvgSleepEfficiency < riskSleepEffLow {
		severity := models.SeverityMedium
		if *ind.AvgSleepEfficiency < riskSleepEffCrit {
			severity = models.SeverityHigh
		}
		factors = append(factors, riskFactor{Type: "poor_sleep", Value: *ind.AvgSleepEfficiency, Severity: severity})
	}
	if ind.RestingHeartRate != nil && *ind.RestingHeartRate > riskRestingHRHigh {
		factors = append(factors, riskFactor{Type: "elevated_resting_hr", Value: *ind.RestingHeartRate, Severity: models.SeverityLow})
	}

	return factors
}
