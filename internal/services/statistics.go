package services

import (
	"time"

	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// WearableStatistics summarizes a user's sample window.
type WearableStatistics struct {
	TotalSamples       int                `json:"totalSamples"`
	FirstSample        *time.Time         `json:"firstSample,omitempty"`
	LastSample         *time.Time         `json:"lastSample,omitempty"`
	Sources            map[string]int     `json:"sources"`
	ChannelAverages    map[string]float64 `json:"channelAverages"`
	ChannelSampleCount map[string]int     `json:"channelSampleCounts"`
}

// ComputeStatistics builds window totals and channel averages for the
// user's samples between from and to (either may be zero for open-ended).
func ComputeStatistics(db *gorm.DB, userID string, from, to *time.Time) (*WearableStatistics, error) {
	query := db.Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil {
		query = query.Where("timestamp <= ?", *to)
	}

	var samples []models.WearableSample
	if err := query.Order("timestamp ASC").Find(&samples).Error; err != nil {
		return nil, err
	}

	stats := &WearableStatistics{
		TotalSamples:       len(samples),
		Sources:            make(map[string]int),
		ChannelAverages:    make(map[string]float64),
		ChannelSampleCount: make(map[string]int),
	}
	if len(samples) == 0 {
		return stats, nil
	}

	first := samples[0].Timestamp
	last := samples[len(samples)-1].Timestamp
	stats.FirstSample = &first
	stats.LastSample = &last

	channels := map[string]func(models.WearableSample) *float64{
		FieldStressValue:     func(s models.WearableSample) *float64 { return s.StressValue },
		FieldRecoveryValue:   func(s models.WearableSample) *float64 { return s.RecoveryValue },
		FieldHeartRate:       func(s models.WearableSample) *float64 { return s.HeartRate },
		FieldHrv:             func(s models.WearableSample) *float64 { return s.Hrv },
		FieldSleepEfficiency: func(s models.WearableSample) *float64 { return s.SleepEfficiency },
		FieldSleepHeartRate:  func(s models.WearableSample) *float64 { return s.SleepHeartRate },
		FieldSkinTemperature: func(s models.WearableSample) *float64 { return s.SkinTemperature },
		FieldRestlessPeriods: func(s models.WearableSample) *float64 { return s.RestlessPeriods },
	}

	for _, sample := range samples {
		stats.Sources[sample.Source]++
	}
	for name, pick := range channels {
		values := collect(samples, pick)
		if len(values) == 0 {
			continue
		}
		stats.ChannelAverages[name] = mean(values)
		stats.ChannelSampleCount[name] = len(values)
	}
	return stats, nil
}
