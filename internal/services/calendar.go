package services

import (
	"time"

	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// CalendarDay is one cell of the month view.
type CalendarDay struct {
	Date          string `json:"date"`
	HasData       bool   `json:"hasData"`
	DataPoints    int    `json:"dataPoints"`
	IsMigraineDay bool   `json:"isMigraineDay"`
	MigraineCount int    `json:"migraineCount"`
	Severity      *int   `json:"severity,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// MonthView builds the per-day calendar cells for one month in the
// configured day zone.
func MonthView(db *gorm.DB, userID string, year int, month time.Month, location *time.Location) ([]CalendarDay, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, location)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var samples []models.WearableSample
	if err := db.Select("timestamp").
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, monthStart, monthEnd).
		Find(&samples).Error; err != nil {
		return nil, err
	}
	sampleCounts := make(map[string]int)
	for _, sample := range samples {
		sampleCounts[DayKey(sample.Timestamp, location)]++
	}

	var entries []models.MigraineEntry
	if err := db.Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, monthStart, monthEnd).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	entryCounts := make(map[string]int)
	maxIntensity := make(map[string]int)
	for _, entry := range entries {
		key := DayKey(entry.StartTime, location)
		entryCounts[key]++
		if entry.Intensity > maxIntensity[key] {
			maxIntensity[key] = entry.Intensity
		}
	}

	var markers []models.MigraineDayMarker
	if err := db.Where("user_id = ? AND date >= ? AND date < ?", userID, monthStart, monthEnd).
		Find(&markers).Error; err != nil {
		return nil, err
	}
	markersByDay := make(map[string]models.MigraineDayMarker)
	for _, marker := range markers {
		markersByDay[DayKey(marker.Date, location)] = marker
	}

	days := make([]CalendarDay, 0, 31)
	for cursor := monthStart; cursor.Before(monthEnd); cursor = cursor.AddDate(0, 0, 1) {
		key := DayKey(cursor, location)
		cell := CalendarDay{
			Date:          key,
			DataPoints:    sampleCounts[key],
			HasData:       sampleCounts[key] > 0,
			MigraineCount: entryCounts[key],
			IsMigraineDay: entryCounts[key] > 0,
		}
		if intensity, ok := maxIntensity[key]; ok {
			cell.Severity = &intensity
		}
		if marker, ok := markersByDay[key]; ok {
			cell.IsMigraineDay = marker.IsMigraineDay
			if marker.Severity != nil {
				cell.Severity = marker.Severity
			}
			cell.Notes = marker.Notes
		}
		days = append(days, cell)
	}
	return days, nil
}
