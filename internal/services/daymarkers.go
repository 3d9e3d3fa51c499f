package services

import (
	"time"

	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// MigraineDays resolves the set of migraine-marked local dates for a user
// in [from, to): the union of explicit positive markers and dates carrying
// at least one migraine entry, minus explicit negative markers.
// Keys are formatted calendar days in the configured zone.
func MigraineDays(db *gorm.DB, userID string, from, to time.Time, location *time.Location) (map[string]bool, error) {
	days := make(map[string]bool)

	var entries []models.MigraineEntry
	if err := db.Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, from, to).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, entry := range entries {
		days[DayKey(entry.StartTime, location)] = true
	}

	var markers []models.MigraineDayMarker
	if err := db.Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Find(&markers).Error; err != nil {
		return nil, err
	}
	// Explicit markers win over entry-derived dates in both directions.
	for _, marker := range markers {
		key := DayKey(marker.Date, location)
		if marker.IsMigraineDay {
			days[key] = true
		} else {
			delete(days, key)
		}
	}

	return days, nil
}

// UpsertDayMarker creates or replaces the explicit marker for one
// (user, date) pair.
func UpsertDayMarker(db *gorm.DB, userID string, date time.Time, isMigraineDay bool, severity *int, notes string, location *time.Location) (*models.MigraineDayMarker, error) {
	day := DateAtLocation(date, location)

	var marker models.MigraineDayMarker
	err := db.Where("user_id = ? AND date = ?", userID, day).First(&marker).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	marker.UserID = userID
	marker.Date = day
	marker.IsMigraineDay = isMigraineDay
	marker.Severity = severity
	marker.Notes = notes

	if err := db.Save(&marker).Error; err != nil {
		return nil, err
	}
	return &marker, nil
}

// DeleteDayMarker removes the explicit marker for one (user, date) pair.
// Returns gorm.ErrRecordNotFound when no marker exists.
func DeleteDayMarker(db *gorm.DB, userID string, date time.Time, location *time.Location) error {
	day := DateAtLocation(date, location)
	result := db.Where("user_id = ? AND date = ?", userID, day).
		Delete(&models.MigraineDayMarker{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EnsureUser creates the identity anchor row if it does not exist yet.
// Called before any write on behalf of an authenticated user.
func EnsureUser(db *gorm.DB, userID string) error {
	return db.FirstOrCreate(&models.User{}, models.User{ID: userID}).Error
}
