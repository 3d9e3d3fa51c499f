package services

import (
	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// ListUploadSessions returns a user's sessions, newest first.
func ListUploadSessions(db *gorm.DB, userID string) ([]models.UploadSession, error) {
	var sessions []models.UploadSession
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// GetUploadSession fetches one session scoped to the user.
func GetUploadSession(db *gorm.DB, userID string, sessionID uint64) (*models.UploadSession, error) {
	var session models.UploadSession
	err := db.Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteUploadSession removes one session and all samples it inserted.
// Returns the number of deleted samples, or gorm.ErrRecordNotFound when
// the session does not exist for the user.
func DeleteUploadSession(db *gorm.DB, userID string, sessionID uint64) (int64, error) {
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.UploadSession
		if err := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).
			First(&session).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ? AND upload_session_id = ?", userID, sessionID).
			Delete(&models.WearableSample{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return tx.Delete(&session).Error
	})
	return deleted, err
}

// DeleteAllUploads removes every session and sample for the user.
func DeleteAllUploads(db *gorm.DB, userID string) (sessions int64, samples int64, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.WearableSample{})
		if result.Error != nil {
			return result.Error
		}
		samples = result.RowsAffected

		result = tx.Where("user_id = ?", userID).Delete(&models.UploadSession{})
		if result.Error != nil {
			return result.Error
		}
		sessions = result.RowsAffected
		return nil
	})
	return sessions, samples, err
}

// CleanupOrphanedSamples deletes samples that no longer reference an
// upload session. New ingests always carry a session id; this covers rows
// left behind by older imports.
func CleanupOrphanedSamples(db *gorm.DB, userID string) (int64, error) {
	result := db.Where("user_id = ? AND upload_session_id IS NULL", userID).
		Delete(&models.WearableSample{})
	return result.RowsAffected, result.Error
}

// ListSamples pages a user's samples in a time window, oldest first.
func ListSamples(db *gorm.DB, userID string, from, to *string, limit int) ([]models.WearableSample, int64, error) {
	query := db.Model(&models.WearableSample{}).Where("user_id = ?", userID)
	if from != nil && *from != "" {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil && *to != "" {
		query = query.Where("timestamp <= ?", *to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var samples []models.WearableSample
	listing := query.Order("timestamp ASC")
	if limit > 0 {
		listing = listing.Limit(limit)
	}
	if err := listing.Find(&samples).Error; err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}
