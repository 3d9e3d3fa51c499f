package services_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.MigraineEntry{},
		&models.MigraineDayMarker{},
		&models.UploadSession{},
		&models.WearableSample{},
		&models.SummaryIndicator{},
		&models.MigraineCorrelation{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func floatValue(p *float64) float64 {
	if p == nil {
		return -1
	}
	return *p
}
