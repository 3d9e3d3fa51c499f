package models

import "time"

// Wearable source identifiers.
const (
	SourceOura         = "oura"
	SourceFitbit       = "fitbit"
	SourceGarmin       = "garmin"
	SourceManualUpload = "manualUpload"
	SourceUnknown      = "unknown"
)

// Upload session terminal states.
const (
	UploadStatusCompleted = "completed"
	UploadStatusPartial   = "partial"
	UploadStatusFailed    = "failed"
)

// WearableSample is one raw time-series point. (user_id, timestamp) is
// unique; re-ingesting the same instant updates the row in place.
type WearableSample struct {
	SampleID  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index:idx_sample_user_ts,unique" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Timestamp time.Time `gorm:"not null;index:idx_sample_user_ts,unique" json:"timestamp"`

	StressValue     *float64 `json:"stressValue,omitempty"`
	RecoveryValue   *float64 `json:"recoveryValue,omitempty"`
	HeartRate       *float64 `json:"heartRate,omitempty"`
	Hrv             *float64 `json:"hrv,omitempty"`
	SleepEfficiency *float64 `json:"sleepEfficiency,omitempty"`
	SleepHeartRate  *float64 `json:"sleepHeartRate,omitempty"`
	SkinTemperature *float64 `json:"skinTemperature,omitempty"`
	RestlessPeriods *float64 `json:"restlessPeriods,omitempty"`

	// AdditionalData is the opaque bag of unrecognized columns. The core
	// never interprets it.
	AdditionalData JSON   `json:"additionalData,omitempty"`
	Source         string `gorm:"size:32;not null;default:unknown" json:"source"`

	UploadSessionID *uint64        `gorm:"index" json:"uploadSessionId,omitempty"`
	UploadSession   *UploadSession `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for WearableSample
func (WearableSample) TableName() string {
	return "wearable_data"
}

// UploadSession is the immutable audit record of one ingest.
type UploadSession struct {
	SessionID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string `gorm:"type:char(36);not null;index" json:"userId"`
	User      User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Filename       string `gorm:"size:255;not null" json:"filename"`
	FileSize       int64  `gorm:"not null;default:0" json:"fileSize"`
	DetectedSource string `gorm:"size:32;not null;default:unknown" json:"detectedSource"`

	// FieldMapping maps original column name -> canonical field name.
	FieldMapping JSON `json:"fieldMapping"`
	// UnrecognizedFields lists headers that did not map to a canonical field.
	UnrecognizedFields JSON `json:"unrecognizedFields"`
	// RowErrors holds {timestamp?, reason} objects for rows that failed parsing.
	RowErrors JSON `json:"rowErrors,omitempty"`

	TotalRows    int `gorm:"not null;default:0" json:"totalRows"`
	InsertedRows int `gorm:"not null;default:0" json:"insertedRows"`
	UpdatedRows  int `gorm:"not null;default:0" json:"updatedRows"`
	SkippedRows  int `gorm:"not null;default:0" json:"skippedRows"`
	ErrorRows    int `gorm:"not null;default:0" json:"errorRows"`

	Status    string    `gorm:"size:16;not null;default:completed" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for UploadSession
func (UploadSession) TableName() string {
	return "upload_sessions"
}
