package models

import "time"

// MigraineEntry is one recorded episode. Entries feed the migraine-day
// resolution alongside explicit day markers.
type MigraineEntry struct {
	EntryID   uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string     `gorm:"type:char(36);not null;index" json:"userId"`
	User      User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StartTime time.Time  `gorm:"not null;index" json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	// Intensity is bounded 1..10.
	Intensity  int       `gorm:"not null;default:5" json:"intensity"`
	Triggers   string    `gorm:"type:text" json:"triggers"`
	Symptoms   string    `gorm:"type:text" json:"symptoms"`
	Medication string    `gorm:"type:text" json:"medication"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName overrides the table name for MigraineEntry
func (MigraineEntry) TableName() string {
	return "migraine_entries"
}

// MigraineDayMarker is an explicit user statement about one calendar day,
// independent of any entry. IsMigraineDay=false overrides entry-derived days.
type MigraineDayMarker struct {
	MarkerID      uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string    `gorm:"type:char(36);not null;index:idx_marker_user_date,unique" json:"userId"`
	User          User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Date          time.Time `gorm:"type:date;not null;index:idx_marker_user_date,unique" json:"date"`
	IsMigraineDay bool      `gorm:"not null;default:true" json:"isMigraineDay"`
	// Severity is bounded 1..10 when present.
	Severity  *int      `json:"severity,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for MigraineDayMarker
func (MigraineDayMarker) TableName() string {
	return "migraine_day_markers"
}
