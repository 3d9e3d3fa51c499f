package models

import "time"

// User is an identity anchor for rows owned by one person. Identity itself
// lives in the Authorizer instance; this table only exists so that child
// rows can cascade on account deletion.
type User struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile holds the per-user migraine profile used by the risk prompt.
// Flag fields are 0/1, enum fields are bounded small integers.
type UserProfile struct {
	ProfileID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string `gorm:"type:char(36);not null;uniqueIndex" json:"userId"`
	User      User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// Pain characteristics: location 0=unilateral 1=bilateral 2=frontal 3=occipital,
	// character 0=pulsating 1=pressing 2=stabbing, intensity 0..3.
	PainLocation  int `gorm:"not null;default:0" json:"painLocation"`
	PainCharacter int `gorm:"not null;default:0" json:"painCharacter"`
	PainIntensity int `gorm:"not null;default:0" json:"painIntensity"`

	// Aura and neurological symptom flags (0/1) and small counts.
	AuraPresent      int `gorm:"not null;default:0" json:"auraPresent"`
	VisualSymptoms   int `gorm:"not null;default:0" json:"visualSymptoms"`
	SensorySymptoms  int `gorm:"not null;default:0" json:"sensorySymptoms"`
	NauseaVomiting   int `gorm:"not null;default:0" json:"nauseaVomiting"`
	LightSensitivity int `gorm:"not null;default:0" json:"lightSensitivity"`
	SoundSensitivity int `gorm:"not null;default:0" json:"soundSensitivity"`

	DiagnosedType    string  `gorm:"size:255" json:"diagnosedType"`
	MonthlyFrequency float64 `gorm:"not null;default:0" json:"monthlyFrequency"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for UserProfile
func (UserProfile) TableName() string {
	return "user_profiles"
}
