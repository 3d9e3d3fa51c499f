package models

import "time"

// MigraineCorrelation is a per-user discriminator between migraine and
// non-migraine days for one feature and direction, e.g. "low_hrv".
type MigraineCorrelation struct {
	CorrelationID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string `gorm:"type:char(36);not null;index:idx_corr_user_pattern,unique" json:"userId"`
	User          User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	PatternType string `gorm:"size:64;not null;index:idx_corr_user_pattern,unique" json:"patternType"`
	PatternName string `gorm:"size:255;not null" json:"patternName"`

	// Pattern definition: MetricName ComparisonOp Threshold, e.g. "avgHrv < 36.1".
	MetricName   string  `gorm:"size:64;not null" json:"metricName"`
	ComparisonOp string  `gorm:"size:4;not null" json:"comparisonOp"`
	Threshold    float64 `gorm:"not null" json:"threshold"`

	// CorrelationStrength is Cohen's d clamped to [-1, 1]; Confidence is [0, 1].
	CorrelationStrength float64 `gorm:"not null" json:"correlationStrength"`
	Confidence          float64 `gorm:"not null" json:"confidence"`

	MigraineDayAvg float64 `gorm:"not null" json:"migraineDayAvg"`
	NormalDayAvg   float64 `gorm:"not null" json:"normalDayAvg"`

	MigraineDaysCount int `gorm:"not null" json:"migraineDaysCount"`
	TotalDaysAnalyzed int `gorm:"not null" json:"totalDaysAnalyzed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for MigraineCorrelation
func (MigraineCorrelation) TableName() string {
	return "migraine_correlations"
}
