package models

import "time"

// Trend labels for per-channel least-squares slopes.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Risk factor severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SummaryIndicator is one row of per-day aggregate statistics over the
// samples in [PeriodStart, PeriodEnd) for one user.
type SummaryIndicator struct {
	IndicatorID uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_summary_user_period,unique" json:"userId"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PeriodStart time.Time `gorm:"not null;index:idx_summary_user_period,unique" json:"periodStart"`
	PeriodEnd   time.Time `gorm:"not null;index:idx_summary_user_period,unique" json:"periodEnd"`

	AvgStress          *float64 `json:"avgStress,omitempty"`
	AvgRecovery        *float64 `json:"avgRecovery,omitempty"`
	MinRecovery        *float64 `json:"minRecovery,omitempty"`
	AvgHrv             *float64 `json:"avgHrv,omitempty"`
	AvgHeartRate       *float64 `json:"avgHeartRate,omitempty"`
	MaxHeartRate       *float64 `json:"maxHeartRate,omitempty"`
	RestingHeartRate   *float64 `json:"restingHeartRate,omitempty"`
	AvgSleepEfficiency *float64 `json:"sleepEfficiency,omitempty"`
	AvgSleepHeartRate  *float64 `json:"avgSleepHeartRate,omitempty"`
	AvgSkinTemperature *float64 `json:"avgSkinTemperature,omitempty"`
	SkinTempVariation  *float64 `json:"skinTempVariation,omitempty"`
	AvgRestlessPeriods *float64 `json:"avgRestlessPeriods,omitempty"`

	StressVolatility   *float64 `json:"stressVolatility,omitempty"`
	HrvVolatility      *float64 `json:"hrvVolatility,omitempty"`
	RecoveryVolatility *float64 `json:"recoveryVolatility,omitempty"`

	StressTrend   string `gorm:"size:16;not null;default:stable" json:"stressTrend"`
	HrvTrend      string `gorm:"size:16;not null;default:stable" json:"hrvTrend"`
	RecoveryTrend string `gorm:"size:16;not null;default:stable" json:"recoveryTrend"`

	// WellnessScore is 0..100, nil when no weighted channel was present.
	WellnessScore *float64 `json:"wellnessScore,omitempty"`
	// RiskFactors is a list of {type, value, severity}.
	RiskFactors JSON `json:"riskFactors,omitempty"`

	SampleCount int       `gorm:"not null;default:0" json:"sampleCount"`
	ProcessedAt time.Time `gorm:"not null" json:"processedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the table name for SummaryIndicator
func (SummaryIndicator) TableName() string {
	return "summary_indicators"
}
