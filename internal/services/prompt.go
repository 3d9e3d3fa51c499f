package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/migralog/migralog/internal/models"
	"gorm.io/gorm"
)

// Fixed prompt section headers. The response parser depends on the shape
// of the requested output format staying stable.
const (
	promptHeaderProfile  = "PATIENT PROFILE"
	promptHeaderSamples  = "RECENT WEARABLE DATA (LAST 24 HOURS)"
	promptHeaderPatterns = "IDENTIFIED MIGRAINE PATTERNS"
	promptHeaderOutput   = "REQUESTED OUTPUT FORMAT"
)

const promptOutputSchema = `Respond using exactly these sections:
Risk Level: <number>%
Risk Category: Low|Moderate|High|Very High
Key Risk Factors:
- <factor>
Trend Analysis: <short paragraph>
Recommendations:
- <recommendation>
Confidence Level: Low|Medium|High`

var painLocationLabels = []string{"unilateral", "bilateral", "frontal", "occipital"}
var painCharacterLabels = []string{"pulsating", "pressing", "stabbing"}
var painIntensityLabels = []string{"none", "mild", "moderate", "severe"}

// PromptMetadata describes what went into an assembled prompt.
type PromptMetadata struct {
	DataPointsCount int    `json:"dataPointsCount"`
	PatternsCount   int    `json:"patternsCount"`
	HasProfile      bool   `json:"hasProfile"`
	TimeRange       string `json:"timeRange"`
}

// PromptBundle is the assembled risk prompt plus its context.
type PromptBundle struct {
	Prompt   string         `json:"prompt"`
	Summary  string         `json:"summary"`
	Metadata PromptMetadata `json:"metadata"`
}

// RiskData is the raw bundle the prompt is built from, exposed for
// inspection by the UI.
type RiskData struct {
	Samples  []models.WearableSample      `json:"samples"`
	Patterns []models.MigraineCorrelation `json:"patterns"`
	Profile  *models.UserProfile          `json:"profile,omitempty"`
	Metadata PromptMetadata               `json:"metadata"`
}

// LoadRiskData gathers the last 24 hours of samples, active patterns, and
// the profile for one user.
func LoadRiskData(db *gorm.DB, userID string, now time.Time) (*RiskData, error) {
	since := now.Add(-24 * time.Hour)

	var samples []models.WearableSample
	if err := db.Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, since, now).
		Order("timestamp ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}

	patterns, err := ActiveCorrelations(db, userID)
	if err != nil {
		return nil, err
	}

	var profile *models.UserProfile
	var stored models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err == nil {
		profile = &stored
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return &RiskData{
		Samples:  samples,
		Patterns: patterns,
		Profile:  profile,
		Metadata: PromptMetadata{
			DataPointsCount: len(samples),
			PatternsCount:   len(patterns),
			HasProfile:      profile != nil,
			TimeRange: fmt.Sprintf("%s to %s",
				since.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339)),
		},
	}, nil
}

// AssemblePrompt produces the deterministic risk prompt for one user.
// When overrides are provided, one labeled synthetic sample at now is
// appended to the data section.
func AssemblePrompt(db *gorm.DB, userID string, overrides map[string]float64, now time.Time, location *time.Location) (*PromptBundle, error) {
	data, err := LoadRiskData(db, userID, now)
	if err != nil {
		return nil, err
	}

	var b strings.Builder

	b.WriteString("You are assisting with migraine risk assessment from wearable data.\n\n")

	b.WriteString(promptHeaderProfile + "\n")
	if data.Profile != nil {
		writeProfileSection(&b, data.Profile)
	} else {
		b.WriteString("No profile on record.\n")
	}
	b.WriteString("\n")

	b.WriteString(promptHeaderSamples + "\n")
	if len(data.Samples) == 0 && len(overrides) == 0 {
		b.WriteString("No samples in the last 24 hours.\n")
	}
	for _, sample := range data.Samples {
		b.WriteString(formatSampleLine(sample))
	}
	if len(overrides) > 0 {
		data.Metadata.DataPointsCount++
		b.WriteString(formatOverrideLine(overrides, now))
	}
	b.WriteString("\n")

	b.WriteString(promptHeaderPatterns + "\n")
	if len(data.Patterns) == 0 {
		b.WriteString("No statistically identified patterns yet.\n")
	}
	for _, pattern := range data.Patterns {
		b.WriteString(fmt.Sprintf("- %s: %s %s %.1f (strength %.2f, confidence %.2f, migraine-day avg %.1f vs normal %.1f)\n",
			pattern.PatternName, pattern.MetricName, pattern.ComparisonOp, pattern.Threshold,
			pattern.CorrelationStrength, pattern.Confidence,
			pattern.MigraineDayAvg, pattern.NormalDayAvg))
	}
	b.WriteString("\n")

	b.WriteString(promptHeaderOutput + "\n")
	b.WriteString(promptOutputSchema + "\n")

	summary := fmt.Sprintf("%d data points over 24h, %d active patterns, profile: %t",
		data.Metadata.DataPointsCount, data.Metadata.PatternsCount, data.Metadata.HasProfile)

	return &PromptBundle{
		Prompt:   b.String(),
		Summary:  summary,
		Metadata: data.Metadata,
	}, nil
}

// writeProfileSection renders the non-empty profile fields.
func writeProfileSection(b *strings.Builder, profile *models.UserProfile) {
	if profile.DiagnosedType != "" {
		fmt.Fprintf(b, "Diagnosed type: %s\n", profile.DiagnosedType)
	}
	if profile.MonthlyFrequency > 0 {
		fmt.Fprintf(b, "Typical frequency: %.1f episodes/month\n", profile.MonthlyFrequency)
	}
	if profile.PainIntensity > 0 {
		fmt.Fprintf(b, "Typical pain: %s, %s, %s\n",
			boundedLabel(painIntensityLabels, profile.PainIntensity),
			boundedLabel(painCharacterLabels, profile.PainCharacter),
			boundedLabel(painLocationLabels, profile.PainLocation))
	}
	if profile.AuraPresent == 1 {
		b.WriteString("Aura: present\n")
	}
	if profile.VisualSymptoms > 0 {
		fmt.Fprintf(b, "Visual symptoms: %d\n", profile.VisualSymptoms)
	}
	if profile.SensorySymptoms > 0 {
		fmt.Fprintf(b, "Sensory symptoms: %d\n", profile.SensorySymptoms)
	}
	if profile.NauseaVomiting == 1 {
		b.WriteString("Nausea/vomiting: yes\n")
	}
	if profile.LightSensitivity == 1 {
		b.WriteString("Light sensitivity: yes\n")
	}
	if profile.SoundSensitivity == 1 {
		b.WriteString("Sound sensitivity: yes\n")
	}
}

func boundedLabel(labels []string, index int) string {
	if index < 0 || index >= len(labels) {
		return "unknown"
	}
	return labels[index]
}

// formatSampleLine renders one sample as a stable single line.
func formatSampleLine(sample models.WearableSample) string {
	parts := []string{sample.Timestamp.UTC().Format(time.RFC3339)}
	appendChannel := func(name string, value *float64) {
		if value != nil {
			parts = append(parts, fmt.Sprintf("%s=%s", name, trimFloat(*value)))
		}
	}
	appendChannel("stress", sample.StressValue)
	appendChannel("recovery", sample.RecoveryValue)
	appendChannel("heartRate", sample.HeartRate)
	appendChannel("hrv", sample.Hrv)
	appendChannel("sleepEfficiency", sample.SleepEfficiency)
	appendChannel("sleepHeartRate", sample.SleepHeartRate)
	appendChannel("skinTemperature", sample.SkinTemperature)
	appendChannel("restlessPeriods", sample.RestlessPeriods)
	return strings.Join(parts, " ") + "\n"
}

// formatOverrideLine renders the synthetic "simulated now" sample in a
// deterministic key order.
func formatOverrideLine(overrides map[string]float64, now time.Time) string {
	order := []string{
		FieldStressValue, FieldRecoveryValue, FieldHeartRate, FieldHrv,
		FieldSleepEfficiency, FieldSleepHeartRate, FieldSkinTemperature, FieldRestlessPeriods,
	}
	parts := []string{now.UTC().Format(time.RFC3339)}
	for _, field := range order {
		if value, ok := overrides[field]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", promptChannelName(field), trimFloat(value)))
		}
	}
	return strings.Join(parts, " ") + " [simulated now]\n"
}

// promptChannelName shortens canonical field names to the channel names
// used on sample lines.
func promptChannelName(field string) string {
	switch field {
	case FieldStressValue:
		return "stress"
	case FieldRecoveryValue:
		return "recovery"
	}
	return field
}

func trimFloat(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.1f", value)
}
