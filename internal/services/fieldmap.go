package services

import (
	"strings"

	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/types"
)

// Canonical physiological fields the mapper normalizes to.
const (
	FieldTimestamp       = "timestamp"
	FieldSource          = "source"
	FieldStressValue     = "stressValue"
	FieldRecoveryValue   = "recoveryValue"
	FieldHeartRate       = "heartRate"
	FieldHrv             = "hrv"
	FieldSleepEfficiency = "sleepEfficiency"
	FieldSleepHeartRate  = "sleepHeartRate"
	FieldSkinTemperature = "skinTemperature"
	FieldRestlessPeriods = "restlessPeriods"
)

// FieldMapping is the result of mapping one CSV header row.
type FieldMapping struct {
	// Fields maps original column name -> canonical field name.
	Fields map[string]string
	// Source is the identified device vendor.
	Source string
	// Unrecognized lists headers that did not map to any canonical field.
	Unrecognized []string
	// TimestampColumn is the original header that mapped to timestamp.
	TimestampColumn string
}

// headerSynonym is one known spelling of a canonical field. A non-empty
// source votes for the device vendor when the synonym matches.
type headerSynonym struct {
	pattern string
	source  string
}

// fieldSynonyms is the data-driven mapping table. New vendors are new rows
// here, not new code paths. Patterns are pre-normalized (lowercase,
// alphanumeric only); order within a field decides ties.
var fieldSynonyms = []struct {
	field    string
	synonyms []headerSynonym
}{
	{FieldTimestamp, []headerSynonym{
		{"timestamp", ""},
		{"time", ""},
		{"datetime", ""},
		{"date", ""},
		{"recordedat", ""},
		{"measuredat", ""},
	}},
	{FieldHrv, []headerSynonym{
		{"hrv", ""},
		{"hrvrmssd", models.SourceOura},
		{"rmssd", models.SourceOura},
		{"heartratevariability", models.SourceFitbit},
		{"hrvweeklyavg", models.SourceGarmin},
	}},
	{FieldStressValue, []headerSynonym{
		{"stressvalue", models.SourceManualUpload},
		{"stress", models.SourceManualUpload},
		{"stresssummary", models.SourceOura},
		{"stressscore", models.SourceFitbit},
		{"stresslevel", models.SourceGarmin},
		{"dailystress", models.SourceGarmin},
	}},
	{FieldRecoveryValue, []headerSynonym{
		{"recoveryvalue", models.SourceManualUpload},
		{"recovery", models.SourceManualUpload},
		{"recoveryindex", models.SourceOura},
		{"readinessscore", models.SourceOura},
		{"readiness", models.SourceOura},
		{"bodybattery", models.SourceGarmin},
	}},
	{FieldHeartRate, []headerSynonym{
		{"heartrate", ""},
		{"hr", ""},
		{"bpm", models.SourceManualUpload},
		{"pulse", models.SourceManualUpload},
		{"avgheartrate", models.SourceGarmin},
	}},
	{FieldSleepEfficiency, []headerSynonym{
		{"sleepefficiency", ""},
		{"efficiency", models.SourceOura},
		{"sleepscore", models.SourceFitbit},
		{"sleepquality", models.SourceGarmin},
	}},
	{FieldSleepHeartRate, []headerSynonym{
		{"sleepheartrate", ""},
		{"lowestheartrate", models.SourceOura},
		{"sleepinghr", models.SourceFitbit},
		{"sleephr", models.SourceGarmin},
	}},
	{FieldSkinTemperature, []headerSynonym{
		{"skintemperature", ""},
		{"temperaturedeviation", models.SourceOura},
		{"skintemp", models.SourceFitbit},
		{"bodytemperature", models.SourceGarmin},
	}},
	{FieldRestlessPeriods, []headerSynonym{
		{"restlessperiods", ""},
		{"restlessness", models.SourceOura},
		{"restlessmoments", models.SourceFitbit},
		{"restlesscount", models.SourceGarmin},
	}},
	{FieldSource, []headerSynonym{
		{"source", ""},
		{"device", ""},
		{"vendor", ""},
	}},
}

// Tie-break priority for the source vote.
var sourcePriority = []string{
	models.SourceOura,
	models.SourceFitbit,
	models.SourceGarmin,
	models.SourceManualUpload,
}

// normalizeHeader folds case and strips punctuation, underscores, and
// whitespace so vendor spellings collapse to one pattern.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchCanonical finds the canonical field for one normalized header.
// Returns the field and the matched synonym's source hint.
func matchCanonical(normalized string) (string, string, bool) {
	for _, entry := range fieldSynonyms {
		for _, syn := range entry.synonyms {
			if syn.pattern == normalized {
				return entry.field, syn.source, true
			}
		}
	}
	return "", "", false
}

// MapHeaders maps an ordered CSV header row onto canonical fields,
// identifies the device vendor, and collects unmapped headers.
// Exactly one header must map to timestamp.
func MapHeaders(headers []string) (*FieldMapping, error) {
	mapping := &FieldMapping{
		Fields:       make(map[string]string, len(headers)),
		Source:       models.SourceUnknown,
		Unrecognized: []string{},
	}

	claimed := make(map[string]bool, len(fieldSynonyms))
	votes := make(map[string]int)
	timestampCount := 0

	for _, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			mapping.Unrecognized = append(mapping.Unrecognized, header)
			continue
		}

		field, sourceHint, ok := matchCanonical(normalized)
		if !ok {
			mapping.Unrecognized = append(mapping.Unrecognized, header)
			continue
		}

		if field == FieldTimestamp {
			timestampCount++
			if timestampCount > 1 {
				return nil, types.NewInvalidSchema("multiple timestamp columns detected")
			}
			mapping.TimestampColumn = header
			mapping.Fields[header] = field
			continue
		}

		// First match wins per canonical field; later duplicates are
		// reported, not mapped.
		if claimed[field] {
			mapping.Unrecognized = append(mapping.Unrecognized, header)
			continue
		}
		claimed[field] = true
		mapping.Fields[header] = field

		if sourceHint != "" {
			votes[sourceHint]++
		}
	}

	if timestampCount == 0 {
		return nil, types.NewInvalidSchema("no timestamp column detected")
	}

	mapping.Source = electSource(votes)
	return mapping, nil
}

// electSource picks the majority source hint; ties break by fixed priority.
func electSource(votes map[string]int) string {
	best := models.SourceUnknown
	bestCount := 0
	for _, source := range sourcePriority {
		if votes[source] > bestCount {
			best = source
			bestCount = votes[source]
		}
	}
	return best
}
