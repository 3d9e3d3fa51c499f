package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/migralog/migralog/internal/models"
	"github.com/migralog/migralog/internal/types"
	"gorm.io/gorm"
)

// Upsert outcomes for one row.
const (
	rowInserted = "inserted"
	rowUpdated  = "updated"
	rowSkipped  = "skipped"
)

const naiveTimestampFlag = "__timezone_naive_timestamps"

// rowError is one recovered per-row failure, reported in the session.
type rowError struct {
	Row       int    `json:"row"`
	Timestamp string `json:"timestamp,omitempty"`
	Reason    string `json:"reason"`
}

// IngestCSV parses a delimited wearable export row by row and upserts
// samples under the (user, timestamp) uniqueness constraint. The returned
// UploadSession summarizes counts, the field mapping, and terminal status.
//
// Header-stage failures (empty file, no timestamp column, unreadable
// input) return an error and write nothing. Row-level failures are
// recovered locally and never surface as an error. Context cancellation
// stops before the next row; committed rows remain and the session ends
// partial.
func IngestCSV(ctx context.Context, db *gorm.DB, userID, filename string, file io.Reader, fileSize int64, location *time.Location) (*models.UploadSession, error) {
	reader := bufio.NewReader(file)

	headerLine, err := firstNonEmptyLine(reader)
	if err == io.EOF {
		return nil, types.NewEmptyFile()
	}
	if err != nil {
		return nil, types.NewParseError(fmt.Sprintf("failed to read file: %v", err))
	}

	delimiter, err := detectDelimiter(headerLine)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaderRow(headerLine, delimiter)
	if err != nil {
		return nil, types.NewParseError(fmt.Sprintf("failed to parse header row: %v", err))
	}

	mapping, err := MapHeaders(headers)
	if err != nil {
		return nil, err
	}

	if err := EnsureUser(db, userID); err != nil {
		return nil, err
	}

	// The session row exists before any sample so a sample is never
	// orphaned; counts become final in the update below.
	session := &models.UploadSession{
		UserID:             userID,
		Filename:           filename,
		FileSize:           fileSize,
		DetectedSource:     mapping.Source,
		FieldMapping:       mustJSON(mapping.Fields),
		UnrecognizedFields: mustJSON(mapping.Unrecognized),
		Status:             models.UploadStatusPartial,
	}
	if err := db.Create(session).Error; err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	var (
		rowErrors []rowError
		inserted  int
		updated   int
		skipped   int
		total     int
		rowNum    = 1 // header was row 1
		naiveSeen = false
		aborted   = false
	)

	for {
		if ctx.Err() != nil {
			aborted = true
			break
		}

		record, readErr := csvReader.Read()
		if readErr == io.EOF {
			break
		}
		rowNum++
		if readErr != nil {
			if _, ok := readErr.(*csv.ParseError); ok {
				total++
				rowErrors = append(rowErrors, rowError{Row: rowNum, Reason: readErr.Error()})
				continue
			}
			// Whole-file I/O failure: abort, keep committed rows.
			session.Status = models.UploadStatusFailed
			rowErrors = append(rowErrors, rowError{Row: rowNum, Reason: fmt.Sprintf("read failed: %v", readErr)})
			break
		}
		if isBlankRecord(record) {
			continue
		}
		total++

		if len(record) != len(headers) {
			rowErrors = append(rowErrors, rowError{
				Row:    rowNum,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(headers), len(record)),
			})
			continue
		}

		sample, naive, parseErr := parseRow(headers, record, mapping, userID, session.SessionID, location)
		if parseErr != nil {
			rowErrors = append(rowErrors, rowError{Row: rowNum, Timestamp: rawTimestamp(headers, record, mapping), Reason: parseErr.Error()})
			continue
		}
		naiveSeen = naiveSeen || naive

		outcome, upsertErr := upsertSample(db, sample)
		if upsertErr != nil {
			rowErrors = append(rowErrors, rowError{Row: rowNum, Timestamp: sample.Timestamp.UTC().Format(time.RFC3339), Reason: upsertErr.Error()})
			continue
		}
		switch outcome {
		case rowInserted:
			inserted++
		case rowUpdated:
			updated++
		case rowSkipped:
			skipped++
		}
	}

	if naiveSeen {
		// Reported only; does not change how values were stored.
		mapping.Unrecognized = append(mapping.Unrecognized, naiveTimestampFlag)
		session.UnrecognizedFields = mustJSON(mapping.Unrecognized)
	}

	session.TotalRows = total
	session.InsertedRows = inserted
	session.UpdatedRows = updated
	session.SkippedRows = skipped
	session.ErrorRows = len(rowErrors)
	if len(rowErrors) > 0 {
		session.RowErrors = mustJSON(rowErrors)
	}

	if session.Status != models.UploadStatusFailed {
		switch {
		case aborted:
			session.Status = models.UploadStatusPartial
		case len(rowErrors) == 0:
			session.Status = models.UploadStatusCompleted
		case inserted+updated > 0:
			session.Status = models.UploadStatusPartial
		default:
			session.Status = models.UploadStatusFailed
		}
	}

	if err := db.Save(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

// firstNonEmptyLine reads lines until one contains non-whitespace content.
func firstNonEmptyLine(reader *bufio.Reader) (string, error) {
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if trimmed != "" {
			return trimmed, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// detectDelimiter counts candidate delimiters on the header line and picks
// the most frequent; ties prefer the comma.
func detectDelimiter(line string) (rune, error) {
	candidates := []rune{',', ';', '\t'}
	best := ','
	bestCount := 0
	for _, candidate := range candidates {
		count := strings.Count(line, string(candidate))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	if bestCount == 0 && strings.Count(line, "|") > 0 {
		return 0, &types.CustomError{
			Status:  400,
			Code:    types.CodeUnsupportedDelimiter,
			Message: "unsupported delimiter; expected comma, semicolon, or tab",
		}
	}
	return best, nil
}

// parseHeaderRow parses the header line with full RFC 4180 quoting rules.
func parseHeaderRow(line string, delimiter rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	headers, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return headers, nil
}

func isBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// rawTimestamp pulls the unparsed timestamp cell out of a failed row for
// error reporting.
func rawTimestamp(headers, record []string, mapping *FieldMapping) string {
	for i, header := range headers {
		if header == mapping.TimestampColumn && i < len(record) {
			return strings.TrimSpace(record[i])
		}
	}
	return ""
}

// parseRow converts one CSV record into a sample. The bool result reports
// whether the timestamp was zone-naive.
func parseRow(headers, record []string, mapping *FieldMapping, userID string, sessionID uint64, location *time.Location) (*models.WearableSample, bool, error) {
	sample := &models.WearableSample{
		UserID:          userID,
		Source:          mapping.Source,
		UploadSessionID: &sessionID,
	}

	additional := make(map[string]string)
	naive := false

	for i, header := range headers {
		value := strings.TrimSpace(record[i])
		canonical, mapped := mapping.Fields[header]
		if !mapped {
			if value != "" {
				additional[header] = value
			}
			continue
		}

		if canonical == FieldTimestamp {
			ts, isNaive, err := parseTimestamp(value)
			if err != nil {
				return nil, false, err
			}
			sample.Timestamp = ts
			naive = isNaive
			continue
		}

		if canonical == FieldSource {
			if value != "" {
				sample.Source = value
			}
			continue
		}

		if value == "" {
			continue
		}
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, false, fmt.Errorf("invalid numeric value %q for %s", value, canonical)
		}
		assignCanonical(sample, canonical, number)
	}

	if len(additional) > 0 {
		sample.AdditionalData = mustJSON(additional)
	}
	return sample, naive, nil
}

// parseTimestamp accepts ISO-8601, zoned or not. Zone-naive values are
// interpreted as UTC.
func parseTimestamp(value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, fmt.Errorf("missing timestamp")
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, false, nil
	}
	ts, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unparseable timestamp %q", value)
	}
	return ts, !hasExplicitZone(value), nil
}

func hasExplicitZone(value string) bool {
	if strings.HasSuffix(value, "Z") || strings.Contains(value, "UTC") || strings.Contains(value, "GMT") {
		return true
	}
	// An offset sign after the date portion, e.g. 2025-01-05T08:00:00+02:00.
	if idx := strings.IndexAny(value, "Tt "); idx > 0 {
		rest := value[idx:]
		return strings.ContainsAny(rest, "+") || strings.Count(rest, "-") > 0
	}
	return false
}

func assignCanonical(sample *models.WearableSample, canonical string, value float64) {
	v := value
	switch canonical {
	case FieldStressValue:
		sample.StressValue = &v
	case FieldRecoveryValue:
		sample.RecoveryValue = &v
	case FieldHeartRate:
		sample.HeartRate = &v
	case FieldHrv:
		sample.Hrv = &v
	case FieldSleepEfficiency:
		sample.SleepEfficiency = &v
	case FieldSleepHeartRate:
		sample.SleepHeartRate = &v
	case FieldSkinTemperature:
		sample.SkinTemperature = &v
	case FieldRestlessPeriods:
		sample.RestlessPeriods = &v
	}
}

// upsertSample inserts, updates, or skips one sample under the
// (user_id, timestamp) constraint. A constraint violation on insert is
// retried once as an update before surfacing a conflict.
func upsertSample(db *gorm.DB, sample *models.WearableSample) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var existing models.WearableSample
		err := db.Where("user_id = ? AND timestamp = ?", sample.UserID, sample.Timestamp).
			First(&existing).Error

		if err == gorm.ErrRecordNotFound {
			if createErr := db.Create(sample).Error; createErr != nil {
				// Concurrent insert of the same instant; retry as update.
				continue
			}
			return rowInserted, nil
		}
		if err != nil {
			return "", err
		}

		if !mergeSample(&existing, sample) {
			return rowSkipped, nil
		}
		if saveErr := db.Save(&existing).Error; saveErr != nil {
			return "", saveErr
		}
		return rowUpdated, nil
	}
	return "", types.NewConflict(fmt.Sprintf("could not upsert sample at %s", sample.Timestamp.UTC().Format(time.RFC3339)))
}

// mergeSample applies the later ingest's fields onto the stored row,
// per field: an incoming non-null value wins, an absent one leaves the
// stored value alone. Returns true when anything changed.
func mergeSample(existing, incoming *models.WearableSample) bool {
	changed := false

	fields := []struct {
		dst **float64
		src *float64
	}{
		{&existing.StressValue, incoming.StressValue},
		{&existing.RecoveryValue, incoming.RecoveryValue},
		{&existing.HeartRate, incoming.HeartRate},
		{&existing.Hrv, incoming.Hrv},
		{&existing.SleepEfficiency, incoming.SleepEfficiency},
		{&existing.SleepHeartRate, incoming.SleepHeartRate},
		{&existing.SkinTemperature, incoming.SkinTemperature},
		{&existing.RestlessPeriods, incoming.RestlessPeriods},
	}
	for _, f := range fields {
		if f.src != nil && !floatPtrEqual(*f.dst, f.src) {
			v := *f.src
			*f.dst = &v
			changed = true
		}
	}

	if incoming.Source != "" && incoming.Source != existing.Source {
		existing.Source = incoming.Source
		changed = true
	}

	if merged, didChange := mergeAdditionalData(existing.AdditionalData, incoming.AdditionalData); didChange {
		existing.AdditionalData = merged
		changed = true
	}

	if changed {
		existing.UploadSessionID = incoming.UploadSessionID
	}
	return changed
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mergeAdditionalData merges the incoming extension bag over the stored
// one, key by key.
func mergeAdditionalData(stored, incoming models.JSON) (models.JSON, bool) {
	if len(incoming.JSON) == 0 {
		return stored, false
	}

	var storedMap map[string]string
	if len(stored.JSON) > 0 {
		_ = json.Unmarshal(stored.JSON, &storedMap)
	}
	if storedMap == nil {
		storedMap = make(map[string]string)
	}

	var incomingMap map[string]string
	if err := json.Unmarshal(incoming.JSON, &incomingMap); err != nil {
		return stored, false
	}

	changed := false
	for key, value := range incomingMap {
		if storedMap[key] != value {
			storedMap[key] = value
			changed = true
		}
	}
	if !changed {
		return stored, false
	}
	return mustJSON(storedMap), true
}

// mustJSON marshals a value the caller controls; failures cannot occur for
// the map and slice shapes used here.
func mustJSON(value interface{}) models.JSON {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = []byte("null")
	}
	var j models.JSON
	_ = j.Scan(raw)
	return j
}
