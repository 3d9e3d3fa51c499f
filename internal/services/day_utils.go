package services

import "time"

const dayKeyFormat = "2006-01-02"

// DateAtLocation truncates a timestamp to its calendar day in the
// configured day-bucketing zone.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayRange returns the half-open interval [start, end) covering the
// calendar day that contains value.
func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// DayKey formats a timestamp as its local calendar-day key.
func DayKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(dayKeyFormat)
}
