package services

import (
	"fmt"
	"strings"
	"time"
)

const (
	minTimeZoneOffsetHours = -12
	maxTimeZoneOffsetHours = 14
)

var zonedTimeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 Z07:00",
}

var localTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"January 2, 2006 15:04",
	"Jan 2, 2006 15:04",
}

var clockLayouts = []string{"15:04", "15:04:05"}

// ZoneForOffset returns a fixed zone for a signed whole-hour offset from UTC.
func ZoneForOffset(offsetHours int) (*time.Location, error) {
	if offsetHours < minTimeZoneOffsetHours || offsetHours > maxTimeZoneOffsetHours {
		return nil, ErrInvalidTimeZone
	}
	if offsetHours == 0 {
		return time.FixedZone("UTC", 0), nil
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d:00", offsetHours), offsetHours*3600), nil
}

// ParseTimeInput reads a user-supplied timestamp in the zone of offsetHours.
// A bare clock time resolves to that clock on the day of now in the same zone.
// Blank input yields nil.
func ParseTimeInput(raw string, offsetHours int, now time.Time) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	zone, err := ZoneForOffset(offsetHours)
	if err != nil {
		return nil, err
	}

	for _, layout := range zonedTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			localized := parsed.In(zone)
			return &localized, nil
		}
	}
	for _, layout := range localTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, zone); err == nil {
			return &parsed, nil
		}
	}
	for _, layout := range clockLayouts {
		clock, err := time.ParseInLocation(layout, value, zone)
		if err != nil {
			continue
		}
		year, month, day := now.In(zone).Date()
		resolved := time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, zone)
		return &resolved, nil
	}

	return nil, ErrInvalidTimeInput
}

// DateAtLocation truncates value to midnight of its calendar day in location.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	year, month, day := value.In(location).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayRange returns [start, end) covering the calendar day of value in location.
func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}
