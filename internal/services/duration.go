package services

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockHoursPattern   = regexp.MustCompile(`^(\d+):([0-5]\d)$`)
	decimalHoursPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
)

type DurationInput struct {
	Start          *time.Time
	Stop           *time.Time
	TimeZoneOffset int
	// ManualHours is the raw hours field; blank means no manual entry.
	ManualHours string
	AutoStop    bool
}

type DurationResult struct {
	Stop   *time.Time
	Hours  *float64
	Manual bool
}

// ParseManualHours reads "H:MM" or a non-negative decimal. Blank input yields nil.
func ParseManualHours(raw string) (*float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if matches := clockHoursPattern.FindStringSubmatch(value); len(matches) == 3 {
		wholeHours, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, ErrInvalidDurationFormat
		}
		minutes, err := strconv.Atoi(matches[2])
		if err != nil {
			return nil, ErrInvalidDurationFormat
		}
		hours := float64(wholeHours) + float64(minutes)/60
		return &hours, nil
	}

	if !decimalHoursPattern.MatchString(value) {
		return nil, ErrInvalidDurationFormat
	}
	hours, err := strconv.ParseFloat(value, 64)
	if err != nil || hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return nil, ErrInvalidDurationFormat
	}
	return &hours, nil
}

// ElapsedHours is the wall-clock distance between start and stop in hours.
func ElapsedHours(start time.Time, stop time.Time) float64 {
	return stop.Sub(start).Seconds() / 3600
}

// ResolveDuration settles the stop time and hours of a work unit.
//
// Manual hours always win over computed ones. An auto-stop request without a stop
// time stamps the stop at now. A stop earlier than the start blanks hours and returns
// ErrStopBeforeStart together with the partial result.
func ResolveDuration(input DurationInput, now time.Time) (DurationResult, error) {
	zone, err := ZoneForOffset(input.TimeZoneOffset)
	if err != nil {
		return DurationResult{}, err
	}

	manualHours, err := ParseManualHours(input.ManualHours)
	if err != nil {
		return DurationResult{}, err
	}

	var start *time.Time
	if input.Start != nil {
		localized := input.Start.In(zone)
		start = &localized
	}

	result := DurationResult{}
	if input.Stop != nil {
		localized := input.Stop.In(zone)
		result.Stop = &localized
	} else if input.AutoStop {
		stamped := now.In(zone)
		result.Stop = &stamped
	}

	if start != nil && result.Stop != nil && result.Stop.Before(*start) {
		return result, ErrStopBeforeStart
	}

	if manualHours != nil {
		result.Hours = manualHours
		result.Manual = true
		return result, nil
	}

	if start != nil && result.Stop != nil {
		hours := ElapsedHours(*start, *result.Stop)
		result.Hours = &hours
	}
	return result, nil
}

// IsDurationInputError reports whether err rejects the raw duration input itself, as
// opposed to a temporal rule the validator reports.
func IsDurationInputError(err error) bool {
	return errors.Is(err, ErrInvalidDurationFormat) || errors.Is(err, ErrInvalidTimeZone)
}
