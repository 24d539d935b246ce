package flight

import (
	"fmt"
	"strings"
	"time"

	"github.com/BDNK1/flowendpoint/runtime"
)

// MinLeadTime is how far ahead of the reference a flight must depart.
const MinLeadTime = 12 * time.Hour

// ReferenceShift moves the caller's reference instant into the flight
// schedule's UTC+4 frame.
const ReferenceShift = 4 * time.Hour

// Layouts accepted for TRAVEL_DATE_TIME and for the caller's reference time
// when they carry an explicit offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
}

// Layouts without offset; values are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"01-02-2006 15:04:05",
	"01-02-2006 15:04",
}

var flightDateTimeLayouts = []string{
	"01-02-2006 15:04:05",
	"01-02-2006 15:04",
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

// FlightTime returns the departure instant of row: TRAVEL_DATE_TIME when it
// parses, otherwise FLIGHT_DATE (MM-DD-YYYY) combined with FLIGHT_TIME.
// Zoned values keep their instant; naive ones are read as UTC.
func FlightTime(row runtime.FlightRow) (time.Time, bool) {
	if raw := runtime.ToStringValue(row[FieldTravelDateTime]); raw != "" {
		if t, err := parseTime(raw); err == nil {
			return t, true
		}
	}

	date := strings.TrimSpace(runtime.ToStringValue(row[FieldFlightDate]))
	clock := strings.TrimSpace(runtime.ToStringValue(row[FieldFlightTime]))
	if date == "" || clock == "" {
		return time.Time{}, false
	}

	combined := date + " " + clock
	for _, layout := range flightDateTimeLayouts {
		if t, err := time.Parse(layout, combined); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReferenceTime resolves the caller's reference (empty means now, values
// without an offset are read as UTC) and shifts it forward by ReferenceShift.
func ReferenceTime(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return now.UTC().Add(ReferenceShift), nil
	}
	t, err := parseTime(value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Add(ReferenceShift), nil
}

// FilterAhead keeps rows departing at least lead after reference, compared
// in whole seconds rounded down. Rows without a usable time are dropped.
func FilterAhead(rows []runtime.FlightRow, reference time.Time, lead time.Duration) []runtime.FlightRow {
	threshold := int64(lead / time.Second)
	result := make([]runtime.FlightRow, 0, len(rows))
	for _, row := range rows {
		departure, ok := FlightTime(row)
		if !ok {
			continue
		}
		if floorDiv(departure.Sub(reference).Milliseconds(), 1000) >= threshold {
			result = append(result, row)
		}
	}
	return result
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
