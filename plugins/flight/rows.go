package flight

import (
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/BDNK1/flowendpoint/runtime"
)

// Row field names used by the flight API.
const (
	FieldFlightNo       = "FLIGHT_NO"
	FieldCity           = "CITY"
	FieldFlightTime     = "FLIGHT_TIME"
	FieldFlightDate     = "FLIGHT_DATE"
	FieldTravelDateTime = "TRAVEL_DATE_TIME"
	FieldFlightContent  = "Flight_Content"
)

// shapeMatcher recognizes one payload layout and returns its row list.
type shapeMatcher struct {
	name  string
	match func(payload *gabs.Container) ([]any, bool)
}

// rowShapes are tried in order; the first match wins.
var rowShapes = []shapeMatcher{
	{name: "data", match: arrayField("data")},
	{name: "items", match: arrayField("items")},
	{name: "array", match: topLevelArray},
}

func arrayField(field string) func(*gabs.Container) ([]any, bool) {
	return func(payload *gabs.Container) ([]any, bool) {
		if _, ok := payload.Data().(map[string]any); !ok {
			return nil, false
		}
		rows, ok := payload.S(field).Data().([]any)
		return rows, ok
	}
}

func topLevelArray(payload *gabs.Container) ([]any, bool) {
	rows, ok := payload.Data().([]any)
	return rows, ok
}

// ExtractRows parses body and returns the rows of the first matching shape,
// or an empty list. Array elements that are not objects are skipped.
func ExtractRows(body []byte) ([]runtime.FlightRow, error) {
	payload, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, runtime.NewFlowError(runtime.ErrorTypePermanent, runtime.ErrorCodeFlightParse,
			"Flight API returned invalid JSON").
			WithCause(err).
			WithMeta("body", string(body))
	}

	for _, shape := range rowShapes {
		items, ok := shape.match(payload)
		if !ok {
			continue
		}
		rows := make([]runtime.FlightRow, 0, len(items))
		for _, item := range items {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows, nil
	}

	return []runtime.FlightRow{}, nil
}

// ContentKey identifies a row by content: the trimmed Flight_Content when
// present, otherwise FLIGHT_NO|CITY|FLIGHT_TIME.
func ContentKey(row runtime.FlightRow) string {
	if content := strings.TrimSpace(runtime.ToStringValue(row[FieldFlightContent])); content != "" {
		return content
	}
	return strings.Join([]string{
		runtime.ToStringValue(row[FieldFlightNo]),
		runtime.ToStringValue(row[FieldCity]),
		runtime.ToStringValue(row[FieldFlightTime]),
	}, "|")
}

// Deduplicate keeps the first row for each content key, in input order.
func Deduplicate(rows []runtime.FlightRow) []runtime.FlightRow {
	seen := make(map[string]struct{}, len(rows))
	result := make([]runtime.FlightRow, 0, len(rows))
	for _, row := range rows {
		key := ContentKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, row)
	}
	return result
}
