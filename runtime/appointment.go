package runtime

import (
	"fmt"
	"sort"
)

func (d *Dispatcher) appointmentInit() (ScreenResponse, error) {
	screen, err := d.screen(FlowAppointment, ScreenAppointment)
	if err != nil {
		return ScreenResponse{}, err
	}

	return ScreenResponse{
		Screen: ScreenAppointment,
		Data:   merge(screen.Template(), screen.Init),
	}, nil
}

// appointmentExchange handles a data_exchange on an APPOINTMENT screen. The
// boolean result is false when the screen has no data_exchange step.
func (d *Dispatcher) appointmentExchange(ex *Exchange) (ScreenResponse, bool, error) {
	data := ex.Request.Data

	switch ex.Request.Screen {
	case ScreenAppointment:
		response, err := d.appointmentSelection(data)
		return response, true, err

	case ScreenDetails:
		response, err := d.appointmentSummary(data)
		return response, true, err

	case ScreenSummary:
		return successResponse(ex.Request.FlowToken, nil), true, nil

	default:
		return ScreenResponse{}, false, nil
	}
}

// appointmentSelection recomputes which pickers are enabled from the fields
// already chosen and trims the option lists.
func (d *Dispatcher) appointmentSelection(data map[string]any) (ScreenResponse, error) {
	screen, err := d.screen(FlowAppointment, ScreenAppointment)
	if err != nil {
		return ScreenResponse{}, err
	}

	result := screen.Template()

	for _, field := range sortedKeys(screen.Gates) {
		enabled, err := d.evaluator.EvalBool(screen.Gates[field], data)
		if err != nil {
			return ScreenResponse{}, NewFlowError(ErrorTypePermanent, ErrorCodeGateEvaluation,
				fmt.Sprintf("error evaluating gate %s", field)).
				WithStep(ScreenAppointment).
				WithCause(err)
		}
		result[field] = enabled
	}

	for field, limit := range screen.Limits {
		if options, ok := result[field].([]any); ok && len(options) > limit {
			result[field] = options[:limit]
		}
	}

	return ScreenResponse{Screen: ScreenAppointment, Data: result}, nil
}

// appointmentSummary renders the human readable booking recap shown on the
// SUMMARY screen. Ids are resolved to titles from the APPOINTMENT options.
func (d *Dispatcher) appointmentSummary(data map[string]any) (ScreenResponse, error) {
	options, err := d.screen(FlowAppointment, ScreenAppointment)
	if err != nil {
		return ScreenResponse{}, err
	}

	department := optionTitle(options.Options("department"), data["department"])
	location := optionTitle(options.Options("location"), data["location"])
	date := optionTitle(options.Options("date"), data["date"])

	appointment := fmt.Sprintf("%s at %s\n%s at %s",
		department, location, date, ToStringValue(data["time"]))

	details := fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\"%s\"",
		ToStringValue(data["name"]),
		ToStringValue(data["email"]),
		ToStringValue(data["phone"]),
		ToStringValue(data["more_details"]))

	result := map[string]any{
		"appointment": appointment,
		"details":     details,
	}

	return ScreenResponse{Screen: ScreenSummary, Data: merge(result, data)}, nil
}

// optionTitle returns the title of the option whose id equals value, or the
// value itself when nothing matches.
func optionTitle(options []any, value any) string {
	if id, ok := value.(string); ok {
		for _, option := range options {
			o, ok := option.(map[string]any)
			if !ok {
				continue
			}
			if o["id"] == id {
				if title, ok := o["title"].(string); ok {
					return title
				}
			}
		}
	}
	return ToStringValue(value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
