package runtime

import "math"

// Action names sent by the chat client.
const (
	ActionPing         = "ping"
	ActionInit         = "INIT"
	ActionDataExchange = "data_exchange"
	ActionComplete     = "complete"
)

// Flow identifiers used by the embedded flow tables.
const (
	FlowAppointment = "APPOINTMENT"
	FlowTravel      = "TRAVEL"
)

// Screen names referenced by the per-flow handlers.
const (
	ScreenAppointment = "APPOINTMENT"
	ScreenDetails     = "DETAILS"
	ScreenSummary     = "SUMMARY"
	ScreenTerms       = "TERMS"
	ScreenTravel      = "Travel_Screen"
	ScreenFlight      = "Flight_screen"
	ScreenSuccess     = "SUCCESS"
)

// Request is the decrypted body posted by the chat client.
type Request struct {
	Version   string         `json:"version,omitempty"`
	Action    string         `json:"action"`
	Screen    string         `json:"screen,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	FlowToken string         `json:"flow_token,omitempty"`
}

// ScreenResponse is the next screen returned to the chat client. Screen is
// empty for health checks and error acknowledgements.
type ScreenResponse struct {
	Screen string         `json:"screen,omitempty"`
	Data   map[string]any `json:"data"`
}

// Flow is one static screen graph loaded from flows/*.yaml.
type Flow struct {
	ID         string            `yaml:"id"`
	InitScreen string            `yaml:"init_screen"`
	Screens    map[string]Screen `yaml:"screens"`
}

// Screen holds the template payload of a screen plus optional shaping rules.
type Screen struct {
	Data map[string]any `yaml:"data"`
	// Init overrides Data when the screen is served for an INIT action.
	Init map[string]any `yaml:"init,omitempty"`
	// Gates maps a boolean field to an expression over the submitted data.
	Gates map[string]string `yaml:"gates,omitempty"`
	// Limits truncates option lists to the given length.
	Limits map[string]int `yaml:"limits,omitempty"`
}

// Template returns a deep copy of the screen's data so callers can shape it
// without touching the loaded table.
func (s Screen) Template() map[string]any {
	return cloneMap(s.Data)
}

// Options returns the option list stored under key, or nil.
func (s Screen) Options(key string) []any {
	options, _ := s.Data[key].([]any)
	return options
}

func cloneMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = cloneValue(v)
	}
	return result
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = cloneValue(item)
		}
		return result
	default:
		return v
	}
}

// merge copies every entry of src into dst, overwriting existing keys.
func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

// truthy follows the client's notion of a filled-in field.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}
