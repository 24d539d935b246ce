package runtime

import (
	"errors"
	"fmt"
	"net/http"
)

// FlowErrorType classifies error severity and retry behavior.
type FlowErrorType string

const (
	// ErrorTypeTransient signals the operation can be retried.
	ErrorTypeTransient FlowErrorType = "transient"
	// ErrorTypePermanent signals the operation should not be retried.
	ErrorTypePermanent FlowErrorType = "permanent"
	// ErrorTypeTimeout signals the operation was cancelled by a deadline.
	ErrorTypeTimeout FlowErrorType = "timeout"
)

// FlowErrorCode identifies known error codes.
type FlowErrorCode string

const (
	ErrorCodeUnhandledRequest FlowErrorCode = "UNHANDLED_REQUEST"
	ErrorCodeGateEvaluation   FlowErrorCode = "GATE_EVALUATION"

	ErrorCodeFlightRequest FlowErrorCode = "FLIGHT_API_REQUEST"
	ErrorCodeFlightTimeout FlowErrorCode = "FLIGHT_API_TIMEOUT"
	ErrorCodeFlightStatus  FlowErrorCode = "FLIGHT_API_STATUS"
	ErrorCodeFlightParse   FlowErrorCode = "FLIGHT_API_PARSE"
)

// FlowError is the canonical error type returned by the dispatcher and the
// flight lookup. It is JSON-serializable so it can be written to a response.
type FlowError struct {
	Type    FlowErrorType  `json:"type"`
	Code    FlowErrorCode  `json:"code"`
	Message string         `json:"message"`
	Step    string         `json:"step,omitempty"`
	Cause   error          `json:"-"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func NewFlowError(errorType FlowErrorType, code FlowErrorCode, message string) *FlowError {
	return &FlowError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Meta:    make(map[string]any),
	}
}

func (e *FlowError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s/%s] %s (step: %s)", e.Type, e.Code, e.Message, e.Step)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// WithCause records the underlying error
func (e *FlowError) WithCause(err error) *FlowError {
	e.Cause = err
	return e
}

// WithStep records the screen or stage that failed
func (e *FlowError) WithStep(step string) *FlowError {
	e.Step = step
	return e
}

// WithMeta adds metadata to the error
func (e *FlowError) WithMeta(key string, value any) *FlowError {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// IsRetryable reports whether retrying the operation may succeed.
func (e *FlowError) IsRetryable() bool {
	return e.Type == ErrorTypeTransient || e.Type == ErrorTypeTimeout
}

// HTTPStatus maps the error onto the status returned to the chat client.
func (e *FlowError) HTTPStatus() int {
	switch e.Code {
	case ErrorCodeFlightTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeFlightStatus, ErrorCodeFlightParse, ErrorCodeFlightRequest:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AsFlowError extracts a *FlowError from err's chain.
func AsFlowError(err error) (*FlowError, bool) {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}

// ErrUnhandledRequest builds the error returned for an unknown action/screen
// combination.
func ErrUnhandledRequest(action, screen string) *FlowError {
	return NewFlowError(ErrorTypePermanent, ErrorCodeUnhandledRequest,
		"Unhandled endpoint request. Make sure you handle the request action & screen logged above.").
		WithStep(screen).
		WithMeta("action", action)
}
