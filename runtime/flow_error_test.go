package runtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFlowError_Error(t *testing.T) {
	err := NewFlowError(ErrorTypeTimeout, ErrorCodeFlightTimeout, "Flight API call timeout after 5000ms")
	expected := "[timeout/FLIGHT_API_TIMEOUT] Flight API call timeout after 5000ms"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	err.WithStep("Travel_Screen")
	if !strings.HasSuffix(err.Error(), "(step: Travel_Screen)") {
		t.Errorf("Expected step suffix, got %q", err.Error())
	}
}

func TestFlowError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewFlowError(ErrorTypeTransient, ErrorCodeFlightRequest, "Flight API call failed").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}

	wrapped := fmt.Errorf("lookup: %w", err)
	flowErr, ok := AsFlowError(wrapped)
	if !ok {
		t.Fatal("Expected AsFlowError to find the FlowError")
	}
	if flowErr.Code != ErrorCodeFlightRequest {
		t.Errorf("Expected code FLIGHT_API_REQUEST, got %s", flowErr.Code)
	}

	if _, ok := AsFlowError(cause); ok {
		t.Error("Expected plain error not to be a FlowError")
	}
}

func TestFlowError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code     FlowErrorCode
		expected int
	}{
		{ErrorCodeFlightTimeout, http.StatusGatewayTimeout},
		{ErrorCodeFlightStatus, http.StatusBadGateway},
		{ErrorCodeFlightParse, http.StatusBadGateway},
		{ErrorCodeFlightRequest, http.StatusBadGateway},
		{ErrorCodeUnhandledRequest, http.StatusInternalServerError},
		{ErrorCodeGateEvaluation, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewFlowError(ErrorTypePermanent, tt.code, "boom")
			if got := err.HTTPStatus(); got != tt.expected {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFlowError_IsRetryable(t *testing.T) {
	if !NewFlowError(ErrorTypeTransient, ErrorCodeFlightStatus, "").IsRetryable() {
		t.Error("Expected transient error to be retryable")
	}
	if !NewFlowError(ErrorTypeTimeout, ErrorCodeFlightTimeout, "").IsRetryable() {
		t.Error("Expected timeout error to be retryable")
	}
	if NewFlowError(ErrorTypePermanent, ErrorCodeFlightParse, "").IsRetryable() {
		t.Error("Expected permanent error not to be retryable")
	}
}

func TestErrUnhandledRequest(t *testing.T) {
	err := ErrUnhandledRequest("data_exchange", "UNKNOWN")

	if err.Code != ErrorCodeUnhandledRequest {
		t.Errorf("Expected code UNHANDLED_REQUEST, got %s", err.Code)
	}
	if err.Step != "UNKNOWN" {
		t.Errorf("Expected step UNKNOWN, got %s", err.Step)
	}
	if err.Meta["action"] != "data_exchange" {
		t.Errorf("Expected action meta, got %v", err.Meta["action"])
	}
	if !strings.Contains(err.Message, "Unhandled endpoint request") {
		t.Errorf("Unexpected message %q", err.Message)
	}
}
