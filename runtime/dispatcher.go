package runtime

import (
	"context"
	"log/slog"
)

// Dispatcher routes a decrypted request to the handler of the flow owning
// its screen and returns the next screen.
type Dispatcher struct {
	l         *slog.Logger
	flows     *Registry
	evaluator *ExpressionEvaluator
	lookup    FlightLookup
	store     PrefetchStore
	tasks     *Background
}

func NewDispatcher(l *slog.Logger, flows *Registry, evaluator *ExpressionEvaluator, lookup FlightLookup, store PrefetchStore, tasks *Background) *Dispatcher {
	if l == nil {
		l = slog.Default()
	}
	if evaluator == nil {
		evaluator = NewExpressionEvaluator()
	}
	if tasks == nil {
		tasks = NewBackground(l, DefaultFailureBuffer)
	}
	return &Dispatcher{
		l:         l,
		flows:     flows,
		evaluator: evaluator,
		lookup:    lookup,
		store:     store,
		tasks:     tasks,
	}
}

// GetNextScreen computes the response for one request. It fails with an
// UNHANDLED_REQUEST FlowError when no action/screen combination matches.
func (d *Dispatcher) GetNextScreen(ctx context.Context, request Request) (ScreenResponse, error) {
	ex := NewExchange(ctx, request)
	data := ex.Request.Data

	// health check
	if ex.Request.Action == ActionPing {
		return ScreenResponse{Data: map[string]any{"status": "active"}}, nil
	}

	// error notification from the client
	if truthy(data["error"]) {
		d.l.WarnContext(ex, "Received client error", "data", data)
		return ScreenResponse{Data: map[string]any{"acknowledged": true}}, nil
	}

	screen := ex.Request.Screen

	switch ex.Request.Action {
	case ActionInit:
		if d.flows.Owns(FlowTravel, screen) {
			return d.travelInit()
		}
		return d.appointmentInit()

	case ActionDataExchange:
		if d.flows.Owns(FlowTravel, screen) {
			response, ok, err := d.travelExchange(ex)
			if err != nil || ok {
				return response, err
			}
		}
		if d.flows.Owns(FlowAppointment, screen) {
			response, ok, err := d.appointmentExchange(ex)
			if err != nil || ok {
				return response, err
			}
		}

	case ActionComplete:
		if d.flows.Owns(FlowTravel, screen) || d.flows.Owns(FlowAppointment, screen) {
			return successResponse(ex.Request.FlowToken, data), nil
		}
	}

	body, _ := structToMap(ex.Request)
	d.l.ErrorContext(ex, "Unhandled request body",
		"exchange_id", ex.ID,
		"body", body)
	return ScreenResponse{}, ErrUnhandledRequest(ex.Request.Action, screen)
}

// Tasks returns the background runner used for fire-and-forget work.
func (d *Dispatcher) Tasks() *Background {
	return d.tasks
}

func (d *Dispatcher) screen(flowID, name string) (Screen, error) {
	flow, ok := d.flows.Flow(flowID)
	if !ok {
		return Screen{}, NewFlowError(ErrorTypePermanent, ErrorCodeUnhandledRequest, "flow "+flowID+" is not loaded")
	}
	screen, ok := flow.Screens[name]
	if !ok {
		return Screen{}, NewFlowError(ErrorTypePermanent, ErrorCodeUnhandledRequest, "screen "+name+" is not defined").WithStep(name)
	}
	return screen, nil
}

// successResponse builds the terminal envelope. Submitted data is spread
// after the token, so a flow_token field in data wins.
func successResponse(flowToken string, data map[string]any) ScreenResponse {
	params := map[string]any{"flow_token": flowToken}
	merge(params, data)

	return ScreenResponse{
		Screen: ScreenSuccess,
		Data: map[string]any{
			"extension_message_response": map[string]any{
				"params": params,
			},
		},
	}
}
