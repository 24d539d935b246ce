package runtime

import (
	"context"
)

const flightLookupTask = "flight-lookup"

func (d *Dispatcher) travelInit() (ScreenResponse, error) {
	flow, ok := d.flows.Flow(FlowTravel)
	if !ok {
		return ScreenResponse{}, NewFlowError(ErrorTypePermanent, ErrorCodeUnhandledRequest, "flow "+FlowTravel+" is not loaded")
	}
	screen, err := d.screen(FlowTravel, flow.InitScreen)
	if err != nil {
		return ScreenResponse{}, err
	}
	return ScreenResponse{Screen: flow.InitScreen, Data: screen.Template()}, nil
}

// travelExchange handles a data_exchange on a TRAVEL screen. The boolean
// result is false when the screen has no data_exchange step.
func (d *Dispatcher) travelExchange(ex *Exchange) (ScreenResponse, bool, error) {
	switch ex.Request.Screen {
	case ScreenTravel:
		response, err := d.travelSelection(ex)
		return response, true, err

	case ScreenFlight:
		screen, err := d.screen(FlowTravel, ScreenFlight)
		if err != nil {
			return ScreenResponse{}, true, err
		}
		return ScreenResponse{
			Screen: ScreenFlight,
			Data:   merge(screen.Template(), ex.Request.Data),
		}, true, nil

	default:
		return ScreenResponse{}, false, nil
	}
}

// travelSelection echoes the chosen flight date and type on the flight
// screen and starts the availability lookup in the background. The lookup
// result is cached for the flow token, never returned here.
func (d *Dispatcher) travelSelection(ex *Exchange) (ScreenResponse, error) {
	screen, err := d.screen(FlowTravel, ScreenFlight)
	if err != nil {
		return ScreenResponse{}, err
	}

	receivedDate, hasDate := coalesce(ex, "FlightDate", "calendar")
	receivedType, hasType := coalesce(ex, "FlightType", "appointment_type")

	data := screen.Template()
	if hasDate {
		data["FlightDate"] = receivedDate
	}
	if hasType {
		data["FlightType"] = receivedType
	}

	d.prefetchFlights(ex, FlightQuery{
		FlightDate: ToStringValue(receivedDate),
		FlightType: ToStringValue(receivedType),
	})

	return ScreenResponse{Screen: ScreenFlight, Data: data}, nil
}

func (d *Dispatcher) prefetchFlights(ex *Exchange, query FlightQuery) {
	if d.lookup == nil {
		return
	}

	token := ex.Request.FlowToken
	d.tasks.Go(ex, flightLookupTask, func(ctx context.Context) error {
		rows, err := d.lookup.Lookup(ctx, query)
		if err != nil {
			return err
		}

		d.l.InfoContext(ctx, "Flight lookup completed",
			"exchange_id", ex.ID,
			"flow_token", token,
			"rows", len(rows))

		if d.store == nil || token == "" {
			return nil
		}
		return d.store.Put(ctx, token, rows)
	})
}

// coalesce returns the first non-null submitted value among keys.
func coalesce(ex *Exchange, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := ex.Field(key); ok {
			return v, true
		}
	}
	return nil, false
}
