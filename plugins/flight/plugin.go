package flight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/BDNK1/flowendpoint/runtime"
	"github.com/BDNK1/flowendpoint/tracing"
)

// Config holds the flight API configuration with declarative tags.
// BaseURL is checked at call time: a missing or invalid URL disables the
// lookup instead of failing startup.
type Config struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMS   int    `yaml:"timeout_ms" default:"5000" validate:"gte=1"`
	PaymentType string `yaml:"payment_type" default:"ONLINE" validate:"required"`
	Debug       bool   `yaml:"debug" default:"false"`
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Client calls the flight selection API and shapes its rows.
type Client struct {
	Config Config
	l      *slog.Logger
	client *resty.Client
	now    func() time.Time
}

func NewClient(config Config, l *slog.Logger) *Client {
	if l == nil {
		l = slog.Default()
	}
	return &Client{
		Config: config,
		l:      l,
		client: newRestyClient(config),
		now:    time.Now,
	}
}

func newRestyClient(config Config) *resty.Client {
	return resty.New().
		SetTimeout(config.Timeout()).
		SetRetryCount(0).
		SetDebug(config.Debug)
}

// Initialize implements runtime.Lifecycle. It only reports a disabled
// lookup; the client itself is built by NewClient.
func (c *Client) Initialize(ctx context.Context) error {
	if c.client == nil {
		c.client = newRestyClient(c.Config)
	}
	if c.Config.BaseURL == "" {
		c.l.WarnContext(ctx, "FLIGHT_SELECTION_API_URL is empty. Flight lookups are disabled.")
	} else if !runtime.IsHTTPURL(c.Config.BaseURL) {
		c.l.WarnContext(ctx, "Invalid FLIGHT_SELECTION_API_URL provided", "url", c.Config.BaseURL)
	}
	return nil
}

// Shutdown implements runtime.Lifecycle.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.client != nil {
		c.client.GetClient().CloseIdleConnections()
	}
	return nil
}

// Lookup fetches, deduplicates and time-filters flights for query.
// Missing inputs or an unusable base URL yield an empty result and no error.
func (c *Client) Lookup(ctx context.Context, query runtime.FlightQuery) (rows []runtime.FlightRow, err error) {
	if query.FlightDate == "" || query.FlightType == "" {
		return []runtime.FlightRow{}, nil
	}

	if c.Config.BaseURL == "" {
		c.l.WarnContext(ctx, "FLIGHT_SELECTION_API_URL is empty. Skipping flight selection API call.")
		return []runtime.FlightRow{}, nil
	}

	if !runtime.IsHTTPURL(c.Config.BaseURL) {
		c.l.WarnContext(ctx, "Invalid FLIGHT_SELECTION_API_URL provided", "url", c.Config.BaseURL)
		return []runtime.FlightRow{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, "flight.lookup", "CLIENT")
	defer func() { tracing.EndSpan(span, err) }()

	flightDate := ToOracleDate(query.FlightDate)
	span.WithAttributes(map[string]string{
		"flight.type":  query.FlightType,
		"flight.date":  flightDate,
		"payment.type": c.Config.PaymentType,
	})

	requestURL, err := BuildRequestURL(c.Config.BaseURL, query.FlightType, flightDate, c.Config.PaymentType)
	if err != nil {
		return nil, runtime.NewFlowError(runtime.ErrorTypePermanent, runtime.ErrorCodeFlightRequest,
			"error building flight API URL").WithCause(err)
	}

	c.l.InfoContext(ctx, "Triggering flight selection API",
		"url", c.Config.BaseURL,
		"flight_type", query.FlightType,
		"flight_date", flightDate,
		"payment_type", c.Config.PaymentType)

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	parsed, err := ExtractRows(body)
	if err != nil {
		return nil, err
	}

	unique := Deduplicate(parsed)

	reference, err := ReferenceTime(query.Time, c.now())
	if err != nil {
		c.l.WarnContext(ctx, "Invalid reference time, skipping time filter",
			"time", query.Time,
			"error", err.Error())
		return unique, nil
	}

	rows = FilterAhead(unique, reference, MinLeadTime)

	c.l.InfoContext(ctx, "Flight selection API rows",
		"received", len(parsed),
		"unique", len(unique),
		"kept", len(rows))

	return rows, nil
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(requestURL)

	if err != nil {
		if isTimeout(err) {
			return nil, runtime.NewFlowError(runtime.ErrorTypeTimeout, runtime.ErrorCodeFlightTimeout,
				fmt.Sprintf("Flight API call timeout after %dms", c.Config.TimeoutMS)).WithCause(err)
		}
		return nil, runtime.NewFlowError(runtime.ErrorTypeTransient, runtime.ErrorCodeFlightRequest,
			"Flight API call failed").WithCause(err)
	}

	c.l.DebugContext(ctx, "Flight API response received",
		"status", resp.StatusCode(),
		"body", resp.String())

	if !resp.IsSuccess() {
		errorType := runtime.ErrorTypePermanent
		if resp.StatusCode() >= 500 {
			errorType = runtime.ErrorTypeTransient
		}
		return nil, runtime.NewFlowError(errorType, runtime.ErrorCodeFlightStatus,
			fmt.Sprintf("Flight API call failed with status %d: %s", resp.StatusCode(), resp.String())).
			WithMeta("status_code", resp.StatusCode()).
			WithMeta("body", resp.String())
	}

	return resp.Body(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
