package metlink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"timeline.metlink.nz/internal/logging"
	"timeline.metlink.nz/internal/metrics"
)

// API endpoint paths under the Metlink Open Data base URL.
const (
	EndpointAgency          = "/gtfs/agency"
	EndpointRoutes          = "/gtfs/routes"
	EndpointStops           = "/gtfs/stops"
	EndpointTrips           = "/gtfs/trips"
	EndpointStopTimes       = "/gtfs/stop_times"
	EndpointTripUpdates     = "/gtfs-rt/tripupdates"
	EndpointStopPredictions = "/stop-predictions"
)

// Client talks to the Metlink Open Data API. Every call carries the API key
// header and runs under a per-call timeout; callers cancel via context.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given base URL and API key. A zero
// timeout disables the per-call deadline.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.With(slog.String("component", "metlink_client")),
	}
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(endpoint, "error", time.Since(start))
		return nil, 0, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	// Request-scoped logger: polls attach their route/direction attributes
	// via logging.WithLogger.
	defer logging.SafeCloseWithLogging(resp.Body, logging.FromContext(ctx), "http_response_body")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveUpstreamRequest(endpoint, "error", time.Since(start))
		return nil, resp.StatusCode, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}
	metrics.ObserveUpstreamRequest(endpoint, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
	return body, resp.StatusCode, nil
}

func (c *Client) getRecords(ctx context.Context, endpoint string, query url.Values) ([]Record, error) {
	body, status, err := c.get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("upstream returned HTTP %d for %s", status, endpoint)
	}
	return DecodeRecords(body), nil
}

// ValidateKey probes the agency endpoint to check the configured API key.
func (c *Client) ValidateKey(ctx context.Context) bool {
	_, err := c.getRecords(ctx, EndpointAgency, nil)
	return err == nil
}

// Routes fetches all GTFS routes.
func (c *Client) Routes(ctx context.Context) ([]Record, error) {
	return c.getRecords(ctx, EndpointRoutes, nil)
}

// Stops fetches all GTFS stops.
func (c *Client) Stops(ctx context.Context) ([]Record, error) {
	return c.getRecords(ctx, EndpointStops, nil)
}

// Trips fetches all GTFS trips.
func (c *Client) Trips(ctx context.Context) ([]Record, error) {
	return c.getRecords(ctx, EndpointTrips, nil)
}

// StopTimes fetches stop times for one trip. The endpoint requires the
// trip_id parameter; calling it without one is an upstream client error.
func (c *Client) StopTimes(ctx context.Context, tripID string) ([]Record, error) {
	if tripID == "" {
		return nil, fmt.Errorf("stop_times requires a trip_id")
	}
	q := url.Values{}
	q.Set("trip_id", tripID)
	return c.getRecords(ctx, EndpointStopTimes, q)
}

// StopPredictions fetches real-time departure predictions for one stop.
// A non-200 response yields an empty list, not an error: predictions are
// enrichment and their absence must never abort a timeline build.
func (c *Client) StopPredictions(ctx context.Context, stopID string) ([]Record, error) {
	q := url.Values{}
	if stopID != "" {
		q.Set("stop_id", stopID)
	}
	body, status, err := c.get(ctx, EndpointStopPredictions, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Warn("stop predictions request failed",
			slog.Int("status", status), slog.String("stop_id", stopID))
		return nil, nil
	}
	return DecodeRecords(body), nil
}

// TripUpdatesFeed fetches the raw GTFS-RT trip updates payload. Decoding is
// left to the caller since the feed shape varies.
func (c *Client) TripUpdatesFeed(ctx context.Context) ([]byte, error) {
	body, status, err := c.get(ctx, EndpointTripUpdates, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("upstream returned HTTP %d for %s", status, EndpointTripUpdates)
	}
	return body, nil
}
