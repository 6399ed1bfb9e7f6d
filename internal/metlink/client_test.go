package metlink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeline.metlink.nz/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "secret-key", 2*time.Second, nil)
	return client, server
}

func TestClientSendsCredentials(t *testing.T) {
	var gotKey, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotAccept = r.Header.Get("accept")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Routes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClientStopTimesRequiresTripID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.StopTimes(context.Background(), "")
	assert.Error(t, err)
}

func TestClientStopTimesPassesTripID(t *testing.T) {
	var gotTripID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTripID = r.URL.Query().Get("trip_id")
		_, _ = w.Write([]byte(`[{"stop_id":"1001","stop_sequence":1}]`))
	})

	records, err := client.StopTimes(context.Background(), "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "trip-1", gotTripID)
	require.Len(t, records, 1)
	assert.Equal(t, "1001", records[0].String("stop_id"))
}

func TestClientCatalogErrorOnNon200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Routes(context.Background())
	assert.Error(t, err)
}

func TestClientStopPredictionsSwallowsNon200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	records, err := client.StopPredictions(context.Background(), "1001")
	assert.NoError(t, err, "a failed predictions call is enrichment, not an error")
	assert.Empty(t, records)
}

func TestClientHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret-key", 50*time.Millisecond, nil)
	start := time.Now()
	_, err := client.Routes(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "timeout should cut the call short")
}

func TestClientValidateKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"agency_id":"MET"}]`))
		})
		assert.True(t, client.ValidateKey(context.Background()))
	})

	t.Run("rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		assert.False(t, client.ValidateKey(context.Background()))
	})
}

func TestClientTripUpdatesFeed(t *testing.T) {
	payload := `{"header":{"timestamp":1}, "entity":[]}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointTripUpdates, r.URL.Path)
		_, _ = w.Write([]byte(payload))
	})

	body, err := client.TripUpdatesFeed(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(body))
}

type errCloseBody struct{ io.Reader }

func (errCloseBody) Close() error { return errors.New("close failed") }

// failingCloseTransport serves a fixed body whose Close always errors.
type failingCloseTransport struct{}

func (failingCloseTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       errCloseBody{strings.NewReader("[]")},
		Header:     make(http.Header),
		Request:    r,
	}, nil
}

func TestClientLogsCloseFailureToRequestLogger(t *testing.T) {
	client := NewClient("http://upstream", "secret-key", time.Second, nil)
	client.httpClient = &http.Client{Transport: failingCloseTransport{}}

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(),
		logging.NewStructuredLogger(&buf, slog.LevelInfo))

	_, err := client.Routes(ctx)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "failed to close resource")
	assert.Contains(t, output, "http_response_body")
}
