package timeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTripUpdateAPI struct {
	payload []byte
	err     error
}

func (f *fakeTripUpdateAPI) TripUpdatesFeed(ctx context.Context) ([]byte, error) {
	return f.payload, f.err
}

func clockOf(unix int64) string {
	return time.Unix(unix, 0).Local().Format("15:04:05")
}

func TestTripUpdateFetchFeedMessage(t *testing.T) {
	departure := time.Now().Add(10 * time.Minute).Unix()
	payload := fmt.Sprintf(`{
		"header": {"gtfs_realtime_version": "2.0", "timestamp": %d},
		"entity": [
			{
				"id": "1",
				"trip_update": {
					"trip": {"trip_id": "trip-0", "route_id": "83", "direction_id": 0},
					"stop_time_update": [
						{"stop_id": "1001", "departure": {"time": %d}},
						{"stop_id": "1002", "departure": {"time": 0}},
						{"stop_id": "", "departure": {"time": %d}}
					]
				}
			},
			{
				"id": "2",
				"trip_update": {
					"trip": {"trip_id": "other", "route_id": "2", "direction_id": 0},
					"stop_time_update": [{"stop_id": "1001", "departure": {"time": %d}}]
				}
			}
		]
	}`, time.Now().Unix(), departure, departure, departure)

	f := NewTripUpdateFetcher(&fakeTripUpdateAPI{payload: []byte(payload)}, nil)
	target := Target{RouteID: "83", DirectionID: 0}

	byStop := f.Fetch(context.Background(), target, map[string]bool{"trip-0": true})

	require.Len(t, byStop, 1, "zero departures and blank stop IDs are dropped")
	require.Len(t, byStop["1001"], 1)
	p := byStop["1001"][0]
	assert.Equal(t, "trip-0", p.TripID)
	assert.Equal(t, SourceTripUpdate, p.Source)
	assert.Equal(t, clockOf(departure), p.ExpectedTime)
}

func TestTripUpdateDescriptorMatchWithoutKnownTrips(t *testing.T) {
	departure := time.Now().Add(5 * time.Minute).Unix()
	payload := fmt.Sprintf(`{
		"header": {"gtfs_realtime_version": "2.0", "timestamp": %d},
		"entity": [{
			"id": "1",
			"trip_update": {
				"trip": {"trip_id": "unlisted", "route_id": "83", "direction_id": 0},
				"stop_time_update": [{"stop_id": "1001", "departure": {"time": %d}}]
			}
		}]
	}`, time.Now().Unix(), departure)

	f := NewTripUpdateFetcher(&fakeTripUpdateAPI{payload: []byte(payload)}, nil)
	target := Target{RouteID: "83", DirectionID: 0}

	byStop := f.Fetch(context.Background(), target, nil)
	require.Len(t, byStop["1001"], 1, "a trip outside the known set still matches on its descriptor")

	wrongDirection := Target{RouteID: "83", DirectionID: 1}
	assert.Empty(t, f.Fetch(context.Background(), wrongDirection, nil))
}

func TestTripUpdateLooseBareArray(t *testing.T) {
	departure := time.Now().Add(5 * time.Minute).Unix()
	payload := fmt.Sprintf(`[
		{
			"trip_update": {
				"trip": {"trip_id": "trip-0", "route_id": 83, "direction_id": 0},
				"stop_time_update": [{"stop_id": "1001", "departure": {"time": %d}}]
			}
		},
		{"alert": {}}
	]`, departure)

	f := NewTripUpdateFetcher(&fakeTripUpdateAPI{payload: []byte(payload)}, nil)
	target := Target{RouteID: "83", DirectionID: 0}

	byStop := f.Fetch(context.Background(), target, map[string]bool{"trip-0": true})
	require.Len(t, byStop["1001"], 1)
	assert.Equal(t, clockOf(departure), byStop["1001"][0].ExpectedTime)
}

func TestTripUpdateGarbagePayload(t *testing.T) {
	f := NewTripUpdateFetcher(&fakeTripUpdateAPI{payload: []byte("not json at all")}, nil)
	byStop := f.Fetch(context.Background(), Target{RouteID: "83"}, nil)
	assert.Empty(t, byStop)
}

func TestTripUpdateFetchFailure(t *testing.T) {
	f := NewTripUpdateFetcher(&fakeTripUpdateAPI{err: errors.New("timeout")}, nil)
	byStop := f.Fetch(context.Background(), Target{RouteID: "83"}, nil)
	assert.Empty(t, byStop)
}
