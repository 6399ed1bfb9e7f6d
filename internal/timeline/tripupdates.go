package timeline

import (
	"context"
	"log/slog"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"

	"timeline.metlink.nz/internal/logging"
	"timeline.metlink.nz/internal/metlink"
)

// TripUpdateAPI is the slice of the upstream client the trip-update path
// consumes.
type TripUpdateAPI interface {
	TripUpdatesFeed(ctx context.Context) ([]byte, error)
}

// TripUpdateFetcher turns the GTFS-RT trip-updates feed into per-stop
// fallback records for one route/direction.
type TripUpdateFetcher struct {
	api    TripUpdateAPI
	logger *slog.Logger
}

// NewTripUpdateFetcher creates a TripUpdateFetcher.
func NewTripUpdateFetcher(api TripUpdateAPI, logger *slog.Logger) *TripUpdateFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripUpdateFetcher{
		api:    api,
		logger: logger.With(slog.String("component", "trip_update_fetcher")),
	}
}

// Fetch retrieves the feed once and flattens matching stop time updates
// into per-stop records. tripIDs is the set of trips known to serve the
// target route/direction; a trip matching either that set or the route
// matcher rules on its descriptor is accepted. Any failure yields an empty
// map: trip updates are fallback enrichment, never a build-stopper.
func (f *TripUpdateFetcher) Fetch(ctx context.Context, target Target, tripIDs map[string]bool) map[string][]Prediction {
	payload, err := f.api.TripUpdatesFeed(ctx)
	if err != nil {
		logging.LogError(f.logger, "trip updates fetch failed", err)
		return nil
	}
	return f.decode(payload, target, tripIDs)
}

func (f *TripUpdateFetcher) decode(payload []byte, target Target, tripIDs map[string]bool) map[string][]Prediction {
	byStop := make(map[string][]Prediction)

	feed := &gtfsrt.FeedMessage{}
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(payload, feed); err == nil && len(feed.Entity) > 0 {
		for _, e := range feed.Entity {
			tu := e.GetTripUpdate()
			if tu == nil {
				continue
			}
			trip := tu.GetTrip()
			tripID := trip.GetTripId()
			if !f.tripMatches(tripID, trip.GetRouteId(), trip.DirectionId, target, tripIDs) {
				continue
			}
			for _, stu := range tu.GetStopTimeUpdate() {
				stopID := stu.GetStopId()
				dep := stu.GetDeparture()
				if stopID == "" || dep == nil || dep.GetTime() == 0 {
					continue
				}
				byStop[stopID] = append(byStop[stopID], tripUpdateRecord(stopID, tripID, dep.GetTime(), target))
			}
		}
		return byStop
	}

	// The feed does not always conform to the FeedMessage schema: payloads
	// have been observed as bare entity arrays and as objects with numeric
	// identifiers protojson rejects. Walk the JSON loosely instead.
	f.logger.Debug("trip updates payload is not a FeedMessage, falling back to loose decoding")
	for _, entity := range looseEntities(payload) {
		tu := entity.Map("trip_update")
		if tu == nil {
			continue
		}
		trip := tu.Map("trip")
		tripID := trip.String("trip_id")
		var dirPtr *uint32
		if d, ok := trip.Int("direction_id"); ok {
			u := uint32(d)
			dirPtr = &u
		}
		if !f.tripMatches(tripID, trip.String("route_id"), dirPtr, target, tripIDs) {
			continue
		}
		for _, stu := range tu.Slice("stop_time_update") {
			stopID := stu.String("stop_id")
			dep := stu.Map("departure")
			if stopID == "" || dep == nil {
				continue
			}
			ts, ok := dep.Int("time")
			if !ok || ts == 0 {
				continue
			}
			byStop[stopID] = append(byStop[stopID], tripUpdateRecord(stopID, tripID, int64(ts), target))
		}
	}
	return byStop
}

// tripMatches accepts a trip when its ID is in the known set for the
// route/direction, or when its descriptor alone satisfies the route
// matcher rules.
func (f *TripUpdateFetcher) tripMatches(tripID, routeID string, directionID *uint32, target Target, tripIDs map[string]bool) bool {
	if tripID != "" && tripIDs[tripID] {
		return true
	}
	if routeID == "" || directionID == nil {
		return false
	}
	rec := metlink.Record{
		"route_id":     routeID,
		"direction_id": float64(*directionID),
	}
	return Matches(rec, target)
}

func tripUpdateRecord(stopID, tripID string, unixTime int64, target Target) Prediction {
	return Prediction{
		StopID:       stopID,
		RouteID:      target.RouteID,
		DirectionID:  target.DirectionID,
		ExpectedTime: time.Unix(unixTime, 0).Local().Format("15:04:05"),
		TripID:       tripID,
		Source:       SourceTripUpdate,
	}
}

// looseEntities extracts the entity list from a loosely decoded feed,
// accepting both {"entity": [...]} objects and bare arrays.
func looseEntities(payload []byte) []metlink.Record {
	records := metlink.DecodeRecords(payload)
	if len(records) == 1 {
		if inner := records[0].Slice("entity"); inner != nil {
			return inner
		}
	}
	return records
}
