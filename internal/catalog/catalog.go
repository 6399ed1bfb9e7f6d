package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"timeline.metlink.nz/internal/metlink"
)

// ErrStopPatternUnavailable marks the one structural failure in the
// pipeline: without an ordered stop pattern there is nothing to build a
// timeline on.
var ErrStopPatternUnavailable = errors.New("stop pattern unavailable")

// Resource kinds, each cached independently.
const (
	resourceRoutes      = "routes"
	resourceStops       = "stops"
	resourceTrips       = "trips"
	resourceStopPattern = "stop_pattern"
)

// Route is the validated subset of a GTFS route row the pipeline needs.
type Route struct {
	ID        string
	ShortName string
	LongName  string
	Desc      string
	Type      int
}

// StopPatternEntry is one stop of a route/direction's ordered stop pattern,
// joined from trips, stop_times and stops. Immutable once assembled.
type StopPatternEntry struct {
	StopID        string
	Sequence      int
	StopName      string
	ArrivalTime   string
	DepartureTime string
	Lat           float64
	Lon           float64
}

// ScheduledTime returns the scheduled departure for this stop, falling back
// to the arrival when the departure is absent.
func (e StopPatternEntry) ScheduledTime() string {
	if e.DepartureTime != "" {
		return e.DepartureTime
	}
	return e.ArrivalTime
}

// API is the slice of the upstream client the catalog consumes.
type API interface {
	Routes(ctx context.Context) ([]metlink.Record, error)
	Stops(ctx context.Context) ([]metlink.Record, error)
	Trips(ctx context.Context) ([]metlink.Record, error)
	StopTimes(ctx context.Context, tripID string) ([]metlink.Record, error)
}

// Catalog serves GTFS reference data behind a TTL cache so that a polling
// timeline does not refetch routes, stops and trips on every cycle.
type Catalog struct {
	api    API
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Catalog with the given TTL for all resource kinds.
func New(api API, ttl time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		api:    api,
		cache:  NewCache(),
		ttl:    ttl,
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// Routes returns all routes, typed and keyed access left to callers.
func (c *Catalog) Routes(ctx context.Context) ([]Route, error) {
	v, err := c.cache.Get(ctx, resourceRoutes, "all", c.ttl, func(ctx context.Context) (any, error) {
		records, err := c.api.Routes(ctx)
		if err != nil {
			return nil, err
		}
		routes := make([]Route, 0, len(records))
		for _, r := range records {
			id := r.String("route_id")
			if id == "" {
				continue
			}
			routeType, _ := r.Int("route_type")
			routes = append(routes, Route{
				ID:        id,
				ShortName: r.String("route_short_name"),
				LongName:  r.String("route_long_name"),
				Desc:      r.String("route_desc"),
				Type:      routeType,
			})
		}
		return routes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Route), nil
}

// RouteShortName resolves the display short name for a route ID. Unknown
// routes yield an empty string, not an error: the short name only widens
// the route matcher.
func (c *Catalog) RouteShortName(ctx context.Context, routeID string) string {
	routes, err := c.Routes(ctx)
	if err != nil {
		c.logger.Warn("route short name lookup failed", slog.String("error", err.Error()))
		return ""
	}
	for _, r := range routes {
		if r.ID == routeID {
			return r.ShortName
		}
	}
	return ""
}

func (c *Catalog) stopsByID(ctx context.Context) (map[string]metlink.Record, error) {
	v, err := c.cache.Get(ctx, resourceStops, "all", c.ttl, func(ctx context.Context) (any, error) {
		records, err := c.api.Stops(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]metlink.Record, len(records))
		for _, r := range records {
			if id := r.String("stop_id"); id != "" {
				byID[id] = r
			}
		}
		return byID, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]metlink.Record), nil
}

func (c *Catalog) trips(ctx context.Context) ([]metlink.Record, error) {
	v, err := c.cache.Get(ctx, resourceTrips, "all", c.ttl, func(ctx context.Context) (any, error) {
		return c.api.Trips(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]metlink.Record), nil
}

// TripIDs returns the trip IDs serving a route/direction, used to match
// trip-update records to the watched route.
func (c *Catalog) TripIDs(ctx context.Context, routeID string, directionID int) (map[string]bool, error) {
	trips, err := c.trips(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, t := range trips {
		if t.String("route_id") != routeID {
			continue
		}
		if dir, ok := t.Int("direction_id"); !ok || dir != directionID {
			continue
		}
		if id := t.String("trip_id"); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

// StopPattern returns the ordered stops for a route/direction. The pattern
// is assembled from the first trip serving the direction: its stop_times
// sorted by stop_sequence, joined against the stops table. Cached per
// (route, direction).
func (c *Catalog) StopPattern(ctx context.Context, routeID string, directionID int) ([]StopPatternEntry, error) {
	key := fmt.Sprintf("%s|%d", routeID, directionID)
	v, err := c.cache.Get(ctx, resourceStopPattern, key, c.ttl, func(ctx context.Context) (any, error) {
		return c.buildStopPattern(ctx, routeID, directionID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStopPatternUnavailable, err)
	}
	return v.([]StopPatternEntry), nil
}

func (c *Catalog) buildStopPattern(ctx context.Context, routeID string, directionID int) ([]StopPatternEntry, error) {
	trips, err := c.trips(ctx)
	if err != nil {
		return nil, err
	}

	var sampleTripID string
	for _, t := range trips {
		if t.String("route_id") != routeID {
			continue
		}
		if dir, ok := t.Int("direction_id"); !ok || dir != directionID {
			continue
		}
		if id := t.String("trip_id"); id != "" {
			sampleTripID = id
			break
		}
	}
	if sampleTripID == "" {
		return nil, fmt.Errorf("no trips for route %s direction %d", routeID, directionID)
	}

	stopTimes, err := c.api.StopTimes(ctx, sampleTripID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stopTimes, func(i, j int) bool {
		a, _ := stopTimes[i].Int("stop_sequence")
		b, _ := stopTimes[j].Int("stop_sequence")
		return a < b
	})

	stops, err := c.stopsByID(ctx)
	if err != nil {
		return nil, err
	}

	pattern := make([]StopPatternEntry, 0, len(stopTimes))
	for _, st := range stopTimes {
		stopID := st.String("stop_id")
		if stopID == "" {
			continue
		}
		info, ok := stops[stopID]
		if !ok {
			c.logger.Warn("stop missing from stops table", slog.String("stop_id", stopID))
			continue
		}
		seq, _ := st.Int("stop_sequence")
		lat, _ := info.Float("stop_lat")
		lon, _ := info.Float("stop_lon")
		pattern = append(pattern, StopPatternEntry{
			StopID:        stopID,
			Sequence:      seq,
			StopName:      info.String("stop_name"),
			ArrivalTime:   st.String("arrival_time"),
			DepartureTime: st.String("departure_time"),
			Lat:           lat,
			Lon:           lon,
		})
	}
	return pattern, nil
}
