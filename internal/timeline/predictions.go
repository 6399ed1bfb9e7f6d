package timeline

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"timeline.metlink.nz/internal/logging"
	"timeline.metlink.nz/internal/metlink"
)

// maxPredictionsPerStop caps how many upcoming departures are kept per
// stop; only the soonest matters for the ETA and the rest are context.
const maxPredictionsPerStop = 3

// PredictionAPI is the slice of the upstream client the fetcher consumes.
type PredictionAPI interface {
	StopPredictions(ctx context.Context, stopID string) ([]metlink.Record, error)
}

// PredictionFetcher retrieves stop-level predictions for a set of stops
// concurrently, capped at a fixed concurrency to respect upstream rate
// limits. A failure for one stop never aborts the others.
type PredictionFetcher struct {
	api    PredictionAPI
	limit  int
	logger *slog.Logger
}

// NewPredictionFetcher creates a fetcher with the given concurrency limit.
func NewPredictionFetcher(api PredictionAPI, limit int, logger *slog.Logger) *PredictionFetcher {
	if limit <= 0 {
		limit = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionFetcher{
		api:    api,
		limit:  limit,
		logger: logger.With(slog.String("component", "prediction_fetcher")),
	}
}

// FetchAll returns matched predictions per stop ID. Stops whose fetch
// failed are present with a nil slice so downstream fallback logic sees
// them as prediction-less rather than missing.
func (f *PredictionFetcher) FetchAll(ctx context.Context, stopIDs []string, target Target) map[string][]Prediction {
	results := make([][]Prediction, len(stopIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.limit)
	for i, stopID := range stopIDs {
		i, stopID := i, stopID
		g.Go(func() error {
			records, err := f.api.StopPredictions(gctx, stopID)
			if err != nil {
				logging.LogError(f.logger, "stop predictions fetch failed", err,
					slog.String("stop_id", stopID))
				return nil
			}
			results[i] = matchPredictions(records, stopID, target)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()

	byStop := make(map[string][]Prediction, len(stopIDs))
	for i, stopID := range stopIDs {
		byStop[stopID] = results[i]
	}
	return byStop
}

// matchPredictions filters raw prediction records to the target
// route/direction, sorts them by departure time and caps the result.
func matchPredictions(records []metlink.Record, stopID string, target Target) []Prediction {
	var matched []Prediction
	for _, rec := range records {
		if !Matches(rec, target) {
			continue
		}
		raw := departureTimeOf(rec)
		if raw == "" {
			continue
		}
		matched = append(matched, Prediction{
			StopID:         stopID,
			RouteID:        rec.String("route_id"),
			RouteShortName: rec.String("route_short_name"),
			DirectionID:    target.DirectionID,
			ExpectedTime:   raw,
			TripID:         rec.String("trip_id"),
			Source:         SourceRealtime,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ExpectedTime < matched[j].ExpectedTime
	})
	if len(matched) > maxPredictionsPerStop {
		matched = matched[:maxPredictionsPerStop]
	}
	return matched
}

// departureTimeOf digs the departure time out of a prediction record,
// accepting both the flat departure_time field and the nested
// departure.expected / departure.aimed shape the feed sometimes uses.
func departureTimeOf(rec metlink.Record) string {
	if raw := rec.String("departure_time"); raw != "" {
		return raw
	}
	if dep := rec.Map("departure"); dep != nil {
		if raw := dep.String("expected"); raw != "" {
			return raw
		}
		return dep.String("aimed")
	}
	return ""
}
