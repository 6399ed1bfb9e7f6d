package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timeline.metlink.nz/internal/catalog"
	"timeline.metlink.nz/internal/logging"
	"timeline.metlink.nz/internal/metrics"
)

// clockSkewTolerance bounds how far in the past a predicted time may sit
// before it is read as a next-service-day occurrence instead of clamped to
// "due now".
const clockSkewTolerance = 90

// hubKeywords flag major interchange stops by name. Case-insensitive
// substring match against the stop name.
var hubKeywords = []string{
	"station", "interchange", "terminal", "centre", "plaza",
	"wellington", "petone", "lower hutt", "upper hutt", "masterton",
	"johnsonville", "porirua", "paraparaumu", "waikanae",
}

// IsHubStop reports whether a stop name marks a major hub/interchange.
func IsHubStop(stopName string) bool {
	name := strings.ToLower(stopName)
	for _, kw := range hubKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// FormatETA renders a clamped ETA in seconds for display: seconds below a
// minute, minutes and seconds below an hour, hours and minutes beyond.
func FormatETA(sec int64) string {
	switch {
	case sec <= 0:
		return "Due now"
	case sec < 60:
		return fmt.Sprintf("%ds", sec)
	case sec < 3600:
		return fmt.Sprintf("%dm %ds", sec/60, sec%60)
	default:
		return fmt.Sprintf("%dh %dm", sec/3600, (sec%3600)/60)
	}
}

// Builder reconciles the static stop pattern with both real-time feeds
// into an ordered timeline. Only the stop pattern is structurally
// required; every real-time enrichment degrades to the scheduled fallback
// instead of failing the build.
type Builder struct {
	catalog     *catalog.Catalog
	predictions *PredictionFetcher
	tripUpdates *TripUpdateFetcher
	logger      *slog.Logger
	now         func() time.Time
}

// NewBuilder wires a Builder from its collaborators.
func NewBuilder(cat *catalog.Catalog, predictions *PredictionFetcher, tripUpdates *TripUpdateFetcher, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		catalog:     cat,
		predictions: predictions,
		tripUpdates: tripUpdates,
		logger:      logger.With(slog.String("component", "timeline_builder")),
		now:         time.Now,
	}
}

// Build produces the reconciled timeline for the target route/direction.
// It fails only when the stop pattern itself is unavailable.
func (b *Builder) Build(ctx context.Context, target Target) (*Timeline, error) {
	start := time.Now()

	pattern, err := b.catalog.StopPattern(ctx, target.RouteID, target.DirectionID)
	if err != nil {
		metrics.ObserveBuild("structural_failure", time.Since(start))
		return nil, err
	}

	now := b.now()
	tl := &Timeline{
		RouteID:     target.RouteID,
		DirectionID: target.DirectionID,
		GeneratedAt: now,
		Stops:       []TimelineStop{},
	}
	if len(pattern) == 0 {
		metrics.ObserveBuild("empty", time.Since(start))
		return tl, nil
	}

	if target.RouteShortName == "" {
		target.RouteShortName = b.catalog.RouteShortName(ctx, target.RouteID)
	}

	stopIDs := make([]string, len(pattern))
	for i, entry := range pattern {
		stopIDs[i] = entry.StopID
	}
	predicted := b.predictions.FetchAll(ctx, stopIDs, target)

	tripIDs, err := b.catalog.TripIDs(ctx, target.RouteID, target.DirectionID)
	if err != nil {
		logging.LogError(b.logger, "trip id lookup failed, matching trip updates by descriptor only", err)
		tripIDs = nil
	}
	updates := b.tripUpdates.Fetch(ctx, target, tripIDs)
	merged := FillGaps(predicted, updates)

	origin := ServiceDayOrigin(now)
	tl.Stops = make([]TimelineStop, 0, len(pattern))
	for i, entry := range pattern {
		stop := TimelineStop{
			StopID:        entry.StopID,
			StopName:      entry.StopName,
			Sequence:      entry.Sequence,
			ScheduledTime: entry.ScheduledTime(),
			Lat:           entry.Lat,
			Lon:           entry.Lon,
			IsDeparture:   i == 0,
			IsDestination: i == len(pattern)-1,
			IsHub:         IsHubStop(entry.StopName),
		}

		source := SourceScheduled
		raw := stop.ScheduledTime
		if preds := merged[entry.StopID]; len(preds) > 0 {
			raw = preds[0].ExpectedTime
			source = preds[0].Source
			stop.PredictionCount = len(preds)
		}

		if instant, ok := Normalize(raw, origin); ok {
			eta := etaSecondsAt(instant, now)
			stop.EtaSeconds = &eta
			stop.EtaDisplay = FormatETA(eta)
			stop.TimeSource = source
			stop.NextDeparture = raw
		} else {
			stop.TimeSource = SourceUnknown
			stop.EtaDisplay = "Unknown"
		}
		tl.Stops = append(tl.Stops, stop)
	}

	b.logger.Debug("timeline built",
		slog.String("route_id", target.RouteID),
		slog.Int("direction_id", target.DirectionID),
		slog.Int("stops", len(tl.Stops)),
		slog.Int("real_time_stops", tl.RealtimeCount()))
	metrics.ObserveBuild("success", time.Since(start))
	return tl, nil
}

// etaSecondsAt computes the clamped ETA. A slightly-past instant is clock
// skew and reads as due now; anything further back is the same clock time
// on the next service day.
func etaSecondsAt(instant, now time.Time) int64 {
	delta := int64(instant.Sub(now) / time.Second)
	if delta >= 0 {
		return delta
	}
	if delta >= -clockSkewTolerance {
		return 0
	}
	delta += 24 * 3600
	if delta < 0 {
		delta = 0
	}
	return delta
}
