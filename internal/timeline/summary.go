package timeline

import "strings"

// Summarize flattens the timeline into scalar display fields and compact
// preview strings for surfaces that cannot render the nested structure.
// The direction label is opaque display text supplied by configuration;
// the reconciliation pipeline never interprets it.
func (t *Timeline) Summarize(directionLabel string) *Summary {
	s := &Summary{
		RouteID:        t.RouteID,
		DirectionID:    t.DirectionID,
		DirectionLabel: directionLabel,
		TotalStops:     len(t.Stops),
		RealtimeStops:  t.RealtimeCount(),
		GeneratedAt:    t.GeneratedAt,
	}
	if len(t.Stops) == 0 {
		return s
	}

	s.DepartureStop = t.Stops[0].StopName
	s.DestinationStop = t.Stops[len(t.Stops)-1].StopName
	for _, hub := range t.HubStops() {
		s.HubStops = append(s.HubStops, hub.StopName)
	}

	if next := t.NextStop(); next != nil {
		s.NextETASeconds = next.EtaSeconds
		s.NextETADisplay = next.EtaDisplay
		s.NextDeparture = next.NextDeparture
		s.TimeSource = next.TimeSource
	}

	s.StopsPreview = t.stopsPreview()
	s.TimesPreview = t.timesPreview()
	return s
}

// previewStops picks the stops worth naming in a one-line preview: the
// departure stop, every hub, and the destination.
func (t *Timeline) previewStops() []TimelineStop {
	var picked []TimelineStop
	for _, s := range t.Stops {
		if s.IsDeparture || s.IsDestination || s.IsHub {
			picked = append(picked, s)
		}
	}
	return picked
}

func (t *Timeline) stopsPreview() string {
	var names []string
	for _, s := range t.previewStops() {
		names = append(names, s.StopName)
	}
	return strings.Join(names, " > ")
}

func (t *Timeline) timesPreview() string {
	var parts []string
	for _, s := range t.previewStops() {
		parts = append(parts, s.StopName+" "+s.EtaDisplay)
	}
	return strings.Join(parts, "; ")
}
