package timeline

import "time"

// TimeSource records the provenance of a stop's displayed time.
type TimeSource string

const (
	SourceRealtime   TimeSource = "realtime"
	SourceTripUpdate TimeSource = "trip_update"
	SourceScheduled  TimeSource = "scheduled"
	SourceUnknown    TimeSource = "unknown"
)

// Target identifies the route and direction being reconciled. Matching
// against it is tolerant: route identifiers are compared in string form and
// the short display name is accepted as an alternative identifier, because
// the upstream feed varies which of the two it populates.
type Target struct {
	RouteID        string
	RouteShortName string
	DirectionID    int
}

// Prediction is one real-time departure prediction for a stop, already
// matched to the target route/direction. Ephemeral; never cached across
// polls.
type Prediction struct {
	StopID         string
	RouteID        string
	RouteShortName string
	DirectionID    int
	ExpectedTime   string // raw clock string, HH:MM or HH:MM:SS
	TripID         string
	Source         TimeSource
}

// TimelineStop is the reconciled output unit for one stop of the pattern.
type TimelineStop struct {
	StopID          string     `json:"stop_id"`
	StopName        string     `json:"stop_name"`
	Sequence        int        `json:"stop_sequence"`
	ScheduledTime   string     `json:"scheduled_time,omitempty"`
	NextDeparture   string     `json:"next_departure,omitempty"`
	EtaSeconds      *int64     `json:"eta_seconds"`
	EtaDisplay      string     `json:"eta_display"`
	TimeSource      TimeSource `json:"time_source"`
	PredictionCount int        `json:"prediction_count"`
	Lat             float64    `json:"stop_lat,omitempty"`
	Lon             float64    `json:"stop_lon,omitempty"`
	IsDeparture     bool       `json:"is_departure"`
	IsDestination   bool       `json:"is_destination"`
	IsHub           bool       `json:"is_hub"`
}

// Timeline is the ordered, annotated stop sequence for one route/direction
// at one instant. Stops are ordered by GTFS stop sequence, never by
// arrival time.
type Timeline struct {
	RouteID     string         `json:"route_id"`
	DirectionID int            `json:"direction_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Stops       []TimelineStop `json:"stops"`
}

// NextStop returns the first stop in sequence with a known ETA, or nil.
func (t *Timeline) NextStop() *TimelineStop {
	for i := range t.Stops {
		if t.Stops[i].EtaSeconds != nil {
			return &t.Stops[i]
		}
	}
	return nil
}

// DestinationStop returns the final stop of the pattern, or nil when the
// timeline is empty.
func (t *Timeline) DestinationStop() *TimelineStop {
	if len(t.Stops) == 0 {
		return nil
	}
	return &t.Stops[len(t.Stops)-1]
}

// HubStops returns the stops flagged as interchange hubs, in sequence order.
func (t *Timeline) HubStops() []TimelineStop {
	var hubs []TimelineStop
	for _, s := range t.Stops {
		if s.IsHub {
			hubs = append(hubs, s)
		}
	}
	return hubs
}

// RealtimeCount returns how many stops carry a live prediction.
func (t *Timeline) RealtimeCount() int {
	n := 0
	for _, s := range t.Stops {
		if s.TimeSource == SourceRealtime {
			n++
		}
	}
	return n
}

// Summary is the flattened view of a timeline for display surfaces that
// cannot render the nested structure.
type Summary struct {
	RouteID         string     `json:"route_id"`
	DirectionID     int        `json:"direction_id"`
	DirectionLabel  string     `json:"direction_label,omitempty"`
	TotalStops      int        `json:"total_stops"`
	RealtimeStops   int        `json:"real_time_stops"`
	DepartureStop   string     `json:"departure_stop,omitempty"`
	DestinationStop string     `json:"destination_stop,omitempty"`
	HubStops        []string   `json:"hub_stops,omitempty"`
	NextETASeconds  *int64     `json:"next_eta_seconds"`
	NextETADisplay  string     `json:"next_eta_display,omitempty"`
	NextDeparture   string     `json:"next_departure,omitempty"`
	TimeSource      TimeSource `json:"time_source,omitempty"`
	StopsPreview    string     `json:"stops_preview,omitempty"`
	TimesPreview    string     `json:"times_preview,omitempty"`
	GeneratedAt     time.Time  `json:"generated_at"`
}
