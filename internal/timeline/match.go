package timeline

import (
	"strings"

	"timeline.metlink.nz/internal/metlink"
)

// Matches reports whether an upstream record belongs to the target
// route/direction. Route identifiers arrive as either numbers or strings,
// so both sides are compared in coerced string form; the route short name
// is accepted as an alternative match because the feed is inconsistent
// about which identifying field it populates. Direction must match
// exactly — a record without a usable direction never matches.
func Matches(rec metlink.Record, target Target) bool {
	dir, ok := rec.Int("direction_id")
	if !ok || dir != target.DirectionID {
		return false
	}

	if id := rec.String("route_id"); id != "" && id == target.RouteID {
		return true
	}
	if short := rec.String("route_short_name"); short != "" && target.RouteShortName != "" &&
		strings.EqualFold(short, target.RouteShortName) {
		return true
	}
	return false
}
