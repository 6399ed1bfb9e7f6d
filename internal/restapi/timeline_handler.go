package restapi

import (
	"errors"
	"net/http"

	"timeline.metlink.nz/internal/catalog"
	"timeline.metlink.nz/internal/timeline"
	"timeline.metlink.nz/internal/utils"
)

func (api *RestAPI) coordinatorForRequest(w http.ResponseWriter, r *http.Request) *timeline.Coordinator {
	direction, ok := utils.ExtractDirectionFromParams(r)
	if !ok {
		api.badRequestResponse(w, r, "direction must be 0 or 1")
		return nil
	}
	coord, ok := api.Coordinators[direction]
	if !ok {
		api.notFoundResponse(w, r, "direction not watched")
		return nil
	}
	return coord
}

func (api *RestAPI) timelineHandler(w http.ResponseWriter, r *http.Request) {
	coord := api.coordinatorForRequest(w, r)
	if coord == nil {
		return
	}

	tl := coord.Timeline()
	if tl == nil {
		// No successful poll yet; build on demand. Overlapping requests
		// share the in-flight build.
		var err error
		tl, err = coord.Refresh(r.Context())
		if err != nil {
			if errors.Is(err, catalog.ErrStopPatternUnavailable) {
				api.notFoundResponse(w, r, "no data available")
				return
			}
			api.serverErrorResponse(w, r, err)
			return
		}
	}

	api.writeResponse(w, http.StatusOK, "OK", tl)
}

func (api *RestAPI) summaryHandler(w http.ResponseWriter, r *http.Request) {
	coord := api.coordinatorForRequest(w, r)
	if coord == nil {
		return
	}

	summary := coord.Summary()
	if summary == nil {
		tl, err := coord.Refresh(r.Context())
		if err != nil {
			if errors.Is(err, catalog.ErrStopPatternUnavailable) {
				api.notFoundResponse(w, r, "no data available")
				return
			}
			api.serverErrorResponse(w, r, err)
			return
		}
		summary = tl.Summarize(api.Timeline.DirectionLabel(coord.Target().DirectionID))
	}

	api.writeResponse(w, http.StatusOK, "OK", summary)
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	type coordinatorHealth struct {
		DirectionID int    `json:"direction_id"`
		LastSuccess string `json:"last_success,omitempty"`
		LastError   string `json:"last_error,omitempty"`
	}

	var health []coordinatorHealth
	healthy := false
	for direction, coord := range api.Coordinators {
		entry := coordinatorHealth{DirectionID: direction}
		if t := coord.LastSuccess(); !t.IsZero() {
			entry.LastSuccess = t.UTC().Format("2006-01-02T15:04:05Z07:00")
			healthy = true
		}
		if err := coord.LastError(); err != nil {
			entry.LastError = err.Error()
		}
		health = append(health, entry)
	}

	status := http.StatusOK
	text := "OK"
	if !healthy {
		status = http.StatusServiceUnavailable
		text = "no data yet"
	}
	api.writeResponse(w, status, text, health)
}
