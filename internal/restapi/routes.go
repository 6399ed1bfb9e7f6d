package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// Routes wires the exposed surface: the timeline and summary accessors,
// a health probe and the metrics endpoint.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodGet, "/api/v1/timeline/:direction", validateAPIKey(api, api.timelineHandler))
	router.Handler(http.MethodGet, "/api/v1/summary/:direction", validateAPIKey(api, api.summaryHandler))
	router.Handler(http.MethodGet, "/healthz", http.HandlerFunc(api.healthHandler))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return api.logRequests(router)
}
