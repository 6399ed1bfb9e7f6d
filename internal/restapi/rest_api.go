package restapi

import (
	"timeline.metlink.nz/internal/app"
)

// RestAPI exposes the reconciled timeline over HTTP.
type RestAPI struct {
	*app.Application
}

// NewRestAPI creates a new RestAPI instance.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{Application: app}
}
