package app

import "net/http"

// RequestHasInvalidAPIKey reports whether the request lacks a valid API key
// for the exposed surface. The upstream Metlink credential is separate and
// never accepted here.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	return app.isInvalidAPIKey(key)
}

func (app *Application) isInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.ApiKeys {
		if key == validKey {
			return false
		}
	}

	return true
}
