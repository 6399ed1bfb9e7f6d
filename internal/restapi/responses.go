package restapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// responseModel is the envelope every endpoint answers with.
type responseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data,omitempty"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

func (api *RestAPI) writeResponse(w http.ResponseWriter, status int, text string, data interface{}) {
	response := responseModel{
		Code:        status,
		CurrentTime: time.Now().UnixMilli(),
		Data:        data,
		Text:        text,
		Version:     2,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode response", "error", err)
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response with the required
// format for invalid API key errors
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.writeResponse(w, http.StatusUnauthorized, "permission denied", nil)
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.Logger.Error("internal server error", "error", err, "path", r.URL.Path)
	api.writeResponse(w, http.StatusInternalServerError, "internal server error", nil)
}

func (api *RestAPI) notFoundResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.writeResponse(w, http.StatusNotFound, text, nil)
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.writeResponse(w, http.StatusBadRequest, text, nil)
}
