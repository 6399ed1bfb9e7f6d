package utils

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// ExtractDirectionFromParams reads the :direction route parameter and
// validates it as a GTFS direction (0 or 1).
func ExtractDirectionFromParams(r *http.Request) (int, bool) {
	params := httprouter.ParamsFromContext(r.Context())
	raw := params.ByName("direction")
	d, err := strconv.Atoi(raw)
	if err != nil || (d != 0 && d != 1) {
		return 0, false
	}
	return d, true
}
