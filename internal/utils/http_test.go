package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestExtractDirectionFromParams(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"1", 1, true},
		{"2", 0, false},
		{"-1", 0, false},
		{"north", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			router := httprouter.New()
			var got int
			var ok bool
			router.Handler(http.MethodGet, "/t/:direction",
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got, ok = ExtractDirectionFromParams(r)
				}))
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/t/"+tt.raw, nil))

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
