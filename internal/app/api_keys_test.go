package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestHasInvalidAPIKey(t *testing.T) {
	app := &Application{Config: Config{ApiKeys: []string{"alpha", "beta"}}}

	tests := []struct {
		name    string
		url     string
		invalid bool
	}{
		{"accepted key", "/api/v1/timeline/0?key=alpha", false},
		{"second accepted key", "/api/v1/timeline/0?key=beta", false},
		{"unknown key", "/api/v1/timeline/0?key=gamma", true},
		{"missing key", "/api/v1/timeline/0", true},
		{"empty key", "/api/v1/timeline/0?key=", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			assert.Equal(t, tt.invalid, app.RequestHasInvalidAPIKey(r))
		})
	}
}

func TestRequestHasInvalidAPIKeyNoKeysConfigured(t *testing.T) {
	app := &Application{}
	r := httptest.NewRequest("GET", "/api/v1/timeline/0?key=anything", nil)
	assert.True(t, app.RequestHasInvalidAPIKey(r))
}
