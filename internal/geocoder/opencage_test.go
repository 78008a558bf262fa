package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"phone-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCage_Search(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expected    []models.GeolocationResult
		expectError bool
	}{
		{
			name:   "single result",
			status: http.StatusOK,
			body:   `{"results":[{"geometry":{"lat":48.8566,"lng":2.3522},"components":{"city":"Paris","country":"France"}}]}`,
			expected: []models.GeolocationResult{
				{Latitude: 48.8566, Longitude: 2.3522, City: "Paris", Country: "France"},
			},
		},
		{
			name:   "county fallback",
			status: http.StatusOK,
			body:   `{"results":[{"geometry":{"lat":1,"lng":2},"components":{"county":"Kent","country":"United Kingdom"}}]}`,
			expected: []models.GeolocationResult{
				{Latitude: 1, Longitude: 2, City: "Kent", Country: "United Kingdom"},
			},
		},
		{
			name:     "empty results",
			status:   http.StatusOK,
			body:     `{"results":[]}`,
			expected: []models.GeolocationResult{},
		},
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{}`,
			expectError: true,
		},
		{
			name:        "invalid json",
			status:      http.StatusOK,
			body:        `not json`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery, gotKey, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.Query().Get("q")
				gotKey = r.URL.Query().Get("key")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewOpenCage(srv.URL, "demo", srv.Client())
			results, err := client.Search(context.Background(), "+1 (212) 555-0100")

			assert.Equal(t, "/geocode/v1/json", gotPath)
			assert.Equal(t, "+1 (212) 555-0100", gotQuery)
			assert.Equal(t, "demo", gotKey)

			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, results)
		})
	}
}
