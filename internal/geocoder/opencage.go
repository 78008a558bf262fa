package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"phone-tracker/internal/models"
)

// OpenCage queries the OpenCage forward geocoding API.
type OpenCage struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenCage creates an OpenCage client.
func NewOpenCage(baseURL, apiKey string, client *http.Client) *OpenCage {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenCage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Components struct {
			City    string `json:"city"`
			County  string `json:"county"`
			Country string `json:"country"`
		} `json:"components"`
	} `json:"results"`
}

// Search returns at most one place matching the free-text query.
func (o *OpenCage) Search(ctx context.Context, query string) ([]models.GeolocationResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", o.apiKey)
	params.Set("limit", "1")

	var body openCageResponse
	if err := getJSON(ctx, o.client, o.baseURL+"/geocode/v1/json", params, nil, &body); err != nil {
		return nil, fmt.Errorf("opencage: %w", err)
	}

	results := make([]models.GeolocationResult, 0, len(body.Results))
	for _, r := range body.Results {
		city := r.Components.City
		if city == "" {
			city = r.Components.County
		}
		results = append(results, models.GeolocationResult{
			Latitude:  r.Geometry.Lat,
			Longitude: r.Geometry.Lng,
			City:      city,
			Country:   r.Components.Country,
		})
	}

	return results, nil
}
