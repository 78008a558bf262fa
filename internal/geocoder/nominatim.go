package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"phone-tracker/internal/models"
)

// Nominatim queries the OpenStreetMap Nominatim search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatim creates a Nominatim client. Nominatim requires an identifying User-Agent.
func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimPlace struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		City    string `json:"city"`
		County  string `json:"county"`
		Country string `json:"country"`
	} `json:"address"`
}

// Search returns at most one place matching the free-text query.
func (n *Nominatim) Search(ctx context.Context, query string) ([]models.GeolocationResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	header := http.Header{}
	header.Set("User-Agent", n.userAgent)

	var places []nominatimPlace
	if err := getJSON(ctx, n.client, n.baseURL+"/search", params, header, &places); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	results := make([]models.GeolocationResult, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: invalid latitude %q: %w", p.Lat, err)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: invalid longitude %q: %w", p.Lon, err)
		}

		city := p.Address.City
		if city == "" {
			city = p.Address.County
		}

		results = append(results, models.GeolocationResult{
			Latitude:  lat,
			Longitude: lon,
			City:      city,
			Country:   p.Address.Country,
		})
	}

	return results, nil
}
