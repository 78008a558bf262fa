package models

// GeolocationResult is the best-effort position the geolocation proxy returns for a phone number.
type GeolocationResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// DefaultGeolocation is returned when no geocoder produced a result.
func DefaultGeolocation() GeolocationResult {
	return GeolocationResult{
		Latitude:  40.7128,
		Longitude: -74.006,
		City:      "New York",
		Country:   "United States",
	}
}
