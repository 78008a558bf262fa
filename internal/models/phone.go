package models

import "time"

// TrackedPhone is a labeled phone number with its last known coordinate, stored as one row of tracked_phones.
type TrackedPhone struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Label       string    `json:"label"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTrackedPhone is the insert shape of a tracked phone. ID and timestamps are assigned by the database.
type NewTrackedPhone struct {
	PhoneNumber string  `json:"phone_number"`
	Label       string  `json:"label,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// ValidCoordinates reports whether lat and lng are finite and inside the WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
