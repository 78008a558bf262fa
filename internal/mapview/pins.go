package mapview

import (
	"fmt"
	"time"

	"phone-tracker/internal/models"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// TimestampLayout formats the last-updated line of a popup.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Popup is the text shown when a pin is opened.
type Popup struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Coordinates string `json:"coordinates"`
	Updated     string `json:"updated"`
}

// Pin is one tracked phone on the map.
type Pin struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	PhoneNumber string `json:"phone_number"`
	Position    LatLng `json:"position"`
	Geohash     string `json:"geohash"`
	Selected    bool   `json:"selected"`
	Popup       Popup  `json:"popup"`
}

// Pins builds one pin per phone, in list order. Timestamps are rendered in loc.
func Pins(phones []models.TrackedPhone, selectedID string, loc *time.Location) []Pin {
	if loc == nil {
		loc = time.Local
	}

	pins := make([]Pin, 0, len(phones))
	for _, p := range phones {
		pins = append(pins, Pin{
			ID:          p.ID,
			Label:       p.Label,
			PhoneNumber: p.PhoneNumber,
			Position:    LatLng{Lat: p.Latitude, Lng: p.Longitude},
			Geohash:     geohash.Encode(p.Latitude, p.Longitude),
			Selected:    selectedID != "" && p.ID == selectedID,
			Popup: Popup{
				Title:       p.Label,
				Subtitle:    p.PhoneNumber,
				Coordinates: fmt.Sprintf("%.4f, %.4f", p.Latitude, p.Longitude),
				Updated:     p.LastUpdated.In(loc).Format(TimestampLayout),
			},
		})
	}
	return pins
}

// View is a rendered map: viewport plus pins.
type View struct {
	Viewport Viewport `json:"viewport"`
	Pins     []Pin    `json:"pins"`
}

// Render frames phones on a fresh map of the given canvas.
func Render(phones []models.TrackedPhone, selectedID string, canvas Canvas, loc *time.Location) View {
	m := NewMap(canvas)
	m.Update(phones, selectedID)
	return View{Viewport: m.Viewport(), Pins: Pins(phones, selectedID, loc)}
}
