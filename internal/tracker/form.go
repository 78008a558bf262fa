// Package tracker holds the interactive behaviour of the phone tracker: the tracking form,
// the phone list and the coordinator that keeps both in sync with the change feed.
package tracker

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"

	"phone-tracker/internal/client"
	"phone-tracker/internal/models"
)

// Form messages.
const (
	MsgPhoneRequired        = "Please enter a phone number"
	MsgPhoneRequiredFirst   = "Please enter a phone number first"
	MsgAutoDetectFailed     = "Failed to auto-detect location"
	MsgGeolocateFailed      = "Failed to geolocate phone number"
	MsgInvalidCoordinates   = "Invalid coordinates. Latitude must be between -90 and 90, longitude between -180 and 180"
	MsgAddFailed            = "Failed to add phone"
	MsgGeolocationNoSupport = "Geolocation is not supported on this device"
	msgPositionFailedPrefix = "Failed to get location: "
)

// ErrBusy is returned when the form is asked to act while a submission is in flight.
var ErrBusy = errors.New("tracker: form is busy")

// Phase is the state of the form.
type Phase string

const (
	PhaseEditing     Phase = "editing"
	PhaseSubmitting  Phase = "submitting"
	PhaseGeolocating Phase = "geolocating"
)

// FormAPI interface for dependency injection
type FormAPI interface {
	Geolocate(ctx context.Context, phoneNumber string) (models.GeolocationResult, error)
	InsertPhone(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error)
}

// Position is a device position fix.
type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionSource reports the position of the device running the tracker.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Fields are the raw text inputs of the form.
type Fields struct {
	PhoneNumber string
	Label       string
	Latitude    string
	Longitude   string
}

// FormState is what the form shows.
type FormState struct {
	Fields
	Phase    Phase
	Locating bool
	Error    string
}

// Form collects a phone number and coordinates and inserts a tracked phone.
type Form struct {
	api     FormAPI
	onAdded func(context.Context)

	mu       sync.Mutex
	fields   Fields
	phase    Phase
	locating bool
	errMsg   string
}

// NewForm creates a form. onAdded runs after every successful insert and may be nil.
func NewForm(api FormAPI, onAdded func(context.Context)) *Form {
	return &Form{api: api, onAdded: onAdded, phase: PhaseEditing}
}

// Set replaces the field values.
func (f *Form) Set(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// State returns the current form state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState{Fields: f.fields, Phase: f.phase, Locating: f.locating, Error: f.errMsg}
}

// Submit inserts the phone described by the fields. When either coordinate is blank the
// geolocation proxy is asked first. On failure the returned error carries the message the
// form shows and the fields are kept.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseEditing {
		f.mu.Unlock()
		return ErrBusy
	}
	f.phase = PhaseSubmitting
	f.errMsg = ""
	fields := f.fields
	f.mu.Unlock()

	var lat, lng float64
	if fields.Latitude == "" || fields.Longitude == "" {
		if fields.PhoneNumber == "" {
			return f.fail(MsgPhoneRequired)
		}

		f.setPhase(PhaseGeolocating)
		result, err := f.api.Geolocate(ctx, fields.PhoneNumber)
		if err != nil {
			return f.fail(MsgAutoDetectFailed)
		}
		f.setPhase(PhaseSubmitting)
		lat, lng = result.Latitude, result.Longitude
	} else {
		var ok bool
		lat, lng, ok = parseCoordinates(strings.TrimSpace(fields.Latitude), strings.TrimSpace(fields.Longitude))
		if !ok {
			return f.fail(MsgInvalidCoordinates)
		}
	}

	if !models.ValidCoordinates(lat, lng) {
		return f.fail(MsgInvalidCoordinates)
	}

	label := fields.Label
	if strings.TrimSpace(label) == "" {
		label = fields.PhoneNumber
	}

	_, err := f.api.InsertPhone(ctx, models.NewTrackedPhone{
		PhoneNumber: fields.PhoneNumber,
		Label:       label,
		Latitude:    lat,
		Longitude:   lng,
	})
	if err != nil {
		return f.fail(apiMessage(err, MsgAddFailed))
	}

	f.mu.Lock()
	f.fields = Fields{}
	f.phase = PhaseEditing
	f.mu.Unlock()

	if f.onAdded != nil {
		f.onAdded(ctx)
	}
	return nil
}

// AutoLocate fills the coordinates from the geolocation proxy without submitting.
func (f *Form) AutoLocate(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseEditing || f.locating {
		f.mu.Unlock()
		return ErrBusy
	}
	phone := f.fields.PhoneNumber
	if phone == "" {
		f.errMsg = MsgPhoneRequiredFirst
		f.mu.Unlock()
		return errors.New(MsgPhoneRequiredFirst)
	}
	f.locating = true
	f.errMsg = ""
	f.mu.Unlock()

	result, err := f.api.Geolocate(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.locating = false
	if err != nil {
		f.errMsg = MsgGeolocateFailed
		return errors.New(f.errMsg)
	}
	f.fields.Latitude = formatCoordinate(result.Latitude)
	f.fields.Longitude = formatCoordinate(result.Longitude)
	return nil
}

// UseCurrentLocation fills the coordinates from src. It does not change the form phase.
func (f *Form) UseCurrentLocation(ctx context.Context, src PositionSource) error {
	if src == nil {
		return f.setError(MsgGeolocationNoSupport)
	}

	pos, err := src.CurrentPosition(ctx)
	if err != nil {
		return f.setError(msgPositionFailedPrefix + err.Error())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Latitude = formatCoordinate(pos.Latitude)
	f.fields.Longitude = formatCoordinate(pos.Longitude)
	return nil
}

func (f *Form) setPhase(p Phase) {
	f.mu.Lock()
	f.phase = p
	f.mu.Unlock()
}

func (f *Form) setError(msg string) error {
	f.mu.Lock()
	f.errMsg = msg
	f.mu.Unlock()
	return errors.New(msg)
}

func (f *Form) fail(msg string) error {
	f.mu.Lock()
	f.phase = PhaseEditing
	f.errMsg = msg
	f.mu.Unlock()
	return errors.New(msg)
}

func parseCoordinates(latText, lngText string) (lat, lng float64, ok bool) {
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil || math.IsNaN(lat) {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(lngText, 64)
	if err != nil || math.IsNaN(lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// apiMessage returns the message of an API error payload, or fallback for anything else.
func apiMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
